package cmd

import (
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a CLEAR continual-learning benchmark",
	Long:  `Resolve the dataset per the evaluation protocol and assemble train/test streams of experiences`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "build"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		cfg.parseLabels()

		registry, err := loadConfiguredRegistry(cfg)
		if err != nil {
			fatal(err)
		}

		runID := strconv.FormatInt(time.Now().Unix(), 10)

		memoryMonitor := NewMemoryMonitor(&cfg)
		memoryMonitor.Start()

		log.WithFields(log.Fields{
			"dataset":  cfg.DatasetName,
			"protocol": cfg.EvaluationProtocol,
			"feature":  cfg.FeatureType,
			"seed":     cfg.Seed,
		}).Info("Building benchmark")

		before := time.Now()
		benchmark, err := CLEAR(CLEAROptions{
			EvaluationProtocol: cfg.EvaluationProtocol,
			FeatureType:        cfg.FeatureType,
			Seed:               cfg.seed(),
			DatasetRoot:        cfg.DatasetRoot,
			DatasetName:        cfg.DatasetName,
			Download:           cfg.Download,
			Registry:           registry,
		})
		if err != nil {
			fatal(err)
		}
		took := time.Since(before)

		memoryMonitor.Stop()

		result := newBuildResult(&cfg, benchmark, took, runID)

		log.WithFields(log.Fields{
			"experiences":   result.Experiences,
			"train_samples": result.TrainSamples,
			"test_samples":  result.TestSamples,
			"took":          took,
		}).Info("Benchmark ready")

		if err := writeResultsFile(&cfg, result); err != nil {
			fatal(err)
		}

		w, closeW, err := outputWriter(cfg)
		if err != nil {
			fatal(err)
		}
		defer closeW()

		if cfg.OutputFormat == "json" {
			benchmark.WriteJSONTo(w)
		} else {
			benchmark.WriteTextTo(w)
		}

		if cfg.OutputFile != "" {
			infof("benchmark summary succesfully written to %q", cfg.OutputFile)
		}

		if err := PushMetricsToPrometheus(&cfg, result); err != nil {
			log.WithError(err).Warn("Prometheus push failed, continuing")
		}
		if err := PushMetricsToInfluxDB(&cfg, result); err != nil {
			log.WithError(err).Warn("InfluxDB push failed, continuing")
		}
	},
}

func initBuild() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.PersistentFlags().StringVarP(&globalConfig.DatasetName,
		"dataset", "d", "clear10", "Dataset to benchmark, one of [clear10, clear100]")
	buildCmd.PersistentFlags().StringVarP(&globalConfig.DatasetRoot,
		"root", "r", "./datasets", "Local cache directory for datasets")
	buildCmd.PersistentFlags().StringVarP(&globalConfig.EvaluationProtocol,
		"protocol", "p", ProtocolStreaming, "Evaluation protocol, one of [iid, streaming]")
	buildCmd.PersistentFlags().IntVarP(&globalConfig.Seed,
		"seed", "s", -1, "Train/test split seed for the iid protocol, one of [0, 1, 2, 3, 4]")
	buildCmd.PersistentFlags().StringVarP(&globalConfig.FeatureType,
		"feature", "t", "", "Use pre-extracted feature tensors, e.g. moco_b0. Empty means raw images")
	buildCmd.PersistentFlags().BoolVar(&globalConfig.Download,
		"download", true, "Download the dataset when missing from the cache")
	buildCmd.PersistentFlags().StringVar(&globalConfig.RegistryFile,
		"registry", "", "YAML file overriding the built-in dataset registry")
	buildCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat,
		"format", "f", "text", "Output format, one of [text, json]")
	buildCmd.PersistentFlags().StringVarP(&globalConfig.OutputFile,
		"output", "o", "", "Filename for an output file. If none provided, output to stdout only")
	buildCmd.PersistentFlags().StringVar(&globalConfig.ResultsDir,
		"resultsDir", "./results", "Directory for per-run result JSON files")
	buildCmd.PersistentFlags().StringVarP(&globalConfig.Labels,
		"labels", "l", "", "Labels of format key1=value1,key2=value2,...")
	buildCmd.PersistentFlags().BoolVar(&globalConfig.MemoryMonitoringEnabled,
		"monitorMemory", false, "Sample heap usage while the benchmark is built")
	buildCmd.PersistentFlags().IntVar(&globalConfig.MemoryMonitoringInterval,
		"monitorMemoryInterval", 5, "Memory sampling interval in seconds")
	buildCmd.PersistentFlags().StringVar(&globalConfig.MemoryMonitoringFile,
		"monitorMemoryFile", "", "Filename for memory samples. Defaults to memory_metrics_<unix>.json")
	buildCmd.PersistentFlags().BoolVar(&globalConfig.PrometheusConfig.Enabled,
		"prometheus", false, "Push build metrics to a Prometheus pushgateway")
	buildCmd.PersistentFlags().StringVar(&globalConfig.PrometheusConfig.PushURL,
		"prometheusPushURL", "", "Prometheus pushgateway URL")
	buildCmd.PersistentFlags().StringVar(&globalConfig.PrometheusConfig.JobName,
		"prometheusJob", "clear-benchmarker", "Prometheus pushgateway job name")
	buildCmd.PersistentFlags().BoolVar(&globalConfig.InfluxDBConfig.Enabled,
		"influxdb", false, "Push build metrics to InfluxDB")
	buildCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.URL,
		"influxdbURL", "", "InfluxDB URL")
	buildCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Token,
		"influxdbToken", "", "InfluxDB token")
	buildCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Org,
		"influxdbOrg", "", "InfluxDB organization")
	buildCmd.PersistentFlags().StringVar(&globalConfig.InfluxDBConfig.Bucket,
		"influxdbBucket", "", "InfluxDB bucket")
}
