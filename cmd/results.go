package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// BuildResult records one benchmark construction for the results file and
// the metric sinks.
type BuildResult struct {
	RunID         string  `json:"run_id"`
	Timestamp     string  `json:"timestamp"`
	Dataset       string  `json:"dataset"`
	Protocol      string  `json:"protocol"`
	FeatureType   string  `json:"feature_type,omitempty"`
	Seed          *int    `json:"seed,omitempty"`
	Experiences   int     `json:"experiences"`
	TrainSamples  int     `json:"train_samples"`
	TestSamples   int     `json:"test_samples"`
	BuildSeconds  float64 `json:"build_seconds"`
	DatasetRoot   string  `json:"dataset_root"`
	DownloadBytes int64   `json:"download_bytes,omitempty"`
}

func newBuildResult(cfg *Config, b *Benchmark, took time.Duration, runID string) *BuildResult {
	return &BuildResult{
		RunID:        runID,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Dataset:      cfg.DatasetName,
		Protocol:     cfg.EvaluationProtocol,
		FeatureType:  cfg.FeatureType,
		Seed:         cfg.seed(),
		Experiences:  b.NumExperiences(),
		TrainSamples: b.NumTrainSamples(),
		TestSamples:  b.NumTestSamples(),
		BuildSeconds: took.Seconds(),
		DatasetRoot:  cfg.DatasetRoot,
	}
}

// writeResultsFile persists the result under the results directory, keyed
// by run id, with any custom labels merged in.
func writeResultsFile(cfg *Config, result *BuildResult) error {
	var resultMap map[string]interface{}

	jsonData, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonData, &resultMap); err != nil {
		return err
	}

	for key, value := range cfg.LabelMap {
		resultMap[key] = value
	}

	data, err := json.MarshalIndent(resultMap, "", "    ")
	if err != nil {
		return err
	}

	dir := cfg.ResultsDir
	if dir == "" {
		dir = "./results"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.json", result.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	log.WithFields(log.Fields{"path": path, "run_id": result.RunID}).Info("Wrote build result")
	return nil
}

func (r *BuildResult) WriteTextTo(w io.Writer) (int64, error) {
	out := strings.Builder{}

	out.WriteString(fmt.Sprintf("Build result\nDataset: %s\nProtocol: %s\n", r.Dataset, r.Protocol))
	if r.FeatureType != "" {
		out.WriteString(fmt.Sprintf("Feature type: %s\n", r.FeatureType))
	}
	if r.Seed != nil {
		out.WriteString(fmt.Sprintf("Seed: %d\n", *r.Seed))
	}
	out.WriteString(fmt.Sprintf("Experiences: %d\nTrain samples: %d\nTest samples: %d\nTook: %.3fs\n",
		r.Experiences, r.TrainSamples, r.TestSamples, r.BuildSeconds))

	n, err := w.Write([]byte(out.String()))
	return int64(n), err
}

func (r *BuildResult) WriteJSONTo(w io.Writer) (int, error) {
	bytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return 0, err
	}
	return w.Write(bytes)
}
