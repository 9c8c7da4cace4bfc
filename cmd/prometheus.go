package cmd

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
)

// PrometheusConfig holds configuration for Prometheus metrics reporting
type PrometheusConfig struct {
	Enabled    bool
	PushURL    string
	JobName    string
	PushPeriod time.Duration
}

// BuildMetrics holds the Prometheus metrics for one benchmark build
type BuildMetrics struct {
	Experiences  prometheus.Gauge
	TrainSamples prometheus.Gauge
	TestSamples  prometheus.Gauge
	BuildSeconds prometheus.Gauge
}

// NewBuildMetrics creates a new set of build metrics
func NewBuildMetrics(registry *prometheus.Registry, labels prometheus.Labels) *BuildMetrics {
	metrics := &BuildMetrics{
		Experiences: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "clear_benchmark_experiences",
			Help:        "Number of experiences per stream in the built benchmark",
			ConstLabels: labels,
		}),
		TrainSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "clear_benchmark_train_samples",
			Help:        "Total samples in the train stream",
			ConstLabels: labels,
		}),
		TestSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "clear_benchmark_test_samples",
			Help:        "Total samples in the test stream",
			ConstLabels: labels,
		}),
		BuildSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "clear_benchmark_build_seconds",
			Help:        "Wall time spent building the benchmark in seconds",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(
		metrics.Experiences,
		metrics.TrainSamples,
		metrics.TestSamples,
		metrics.BuildSeconds,
	)

	return metrics
}

// PushMetricsToPrometheus pushes the build result to a Prometheus pushgateway
func PushMetricsToPrometheus(cfg *Config, result *BuildResult) error {
	if !cfg.PrometheusConfig.Enabled || cfg.PrometheusConfig.PushURL == "" {
		return nil
	}

	registry := prometheus.NewRegistry()

	// Create labels from the build result
	labels := prometheus.Labels{
		"dataset":   result.Dataset,
		"protocol":  result.Protocol,
		"run_id":    result.RunID,
		"timestamp": result.Timestamp,
	}
	if result.FeatureType != "" {
		labels["feature_type"] = result.FeatureType
	}
	if result.Seed != nil {
		labels["seed"] = fmt.Sprintf("%d", *result.Seed)
	}

	// Add custom labels from config
	if cfg.LabelMap != nil {
		for key, value := range cfg.LabelMap {
			labels[key] = value
		}
	}

	metrics := NewBuildMetrics(registry, labels)

	metrics.Experiences.Set(float64(result.Experiences))
	metrics.TrainSamples.Set(float64(result.TrainSamples))
	metrics.TestSamples.Set(float64(result.TestSamples))
	metrics.BuildSeconds.Set(result.BuildSeconds)

	pusher := push.New(cfg.PrometheusConfig.PushURL, cfg.PrometheusConfig.JobName).
		Gatherer(registry)

	if err := pusher.Push(); err != nil {
		log.WithError(err).Error("Failed to push metrics to Prometheus")
		return err
	}

	log.WithFields(log.Fields{
		"url":     cfg.PrometheusConfig.PushURL,
		"job":     cfg.PrometheusConfig.JobName,
		"run_id":  result.RunID,
		"dataset": result.Dataset,
	}).Info("Successfully pushed metrics to Prometheus")

	return nil
}
