package cmd

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	log "github.com/sirupsen/logrus"
)

// InfluxDBConfig holds configuration for InfluxDB metrics reporting
type InfluxDBConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

// PushMetricsToInfluxDB pushes the build result to an InfluxDB instance
func PushMetricsToInfluxDB(cfg *Config, result *BuildResult) error {
	if !cfg.InfluxDBConfig.Enabled || cfg.InfluxDBConfig.URL == "" {
		return nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBConfig.URL, cfg.InfluxDBConfig.Token)
	defer client.Close()

	writeAPI := client.WriteAPIBlocking(cfg.InfluxDBConfig.Org, cfg.InfluxDBConfig.Bucket)

	p := influxdb2.NewPointWithMeasurement("clear_benchmark").
		AddTag("dataset", result.Dataset).
		AddTag("protocol", result.Protocol).
		AddTag("run_id", result.RunID).
		AddTag("timestamp", result.Timestamp).
		AddField("experiences", result.Experiences).
		AddField("train_samples", result.TrainSamples).
		AddField("test_samples", result.TestSamples).
		AddField("build_seconds", result.BuildSeconds).
		SetTime(time.Now())

	if result.FeatureType != "" {
		p.AddTag("feature_type", result.FeatureType)
	}
	if result.Seed != nil {
		p.AddTag("seed", fmt.Sprintf("%d", *result.Seed))
	}

	if err := writeAPI.WritePoint(context.Background(), p); err != nil {
		log.WithError(err).Error("Failed to push metrics to InfluxDB")
		return err
	}

	log.WithFields(log.Fields{
		"url":     cfg.InfluxDBConfig.URL,
		"bucket":  cfg.InfluxDBConfig.Bucket,
		"run_id":  result.RunID,
		"dataset": result.Dataset,
	}).Info("Successfully pushed metrics to InfluxDB")

	return nil
}
