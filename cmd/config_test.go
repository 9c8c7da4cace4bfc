package cmd

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestValidateBenchmarkArgs(t *testing.T) {
	noop := Transform(func(img image.Image) image.Image { return img })

	tests := []struct {
		name           string
		protocol       string
		seed           *int
		featureType    string
		trainTransform Transform
		evalTransform  Transform
		wantErr        string
	}{
		{
			name:     "streaming without seed",
			protocol: "streaming",
		},
		{
			name:     "streaming with seed",
			protocol: "streaming",
			seed:     intPtr(0),
			wantErr:  "not required under streaming",
		},
		{
			name:     "iid with supported seed",
			protocol: "iid",
			seed:     intPtr(0),
		},
		{
			name:     "iid with largest supported seed",
			protocol: "iid",
			seed:     intPtr(4),
		},
		{
			name:     "iid without seed",
			protocol: "iid",
			wantErr:  "requires a train/test split seed",
		},
		{
			name:     "iid with unsupported seed",
			protocol: "iid",
			seed:     intPtr(5),
			wantErr:  "requires a train/test split seed",
		},
		{
			name:     "iid with negative seed",
			protocol: "iid",
			seed:     intPtr(-3),
			wantErr:  "requires a train/test split seed",
		},
		{
			name:     "unknown protocol",
			protocol: "holdout",
			wantErr:  "evaluation protocol",
		},
		{
			name:     "empty protocol",
			protocol: "",
			wantErr:  "evaluation protocol",
		},
		{
			name:        "features without transforms",
			protocol:    "streaming",
			featureType: "moco_b0",
		},
		{
			name:           "features with train transform",
			protocol:       "streaming",
			featureType:    "moco_b0",
			trainTransform: noop,
			wantErr:        "transforms must not be set",
		},
		{
			name:          "features with eval transform",
			protocol:      "iid",
			seed:          intPtr(1),
			featureType:   "imagenet",
			evalTransform: noop,
			wantErr:       "transforms must not be set",
		},
		{
			name:           "images with transforms",
			protocol:       "streaming",
			trainTransform: noop,
			evalTransform:  noop,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validateBenchmarkArgs(test.protocol, test.seed, test.featureType,
				test.trainTransform, test.evalTransform)
			if test.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Contains(t, err.Error(), test.wantErr)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid build",
			cfg: Config{
				Mode:               "build",
				DatasetName:        "clear10",
				DatasetRoot:        "./datasets",
				EvaluationProtocol: "streaming",
				Seed:               -1,
			},
		},
		{
			name: "valid download",
			cfg: Config{
				Mode:        "download",
				DatasetName: "clear10",
				DatasetRoot: "./datasets",
			},
		},
		{
			name: "missing dataset name",
			cfg: Config{
				Mode:        "download",
				DatasetRoot: "./datasets",
			},
			wantErr: "dataset name must be set",
		},
		{
			name: "missing dataset root",
			cfg: Config{
				Mode:        "download",
				DatasetName: "clear10",
			},
			wantErr: "dataset root must be set",
		},
		{
			name: "unknown mode",
			cfg: Config{
				Mode:        "train",
				DatasetName: "clear10",
				DatasetRoot: "./datasets",
			},
			wantErr: "unrecognized mode",
		},
		{
			name: "bad output format",
			cfg: Config{
				Mode:         "download",
				DatasetName:  "clear10",
				DatasetRoot:  "./datasets",
				OutputFormat: "xml",
			},
			wantErr: "unsupported output format",
		},
		{
			name: "build with seed under streaming",
			cfg: Config{
				Mode:               "build",
				DatasetName:        "clear10",
				DatasetRoot:        "./datasets",
				EvaluationProtocol: "streaming",
				Seed:               2,
			},
			wantErr: "not required under streaming",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Contains(t, err.Error(), test.wantErr)
			}
		})
	}
}

func TestConfigValidateDefaultsOutputFormat(t *testing.T) {
	cfg := Config{
		Mode:        "download",
		DatasetName: "clear10",
		DatasetRoot: "./datasets",
	}
	require.NoError(t, cfg.Validate())
	require.Equal(t, "text", cfg.OutputFormat)
}

func TestParseLabels(t *testing.T) {
	cfg := Config{Labels: "instance=gpu-1,run=nightly,note=a=b"}
	cfg.parseLabels()

	require.Equal(t, map[string]string{
		"instance": "gpu-1",
		"run":      "nightly",
		"note":     "a=b",
	}, cfg.LabelMap)
}

func TestSeedSentinel(t *testing.T) {
	tests := []struct {
		seed int
		want *int
	}{
		{-1, nil},
		{0, intPtr(0)},
		{4, intPtr(4)},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("seed %d", test.seed), func(t *testing.T) {
			cfg := Config{Seed: test.seed}
			require.Equal(t, test.want, cfg.seed())
		})
	}
}
