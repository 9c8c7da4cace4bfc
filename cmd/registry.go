package cmd

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// DatasetInfo describes one downloadable dataset flavor: where its
// archives live and how the extracted cache is shaped.
type DatasetInfo struct {
	Name               string            `yaml:"name"`
	NumClasses         int               `yaml:"numClasses"`
	NumBuckets         int               `yaml:"numBuckets"`
	ImageArchiveURL    string            `yaml:"imageArchiveURL"`
	FeatureArchiveURLs map[string]string `yaml:"featureArchiveURLs"`
}

// FeatureTypes returns the feature representations available for this
// dataset, sorted for stable output.
func (d DatasetInfo) FeatureTypes() []string {
	types := maps.Keys(d.FeatureArchiveURLs)
	slices.Sort(types)
	return types
}

// Registry maps dataset names to their definitions.
type Registry struct {
	datasets map[string]DatasetInfo
}

const clearBaseURL = "https://clear-challenge.s3.us-east-2.amazonaws.com"

// DefaultRegistry holds the built-in CLEAR dataset definitions.
// clear10 carries 10 illustrative classes plus an 11th background class
// over 10 yearly buckets; clear100 carries 100 classes over 11 buckets.
func DefaultRegistry() *Registry {
	return &Registry{
		datasets: map[string]DatasetInfo{
			"clear10": {
				Name:            "clear10",
				NumClasses:      11,
				NumBuckets:      10,
				ImageArchiveURL: clearBaseURL + "/clear10-train-image-only.zip",
				FeatureArchiveURLs: map[string]string{
					"moco_b0":       clearBaseURL + "/clear10-features-moco_b0.zip",
					"moco_imagenet": clearBaseURL + "/clear10-features-moco_imagenet.zip",
					"byol_imagenet": clearBaseURL + "/clear10-features-byol_imagenet.zip",
					"imagenet":      clearBaseURL + "/clear10-features-imagenet.zip",
				},
			},
			"clear100": {
				Name:            "clear100",
				NumClasses:      100,
				NumBuckets:      11,
				ImageArchiveURL: clearBaseURL + "/clear100-train-image-only.zip",
				FeatureArchiveURLs: map[string]string{
					"moco_b0":       clearBaseURL + "/clear100-features-moco_b0.zip",
					"moco_imagenet": clearBaseURL + "/clear100-features-moco_imagenet.zip",
					"byol_imagenet": clearBaseURL + "/clear100-features-byol_imagenet.zip",
					"imagenet":      clearBaseURL + "/clear100-features-imagenet.zip",
				},
			},
		},
	}
}

// LoadRegistry reads dataset definitions from a YAML file and merges them
// over the built-in defaults. Entries with a known name replace the
// default definition.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read registry file %q", path)
	}

	var entries []DatasetInfo
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "parse registry file %q", path)
	}

	reg := DefaultRegistry()
	for _, entry := range entries {
		if entry.Name == "" {
			return nil, errors.Errorf("registry file %q contains a dataset without a name", path)
		}
		reg.datasets[entry.Name] = entry
	}

	return reg, nil
}

func (r *Registry) Lookup(name string) (DatasetInfo, error) {
	info, ok := r.datasets[name]
	if !ok {
		names := maps.Keys(r.datasets)
		slices.Sort(names)
		return DatasetInfo{}, errors.Errorf("unknown dataset %q, expected one of %v", name, names)
	}
	return info, nil
}
