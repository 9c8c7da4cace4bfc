package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Evaluation protocols supported for benchmark construction.
const (
	ProtocolIID       = "iid"
	ProtocolStreaming = "streaming"
)

var EvaluationProtocols = []string{ProtocolIID, ProtocolStreaming}

// SeedList holds the seeds supported for the iid train/test split.
var SeedList = []int{0, 1, 2, 3, 4}

type Config struct {
	Mode                     string
	DatasetName              string
	DatasetRoot              string
	EvaluationProtocol       string
	FeatureType              string
	Seed                     int // -1 means no seed was given
	Download                 bool
	RegistryFile             string
	OutputFormat             string
	OutputFile               string
	ResultsDir               string
	Labels                   string
	LabelMap                 map[string]string
	MemoryMonitoringEnabled  bool
	MemoryMonitoringInterval int
	MemoryMonitoringFile     string
	PrometheusConfig         PrometheusConfig
	InfluxDBConfig           InfluxDBConfig
}

func (c *Config) Validate() error {
	if err := c.validateCommon(); err != nil {
		return err
	}

	// validate specific
	switch c.Mode {
	case "download":
		return c.validateDownload()
	case "build":
		return c.validateBuild()
	default:
		return errors.Errorf("unrecognized mode %q", c.Mode)
	}
}

func (c *Config) validateCommon() error {
	if c.DatasetName == "" {
		return errors.Errorf("dataset name must be set")
	}

	if c.DatasetRoot == "" {
		return errors.Errorf("dataset root must be set")
	}

	switch c.OutputFormat {
	case "text", "":
		c.OutputFormat = "text"
	case "json":
	default:
		return errors.Errorf("unsupported output format %q, must be one of [text, json]",
			c.OutputFormat)
	}

	return nil
}

func (c Config) validateDownload() error {
	return nil
}

func (c Config) validateBuild() error {
	return validateBenchmarkArgs(c.EvaluationProtocol, c.seed(), c.FeatureType, nil, nil)
}

// seed translates the CLI sentinel (-1) into the optional seed the
// benchmark factory expects.
func (c Config) seed() *int {
	if c.Seed < 0 {
		return nil
	}
	s := c.Seed
	return &s
}

// validateBenchmarkArgs is the single place where the protocol, seed,
// feature type and transform combination is checked. Shared between the
// CLI and the CLEAR factory.
func validateBenchmarkArgs(protocol string, seed *int, featureType string, trainTransform, evalTransform Transform) error {
	if !slices.Contains(EvaluationProtocols, protocol) {
		return errors.Errorf("must specify an evaluation protocol from %v, got %q",
			EvaluationProtocols, protocol)
	}

	switch protocol {
	case ProtocolStreaming:
		if seed != nil {
			return errors.Errorf("seed for train/test split is not required under streaming protocol")
		}
	case ProtocolIID:
		if seed == nil || !slices.Contains(SeedList, *seed) {
			return errors.Errorf("iid protocol requires a train/test split seed from %v", SeedList)
		}
	}

	if featureType != "" {
		if trainTransform != nil || evalTransform != nil {
			return errors.Errorf("transforms must not be set when using feature tensors")
		}
	}

	return nil
}

func (c *Config) parseLabels() {
	result := make(map[string]string)
	pairs := strings.Split(c.Labels, ",")

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2) // SplitN to make sure we only split on the first "="
		if len(kv) == 2 {
			result[kv[0]] = kv[1]
		}
	}

	c.LabelMap = result
}
