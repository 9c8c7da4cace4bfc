package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/weaviate/hdf5"
	"golang.org/x/exp/slices"
)

// FeatureDataset exposes one split of a CLEAR-style feature dataset as
// per-bucket lists of (tensor, target) pairs. Features are stored as one
// HDF5 file per bucket under features/<feature_type>/, with a 2D
// "features" dataset and a 1D "targets" dataset.
type FeatureDataset struct {
	info        DatasetInfo
	root        string
	featureType string
	split       string
	seed        *int
	dimension   int
	buckets     [][]TensorSample
}

func NewFeatureDataset(root, name string, download bool, featureType string, split string, seed *int, registry *Registry) (*FeatureDataset, error) {
	info, err := registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(info.FeatureTypes(), featureType) {
		return nil, errors.Errorf("dataset %q does not provide feature type %q, expected one of %v",
			info.Name, featureType, info.FeatureTypes())
	}

	if err := ensureDataset(root, info, download, featureType); err != nil {
		return nil, err
	}

	ds := &FeatureDataset{
		info:        info,
		root:        root,
		featureType: featureType,
		split:       split,
		seed:        seed,
	}

	dir := filepath.Join(root, info.Name, "features", featureType)

	for bucket := 1; bucket <= info.NumBuckets; bucket++ {
		samples, err := readFeatureBucket(filepath.Join(dir, fmt.Sprintf("%d.h5", bucket)), info.NumClasses)
		if err != nil {
			return nil, err
		}

		if ds.dimension == 0 {
			ds.dimension = len(samples[0].Tensor)
		} else if len(samples[0].Tensor) != ds.dimension {
			return nil, errors.Errorf("bucket %d has feature dimension %d, bucket 1 had %d",
				bucket, len(samples[0].Tensor), ds.dimension)
		}

		selected, err := selectSplitSamples(samples, split, seed, bucket)
		if err != nil {
			return nil, err
		}
		ds.buckets = append(ds.buckets, selected)
	}

	log.WithFields(log.Fields{
		"dataset":     info.Name,
		"featureType": featureType,
		"split":       split,
		"dimension":   ds.dimension,
		"buckets":     len(ds.buckets),
		"samples":     ds.NumSamples(),
	}).Debug("Loaded feature dataset")

	return ds, nil
}

// TensorsAndTargets returns one sample list per bucket, ordered by bucket.
func (ds *FeatureDataset) TensorsAndTargets() [][]TensorSample {
	return ds.buckets
}

func (ds *FeatureDataset) FeatureType() string {
	return ds.featureType
}

func (ds *FeatureDataset) Dimension() int {
	return ds.dimension
}

func (ds *FeatureDataset) Name() string {
	return ds.info.Name
}

func (ds *FeatureDataset) Split() string {
	return ds.split
}

func (ds *FeatureDataset) NumBuckets() int {
	return len(ds.buckets)
}

func (ds *FeatureDataset) NumSamples() int {
	total := 0
	for _, bucket := range ds.buckets {
		total += len(bucket)
	}
	return total
}

func readFeatureBucket(path string, numClasses int) ([]TensorSample, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "open feature file %q", path)
	}
	defer file.Close()

	features, err := readHdf5Float32(file, "features")
	if err != nil {
		return nil, errors.Wrapf(err, "feature file %q", path)
	}

	targets, err := readHdf5Targets(file, "targets")
	if err != nil {
		return nil, errors.Wrapf(err, "feature file %q", path)
	}

	if len(features) != len(targets) {
		return nil, errors.Errorf("feature file %q: %d feature rows but %d targets",
			path, len(features), len(targets))
	}
	if len(features) == 0 {
		return nil, errors.Errorf("feature file %q is empty", path)
	}

	samples := make([]TensorSample, len(features))
	for i := range features {
		if targets[i] < 0 || targets[i] >= numClasses {
			return nil, errors.Errorf("feature file %q row %d: target %d outside [0,%d)",
				path, i, targets[i], numClasses)
		}
		samples[i] = TensorSample{Tensor: features[i], Target: targets[i]}
	}

	return samples, nil
}

func hdf5ByteSize(dataset *hdf5.Dataset) (uint, error) {
	datatype, err := dataset.Datatype()
	if err != nil {
		return 0, errors.Wrap(err, "read datatype")
	}

	byteSize := datatype.Size()
	if byteSize != 4 && byteSize != 8 {
		return 0, errors.Errorf("unsupported element byte size %d", byteSize)
	}
	return byteSize, nil
}

func convert1DChunk[D float32 | float64](input []D, dimensions int, rows int) [][]float32 {
	chunkData := make([][]float32, rows)
	for i := range chunkData {
		chunkData[i] = make([]float32, dimensions)
		for j := 0; j < dimensions; j++ {
			chunkData[i][j] = float32(input[i*dimensions+j])
		}
	}
	return chunkData
}

// readHdf5Float32 reads an entire 2D float dataset at once.
func readHdf5Float32(file *hdf5.File, name string) ([][]float32, error) {
	dataset, err := file.OpenDataset(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %q", name)
	}
	defer dataset.Close()

	dataspace := dataset.Space()
	dims, _, _ := dataspace.SimpleExtentDims()
	if len(dims) != 2 {
		return nil, errors.Errorf("dataset %q: expected 2 dimensions, got %d", name, len(dims))
	}
	rows := dims[0]
	dimensions := dims[1]

	byteSize, err := hdf5ByteSize(dataset)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", name)
	}

	var chunkData [][]float32

	if byteSize == 4 {
		chunkData1D := make([]float32, rows*dimensions)
		if err := dataset.Read(&chunkData1D); err != nil {
			return nil, errors.Wrapf(err, "read dataset %q", name)
		}
		chunkData = convert1DChunk[float32](chunkData1D, int(dimensions), int(rows))
	} else {
		chunkData1D := make([]float64, rows*dimensions)
		if err := dataset.Read(&chunkData1D); err != nil {
			return nil, errors.Wrapf(err, "read dataset %q", name)
		}
		chunkData = convert1DChunk[float64](chunkData1D, int(dimensions), int(rows))
	}

	return chunkData, nil
}

// readHdf5Targets reads an entire 1D integer dataset at once.
func readHdf5Targets(file *hdf5.File, name string) ([]int, error) {
	dataset, err := file.OpenDataset(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %q", name)
	}
	defer dataset.Close()

	dataspace := dataset.Space()
	dims, _, _ := dataspace.SimpleExtentDims()
	if len(dims) != 1 {
		return nil, errors.Errorf("dataset %q: expected 1 dimension, got %d", name, len(dims))
	}
	elements := dims[0]

	byteSize, err := hdf5ByteSize(dataset)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", name)
	}

	targets := make([]int, elements)

	if byteSize == 4 {
		targets32 := make([]int32, elements)
		if err := dataset.Read(&targets32); err != nil {
			return nil, errors.Wrapf(err, "read dataset %q", name)
		}
		for i := range targets {
			targets[i] = int(targets32[i])
		}
	} else {
		if err := dataset.Read(&targets); err != nil {
			return nil, errors.Wrapf(err, "read dataset %q", name)
		}
	}

	return targets, nil
}
