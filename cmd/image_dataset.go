package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ImageDataset exposes one split of a CLEAR-style image dataset as
// per-bucket lists of (path, target) pairs. Constructing it may populate
// the local cache via download.
type ImageDataset struct {
	info       DatasetInfo
	root       string
	split      string
	seed       *int
	transform  Transform
	classNames []string
	buckets    [][]PathSample
}

// NewImageDataset loads the requested split for every bucket of the named
// dataset. split is one of SplitAll, SplitTrain, SplitTest; train/test
// require a seed and partition each bucket 70/30.
func NewImageDataset(root, name string, download bool, split string, seed *int, transform Transform, registry *Registry) (*ImageDataset, error) {
	info, err := registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	if err := ensureDataset(root, info, download, ""); err != nil {
		return nil, err
	}

	dir := filepath.Join(root, info.Name)

	classNames, err := readClassNames(dir, info.NumClasses)
	if err != nil {
		return nil, err
	}

	ds := &ImageDataset{
		info:       info,
		root:       root,
		split:      split,
		seed:       seed,
		transform:  transform,
		classNames: classNames,
	}

	for bucket := 1; bucket <= info.NumBuckets; bucket++ {
		samples, err := readFilelist(dir, bucket, len(classNames))
		if err != nil {
			return nil, err
		}
		selected, err := selectSplitSamples(samples, split, seed, bucket)
		if err != nil {
			return nil, err
		}
		ds.buckets = append(ds.buckets, selected)
	}

	log.WithFields(log.Fields{
		"dataset": info.Name,
		"split":   split,
		"buckets": len(ds.buckets),
		"samples": ds.NumSamples(),
	}).Debug("Loaded image dataset")

	return ds, nil
}

// PathsAndTargets returns one sample list per bucket, ordered by bucket.
func (ds *ImageDataset) PathsAndTargets() [][]PathSample {
	return ds.buckets
}

func (ds *ImageDataset) ClassNames() []string {
	return ds.classNames
}

func (ds *ImageDataset) Name() string {
	return ds.info.Name
}

func (ds *ImageDataset) Split() string {
	return ds.split
}

func (ds *ImageDataset) NumBuckets() int {
	return len(ds.buckets)
}

func (ds *ImageDataset) NumSamples() int {
	total := 0
	for _, bucket := range ds.buckets {
		total += len(bucket)
	}
	return total
}

func readClassNames(dir string, expected int) ([]string, error) {
	path := filepath.Join(dir, "class_names.txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open class names file %q", path)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read class names file %q", path)
	}

	if len(names) != expected {
		return nil, errors.Errorf("class names file %q lists %d classes, expected %d",
			path, len(names), expected)
	}

	return names, nil
}

// readFilelist parses filelists/<bucket>.txt, lines of "relative/path target".
// Paths are resolved against the dataset directory.
func readFilelist(dir string, bucket int, numClasses int) ([]PathSample, error) {
	path := filepath.Join(dir, "filelists", fmt.Sprintf("%d.txt", bucket))
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open filelist %q", path)
	}
	defer f.Close()

	var samples []PathSample
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Errorf("filelist %q line %d: expected \"path target\", got %q",
				path, lineNo, line)
		}

		target, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "filelist %q line %d: parse target", path, lineNo)
		}
		if target < 0 || target >= numClasses {
			return nil, errors.Errorf("filelist %q line %d: target %d outside [0,%d)",
				path, lineNo, target, numClasses)
		}

		samples = append(samples, PathSample{
			Path:   filepath.Join(dir, filepath.FromSlash(fields[0])),
			Target: target,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read filelist %q", path)
	}

	if len(samples) == 0 {
		return nil, errors.Errorf("filelist %q is empty", path)
	}

	return samples, nil
}
