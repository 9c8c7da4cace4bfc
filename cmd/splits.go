package cmd

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Split names understood by the dataset loaders.
const (
	SplitAll   = "all"
	SplitTrain = "train"
	SplitTest  = "test"
)

// testRatio is the share of each bucket held out as the test set under
// the iid protocol.
const testRatio = 0.3

// protocolSplits maps an evaluation protocol to the train/test splits the
// loaders should produce. Streaming uses the full bucket on both sides.
func protocolSplits(protocol string) (trainSplit, testSplit string, err error) {
	switch protocol {
	case ProtocolStreaming:
		return SplitAll, SplitAll, nil
	case ProtocolIID:
		return SplitTrain, SplitTest, nil
	default:
		// unreachable after validation
		return "", "", errors.Errorf("evaluation protocol %q is not implemented", protocol)
	}
}

// splitIndices partitions [0,n) into train and test index sets for one
// bucket. The shuffle is seeded from both the split seed and the bucket so
// that buckets are partitioned independently, and the same (seed, bucket)
// pair always yields the same partition.
func splitIndices(n int, seed int, bucket int) (train []int, test []int) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	r := rand.New(rand.NewSource(int64(seed)<<20 | int64(bucket)))
	r.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	numTest := int(math.Round(float64(n) * testRatio))
	return indices[numTest:], indices[:numTest]
}

// selectSplitSamples reduces one bucket's full sample list to the
// requested split. Works for both path and tensor samples, so the image
// and feature variants of a dataset partition identically for a given
// (seed, bucket) pair.
func selectSplitSamples[S any](samples []S, split string, seed *int, bucket int) ([]S, error) {
	switch split {
	case SplitAll:
		return samples, nil
	case SplitTrain, SplitTest:
		if seed == nil {
			return nil, errors.Errorf("split %q requires a seed", split)
		}
		trainIdx, testIdx := splitIndices(len(samples), *seed, bucket)
		idx := trainIdx
		if split == SplitTest {
			idx = testIdx
		}
		selected := make([]S, 0, len(idx))
		for _, i := range idx {
			selected = append(selected, samples[i])
		}
		return selected, nil
	default:
		return nil, errors.Errorf("unknown split %q, expected one of [%s, %s, %s]",
			split, SplitAll, SplitTrain, SplitTest)
	}
}
