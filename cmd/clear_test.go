package cmd

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLEARStreamingProtocol(t *testing.T) {
	root := t.TempDir()
	registry := testRegistry()
	info, err := registry.Lookup("miniclear")
	require.NoError(t, err)
	writeImageFixture(t, root, info, []int{10, 20})

	benchmark, err := CLEAR(CLEAROptions{
		EvaluationProtocol: ProtocolStreaming,
		DatasetRoot:        root,
		DatasetName:        "miniclear",
		Registry:           registry,
	})
	require.NoError(t, err)

	// one experience per bucket in each stream
	require.Len(t, benchmark.TrainStream, 2)
	require.Len(t, benchmark.TestStream, 2)
	require.False(t, benchmark.CompleteTestSetOnly)

	// streaming duplicates the full bucket into both streams
	for i := range benchmark.TrainStream {
		require.Equal(t, 0, benchmark.TrainStream[i].TaskLabel)
		require.Equal(t, 0, benchmark.TestStream[i].TaskLabel)
		require.Equal(t, benchmark.TrainStream[i].Paths, benchmark.TestStream[i].Paths)
	}
	require.Equal(t, 10, benchmark.TrainStream[0].Len())
	require.Equal(t, 20, benchmark.TrainStream[1].Len())
}

func TestCLEARIIDProtocol(t *testing.T) {
	root := t.TempDir()
	registry := testRegistry()
	info, err := registry.Lookup("miniclear")
	require.NoError(t, err)
	writeImageFixture(t, root, info, []int{10, 20})

	benchmark, err := CLEAR(CLEAROptions{
		EvaluationProtocol: ProtocolIID,
		Seed:               intPtr(0),
		DatasetRoot:        root,
		DatasetName:        "miniclear",
		Registry:           registry,
	})
	require.NoError(t, err)

	require.Len(t, benchmark.TrainStream, 2)
	require.Len(t, benchmark.TestStream, 2)

	// 70/30 per bucket, disjoint
	require.Equal(t, 7, benchmark.TrainStream[0].Len())
	require.Equal(t, 3, benchmark.TestStream[0].Len())
	require.Equal(t, 14, benchmark.TrainStream[1].Len())
	require.Equal(t, 6, benchmark.TestStream[1].Len())

	for i := range benchmark.TrainStream {
		require.Equal(t, 0, benchmark.TrainStream[i].TaskLabel)
		require.Equal(t, 0, benchmark.TestStream[i].TaskLabel)

		seen := make(map[string]bool)
		for _, s := range benchmark.TrainStream[i].Paths {
			seen[s.Path] = true
		}
		for _, s := range benchmark.TestStream[i].Paths {
			require.False(t, seen[s.Path], "sample %s in both streams", s.Path)
		}
	}
}

func TestCLEARIdempotent(t *testing.T) {
	root := t.TempDir()
	registry := testRegistry()
	info, err := registry.Lookup("miniclear")
	require.NoError(t, err)
	writeImageFixture(t, root, info, []int{10, 20})

	opts := CLEAROptions{
		EvaluationProtocol: ProtocolIID,
		Seed:               intPtr(2),
		DatasetRoot:        root,
		DatasetName:        "miniclear",
		Registry:           registry,
	}

	first, err := CLEAR(opts)
	require.NoError(t, err)
	second, err := CLEAR(opts)
	require.NoError(t, err)

	require.Equal(t, first.TrainStream, second.TrainStream)
	require.Equal(t, first.TestStream, second.TestStream)
}

func TestCLEARValidation(t *testing.T) {
	noop := Transform(func(img image.Image) image.Image { return img })

	tests := []struct {
		name    string
		opts    CLEAROptions
		wantErr string
	}{
		{
			name: "streaming with seed",
			opts: CLEAROptions{
				EvaluationProtocol: ProtocolStreaming,
				Seed:               intPtr(0),
			},
			wantErr: "not required under streaming",
		},
		{
			name: "iid without seed",
			opts: CLEAROptions{
				EvaluationProtocol: ProtocolIID,
			},
			wantErr: "requires a train/test split seed",
		},
		{
			name: "iid with seed outside the supported set",
			opts: CLEAROptions{
				EvaluationProtocol: ProtocolIID,
				Seed:               intPtr(17),
			},
			wantErr: "requires a train/test split seed",
		},
		{
			name: "unknown protocol",
			opts: CLEAROptions{
				EvaluationProtocol: "online",
			},
			wantErr: "evaluation protocol",
		},
		{
			name: "feature type with transform",
			opts: CLEAROptions{
				EvaluationProtocol: ProtocolStreaming,
				FeatureType:        "moco_b0",
				TrainTransform:     noop,
			},
			wantErr: "transforms must not be set",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.opts.DatasetRoot = t.TempDir()
			test.opts.Registry = testRegistry()
			test.opts.DatasetName = "miniclear"

			_, err := CLEAR(test.opts)
			require.Error(t, err)
			require.Contains(t, err.Error(), test.wantErr)
		})
	}
}

func TestCLEARUnknownFeatureType(t *testing.T) {
	root := t.TempDir()

	_, err := CLEAR(CLEAROptions{
		EvaluationProtocol: ProtocolStreaming,
		FeatureType:        "resnet50",
		DatasetRoot:        root,
		DatasetName:        "miniclear",
		Registry:           testRegistry(),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "feature type")
}

func TestCLEARUnknownDataset(t *testing.T) {
	_, err := CLEAR(CLEAROptions{
		EvaluationProtocol: ProtocolStreaming,
		DatasetRoot:        t.TempDir(),
		DatasetName:        "cifar10",
		Registry:           testRegistry(),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown dataset")
}

func TestCLEARTransformsCarriedOnBenchmark(t *testing.T) {
	root := t.TempDir()
	registry := testRegistry()
	info, err := registry.Lookup("miniclear")
	require.NoError(t, err)
	writeImageFixture(t, root, info, []int{4, 4})

	noop := Transform(func(img image.Image) image.Image { return img })

	benchmark, err := CLEAR(CLEAROptions{
		EvaluationProtocol: ProtocolStreaming,
		TrainTransform:     noop,
		EvalTransform:      noop,
		DatasetRoot:        root,
		DatasetName:        "miniclear",
		Registry:           registry,
	})
	require.NoError(t, err)
	require.NotNil(t, benchmark.TrainTransform)
	require.NotNil(t, benchmark.EvalTransform)
}
