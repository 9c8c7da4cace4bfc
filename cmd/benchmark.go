package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Experience is one labeled data subset consumed during a single
// training or evaluation step. Exactly one of Paths or Tensors is
// populated, depending on the benchmark flavor.
type Experience struct {
	TaskLabel int
	Paths     []PathSample
	Tensors   []TensorSample
}

func (e Experience) Len() int {
	if e.Paths != nil {
		return len(e.Paths)
	}
	return len(e.Tensors)
}

// Benchmark holds an ordered train stream and test stream of experiences,
// plus the transforms consumers should apply when materializing image
// samples. All CLEAR experiences carry task label 0 (domain-incremental:
// only the data distribution shifts across experiences).
type Benchmark struct {
	TrainStream []Experience
	TestStream  []Experience

	TrainTransform Transform
	EvalTransform  Transform

	// CompleteTestSetOnly marks benchmarks whose test stream is a single
	// experience covering the whole test set rather than one per task.
	CompleteTestSetOnly bool
}

// NewBenchmarkFromPaths assembles a path-based benchmark from per-bucket
// train and test sample lists. taskLabels must carry one label per train
// experience.
func NewBenchmarkFromPaths(train, test [][]PathSample, taskLabels []int, completeTestSetOnly bool, trainTransform, evalTransform Transform) (*Benchmark, error) {
	if err := checkStreamShapes(len(train), len(test), len(taskLabels), completeTestSetOnly); err != nil {
		return nil, err
	}

	b := &Benchmark{
		TrainTransform:      trainTransform,
		EvalTransform:       evalTransform,
		CompleteTestSetOnly: completeTestSetOnly,
	}

	for i, samples := range train {
		b.TrainStream = append(b.TrainStream, Experience{TaskLabel: taskLabels[i], Paths: samples})
	}
	for i, samples := range test {
		label := 0
		if !completeTestSetOnly {
			label = taskLabels[i]
		}
		b.TestStream = append(b.TestStream, Experience{TaskLabel: label, Paths: samples})
	}

	return b, nil
}

// NewBenchmarkFromTensors assembles a tensor-based benchmark. Feature
// tensors take no transforms.
func NewBenchmarkFromTensors(train, test [][]TensorSample, taskLabels []int, completeTestSetOnly bool) (*Benchmark, error) {
	if err := checkStreamShapes(len(train), len(test), len(taskLabels), completeTestSetOnly); err != nil {
		return nil, err
	}

	b := &Benchmark{CompleteTestSetOnly: completeTestSetOnly}

	for i, samples := range train {
		b.TrainStream = append(b.TrainStream, Experience{TaskLabel: taskLabels[i], Tensors: samples})
	}
	for i, samples := range test {
		label := 0
		if !completeTestSetOnly {
			label = taskLabels[i]
		}
		b.TestStream = append(b.TestStream, Experience{TaskLabel: label, Tensors: samples})
	}

	return b, nil
}

func checkStreamShapes(train, test, labels int, completeTestSetOnly bool) error {
	if train == 0 {
		return errors.Errorf("train stream must hold at least one experience")
	}
	if labels != train {
		return errors.Errorf("got %d task labels for %d train experiences", labels, train)
	}
	if completeTestSetOnly {
		if test != 1 {
			return errors.Errorf("complete-test-set benchmarks require exactly one test experience, got %d", test)
		}
		return nil
	}
	if test != train {
		return errors.Errorf("got %d test experiences for %d train experiences", test, train)
	}
	return nil
}

func (b *Benchmark) NumExperiences() int {
	return len(b.TrainStream)
}

func (b *Benchmark) NumTrainSamples() int {
	total := 0
	for _, e := range b.TrainStream {
		total += e.Len()
	}
	return total
}

func (b *Benchmark) NumTestSamples() int {
	total := 0
	for _, e := range b.TestStream {
		total += e.Len()
	}
	return total
}

func (b *Benchmark) WriteTextTo(w io.Writer) (int64, error) {
	out := strings.Builder{}

	out.WriteString(fmt.Sprintf("Benchmark\nExperiences: %d\nTrain samples: %d\nTest samples: %d\n",
		b.NumExperiences(), b.NumTrainSamples(), b.NumTestSamples()))

	for i, e := range b.TrainStream {
		out.WriteString(fmt.Sprintf("experience %d: task %d, train %d", i, e.TaskLabel, e.Len()))
		if !b.CompleteTestSetOnly {
			out.WriteString(fmt.Sprintf(", test %d", b.TestStream[i].Len()))
		}
		out.WriteString("\n")
	}

	n, err := w.Write([]byte(out.String()))
	return int64(n), err
}

type benchmarkJSON struct {
	Experiences  int   `json:"experiences"`
	TrainSamples int   `json:"trainSamples"`
	TestSamples  int   `json:"testSamples"`
	TaskLabels   []int `json:"taskLabels"`
	TrainSizes   []int `json:"trainSizes"`
	TestSizes    []int `json:"testSizes"`
}

func (b *Benchmark) WriteJSONTo(w io.Writer) (int, error) {
	obj := benchmarkJSON{
		Experiences:  b.NumExperiences(),
		TrainSamples: b.NumTrainSamples(),
		TestSamples:  b.NumTestSamples(),
	}
	for _, e := range b.TrainStream {
		obj.TaskLabels = append(obj.TaskLabels, e.TaskLabel)
		obj.TrainSizes = append(obj.TrainSizes, e.Len())
	}
	for _, e := range b.TestStream {
		obj.TestSizes = append(obj.TestSizes, e.Len())
	}

	bytes, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return 0, err
	}

	return w.Write(bytes)
}
