package cmd

// PathSample pairs an image file with its class target.
type PathSample struct {
	Path   string
	Target int
}

// TensorSample pairs a pre-extracted feature vector with its class target.
type TensorSample struct {
	Tensor []float32
	Target int
}

// Dataset is the common surface of the image and feature loaders.
type Dataset interface {
	Name() string
	Split() string
	NumBuckets() int
	NumSamples() int
}
