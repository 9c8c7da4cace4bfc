package cmd

import "image"

// Transform is an image-space transformation applied lazily when a sample
// is materialized. Transforms are opaque to the benchmark factory: it only
// checks them for nil-ness and hands them to the benchmark object.
// Feature tensors are not images, so transforms are rejected whenever a
// feature type is selected.
type Transform func(image.Image) image.Image

// ComposeTransforms chains transforms left to right.
func ComposeTransforms(transforms ...Transform) Transform {
	return func(img image.Image) image.Image {
		for _, t := range transforms {
			img = t(img)
		}
		return img
	}
}
