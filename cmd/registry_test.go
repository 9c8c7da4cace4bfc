package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	clear10, err := registry.Lookup("clear10")
	require.NoError(t, err)
	require.Equal(t, 11, clear10.NumClasses)
	require.Equal(t, 10, clear10.NumBuckets)
	require.NotEmpty(t, clear10.ImageArchiveURL)
	require.Equal(t,
		[]string{"byol_imagenet", "imagenet", "moco_b0", "moco_imagenet"},
		clear10.FeatureTypes())

	clear100, err := registry.Lookup("clear100")
	require.NoError(t, err)
	require.Equal(t, 100, clear100.NumClasses)
	require.Equal(t, 11, clear100.NumBuckets)
}

func TestRegistryLookupUnknown(t *testing.T) {
	_, err := DefaultRegistry().Lookup("cifar10")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown dataset")
	require.Contains(t, err.Error(), "clear10")
}

func TestLoadRegistryMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	content := `
- name: miniclear
  numClasses: 3
  numBuckets: 2
  imageArchiveURL: https://example.invalid/miniclear.zip
  featureArchiveURLs:
    moco_b0: https://example.invalid/miniclear-moco_b0.zip
- name: clear10
  numClasses: 11
  numBuckets: 10
  imageArchiveURL: https://mirror.invalid/clear10.zip
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	registry, err := LoadRegistry(path)
	require.NoError(t, err)

	mini, err := registry.Lookup("miniclear")
	require.NoError(t, err)
	require.Equal(t, 3, mini.NumClasses)
	require.Equal(t, []string{"moco_b0"}, mini.FeatureTypes())

	// overridden default
	clear10, err := registry.Lookup("clear10")
	require.NoError(t, err)
	require.Equal(t, "https://mirror.invalid/clear10.zip", clear10.ImageArchiveURL)

	// untouched default survives the merge
	_, err = registry.Lookup("clear100")
	require.NoError(t, err)
}

func TestLoadRegistryErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registry.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))
		_, err := LoadRegistry(path)
		require.Error(t, err)
	})

	t.Run("entry without name", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registry.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- numClasses: 3\n"), 0o644))
		_, err := LoadRegistry(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "without a name")
	})
}
