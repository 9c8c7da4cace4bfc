package cmd

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// manifestFile marks a dataset cache directory as populated and records
// which archives have been extracted into it.
const manifestFile = "manifest.json"

type cacheManifest struct {
	SessionID   string    `json:"session_id"`
	Dataset     string    `json:"dataset"`
	Archives    []string  `json:"archives"`
	Bytes       int64     `json:"bytes"`
	CompletedAt time.Time `json:"completed_at"`
}

// archiveKey names one extractable unit in the manifest: "images" or
// "features/<feature_type>".
func archiveKey(featureType string) string {
	if featureType == "" {
		return "images"
	}
	return "features/" + featureType
}

// ensureDataset makes sure the cache under root holds the archive needed
// for the requested representation, downloading and extracting it when
// missing and allowed to. Repeat calls with a populated cache are no-ops.
func ensureDataset(root string, info DatasetInfo, download bool, featureType string) error {
	dir := filepath.Join(root, info.Name)
	key := archiveKey(featureType)

	manifest, err := readManifest(dir)
	if err != nil {
		return err
	}
	if manifest != nil && slices.Contains(manifest.Archives, key) {
		log.WithFields(log.Fields{"dataset": info.Name, "archive": key, "root": root}).
			Debug("Dataset cache already populated")
		return nil
	}

	if !download {
		return errors.Errorf("dataset %q archive %q not found under %q and download is disabled",
			info.Name, key, root)
	}

	url := info.ImageArchiveURL
	if featureType != "" {
		var ok bool
		url, ok = info.FeatureArchiveURLs[featureType]
		if !ok {
			return errors.Errorf("dataset %q has no feature archive for feature type %q, expected one of %v",
				info.Name, featureType, info.FeatureTypes())
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create dataset directory %q", dir)
	}

	n, err := downloadAndExtract(url, dir)
	if err != nil {
		return err
	}

	if manifest == nil {
		manifest = &cacheManifest{
			SessionID: uuid.NewString(),
			Dataset:   info.Name,
		}
	}
	manifest.Archives = append(manifest.Archives, key)
	manifest.Bytes += n
	manifest.CompletedAt = time.Now().UTC()

	return writeManifest(dir, manifest)
}

func readManifest(dir string) (*cacheManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read cache manifest in %q", dir)
	}

	var manifest cacheManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrapf(err, "parse cache manifest in %q", dir)
	}
	return &manifest, nil
}

func writeManifest(dir string, manifest *cacheManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal cache manifest")
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return errors.Wrapf(err, "write cache manifest in %q", dir)
	}
	return nil
}

// downloadAndExtract fetches a zip archive into a temp file and unpacks it
// under dir. Returns the archive size in bytes.
func downloadAndExtract(url string, dir string) (int64, error) {
	log.WithFields(log.Fields{"url": url, "dir": dir}).Info("Downloading dataset archive")

	client := retryablehttp.NewClient()
	client.RetryMax = 5
	client.Logger = nil

	resp, err := client.Get(url)
	if err != nil {
		return 0, errors.Wrapf(err, "download %q", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return 0, errors.Errorf("download %q: unexpected status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "clear-archive-*.zip")
	if err != nil {
		return 0, errors.Wrap(err, "create temp file for archive")
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return 0, errors.Wrapf(err, "write archive %q", tmp.Name())
	}

	log.WithFields(log.Fields{"url": url, "bytes": n}).Info("Download complete, extracting")

	if err := extractZip(tmp.Name(), dir); err != nil {
		return 0, err
	}

	return n, nil
}

func extractZip(archivePath string, dir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(err, "open archive %q", archivePath)
	}
	defer reader.Close()

	for _, file := range reader.File {
		target := filepath.Join(dir, filepath.Clean(file.Name))
		// reject entries escaping the destination (zip slip)
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return errors.Errorf("archive entry %q escapes destination directory", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "create directory %q", target)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Wrapf(err, "create directory for %q", target)
		}

		if err := extractZipFile(file, target); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(file *zip.File, target string) error {
	src, err := file.Open()
	if err != nil {
		return errors.Wrapf(err, "open archive entry %q", file.Name)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return errors.Wrapf(err, "create %q", target)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "extract %q", target)
	}
	return nil
}
