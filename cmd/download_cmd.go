package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download and cache a CLEAR dataset",
	Long:  `Fetch the image archive (or a feature-tensor archive) for a CLEAR dataset into the local cache directory`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "download"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		registry, err := loadConfiguredRegistry(cfg)
		if err != nil {
			fatal(err)
		}

		info, err := registry.Lookup(cfg.DatasetName)
		if err != nil {
			fatal(err)
		}

		if err := ensureDataset(cfg.DatasetRoot, info, true, cfg.FeatureType); err != nil {
			fatal(err)
		}

		log.WithFields(log.Fields{
			"dataset": cfg.DatasetName,
			"archive": archiveKey(cfg.FeatureType),
			"root":    cfg.DatasetRoot,
		}).Info("Dataset cache is populated")
	},
}

func initDownload() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.PersistentFlags().StringVarP(&globalConfig.DatasetName,
		"dataset", "d", "clear10", "Dataset to download, one of [clear10, clear100]")
	downloadCmd.PersistentFlags().StringVarP(&globalConfig.DatasetRoot,
		"root", "r", "./datasets", "Local cache directory for datasets")
	downloadCmd.PersistentFlags().StringVarP(&globalConfig.FeatureType,
		"feature", "t", "", "Download a feature-tensor archive instead of images, e.g. moco_b0")
	downloadCmd.PersistentFlags().StringVar(&globalConfig.RegistryFile,
		"registry", "", "YAML file overriding the built-in dataset registry")
}

func loadConfiguredRegistry(cfg Config) (*Registry, error) {
	if cfg.RegistryFile == "" {
		return DefaultRegistry(), nil
	}
	return LoadRegistry(cfg.RegistryFile)
}
