package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := newScrapeCmd(&configPath)
	root.Use = "uiverse-scraper [count]"
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the YAML config file")
	root.AddCommand(newScrapeCmd(&configPath), newShowCmd(&configPath))

	return root
}

// resolveConfigPath drops the default path when it does not exist, so the
// binary runs on compiled-in defaults outside the repo.
func resolveConfigPath(cmd *cobra.Command, path string) string {
	if cmd.Flags().Changed("config") {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return ""
	}
	return path
}
