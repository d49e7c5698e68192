// Package cmd implements the contentpipe command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wegiclabs/contentpipe/internal/log"
)

var (
	flagVerbose  bool
	flagJSONLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "contentpipe",
	Short: "Wegic content pipeline: crawl, index, and generate",
	Long: `contentpipe maintains the Wegic knowledge base and generates
promotional articles from it.

Typical flow:

  contentpipe crawl                 # fetch docs and blog posts to disk
  contentpipe ingest ./content      # chunk, embed, and index the pages
  contentpipe search "custom domains"
  contentpipe article "AI website building"`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "emit logs as JSON")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: flagJSONLogs})
}
