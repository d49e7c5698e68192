package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wegiclabs/contentpipe/internal/crawl"
)

var flagCrawlOut string

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch Wegic documentation and blog posts to disk",
	Long: `Crawl downloads the documentation pages and every blog post linked
from the blog index, extracts their readable text, and saves each page
as a JSON file for later ingestion. Failed pages are skipped.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringVarP(&flagCrawlOut, "out", "o", "", "output directory (default from configuration)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	outDir := flagCrawlOut
	if outDir == "" {
		outDir = a.cfg.ContentDir
	}

	crawler := crawl.New(crawl.Config{
		HelpBaseURL:       a.cfg.HelpBaseURL,
		BlogBaseURL:       a.cfg.BlogBaseURL,
		OutputDir:         outDir,
		Concurrency:       a.cfg.CrawlConcurrency,
		RequestsPerSecond: a.cfg.CrawlRequestsPerS,
	}, a.logger)

	result, err := crawler.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Crawled %d pages (%d blog posts discovered, %d failed) in %s\n",
		result.PagesCrawled, result.BlogDiscovered, result.PagesFailed,
		result.Duration.Round(time.Millisecond))
	fmt.Printf("Pages saved under %s\n", outDir)
	return nil
}
