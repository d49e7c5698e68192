package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wegiclabs/contentpipe/internal/ingest"
)

var flagIngestIndex string

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Chunk, embed, and index crawled pages",
	Long: `Ingest reads every page JSON file under the given directory
(default: the configured content directory), splits each page into
overlapping chunks, embeds them, and stores the vectors in the
knowledge index. A broken file is skipped, not fatal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&flagIngestIndex, "index", "", "target index name (default from configuration)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.connectDB(ctx); err != nil {
		return err
	}
	if err := a.initAI(ctx); err != nil {
		return err
	}

	dir := a.cfg.ContentDir
	if len(args) == 1 {
		dir = args[0]
	}
	indexName := flagIngestIndex
	if indexName == "" {
		indexName = a.cfg.IndexName
	}

	pipeline, err := ingest.New(ingest.Config{
		ChunkSize:    a.cfg.ChunkSize,
		ChunkOverlap: a.cfg.ChunkOverlap,
		Dimension:    a.cfg.EmbedderDimension,
	}, a.embedder, a.index, a.logger)
	if err != nil {
		return err
	}

	result, err := pipeline.IngestDirectory(ctx, dir, indexName)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d files into %q: %d chunks stored, %d files failed, took %s\n",
		result.FilesProcessed, indexName, result.ChunksStored, result.FilesFailed,
		result.Duration.Round(time.Millisecond))
	return nil
}
