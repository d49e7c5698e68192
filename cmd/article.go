package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wegiclabs/contentpipe/internal/article"
)

var (
	flagArticleOut  string
	flagArticleMeta bool
)

var articleCmd = &cobra.Command{
	Use:   "article <topic>",
	Short: "Generate a promotional SEO article for a topic",
	Long: `Article runs the full generation workflow: research the topic
against the knowledge index, write each section through the model, and
assemble the final markdown.

The article is written to --out when given, otherwise to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runArticle,
}

func init() {
	articleCmd.Flags().StringVarP(&flagArticleOut, "out", "o", "", "write the article markdown to this file")
	articleCmd.Flags().BoolVar(&flagArticleMeta, "meta", false, "print article metadata as JSON to stderr")
	rootCmd.AddCommand(articleCmd)
}

func runArticle(cmd *cobra.Command, args []string) error {
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

	generator, err := a.newGenerator()
	if err != nil {
		return err
	}
	retriever, err := a.newRetriever()
	if err != nil {
		return err
	}
	builder, err := article.NewBuilder(generator, retriever, a.logger)
	if err != nil {
		return err
	}

	topic := strings.Join(args, " ")
	result, err := builder.Build(ctx, topic)
	if err != nil {
		return err
	}

	if flagArticleOut != "" {
		if err := os.WriteFile(flagArticleOut, []byte(result.FinalArticle), 0o640); err != nil {
			return fmt.Errorf("writing article: %w", err)
		}
		fmt.Printf("Wrote %d words to %s (SEO score %d)\n",
			result.TotalWordCount, flagArticleOut, result.SEOScore)
	} else {
		fmt.Println(result.FinalArticle)
	}

	if flagArticleMeta {
		meta, err := json.MarshalIndent(result.Metadata, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		fmt.Fprintln(os.Stderr, string(meta))
	}
	return nil
}
