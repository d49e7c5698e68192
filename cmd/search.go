package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wegiclabs/contentpipe/internal/retrieve"
)

var flagSearchTopK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Query the knowledge index",
	Long: `Search embeds the query, runs a similarity search against the
knowledge index, and prints the matched excerpts with their scores.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&flagSearchTopK, "top-k", "k", retrieve.DefaultTopK, "number of matches to return")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	retriever, err := a.newRetriever()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	matches, err := retriever.Search(ctx, query, flagSearchTopK)
	if err != nil {
		return err
	}

	for i, m := range matches {
		fmt.Printf("%d. [%.3f]", i+1, m.Similarity)
		if m.Source != "" {
			fmt.Printf(" %s", m.Source)
		}
		fmt.Printf("\n%s\n\n", m.Text)
	}
	return nil
}
