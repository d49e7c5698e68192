package retrieve

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// SearchToolName is the tool identifier the model sees.
const SearchToolName = "search_knowledge"

// MaxTopK caps the match count a model may request per tool call.
const MaxTopK = 10

// SearchInput is the tool input schema.
type SearchInput struct {
	Query string `json:"query" jsonschema_description:"The search query"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of matches to return (1-10, default 5)"`
}

// SearchOutput is the tool output schema.
type SearchOutput struct {
	Query   string  `json:"query"`
	Matches []Match `json:"matches"`
}

// RegisterTool exposes the retriever as a genkit tool so generation
// calls can ground their output in indexed documentation.
func RegisterTool(g *genkit.Genkit, r *Retriever) ai.Tool {
	return genkit.DefineTool(g, SearchToolName,
		"Search the Wegic documentation and blog knowledge base using semantic similarity. "+
			"Returns matched text excerpts with similarity scores. "+
			"Use this to find accurate product information before writing about Wegic features. "+
			"Default limit: 5. Maximum limit: 10.",
		func(ctx *ai.ToolContext, input SearchInput) (SearchOutput, error) {
			matches, err := r.Search(ctx, input.Query, clampTopK(input.Limit))
			if err != nil {
				return SearchOutput{}, err
			}
			return SearchOutput{Query: input.Query, Matches: matches}, nil
		})
}

// clampTopK validates a requested limit and returns a value in
// [1, MaxTopK], defaulting when unset.
func clampTopK(limit int) int {
	switch {
	case limit <= 0:
		return DefaultTopK
	case limit > MaxTopK:
		return MaxTopK
	default:
		return limit
	}
}
