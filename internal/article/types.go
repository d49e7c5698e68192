package article

// SEOMetadata is the search-facing metadata the research step asks the
// model to produce.
type SEOMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Section is one planned article section from the outline.
type Section struct {
	Title         string   `json:"title"`
	WordCount     int      `json:"wordCount"`
	KeyPoints     []string `json:"keyPoints"`
	WegicFeatures []string `json:"wegicFeatures"`
}

// OutlineData is the structured outline the research step extracts
// from the model response.
type OutlineData struct {
	SEOMetadata SEOMetadata `json:"seoMetadata"`
	Sections    []Section   `json:"sections"`
}

// Reference is retrieved product context for one outline section.
type Reference struct {
	Feature string `json:"feature"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

// ResearchResult is the output of the research step.
type ResearchResult struct {
	Outline    OutlineData `json:"outline"`
	References []Reference `json:"wegicReferences"`
}

// SectionContent is the output of each writing step.
type SectionContent struct {
	Content   string `json:"content"`
	WordCount int    `json:"wordCount"`
}

// Metadata accompanies a finished article.
type Metadata struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Keywords       []string `json:"keywords"`
	SocialSnippets []string `json:"socialSnippets"`
	WegicFeatures  []string `json:"wegicFeatures"`
	CallToAction   string   `json:"callToAction"`
}

// Article is the assembled final output of the workflow.
type Article struct {
	FinalArticle   string   `json:"finalArticle"`
	TotalWordCount int      `json:"totalWordCount"`
	SEOScore       int      `json:"seoScore"`
	Metadata       Metadata `json:"metadata"`
}
