// Package article generates promotional SEO articles about the Wegic
// platform. A seven-step workflow researches the topic against the
// knowledge index, writes each section through the model, and
// assembles the final markdown deterministically.
package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// WorkflowName identifies the article workflow in logs.
const WorkflowName = "wegic-promotional-article-generator"

// Step IDs, in execution order.
const (
	StepResearch     = "research"
	StepIntroduction = "introduction"
	StepMainContent1 = "mainContent1"
	StepMainContent2 = "mainContent2"
	StepBenefits     = "benefits"
	StepConclusion   = "conclusion"
	StepFinalize     = "finalize"
)

// PlaceholderSEOScore is reported until real SEO scoring exists.
// TODO: implement actual SEO scoring against the final markdown.
const PlaceholderSEOScore = 95

const referenceSource = "Wegic documentation"

// ErrOutlineParse indicates the model response did not contain a valid
// outline JSON object.
var ErrOutlineParse = errors.New("model did not return a valid outline")

// TextGenerator produces text from a prompt. Satisfied by
// agent.Generator.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FactSource retrieves indexed product information for a query.
// Satisfied by retrieve.Retriever.
type FactSource interface {
	Facts(ctx context.Context, query string, topK int) (string, error)
}

// Builder wires the workflow steps to a generator and a fact source.
type Builder struct {
	gen    TextGenerator
	facts  FactSource
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(gen TextGenerator, facts FactSource, logger *slog.Logger) (*Builder, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if facts == nil {
		return nil, fmt.Errorf("fact source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{gen: gen, facts: facts, logger: logger}, nil
}

// Build runs the full workflow for a topic and returns the assembled
// article.
func (b *Builder) Build(ctx context.Context, topic string) (*Article, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("topic is empty")
	}

	w, err := b.workflow(topic)
	if err != nil {
		return nil, err
	}

	b.logger.Info("starting article workflow", "workflow", WorkflowName, "topic", topic)
	run, err := w.Execute(ctx)
	if err != nil {
		return nil, err
	}

	article, err := Result[*Article](run, StepFinalize)
	if err != nil {
		return nil, err
	}
	b.logger.Info("article workflow finished",
		"run_id", run.ID,
		"words", article.TotalWordCount,
	)
	return article, nil
}

// workflow assembles the step DAG for one topic.
func (b *Builder) workflow(topic string) (*Workflow, error) {
	w := NewWorkflow(WorkflowName)

	steps := []Step{
		{
			ID: StepResearch,
			Run: func(ctx context.Context, _ *Run) (any, error) {
				return b.research(ctx, topic)
			},
		},
		{
			ID:    StepIntroduction,
			Needs: []string{StepResearch},
			Run: func(ctx context.Context, run *Run) (any, error) {
				return b.introduction(ctx, run, topic)
			},
		},
		{
			ID:    StepMainContent1,
			Needs: []string{StepResearch, StepIntroduction},
			Run: func(ctx context.Context, run *Run) (any, error) {
				return b.mainContent1(ctx, run, topic)
			},
		},
		{
			ID:    StepMainContent2,
			Needs: []string{StepResearch, StepMainContent1},
			Run: func(ctx context.Context, run *Run) (any, error) {
				return b.mainContent2(ctx, run)
			},
		},
		{
			ID:    StepBenefits,
			Needs: []string{StepResearch},
			Run: func(ctx context.Context, run *Run) (any, error) {
				return b.benefits(ctx, run, topic)
			},
		},
		{
			ID:    StepConclusion,
			Needs: []string{StepResearch},
			Run: func(ctx context.Context, run *Run) (any, error) {
				return b.conclusion(ctx, run, topic)
			},
		},
		{
			ID: StepFinalize,
			Needs: []string{
				StepResearch, StepIntroduction, StepMainContent1,
				StepMainContent2, StepBenefits, StepConclusion,
			},
			Run: func(_ context.Context, run *Run) (any, error) {
				return finalize(run, topic)
			},
		},
	}
	for _, step := range steps {
		if err := w.Add(step); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// research queries the index for topic context, asks the model for a
// structured outline, and gathers per-section references. Section
// reference lookups run concurrently and degrade to a placeholder on
// failure; the outline itself is mandatory.
func (b *Builder) research(ctx context.Context, topic string) (ResearchResult, error) {
	wegicInfo, err := b.facts.Facts(ctx, fmt.Sprintf("key features and benefits of Wegic related to %s", topic), 5)
	if err != nil {
		return ResearchResult{}, fmt.Errorf("querying topic context: %w", err)
	}

	prompt := fmt.Sprintf(`Create a detailed outline for a 2000-word promotional SEO article about Wegic's %s.
Use this Wegic-specific information: %s

Include:
1. SEO metadata optimized for Wegic and %s
2. Main sections highlighting Wegic's unique capabilities
3. Key points emphasizing Wegic's competitive advantages
4. Specific Wegic features to showcase in each section
5. Customer pain points that Wegic solves

Format the outline to focus on Wegic's AI-powered capabilities and benefits.

Return the response as a JSON object with this exact structure:
{
  "seoMetadata": {
    "title": "string",
    "description": "string",
    "keywords": ["string"]
  },
  "sections": [
    {
      "title": "string",
      "wordCount": number,
      "keyPoints": ["string"],
      "wegicFeatures": ["string"]
    }
  ]
}`, topic, wegicInfo, topic)

	raw, err := b.gen.Generate(ctx, prompt)
	if err != nil {
		return ResearchResult{}, err
	}

	outline, err := parseOutline(raw)
	if err != nil {
		return ResearchResult{}, err
	}

	references := make([]Reference, len(outline.Sections))
	g, gctx := errgroup.WithContext(ctx)
	for i, section := range outline.Sections {
		g.Go(func() error {
			content, err := b.facts.Facts(gctx,
				fmt.Sprintf("Wegic features and capabilities related to %s", section.Title), 2)
			if err != nil {
				b.logger.Warn("section reference lookup failed",
					"section", section.Title,
					"error", err,
				)
				content = "Information not available"
			}
			references[i] = Reference{
				Feature: section.Title,
				Source:  referenceSource,
				Content: content,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ResearchResult{}, err
	}

	return ResearchResult{Outline: outline, References: references}, nil
}

func (b *Builder) introduction(ctx context.Context, run *Run, topic string) (SectionContent, error) {
	research, err := Result[ResearchResult](run, StepResearch)
	if err != nil {
		return SectionContent{}, err
	}

	introInfo, err := b.facts.Facts(ctx,
		fmt.Sprintf("Wegic's main value proposition and unique benefits for %s", topic), 2)
	if err != nil {
		return SectionContent{}, fmt.Errorf("querying introduction context: %w", err)
	}

	prompt := fmt.Sprintf(`Write a compelling 250-300 word introduction for a promotional article about Wegic's %s.
Use this Wegic-specific information: %s
And this outline for context: %s

The introduction should:
- Start with a powerful hook about the challenges businesses face
- Introduce Wegic as the revolutionary AI-powered solution
- Highlight Wegic's unique approach to %s
- Preview the main benefits and features
- Use these key references: %s
- End with a clear value proposition`,
		topic, introInfo, mustJSON(research.Outline), topic, mustJSON(research.References))

	return b.generateSection(ctx, prompt)
}

func (b *Builder) mainContent1(ctx context.Context, run *Run, topic string) (SectionContent, error) {
	research, err := Result[ResearchResult](run, StepResearch)
	if err != nil {
		return SectionContent{}, err
	}
	intro, err := Result[SectionContent](run, StepIntroduction)
	if err != nil {
		return SectionContent{}, err
	}

	prompt := fmt.Sprintf(`Write the first part (600-700 words) of the main content for the promotional article about Wegic's %s.
Using this outline: %s
And following this introduction: %s
Reference these Wegic features: %s

Focus on:
- Detailed explanation of Wegic's AI-powered approach to %s
- Specific features and capabilities that set Wegic apart
- Real-world examples of how Wegic solves common challenges
- Technical advantages and innovation in the platform
- Integration capabilities and ease of use

Use proper H2 and H3 headings in markdown format.`,
		topic, mustJSON(research.Outline), intro.Content,
		mustJSON(firstReferences(research.References, 2)), topic)

	return b.generateSection(ctx, prompt)
}

func (b *Builder) mainContent2(ctx context.Context, run *Run) (SectionContent, error) {
	research, err := Result[ResearchResult](run, StepResearch)
	if err != nil {
		return SectionContent{}, err
	}
	main1, err := Result[SectionContent](run, StepMainContent1)
	if err != nil {
		return SectionContent{}, err
	}

	prompt := fmt.Sprintf(`Write the second part (600-700 words) of the main content.
Using this outline: %s
Following this content: %s
Reference these Wegic features: %s

Focus on:
- Customer success stories and case studies with Wegic
- ROI and business impact metrics
- Competitive advantages over traditional solutions
- Future-proof capabilities and scalability
- Advanced features and customization options

Use proper H2 and H3 headings in markdown format.`,
		mustJSON(research.Outline), main1.Content,
		mustJSON(restReferences(research.References, 2)))

	return b.generateSection(ctx, prompt)
}

func (b *Builder) benefits(ctx context.Context, run *Run, topic string) (SectionContent, error) {
	research, err := Result[ResearchResult](run, StepResearch)
	if err != nil {
		return SectionContent{}, err
	}

	prompt := fmt.Sprintf(`Write a detailed benefits and features section (300-400 words) highlighting Wegic's value proposition.
Using this outline: %s
Reference these Wegic features: %s

Include:
- Key differentiators in Wegic's approach to %s
- Quantifiable benefits and performance metrics
- Time and cost savings through AI automation
- Scalability and future-proofing advantages
- Enterprise-grade security and reliability
- Integration capabilities with existing systems

Format as a clear, scannable list of benefits with supporting details.`,
		mustJSON(research.Outline), mustJSON(research.References), topic)

	return b.generateSection(ctx, prompt)
}

func (b *Builder) conclusion(ctx context.Context, run *Run, topic string) (SectionContent, error) {
	research, err := Result[ResearchResult](run, StepResearch)
	if err != nil {
		return SectionContent{}, err
	}

	prompt := fmt.Sprintf(`Write a powerful conclusion and call-to-action (200-250 words) for the Wegic article.
Using this outline: %s

Include:
- Recap of Wegic's unique approach to %s
- Summary of key benefits and competitive advantages
- Vision for the future with Wegic
- Clear next steps for interested readers
- Compelling call-to-action to try Wegic
- Link to Wegic's website or contact information

End with a strong statement about Wegic's impact on the industry.`,
		mustJSON(research.Outline), topic)

	return b.generateSection(ctx, prompt)
}

// finalize assembles the article from the completed sections. No model
// calls happen here; assembly is deterministic.
func finalize(run *Run, topic string) (*Article, error) {
	research, err := Result[ResearchResult](run, StepResearch)
	if err != nil {
		return nil, err
	}
	intro, err := Result[SectionContent](run, StepIntroduction)
	if err != nil {
		return nil, err
	}
	main1, err := Result[SectionContent](run, StepMainContent1)
	if err != nil {
		return nil, err
	}
	main2, err := Result[SectionContent](run, StepMainContent2)
	if err != nil {
		return nil, err
	}
	benefits, err := Result[SectionContent](run, StepBenefits)
	if err != nil {
		return nil, err
	}
	conclusion, err := Result[SectionContent](run, StepConclusion)
	if err != nil {
		return nil, err
	}

	features := make([]string, len(research.References))
	for i, ref := range research.References {
		features[i] = ref.Feature
	}

	callToAction := fmt.Sprintf(
		"Experience the future of %s with Wegic. Start your free trial today and see how our AI-powered platform can transform your business. Visit wegic.ai to learn more.",
		topic)

	finalArticle := strings.Join([]string{
		"# " + research.Outline.SEOMetadata.Title,
		"",
		intro.Content,
		"",
		main1.Content,
		"",
		main2.Content,
		"",
		"## Key Benefits of Using Wegic",
		benefits.Content,
		"",
		"## Transform Your Business with Wegic",
		conclusion.Content,
		"",
		"---",
		callToAction,
	}, "\n\n")

	totalWords := intro.WordCount + main1.WordCount + main2.WordCount +
		benefits.WordCount + conclusion.WordCount

	socialSnippets := []string{
		fmt.Sprintf("🚀 Discover how Wegic's AI-powered platform revolutionizes %s. Learn more in our latest article!", topic),
		fmt.Sprintf("💡 Transform your %s with Wegic's innovative solutions. See the benefits in our detailed guide.", topic),
		fmt.Sprintf("🔥 Want to stay ahead in %s? See how Wegic's AI technology gives you the competitive edge.", topic),
		fmt.Sprintf("⚡️ Wegic makes %s 10x faster and more efficient. Find out how in our new article!", topic),
	}

	return &Article{
		FinalArticle:   finalArticle,
		TotalWordCount: totalWords,
		SEOScore:       PlaceholderSEOScore,
		Metadata: Metadata{
			Title:          research.Outline.SEOMetadata.Title,
			Description:    research.Outline.SEOMetadata.Description,
			Keywords:       research.Outline.SEOMetadata.Keywords,
			SocialSnippets: socialSnippets,
			WegicFeatures:  features,
			CallToAction:   callToAction,
		},
	}, nil
}

// generateSection runs one writing prompt and counts words.
func (b *Builder) generateSection(ctx context.Context, prompt string) (SectionContent, error) {
	content, err := b.gen.Generate(ctx, prompt)
	if err != nil {
		return SectionContent{}, err
	}
	return SectionContent{
		Content:   content,
		WordCount: len(strings.Fields(content)),
	}, nil
}

// parseOutline extracts the outline JSON object from a model response,
// tolerating surrounding prose and markdown code fences.
func parseOutline(raw string) (OutlineData, error) {
	text := extractJSONObject(raw)
	if text == "" {
		return OutlineData{}, fmt.Errorf("%w: no JSON object in response", ErrOutlineParse)
	}

	var outline OutlineData
	if err := json.Unmarshal([]byte(text), &outline); err != nil {
		return OutlineData{}, fmt.Errorf("%w: %v", ErrOutlineParse, err)
	}
	if outline.SEOMetadata.Title == "" || len(outline.Sections) == 0 {
		return OutlineData{}, fmt.Errorf("%w: missing title or sections", ErrOutlineParse)
	}
	return outline, nil
}

// extractJSONObject returns the substring from the first '{' to the
// last '}', or "" when no object is present.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func firstReferences(refs []Reference, n int) []Reference {
	if len(refs) < n {
		return refs
	}
	return refs[:n]
}

func restReferences(refs []Reference, n int) []Reference {
	if len(refs) < n {
		return nil
	}
	return refs[n:]
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
