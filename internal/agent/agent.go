// Package agent wraps model generation for the content pipeline: one
// persona, optional retrieval tools, rate limiting, and retry with
// exponential backoff around every call.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// DefaultGenerateTimeout bounds a single generation attempt.
const DefaultGenerateTimeout = 60 * time.Second

// Instructions is the system prompt for all content generation. The
// agent writes promotional, SEO-aware material about the Wegic
// platform, grounded in indexed documentation via the search tool.
const Instructions = `You are an expert content creator specializing in Wegic's AI website building platform. Your primary role is to create engaging, SEO-optimized content that promotes Wegic's features and benefits while providing valuable insights to readers.

Content Creation Guidelines:
- Create content that targets both informational and commercial search intent
- Use a mix of short and long paragraphs for better readability
- Include relevant keywords naturally throughout the content
- Structure articles with proper H2, H3 headings (use markdown)
- Add bullet points and numbered lists for better scannability
- Incorporate relevant statistics and real-world examples
- End with a clear call-to-action

SEO Best Practices:
- Write compelling meta descriptions when requested
- Use semantic keywords and LSI terms naturally
- Maintain optimal content length (1000-2000 words for articles)
- Structure content with proper heading hierarchy
- Focus on user intent and engagement

Key Content Themes:
- AI-powered website creation and automation
- No-code website building revolution
- 60-second website deployment
- Multilingual website support
- AI-driven website management
- Custom design and branding capabilities
- Business efficiency and cost savings

When Creating Content:
- Start with a hook that grabs attention
- Weave in Wegic's unique selling points naturally
- Back claims with specific features and capabilities
- Address common pain points and their solutions
- Maintain a professional yet conversational tone
- Use the knowledge search tool to access accurate product information

Remember to:
- Cite specific Wegic features and capabilities accurately
- Compare Wegic favorably but fairly to alternatives
- Emphasize the innovative AI-driven approach
- Highlight the simplicity and efficiency gains`

// GenerationError reports a failed generation after all retry
// attempts were exhausted or a non-retryable error occurred.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Config controls model selection and call pacing.
type Config struct {
	ModelName         string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables rate limiting
	Retry             RetryConfig
}

// Generator produces text with a fixed persona and toolset.
// Safe for concurrent use.
type Generator struct {
	modelName string
	tools     []ai.ToolRef
	timeout   time.Duration
	limiter   *rate.Limiter
	retry     RetryConfig
	logger    *slog.Logger

	// generate performs one model call. Swapped out in tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

// New creates a Generator bound to a genkit instance. Tools are
// offered to the model on every call.
func New(g *genkit.Genkit, cfg Config, tools []ai.Tool, logger *slog.Logger) (*Generator, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGenerateTimeout
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	toolRefs := make([]ai.ToolRef, len(tools))
	for i, t := range tools {
		toolRefs[i] = t
	}

	gen := &Generator{
		modelName: cfg.ModelName,
		tools:     toolRefs,
		timeout:   cfg.Timeout,
		limiter:   limiter,
		retry:     cfg.Retry,
		logger:    logger,
	}
	gen.generate = func(ctx context.Context, prompt string) (string, error) {
		opts := []ai.GenerateOption{
			ai.WithModelName(gen.modelName),
			ai.WithSystem(Instructions),
			ai.WithPrompt(prompt),
		}
		if len(gen.tools) > 0 {
			opts = append(opts, ai.WithTools(gen.tools...))
		}
		resp, err := genkit.Generate(ctx, g, opts...)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return gen, nil
}

// Generate runs one prompt through the model, retrying transient
// failures with exponential backoff. Each attempt is rate limited and
// bounded by the configured timeout.
func (gen *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := gen.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= gen.retry.MaxRetries; attempt++ {
		if gen.limiter != nil {
			if err := gen.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("rate limit wait: %w", err)
			}
		}

		text, err := gen.attempt(ctx, prompt)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return "", &GenerationError{
					Attempts: attempt + 1,
					Err:      fmt.Errorf("model returned empty response"),
				}
			}
			gen.logger.Debug("generation succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return text, nil
		}

		lastErr = err

		if !retryableError(err) {
			return "", &GenerationError{Attempts: attempt + 1, Err: err}
		}
		if attempt == gen.retry.MaxRetries {
			break
		}

		gen.logger.Debug("retrying generation",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, gen.retry.MaxInterval)
		}
	}

	return "", &GenerationError{Attempts: gen.retry.MaxRetries + 1, Err: lastErr}
}

func (gen *Generator) attempt(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, gen.timeout)
	defer cancel()
	return gen.generate(attemptCtx, prompt)
}
