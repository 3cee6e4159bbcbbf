package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/archisdhar8/religiousAI/internal/observability"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("llm returned empty completion")

// Prompt is a single-turn request: a system instruction and the user text.
type Prompt struct {
	System string
	User   string
	// MaxTokens overrides the configured default when > 0.
	MaxTokens int
}

type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client bundles generation and embeddings for the guidance pipeline.
type Client interface {
	Generator
	Embedder
	Name() string
}

type Options struct {
	Provider    string
	Model       string
	EmbedModel  string
	BaseURL     string
	APIKey      string
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
}

// New builds the provider selected by opts.Provider ("ollama" or "openai").
func New(log *logger.Logger, opts Options) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	var (
		c   Client
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "ollama":
		c, err = NewOllama(log, opts)
	case "openai":
		c, err = NewOpenAI(log, opts)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", opts.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &instrumented{Client: c}, nil
}

// instrumented records call counts and latency for every provider call.
type instrumented struct {
	Client
}

func (i *instrumented) Generate(ctx context.Context, p Prompt) (string, error) {
	start := time.Now()
	out, err := i.Client.Generate(ctx, p)
	observability.Current().ObserveLLMRequest(i.Name(), "generate", callStatus(err), time.Since(start))
	return out, err
}

func (i *instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	out, err := i.Client.Embed(ctx, text)
	observability.Current().ObserveLLMRequest(i.Name(), "embed", callStatus(err), time.Since(start))
	return out, err
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty"
	default:
		return "error"
	}
}

func maxTokens(p Prompt, def int) int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return def
}
