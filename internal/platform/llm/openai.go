package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// OpenAI serves any OpenAI-compatible chat and embeddings endpoint.
type OpenAI struct {
	log      *logger.Logger
	client   *gopenai.Client
	opts     Options
	provider string
}

func NewOpenAI(log *logger.Logger, opts Options) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is required for LLM_PROVIDER=openai")
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = string(gopenai.SmallEmbedding3)
	}
	cfg := gopenai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAI{
		log:      log.With("service", "OpenAIClient"),
		client:   gopenai.NewClientWithConfig(cfg),
		opts:     opts,
		provider: "openai",
	}, nil
}

func (o *OpenAI) Name() string { return o.provider }

func (o *OpenAI) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.Timeout <= 0 {
		return context.WithCancel(ctxutil.Default(ctx))
	}
	return context.WithTimeout(ctxutil.Default(ctx), o.opts.Timeout)
}

func (o *OpenAI) Generate(ctx context.Context, p Prompt) (string, error) {
	msgs := make([]gopenai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(p.System) != "" {
		msgs = append(msgs, gopenai.ChatCompletionMessage{Role: gopenai.ChatMessageRoleSystem, Content: p.System})
	}
	msgs = append(msgs, gopenai.ChatCompletionMessage{Role: gopenai.ChatMessageRoleUser, Content: p.User})

	timeoutCtx, cancel := o.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(timeoutCtx, gopenai.ChatCompletionRequest{
		Model:       o.opts.Model,
		Messages:    msgs,
		Temperature: o.opts.Temperature,
		TopP:        o.opts.TopP,
		MaxTokens:   maxTokens(p, o.opts.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed: %w", o.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	o.log.Debug("completion",
		"provider", o.provider,
		"model", o.opts.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"tokens", resp.Usage.TotalTokens,
	)
	return out, nil
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	timeoutCtx, cancel := o.withTimeout(ctx)
	defer cancel()

	resp, err := o.client.CreateEmbeddings(timeoutCtx, gopenai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: gopenai.EmbeddingModel(o.opts.EmbedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%s create embeddings: %w", o.provider, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}
