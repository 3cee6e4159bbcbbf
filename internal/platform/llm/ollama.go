package llm

import (
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// Ollama talks to a local Ollama server through its OpenAI-compatible /v1 API.
type Ollama struct {
	*OpenAI
}

func NewOllama(log *logger.Logger, opts Options) (*Ollama, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434"
	}
	if opts.Model == "" {
		opts.Model = "llama3"
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = "nomic-embed-text"
	}
	// Ollama ignores the key but the client sends one.
	cfg := gopenai.DefaultConfig("ollama")
	cfg.BaseURL = ollamaV1(opts.BaseURL)
	return &Ollama{OpenAI: &OpenAI{
		log:      log.With("service", "OllamaClient"),
		client:   gopenai.NewClientWithConfig(cfg),
		opts:     opts,
		provider: "ollama",
	}}, nil
}

func ollamaV1(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}
