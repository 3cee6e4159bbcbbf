package app

import (
	"fmt"

	"github.com/archisdhar8/religiousAI/internal/platform/chroma"
	"github.com/archisdhar8/religiousAI/internal/platform/config"
	"github.com/archisdhar8/religiousAI/internal/platform/llm"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/realtime/bus"
)

type Clients struct {
	LLM    llm.Client
	Chroma *chroma.Client
	// Bus is redis-backed when REDIS_ADDR is set, in-process otherwise.
	Bus bus.Bus
}

func wireClients(log *logger.Logger, cfg *config.Config) (Clients, error) {
	log.Info("Wiring clients...")

	opts := llm.Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.OllamaModel,
		EmbedModel:  cfg.LLM.OllamaEmbedModel,
		BaseURL:     cfg.LLM.OllamaURL,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}
	if cfg.LLM.Provider == "openai" {
		opts.Model = cfg.LLM.OpenAIModel
		opts.BaseURL = cfg.LLM.OpenAIBaseURL
		opts.APIKey = cfg.LLM.OpenAIAPIKey
	}
	llmClient, err := llm.New(log, opts)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm client: %w", err)
	}

	store, err := chroma.NewClient(log, chroma.Config{
		URL:        cfg.Chroma.URL,
		Collection: cfg.Chroma.Collection,
		Tenant:     cfg.Chroma.Tenant,
		Database:   cfg.Chroma.Database,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init chroma client: %w", err)
	}

	b, err := bus.New(log, cfg.Redis.Addr, cfg.Redis.Channel)
	if err != nil {
		return Clients{}, fmt.Errorf("init realtime bus: %w", err)
	}

	return Clients{
		LLM:    llmClient,
		Chroma: store,
		Bus:    b,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
