package main

import (
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/config"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings"
	embeddingsollama "github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings/ollama"
	embeddingsopenai "github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings/openai"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm"
	llmanyllm "github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm/anyllm"
	llmopenai "github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm/openai"
)

// registerBuiltinProviders wires real constructors for every provider name
// this binary supports, unlike the teacher's registerBuiltinProviders (which
// only logs names as a placeholder pending real factories).
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterLLM("openai", func(e config.ProviderEntry) (llm.Provider, error) {
		opts := []llmopenai.Option{}
		if e.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(e.BaseURL))
		}
		return llmopenai.New(e.APIKey, e.Model, opts...)
	})

	reg.RegisterLLM("anyllm", func(e config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if e.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
		}
		if e.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
		}
		backend, _ := e.Options["backend"].(string)
		if backend == "" {
			backend = "openai"
		}
		return llmanyllm.New(backend, e.Model, opts...)
	})

	reg.RegisterEmbeddings("openai", func(e config.ProviderEntry) (embeddings.Provider, error) {
		opts := []embeddingsopenai.Option{}
		if e.BaseURL != "" {
			opts = append(opts, embeddingsopenai.WithBaseURL(e.BaseURL))
		}
		return embeddingsopenai.New(e.APIKey, e.Model, opts...)
	})

	reg.RegisterEmbeddings("ollama", func(e config.ProviderEntry) (embeddings.Provider, error) {
		baseURL := e.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return embeddingsollama.New(baseURL, e.Model)
	})
}
