package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/config"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings"
	embmock "github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings/mock"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm"
	llmmock "github.com/MrWong99/glyphoxa-graphrag/pkg/provider/llm/mock"
)

func TestRegistry_CreateLLM_NotRegistered(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	_, err := reg.CreateLLM(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_CreateLLM_Registered(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	reg.RegisterLLM("mock", func(entry config.ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{}, nil
	})

	p, err := reg.CreateLLM(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
	if p == nil {
		t.Fatal("CreateLLM returned nil provider")
	}
}

func TestRegistry_CreateEmbeddings_Registered(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	reg.RegisterEmbeddings("mock", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		return &embmock.Provider{DimensionsValue: 8}, nil
	})

	p, err := reg.CreateEmbeddings(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateEmbeddings: %v", err)
	}
	if p.Dimensions() != 8 {
		t.Errorf("Dimensions() = %d, want 8", p.Dimensions())
	}
}

func TestRegistry_CreateEmbeddings_NotRegistered(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	_, err := reg.CreateEmbeddings(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_CreateLLM_FallsBackOnPrimaryError(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	boom := errors.New("primary down")
	primary := &llmmock.Provider{CompleteErr: boom}
	fallback := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "from fallback"}}

	reg.RegisterLLM("primary", func(entry config.ProviderEntry) (llm.Provider, error) { return primary, nil })
	reg.RegisterLLM("fallback", func(entry config.ProviderEntry) (llm.Provider, error) { return fallback, nil })

	p, err := reg.CreateLLM(config.ProviderEntry{
		Name:      "primary",
		Fallbacks: []config.ProviderEntry{{Name: "fallback"}},
	})
	if err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "from fallback" {
		t.Errorf("Content = %q, want %q", resp.Content, "from fallback")
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	boom := errors.New("boom")
	reg.RegisterLLM("broken", func(entry config.ProviderEntry) (llm.Provider, error) {
		return nil, boom
	})
	_, err := reg.CreateLLM(config.ProviderEntry{Name: "broken"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
