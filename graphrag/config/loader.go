package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent, spec.md §6-compliant set of
// values. It returns a joined error listing every validation failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Storage.DbType == "" {
		errs = append(errs, errors.New("storage.db_type is required"))
	} else if !cfg.Storage.DbType.IsValid() {
		errs = append(errs, fmt.Errorf("storage.db_type %q is invalid; valid values: relational, propertyGraph", cfg.Storage.DbType))
	}

	if cfg.Storage.DbType == DbTypeRelational && cfg.Storage.DbConnection == "" {
		errs = append(errs, errors.New("storage.db_connection is required when storage.db_type is relational"))
	}
	if cfg.Storage.DbType == DbTypePropertyGraph {
		if cfg.PropertyGraph.URI == "" {
			errs = append(errs, errors.New("property_graph.uri is required when storage.db_type is propertyGraph"))
		}
		if cfg.PropertyGraph.User == "" {
			errs = append(errs, errors.New("property_graph.user is required when storage.db_type is propertyGraph"))
		}
	}

	if cfg.Vector.Connection != "" && cfg.Vector.Size <= 0 {
		errs = append(errs, errors.New("vector.size must be > 0 when vector.connection is set"))
	}

	if cfg.TextChunker.LinesPerSplit < 0 {
		errs = append(errs, errors.New("text_chunker.lines_per_split must be >= 0"))
	}
	if cfg.TextChunker.TokensPerParagraph < 0 {
		errs = append(errs, errors.New("text_chunker.tokens_per_paragraph must be >= 0"))
	}

	if cfg.GraphSearch.SearchMinRelevance < 0 || cfg.GraphSearch.SearchMinRelevance > 1 {
		errs = append(errs, fmt.Errorf("graph_search.search_min_relevance %.2f out of range [0,1]", cfg.GraphSearch.SearchMinRelevance))
	}

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("providers.llm is not configured; ingest and search will fail at runtime")
	}
	if cfg.Providers.Embeddings.Name == "" {
		slog.Warn("providers.embeddings is not configured; dedup and retrieval will fail at runtime")
	}

	return errors.Join(errs...)
}
