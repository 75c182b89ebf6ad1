// Package config provides the configuration schema, YAML loader, and
// LLM/embedding provider registry for the GraphRAG engine (spec.md §6).
package config

// Config is the root configuration structure for the GraphRAG engine.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	PropertyGraph PropertyGraphConfig `yaml:"property_graph"`
	Vector        VectorConfig        `yaml:"vector"`
	TextChunker   TextChunkerConfig   `yaml:"text_chunker"`
	GraphSearch   GraphSearchConfig   `yaml:"graph_search"`
	Providers     ProvidersConfig     `yaml:"providers"`
}

// ServerConfig holds process-wide settings unrelated to any single storage
// backend.
type ServerConfig struct {
	// LogLevel controls log/slog verbosity. Valid values: "debug", "info",
	// "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// LogLevel is a validated string enum for [ServerConfig.LogLevel].
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the recognised log levels, treating the
// empty value as valid (caller falls back to a default).
func (l LogLevel) IsValid() bool {
	switch l {
	case "", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// DbType selects which Repository adapter backs the engine (spec.md §4.4 /
// §9 "Adapter polymorphism").
type DbType string

const (
	// DbTypeRelational selects the PostgreSQL/pgx-backed Repository adapter
	// (graphrag/storage/relational).
	DbTypeRelational DbType = "relational"

	// DbTypePropertyGraph selects the Neo4j-backed Repository adapter
	// (graphrag/storage/propertygraph).
	DbTypePropertyGraph DbType = "propertyGraph"
)

// IsValid reports whether t is a recognised [DbType].
func (t DbType) IsValid() bool {
	switch t {
	case DbTypeRelational, DbTypePropertyGraph:
		return true
	default:
		return false
	}
}

// StorageConfig selects and configures the Repository adapter (spec.md §6).
type StorageConfig struct {
	// DbType selects the adapter. Required.
	DbType DbType `yaml:"db_type"`

	// DbConnection is the backend-specific connection string. For
	// DbTypeRelational this is a PostgreSQL DSN; for DbTypePropertyGraph this
	// field is unused in favour of [PropertyGraphConfig].
	DbConnection string `yaml:"db_connection"`
}

// PropertyGraphConfig carries the Neo4j credentials used when
// [StorageConfig.DbType] is [DbTypePropertyGraph].
type PropertyGraphConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// VectorConfig configures the VectorMemory adapter (spec.md §4.3, §6).
type VectorConfig struct {
	// Connection is the pgvector-backed store's connection string. When
	// empty, an in-memory VectorMemory is used (local dev / tests).
	Connection string `yaml:"connection"`

	// Size is the embedding dimension. Must match the configured embedding
	// provider's [embeddings.Provider.Dimensions].
	Size int `yaml:"size"`
}

// TextChunkerConfig configures the Chunker (spec.md §4.1, §6).
type TextChunkerConfig struct {
	LinesPerSplit      int `yaml:"lines_per_split"`
	TokensPerParagraph int `yaml:"tokens_per_paragraph"`
}

// GraphSearchConfig configures query-time retrieval and subgraph expansion
// (spec.md §4.6.3-4.6.5, §6).
type GraphSearchConfig struct {
	SearchLimit        int     `yaml:"search_limit"`
	SearchMinRelevance float64 `yaml:"search_min_relevance"`
	NodeDepth          int     `yaml:"node_depth"`
	MaxNodes           int     `yaml:"max_nodes"`
	MaxTokens          int     `yaml:"max_tokens"`
}

// ProvidersConfig declares which provider implementation backs the
// SemanticClient's language model and the embedding producer. Each field
// selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM        ProviderEntry `yaml:"llm"`
	Embeddings ProviderEntry `yaml:"embeddings"`
}

// ProviderEntry is the common configuration block shared by both provider
// kinds. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai",
	// "ollama", "anyllm").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Leave empty to
	// use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`

	// Fallbacks lists additional provider entries tried, in order, if this
	// entry's provider fails or its circuit breaker is open (see
	// graphrag/resilience.LLMFallback).
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}
