package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/config"
)

func TestLoadFromReader_ValidRelational(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  db_type: relational
  db_connection: "postgres://localhost/graphrag"
vector:
  connection: "postgres://localhost/graphrag"
  size: 1536
text_chunker:
  lines_per_split: 20
  tokens_per_paragraph: 400
graph_search:
  search_limit: 5
  search_min_relevance: 0.5
  node_depth: 3
  max_nodes: 40
  max_tokens: 4000
providers:
  llm:
    name: openai
    model: gpt-4o
  embeddings:
    name: openai
    model: text-embedding-3-small
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Storage.DbType != config.DbTypeRelational {
		t.Errorf("DbType = %q, want relational", cfg.Storage.DbType)
	}
	if cfg.Vector.Size != 1536 {
		t.Errorf("Vector.Size = %d, want 1536", cfg.Vector.Size)
	}
}

func TestLoadFromReader_MissingDbType(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
  embeddings:
    name: openai
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing storage.db_type, got nil")
	}
	if !strings.Contains(err.Error(), "db_type") {
		t.Errorf("error should mention db_type, got: %v", err)
	}
}

func TestLoadFromReader_InvalidDbType(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  db_type: mongo
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid storage.db_type, got nil")
	}
}

func TestLoadFromReader_RelationalRequiresConnection(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  db_type: relational
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing db_connection, got nil")
	}
	if !strings.Contains(err.Error(), "db_connection") {
		t.Errorf("error should mention db_connection, got: %v", err)
	}
}

func TestLoadFromReader_PropertyGraphRequiresCredentials(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  db_type: propertyGraph
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing property_graph credentials, got nil")
	}
	if !strings.Contains(err.Error(), "property_graph.uri") {
		t.Errorf("error should mention property_graph.uri, got: %v", err)
	}
}

func TestLoadFromReader_PropertyGraphValid(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  db_type: propertyGraph
property_graph:
  uri: "neo4j://localhost:7687"
  user: neo4j
  password: secret
  database: graphrag
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.PropertyGraph.URI != "neo4j://localhost:7687" {
		t.Errorf("PropertyGraph.URI = %q", cfg.PropertyGraph.URI)
	}
}

func TestLoadFromReader_VectorSizeRequiredWithConnection(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  db_type: relational
  db_connection: "postgres://localhost/graphrag"
vector:
  connection: "postgres://localhost/graphrag"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for vector.size <= 0 with connection set, got nil")
	}
}

func TestLoadFromReader_InvalidMinRelevance(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  db_type: relational
  db_connection: "postgres://localhost/graphrag"
graph_search:
  search_min_relevance: 1.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range search_min_relevance, got nil")
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  db_type: relational
  db_connection: "postgres://localhost/graphrag"
not_a_real_field: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}
