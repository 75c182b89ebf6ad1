// Command graphrag-ingest is a CLI front end for the GraphRAG engine: a
// minimal stand-in for the HTTP surface spec.md scopes out, wiring config,
// providers, and storage the way cmd/glyphoxa/main.go wires its own
// dependencies.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/glyphoxa-graphrag/graphrag/api"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/chunker"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/config"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/engine"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/observe"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/semantic"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage/propertygraph"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/storage/relational"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory"
	memvec "github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory/memory"
	"github.com/MrWong99/glyphoxa-graphrag/graphrag/vectormemory/pgvector"
	"github.com/MrWong99/glyphoxa-graphrag/pkg/provider/embeddings"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 2
	}
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	index := fs.String("index", "", "index name")
	text := fs.String("text", "", "raw text to ingest (insert/insert-chunked)")
	query := fs.String("query", "", "question to answer (search/search-community)")
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "graphrag-ingest: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "graphrag-ingest: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "graphrag-ingest"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "err", err)
		}
	}()

	eng, closeRepo, err := buildEngine(ctx, cfg)
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		return 1
	}
	defer closeRepo()
	srv := api.New(eng)

	if err := dispatch(ctx, srv, cmd, *index, *text, *query); err != nil {
		slog.Error("command failed", "cmd", cmd, "err", err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, srv *api.Server, cmd, index, text, query string) error {
	switch cmd {
	case "insert":
		return srv.InsertText(ctx, index, text)
	case "insert-chunked":
		return srv.InsertChunked(ctx, index, text)
	case "search":
		answer, err := srv.SearchGraph(ctx, index, query)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	case "search-community":
		answer, err := srv.SearchGraphCommunity(ctx, index, query)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	case "search-stream":
		frags, err := srv.SearchGraphStream(ctx, index, query)
		if err != nil {
			return err
		}
		answer, err := api.AnswerText(frags)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	case "rebuild-communities":
		return srv.RebuildCommunities(ctx, index)
	case "rebuild-global":
		return srv.RebuildGlobal(ctx, index)
	case "list-indices":
		names, err := srv.ListIndices(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	case "get-graph":
		g, err := srv.GetGraph(ctx, index)
		if err != nil {
			return err
		}
		fmt.Printf("%d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
		return nil
	case "delete-index":
		return srv.DeleteIndex(ctx, index)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: graphrag-ingest <command> -config=config.yaml [flags]

commands:
  insert             -index=NAME -text="..."    extract and merge a single document
  insert-chunked     -index=NAME -text="..."    split, then extract each chunk concurrently
  search             -index=NAME -query="..."   recursive-subgraph query answer
  search-stream      -index=NAME -query="..."   same, streamed and joined for printing
  search-community   -index=NAME -query="..."   query answer including community/global summaries
  rebuild-communities -index=NAME               recompute community detection and summaries
  rebuild-global      -index=NAME               recompute the global summary
  list-indices                                  list every known index
  get-graph           -index=NAME               print the node/edge count for an index
  delete-index        -index=NAME               remove every node, edge, community, and vector entry`)
}

// buildEngine wires a GraphEngine from cfg the way cmd/glyphoxa/main.go wires
// an *app.Application: storage adapter selection, provider registry lookup,
// chunker configuration, and query-time Params all come straight from the
// loaded config. The returned func closes the storage adapter's connections.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.GraphEngine, func(), error) {
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	repo, err := buildRepository(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build repository: %w", err)
	}
	closeRepo := func() {
		switch r := repo.(type) {
		case *relational.Repository:
			r.Close()
		case *propertygraph.Repository:
			_ = r.Close(context.Background())
		}
	}

	embProvider, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
	if err != nil {
		return nil, nil, fmt.Errorf("create embeddings provider %q: %w", cfg.Providers.Embeddings.Name, err)
	}

	vec, err := buildVectorMemory(ctx, cfg, embProvider)
	if err != nil {
		return nil, nil, fmt.Errorf("build vector memory: %w", err)
	}

	llmProvider, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	sem := semantic.NewAdapter(llmProvider)

	c := chunker.New(chunker.Config{
		LinesPerSplit:      cfg.TextChunker.LinesPerSplit,
		TokensPerParagraph: cfg.TextChunker.TokensPerParagraph,
	})

	params := engine.Params{
		SearchLimit:        cfg.GraphSearch.SearchLimit,
		SearchMinRelevance: cfg.GraphSearch.SearchMinRelevance,
		NodeDepth:          cfg.GraphSearch.NodeDepth,
		MaxNodes:           cfg.GraphSearch.MaxNodes,
		MaxTokens:          cfg.GraphSearch.MaxTokens,
	}

	return engine.New(repo, vec, sem, c, params), closeRepo, nil
}

func buildRepository(ctx context.Context, cfg *config.Config) (storage.Repository, error) {
	switch cfg.Storage.DbType {
	case config.DbTypeRelational:
		return relational.NewRepository(ctx, cfg.Storage.DbConnection)
	case config.DbTypePropertyGraph:
		repo, err := propertygraph.NewRepository(ctx, cfg.PropertyGraph.URI, cfg.PropertyGraph.User, cfg.PropertyGraph.Password, cfg.PropertyGraph.Database)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unrecognised storage.db_type %q", cfg.Storage.DbType)
	}
}

func buildVectorMemory(ctx context.Context, cfg *config.Config, embProvider embeddings.Provider) (vectormemory.Memory, error) {
	if cfg.Vector.Connection == "" {
		return memvec.New(embProvider), nil
	}

	pool, err := pgxpool.New(ctx, cfg.Vector.Connection)
	if err != nil {
		return nil, fmt.Errorf("connect vector pool: %w", err)
	}
	mem := pgvector.New(pool, embProvider)
	if err := mem.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return mem, nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
