// Package main is the kotaeru CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mizuame/kotaeru/internal/answer"
	"github.com/mizuame/kotaeru/internal/chunker"
	"github.com/mizuame/kotaeru/internal/config"
	"github.com/mizuame/kotaeru/internal/embedding"
	"github.com/mizuame/kotaeru/internal/extract"
	"github.com/mizuame/kotaeru/internal/generation"
	"github.com/mizuame/kotaeru/internal/ingest"
	"github.com/mizuame/kotaeru/internal/models"
	"github.com/mizuame/kotaeru/internal/retrieval"
	"github.com/mizuame/kotaeru/internal/server"
	"github.com/mizuame/kotaeru/internal/store"
	"github.com/mizuame/kotaeru/internal/watcher"
	"github.com/mizuame/kotaeru/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotaeru/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env keeps API keys out of config files; missing file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "ingest":
		runIngest()
	case "delete":
		runDelete()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kotaeru version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (ingestion runs, retrieval, watcher events)")
	mock := fs.Bool("mock", false, "use the deterministic mock embedder instead of the remote model")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode, *mock)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	pipeline := components.Pipeline
	exts := cfg.Watch.Extensions
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Watch.Directories,
		exts,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := pipeline.IngestFile(context.Background(), path, exts); err != nil {
				logger.Warn("watch ingest file failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := pipeline.Delete(context.Background(), ingest.DocumentIDForPath(path)); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Engine,
		components.Synthesizer,
		components.Pipeline,
		components.Store,
		cfg,
		logger,
		server.WithWatcher(watchSvc),
		server.WithConfigPath(resolvedConfigPath),
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run retrieval locally)")
	topK := fs.Int("top-k", 0, "number of chunks to retrieve (0 = config default)")
	docFilter := fs.String("document", "", "restrict retrieval to one document ID")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: kotaeru ask [flags] <question>\n\n")
		fmt.Fprintf(fs.Output(), "Question is all remaining arguments joined by spaces.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		fs.Usage()
		os.Exit(1)
	}

	req := &models.AskRequest{Question: question, TopK: *topK, DocumentFilter: *docFilter}

	var resp *models.AskResponse
	if *serverURL != "" {
		var err error
		resp, err = askViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger, cfg.Debug, false)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		if err := req.Validate(cfg.Retrieval.DefaultTopK, cfg.Retrieval.MaxTopK); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		ctx := context.Background()
		hits, err := components.Engine.Retrieve(ctx, req.Question, req.TopK, req.DocumentFilter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Retrieval failed: %v\n", err)
			os.Exit(1)
		}
		resp, err = components.Synthesizer.Answer(ctx, req.Question, hits)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Answer failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Println(resp.Answer)
		if len(resp.Sources) > 0 {
			fmt.Println()
			fmt.Println("Sources:")
			for _, src := range resp.Sources {
				fmt.Printf("  %s (chunk %d, similarity %.3f)\n", src.Filename, src.ChunkIndex, src.Similarity)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL string, req *models.AskRequest) (*models.AskResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	mock := fs.Bool("mock", false, "use the deterministic mock embedder instead of the remote model")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotaeru ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug, *mock)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := components.Pipeline.IngestDirectory(ctx, path, cfg.Watch.Extensions, true)
		if err != nil {
			fmt.Printf("Ingesting directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d file(s) from %s\n", n, path)
		return
	}
	// Single file: no extension filter.
	result, err := components.Pipeline.IngestFile(ctx, path, nil)
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	switch result.Status {
	case models.IngestSkipped:
		fmt.Printf("Unchanged, skipped: %s\n", result.DocumentID)
	default:
		fmt.Printf("Ingested %s (%d chunks)\n", result.DocumentID, result.ChunkCount)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotaeru delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Deletion touches only the store; wire a mock embedder so no API key is needed.
	components, err := initializeComponents(cfg, logger, cfg.Debug, true)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Pipeline.Delete(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Documents int64                  `json:"documents"`
	Chunks    int64                  `json:"chunks"`
	Config    map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct store access)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, cfg.Debug, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		docCount, err := components.Store.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := components.Store.CountChunks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Documents: docCount,
			Chunks:    chunkCount,
			Config: map[string]interface{}{
				"store_backend":        cfg.Store.Backend,
				"embedding_model":      cfg.Embedding.Model,
				"embedding_dimensions": cfg.Embedding.Dimensions,
				"generation_model":     cfg.Generation.Model,
				"chunk_size":           cfg.Ingest.ChunkSize,
				"chunk_overlap":        cfg.Ingest.ChunkOverlap,
				"default_top_k":        cfg.Retrieval.DefaultTopK,
			},
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:  %d   # documents in the registry\n", status.Documents)
		fmt.Printf("chunks:     %d   # retrievable text chunks\n", status.Chunks)
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{
				"store_backend", "embedding_model", "embedding_dimensions",
				"generation_model", "chunk_size", "chunk_overlap", "default_top_k",
			} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-21s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kotaeru watch <add|remove|list> [path]")
		fmt.Println("  kotaeru watch add <path>     Add directory to watch")
		fmt.Println("  kotaeru watch remove <path>  Remove directory from watch")
		fmt.Println("  kotaeru watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kotaeru watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: kotaeru watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store       store.Store
	Embedder    embedding.Embedder
	Generator   generation.Generator
	Engine      *retrieval.Engine
	Synthesizer *answer.Synthesizer
	Pipeline    *ingest.Pipeline
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug, mock bool) (*Components, error) {
	st, err := store.New(store.Config{
		Backend:      cfg.Store.Backend,
		DatabasePath: cfg.Store.DatabasePath,
		PostgresDSN:  os.Getenv(cfg.Store.PostgresDSNEnv),
		Dimensions:   cfg.Embedding.Dimensions,
		MaxRetries:   cfg.Store.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	var embedder embedding.Embedder
	if mock {
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		remote, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:        os.Getenv(cfg.Embedding.APIKeyEnv),
			BaseURL:       cfg.Embedding.BaseURL,
			Model:         cfg.Embedding.Model,
			Dimensions:    cfg.Embedding.Dimensions,
			MaxInputChars: cfg.Embedding.MaxInputChars,
			MaxRetries:    cfg.Embedding.MaxRetries,
			Timeout:       cfg.Embedding.Timeout(),
		})
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		embedder = remote
	}
	embedder = embedding.WithCache(embedder, cfg.Embedding.CacheSize)

	var generator generation.Generator
	if mock {
		generator = noopGenerator{}
	} else {
		generator, err = generation.NewOpenAIGenerator(generation.OpenAIConfig{
			APIKey:      os.Getenv(cfg.Generation.APIKeyEnv),
			BaseURL:     cfg.Generation.BaseURL,
			Model:       cfg.Generation.Model,
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.Temperature,
			Timeout:     cfg.Generation.Timeout(),
		})
		if err != nil {
			_ = st.Close()
			_ = embedder.Close()
			return nil, fmt.Errorf("failed to initialize generator: %w", err)
		}
	}

	ch, err := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		_ = st.Close()
		_ = embedder.Close()
		_ = generator.Close()
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	if cfg.Ingest.ChunkSize > cfg.Embedding.MaxInputChars {
		_ = st.Close()
		_ = embedder.Close()
		_ = generator.Close()
		return nil, fmt.Errorf("chunk_size %d exceeds embedding max_input_chars %d", cfg.Ingest.ChunkSize, cfg.Embedding.MaxInputChars)
	}

	pipeOpts := []ingest.PipelineOption{}
	engineOpts := []retrieval.EngineOption{}
	synthOpts := []answer.SynthesizerOption{}
	if debug && logger != nil {
		pipeOpts = append(pipeOpts, ingest.WithLogger(logger))
		engineOpts = append(engineOpts, retrieval.WithLogger(logger))
		synthOpts = append(synthOpts, answer.WithLogger(logger))
	}

	pipeline := ingest.NewPipeline(st, embedder, extract.NewExtractor(), ch, cfg.Embedding.BatchSize, pipeOpts...)
	engine := retrieval.NewEngine(st, embedder, cfg.Retrieval.DefaultTopK, cfg.Retrieval.MaxTopK, engineOpts...)
	synthesizer := answer.NewSynthesizer(generator, synthOpts...)

	return &Components{
		Store:       st,
		Embedder:    embedder,
		Generator:   generator,
		Engine:      engine,
		Synthesizer: synthesizer,
		Pipeline:    pipeline,
	}, nil
}

// noopGenerator backs mock mode, where questions are not expected.
type noopGenerator struct{}

func (noopGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("generation disabled in mock mode")
}

func (noopGenerator) Close() error { return nil }

func printUsage() {
	fmt.Println(`kotaeru - Retrieval-augmented question answering over your documents

Usage:
  kotaeru server [flags]           Start the HTTP server
  kotaeru ask [flags] <question>   Ask a question against the ingested corpus
  kotaeru ingest [flags] <path>    Ingest a file or directory
  kotaeru delete [flags] <id>      Delete a document
  kotaeru status [flags]           Show corpus and configuration status
  kotaeru watch <add|remove|list>  Manage watched directories
  kotaeru version                  Show version
  kotaeru help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotaeru/config.yaml)
  --debug            Enable debug logging (ingestion runs, retrieval, watcher events)
  --mock             Use the deterministic mock embedder (no API key needed)

Ask Flags:
  --config string    Config file path (for local mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run locally.
  --top-k int        Number of chunks to retrieve (0 = config default)
  --document string  Restrict retrieval to one document ID
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path
  --mock             Use the deterministic mock embedder

Status Flags:
  --config string    Config file path (for direct store mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct store access.
  --output string    Output format: text or json (default: text)

Environment:
  OPENAI_API_KEY        API key for embedding and generation (or per-model via config api_key_env)
  KOTAERU_POSTGRES_DSN  Postgres connection string when store.backend is "postgres"
  Variables can also be placed in a .env file in the working directory.

Examples:
  kotaeru server
  kotaeru ingest ./docs
  kotaeru ask "what is the refund policy?"
  kotaeru ask --top-k 8 --output json "who approves expenses?"
  kotaeru delete report.pdf
  kotaeru status
  kotaeru watch add /path/to/docs`)
}
