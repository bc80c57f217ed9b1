package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mdrews/pentestgen/internal/adapter/cli"
	llmhttp "github.com/mdrews/pentestgen/internal/adapter/llm/http"
	"github.com/mdrews/pentestgen/internal/adapter/llm/profile"
	"github.com/mdrews/pentestgen/internal/adapter/output/jsonl"
	"github.com/mdrews/pentestgen/internal/adapter/store/sqlite"
	"github.com/mdrews/pentestgen/internal/app"
	"github.com/mdrews/pentestgen/internal/config"
	"github.com/mdrews/pentestgen/internal/store"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
	"github.com/mdrews/pentestgen/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "pentestgen",
		EnvPrefix:   "PENTESTGEN",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	obs := app.BuildObservability(cfg.Observability)

	// Initialize run history store if enabled
	var runStore store.Store
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				runStore = sqliteStore
				defer runStore.Close()
			}
		}
	}

	svc := &generatorService{
		cfg:      cfg,
		obs:      obs,
		runStore: runStore,
	}

	var runs cli.RunLister
	if runStore != nil {
		runs = runStore
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Generator:       svc,
		Runs:            runs,
		DefaultCount:    cfg.Generator.Count,
		DefaultOutput:   cfg.Generator.Output,
		DefaultProvider: cfg.Generator.Provider,
		Version:         version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pentestgen"))
	}
	return paths
}

// generatorService wires flags and configuration into one batch run.
type generatorService struct {
	cfg      config.Config
	obs      app.Observability
	runStore store.Store
}

var _ cli.DatasetGenerator = (*generatorService)(nil)

func (g *generatorService) Generate(ctx context.Context, req cli.GenerateRequest) (generate.BatchResult, error) {
	completer, providerLabel, model, err := g.resolveCompleter(req)
	if err != nil {
		return generate.BatchResult{}, err
	}

	builder, err := generate.NewPromptBuilder()
	if err != nil {
		return generate.BatchResult{}, err
	}

	var genLogger generate.Logger
	if g.obs.Logger != nil {
		genLogger = g.obs.Logger
	}

	synth := generate.NewSynthesizer(generate.SynthesizerDeps{
		Completer:   completer,
		Builder:     builder,
		Logger:      genLogger,
		Temperature: g.cfg.Generator.Temperature,
		MaxTokens:   g.cfg.Generator.MaxTokens,
	})

	writer, err := jsonl.NewWriter(req.Output)
	if err != nil {
		return generate.BatchResult{}, err
	}
	defer writer.Close()

	// Resolve the batch seed here so it can be recorded with the run.
	seed := req.Seed
	if !req.SeedSet || seed == 0 {
		seed = rand.New(rand.NewSource(time.Now().UnixNano())).Uint64() & 0x7FFFFFFFFFFFFFFF
	}

	runner := generate.NewRunner(synth, writer, genLogger)
	start := time.Now()

	result, runErr := runner.Run(ctx, generate.BatchRequest{
		Count:       req.Count,
		Seed:        seed,
		Concurrency: req.Concurrency,
		Progress:    req.Progress,
	})

	if g.runStore != nil {
		run := store.Run{
			RunID:      store.GenerateRunID(start, providerLabel, req.Output),
			Timestamp:  start,
			Provider:   providerLabel,
			Model:      model,
			Requested:  result.Requested,
			Succeeded:  result.Succeeded,
			Failed:     result.Failed,
			Seed:       seed,
			OutputPath: req.Output,
			Duration:   time.Since(start),
		}
		if err := g.runStore.CreateRun(ctx, run); err != nil {
			log.Printf("warning: failed to record run: %v", err)
		}
	}

	return result, runErr
}

// resolveCompleter picks the completion backend: an inference profile when
// --profile is given, otherwise a named provider.
func (g *generatorService) resolveCompleter(req cli.GenerateRequest) (generate.Completer, string, string, error) {
	if req.Profile != "" {
		prof, err := profile.LoadByName(g.cfg.Profiles.Dir, req.Profile)
		if err != nil {
			return nil, "", "", err
		}
		return prof.BuildProvider(g.obs.Logger, g.obs.Metrics), prof.Name, prof.ModelID, nil
	}

	name := req.Provider
	if name == "" {
		name = g.cfg.Generator.Provider
	}

	completer, model, err := app.BuildProvider(name, g.cfg, g.obs)
	if err != nil {
		return nil, "", "", err
	}
	return completer, name, model, nil
}
