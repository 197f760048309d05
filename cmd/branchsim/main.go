// ABOUTME: Entry point for the branchsim head-office simulator
// ABOUTME: Wires config, snapshot storage, branch agents, and the coordinator together

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/retailops/branchsim/internal/branch"
	"github.com/retailops/branchsim/internal/channel"
	"github.com/retailops/branchsim/internal/config"
	"github.com/retailops/branchsim/internal/coordinator"
	"github.com/retailops/branchsim/internal/script"
	"github.com/retailops/branchsim/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                          _         _
| |__  _ __ __ _ _ __   ___| |__  ___(_)_ __ ___
| '_ \| '__/ _' | '_ \ / __| '_ \/ __| | '_ ' _ \
| |_) | | | (_| | | | | (__| | | \__ \ | | | | | |
|_.__/|_|  \__,_|_| |_|\___|_| |_|___/_|_| |_| |_|
`

// getConfigPath returns the path to the config file.
// Priority: BRANCHSIM_CONFIG env var > ./branchsim.yaml
func getConfigPath() string {
	if envPath := os.Getenv("BRANCHSIM_CONFIG"); envPath != "" {
		return envPath
	}
	return "branchsim.yaml"
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: branchsim <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  run       Run the head office against its branches")
		fmt.Println("  init      Create a default config file")
		fmt.Println("  version   Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "run":
		err = runRun(ctx)
	case "init":
		err = runInit()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRun(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Branches: %d\n", len(cfg.Branches))
	green.Print("    ▶ ")
	fmt.Printf("Storage:  %s (%s)\n", cfg.Storage.Backend, cfg.Storage.Path)
	green.Print("    ▶ ")
	fmt.Printf("Window:   %s\n", cfg.Ticks.ObserveWindow)
	fmt.Println()

	st, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	steps, err := loadScript(cfg)
	if err != nil {
		return err
	}

	coord := coordinator.New(logger, makeReplyPrinter(cfg.Branches))

	// One in-process agent per configured branch, each on its own pipe.
	var wg sync.WaitGroup
	for _, name := range cfg.Branches {
		headEnd, branchEnd := channel.NewMemoryPipe()

		if err := coord.Register(coordinator.NewFront(name, headEnd, logger)); err != nil {
			return fmt.Errorf("registering branch %s: %w", name, err)
		}

		agent := branch.New(branch.Config{
			Name:             name,
			SaleInterval:     cfg.Ticks.SaleInterval,
			AutosaveInterval: cfg.Ticks.AutosaveInterval,
		}, branchEnd, st, logger)

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := agent.Run(ctx); err != nil {
				logger.Error("branch agent failed", "branch", name, "error", err)
			}
		}(name)
	}

	err = coord.Run(ctx, steps, coordinator.RunOptions{
		Observe: cfg.Ticks.ObserveWindow,
		Grace:   cfg.Ticks.ShutdownGrace,
	})

	wg.Wait()
	return err
}

// loadConfig reads the config file, falling back to built-in defaults when
// the default path simply doesn't exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && os.Getenv("BRANCHSIM_CONFIG") == "" {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// initStore creates the snapshot backend selected by config.
func initStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewFileStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing file store: %w", err)
		}
		return s, nil
	}
}

// loadScript returns the operator-supplied script when configured, the
// built-in demo sequence otherwise.
func loadScript(cfg *config.Config) ([]script.Step, error) {
	if cfg.Script.Path == "" {
		return script.Default(cfg.Branches), nil
	}
	steps, err := script.Load(cfg.Script.Path)
	if err != nil {
		return nil, fmt.Errorf("loading script: %w", err)
	}
	return steps, nil
}

// makeReplyPrinter assigns each branch a console color and prints replies
// as they are drained, already tagged with their branch name.
func makeReplyPrinter(branches []string) func(coordinator.Reply) {
	palette := []*color.Color{
		color.New(color.FgCyan),
		color.New(color.FgGreen),
		color.New(color.FgYellow),
		color.New(color.FgMagenta),
		color.New(color.FgBlue),
		color.New(color.FgHiCyan),
	}

	colors := make(map[string]*color.Color, len(branches))
	for i, name := range branches {
		colors[name] = palette[i%len(palette)]
	}

	return func(r coordinator.Reply) {
		c, ok := colors[r.Branch]
		if !ok {
			c = color.New(color.FgWhite)
		}
		c.Println(r.Line)
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

const defaultConfig = `# branchsim configuration

# Branch roster; each branch runs its own agent with private state.
branches:
  - Ahmedabad
  - Surat
  - Vadodara

ticks:
  sale_interval: 300ms      # background randomized sales
  autosave_interval: 800ms  # periodic snapshot persistence
  observe_window: 10s       # how long the head office drains replies
  shutdown_grace: 1s        # wait for EXIT acknowledgements

storage:
  backend: file             # "file" or "sqlite"
  path: data                # snapshot root directory or database path

# Optional operator-supplied command script (TOML); the built-in demo
# sequence runs when unset.
# script:
#   path: script.toml

logging:
  level: info               # debug, info, warn, error
  format: text              # text or json
`

// runInit writes a commented default config file, refusing to overwrite.
func runInit() error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
