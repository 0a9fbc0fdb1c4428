package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/repogrep/repogrep-mcp/internal/cache"
	"github.com/repogrep/repogrep-mcp/internal/cascade"
	"github.com/repogrep/repogrep-mcp/internal/config"
	"github.com/repogrep/repogrep-mcp/internal/logging"
	"github.com/repogrep/repogrep-mcp/internal/matcher"
	"github.com/repogrep/repogrep-mcp/internal/mcp"
	"github.com/repogrep/repogrep-mcp/internal/mcp/tools"
	"github.com/repogrep/repogrep-mcp/pkg/types"
)

var (
	cfg        *config.Config
	logCleanup func() error
)

func main() {
	app := &cli.App{
		Name:  "repogrep-mcp",
		Usage: "Cascading ripgrep repository search, served over MCP or run one-shot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to this file (rotated) instead of stderr",
			},
		},
		Before:         setup,
		After:          teardown,
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the MCP server on stdio",
				Action: serveCommand,
			},
			{
				Name:      "search",
				Usage:     "Run one search from the command line",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "root",
						Aliases: []string{"r"},
						Usage:   "Root directory to search (default: configured search root)",
					},
					&cli.StringFlag{
						Name:    "glob",
						Aliases: []string{"g"},
						Usage:   "Glob restricting which files are searched",
					},
					&cli.IntFlag{
						Name:    "max",
						Aliases: []string{"m"},
						Usage:   "Maximum number of matching lines",
					},
					&cli.BoolFlag{
						Name:  "hidden",
						Usage: "Also search hidden files and directories",
					},
					&cli.BoolFlag{
						Name:  "no-ignore",
						Usage: "Also search files excluded by .gitignore",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the raw outcome as JSON",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	cfg = config.Load()
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if f := c.String("log-file"); f != "" {
		cfg.LogFile = f
	}

	cleanup, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logCleanup = cleanup
	return nil
}

func teardown(c *cli.Context) error {
	if logCleanup != nil {
		return logCleanup()
	}
	return nil
}

func newEngine() *cascade.Engine {
	runner := matcher.NewExecRunner(cfg)
	results := cache.NewResultCache(cfg.ResultCacheMaxItems, cfg.ResultCacheTTL)
	return cascade.New(runner, cfg, results)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := mcp.NewServer(&tools.Deps{
		Config: cfg,
		Engine: newEngine(),
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	slog.Info("starting repogrep MCP server on stdio")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("usage: repogrep-mcp search QUERY...")
	}

	outcome, err := newEngine().Search(c.Context, &types.SearchRequest{
		Query:      query,
		Root:       c.String("root"),
		PathFilter: c.String("glob"),
		MaxResults: c.Int("max"),
		Hidden:     c.Bool("hidden"),
		Ignored:    c.Bool("no-ignore"),
	})
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return renderJSON(os.Stdout, outcome)
	}
	renderOutcome(os.Stdout, query, outcome)
	return nil
}
