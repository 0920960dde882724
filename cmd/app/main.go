package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/specgraph/internal"
	"github.com/starford/specgraph/internal/index"
	"github.com/starford/specgraph/internal/specservice"
	pkgconfig "github.com/starford/specgraph/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// The flag wins over the file.
	if root := cmd.String("root"); root != "" {
		cfg.Specs.Root = root
	}
	return cfg, nil
}

// cliLogger writes text logs to stderr so stdout carries only JSON results.
func cliLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
}

func openService(cmd *cli.Command) (*specservice.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := internal.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	return internal.NewService(cfg, store, nil, cliLogger(cfg)), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return "", fmt.Errorf("%s: missing <%s> argument", cmd.Name, name)
	}
	return arg, nil
}

func impactAction(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "spec-id")
	if err != nil {
		return err
	}
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	res, err := svc.Impact(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func simulateAction(ctx context.Context, cmd *cli.Command) error {
	target, err := requireArg(cmd, "spec-id")
	if err != nil {
		return err
	}
	proposalFile := cmd.String("proposal")
	deltaFlags := cmd.StringSlice("delta")
	switch {
	case proposalFile == "" && len(deltaFlags) == 0:
		return errors.New("simulate: one of --proposal or --delta is required")
	case proposalFile != "" && len(deltaFlags) > 0:
		return errors.New("simulate: --proposal and --delta are mutually exclusive")
	}

	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	if proposalFile != "" {
		text, err := os.ReadFile(proposalFile)
		if err != nil {
			return fmt.Errorf("simulate: read proposal: %w", err)
		}
		res, err := svc.SimulateProposal(ctx, target, string(text))
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	items, err := parseDeltaFlags(deltaFlags)
	if err != nil {
		return err
	}
	res, err := svc.Simulate(ctx, target, items)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func healthAction(ctx context.Context, cmd *cli.Command) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	rep, err := svc.Report(ctx)
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func cyclesAction(ctx context.Context, cmd *cli.Command) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	cycles, err := svc.Cycles(ctx)
	if err != nil {
		return err
	}
	return printJSON(cycles)
}

func graphAction(ctx context.Context, cmd *cli.Command) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	view, err := svc.Graph(ctx)
	if err != nil {
		return err
	}
	return printJSON(view)
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := internal.NewStore(cfg)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := internal.NewService(cfg, store, db, cliLogger(cfg))
	hits, err := svc.Search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	return printJSON(hits)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func main() {
	cmd := &cli.Command{
		Name:    "specgraph",
		Usage:   "Dependency graph, impact analysis and change simulation for Markdown spec trees",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (YAML or .toml); missing files fall back to defaults",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Spec tree root, overrides specs.root",
				Sources: cli.EnvVars("SPECGRAPH_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "impact",
				Usage:     "Show which specs are affected by changing a spec",
				ArgsUsage: "<spec-id>",
				Action:    impactAction,
			},
			{
				Name:      "simulate",
				Usage:     "Dry-run proposed changes and compare impact before and after",
				ArgsUsage: "<spec-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "proposal",
						Aliases: []string{"p"},
						Usage:   "Markdown proposal file with ADDED, MODIFIED and REMOVED sections",
					},
					&cli.StringSliceFlag{
						Name:    "delta",
						Aliases: []string{"d"},
						Usage:   "Change as TYPE:id[:dep,dep], repeatable",
					},
				},
				Action: simulateAction,
			},
			{
				Name:   "health",
				Usage:  "Print the project health report",
				Action: healthAction,
			},
			{
				Name:   "cycles",
				Usage:  "List dependency cycles",
				Action: cyclesAction,
			},
			{
				Name:   "graph",
				Usage:  "Print every spec and dependency edge",
				Action: graphAction,
			},
			{
				Name:      "search",
				Usage:     "Sync the search index and query it",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits",
						Value: 20,
					},
				},
				Action: searchAction,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
