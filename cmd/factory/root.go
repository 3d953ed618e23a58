package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rickgao/pair-factory/internal/chain"
	"github.com/rickgao/pair-factory/internal/client"
	"github.com/rickgao/pair-factory/internal/config"
	"github.com/rickgao/pair-factory/internal/database"
	"github.com/rickgao/pair-factory/internal/factory"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/kv"
	"github.com/rickgao/pair-factory/internal/pair"
	"github.com/rickgao/pair-factory/internal/state"
	"github.com/rickgao/pair-factory/internal/token"
	"github.com/rickgao/pair-factory/internal/version"
)

// Code ids the templates are registered under on every start.
const (
	tokenCodeID   = 1
	pairCodeID    = 2
	factoryCodeID = 3
)

// app is what every subcommand runs against.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  kv.Store
	rt     *chain.Runtime
	sender string
}

type rootOptions struct {
	configPath string
	sender     string
	app        *app
}

// run executes the CLI and releases the store whether or not the command
// succeeded.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &rootOptions{}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if opts.app != nil {
		if cerr := opts.app.store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}
	return err
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "factory",
		Short:         "Create and look up asset pairs through a pair factory",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "version", "help":
				return nil
			}
			a, err := newApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: built-in defaults)")
	root.PersistentFlags().StringVar(&opts.sender, "sender", "", "account sending transactions (default: factory.owner)")

	root.AddCommand(
		newInitCmd(opts),
		newCreatePairCmd(opts),
		newPairCmd(opts),
		newPairsCmd(opts),
		newPendingCmd(opts),
		newConfigCmd(opts),
		newUpdateConfigCmd(opts),
		newMigratePairCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadAndValidate(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	logger := newLogger(cfg.Log, logOut).With("instance_id", cfg.Instance.ID)
	slog.SetDefault(logger)

	store, err := database.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	rt := chain.New(store, chain.WithLogger(logger))
	limits := state.Limits{Default: cfg.Factory.DefaultLimit, Max: cfg.Factory.MaxLimit}
	codes := []struct {
		id       uint64
		contract host.Contract
	}{
		{tokenCodeID, token.New(logger)},
		{pairCodeID, pair.New(logger)},
		{factoryCodeID, factory.New(factory.Config{Limits: limits}, logger)},
	}
	for _, c := range codes {
		if err := rt.StoreCode(c.id, c.contract); err != nil {
			store.Close()
			return nil, fmt.Errorf("store code %d: %w", c.id, err)
		}
	}

	sender := opts.sender
	if sender == "" {
		sender = cfg.Factory.Owner
	}

	return &app{cfg: cfg, logger: logger, store: store, rt: rt, sender: sender}, nil
}

func newLogger(cfg config.LogConfig, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

// client finds the factory by its label.
func (a *app) client(ctx context.Context) (*client.Client, error) {
	addr, err := a.rt.Lookup(ctx, a.cfg.Factory.Label)
	if err != nil {
		return nil, fmt.Errorf("find factory (run `factory init` first): %w", err)
	}
	return client.NewClient(a.rt, addr,
		client.WithLogger(a.logger),
		client.WithCacheTTL(a.cfg.Cache.TTL, a.cfg.Cache.CleanupInterval),
		client.WithPageSize(a.cfg.Factory.MaxLimit),
		client.WithAddressAPI(a.rt.API()),
	), nil
}

func (a *app) requireSender() (string, error) {
	if a.sender == "" {
		return "", fmt.Errorf("no sender: pass --sender or set factory.owner")
	}
	return a.sender, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
