package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sliderbind/internal/config"
	"github.com/vango-dev/sliderbind/internal/errors"
	"github.com/vango-dev/sliderbind/pkg/binding"
	"github.com/vango-dev/sliderbind/pkg/server"
)

type serveFlags struct {
	configPath  string
	address     string
	page        string
	maxSessions int
	logLevel    string
}

func serveCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sliderbind server",
		Long: `Start the HTTP and WebSocket server.

Settings come from sliderbind.json or sliderbind.yaml in the current
directory or a parent; flags override them. Without a config file the
defaults apply.

Examples:
  sliderbind serve
  sliderbind serve --addr 127.0.0.1:9000 --page ranges
  sliderbind serve --config deploy/sliderbind.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(f, cmd.Flags().Changed("max-sessions"))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Config file (default: search from the working directory)")
	cmd.Flags().StringVarP(&f.address, "addr", "a", "", "Listen address")
	cmd.Flags().StringVarP(&f.page, "page", "p", "", "Page served at / ("+pageList()+")")
	cmd.Flags().IntVar(&f.maxSessions, "max-sessions", 0, "Concurrent session limit, 0 for none")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	return cmd
}

func loadServeConfig(f serveFlags, maxSessionsSet bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if errors.Code(err) == "SB100" {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if f.address != "" {
		cfg.Server.Address = f.address
	}
	if f.page != "" {
		cfg.Server.DefaultPage = f.page
	}
	if maxSessionsSet {
		cfg.Server.MaxSessions = f.maxSessions
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, ok := demoPages()[cfg.Server.DefaultPage]; !ok {
		return nil, errors.New("SB301").WithField(cfg.Server.DefaultPage).
			WithSuggestion("Use one of: " + pageList())
	}
	return cfg, nil
}

func newServer(cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(server.WithNamespace(cfg.Metrics.Namespace)),
		server.OnInput(func(s *server.Session, id string, v binding.Value) {
			s.Logger().Info("input changed", "input", id, "value", v.String())
		}),
	}
	for _, p := range demoPages() {
		opts = append(opts, server.WithPage(p))
	}

	store, err := cfg.SnapshotStore()
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, server.WithSnapshotStore(store))
	}

	srv, err := server.New(cfg.ServerConfig(), opts...)
	if err != nil {
		return nil, errors.New("SB300").Wrap(err)
	}
	return srv, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	if path := cfg.Path(); path != "" {
		logger.Info("config loaded", "path", path)
	}
	if err := srv.Run(ctx); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return errors.New("SB302").Wrap(err)
		}
		return errors.New("SB300").Wrap(err)
	}
	return nil
}
