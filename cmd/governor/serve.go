package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/turn-governor/internal/config"
	"github.com/danielpatrickdp/turn-governor/internal/governor"
	"github.com/danielpatrickdp/turn-governor/internal/server"
	"github.com/danielpatrickdp/turn-governor/internal/store"
)

var (
	serveWatch bool
	serveAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Governor gRPC API",
	Long: `Starts the gRPC server exposing Decide and Finalize, plus the standard
health service. Every finalized turn is recorded in the audit database.

With --watch, edits to the config file are applied to new calls without a
restart. The listen address and database are fixed at startup.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the config file on change")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := store.NewStore(cfg.DB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	srv := server.New(governor.New(cfg.Governor(), st, logger), logger)

	if serveWatch {
		w, err := config.NewWatcher(configPath, 250*time.Millisecond, func(next *config.Config) {
			srv.Swap(governor.New(next.Governor(), st, logger))
		}, logger)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer w.Stop()
	}

	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	logger.Info("Governor ready", zap.String("db", cfg.DB), zap.String("addr", addr), zap.Bool("enabled", cfg.Enabled))
	return srv.Serve(ctx, lis)
}
