package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/klava/internal/config"
	"github.com/verte-zerg/klava/internal/logging"
	"github.com/verte-zerg/klava/internal/server"
	"github.com/verte-zerg/klava/internal/store"
)

const defaultAddr = ":8800"

var (
	serveFlags practiceFlags
	serveAddr  string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve typing sessions over websockets",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	addPracticeFlags(cmd, &serveFlags)
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolvePracticeConfig(cmd, serveFlags, fileCfg)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	logger, err := logging.New(os.Stderr, logging.Options{
		Level:   logLevel,
		NoColor: !term.IsTerminal(int(os.Stderr.Fd())),
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	words, err := loadVocabulary(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("vocabulary loaded", "source", cfg.Source, "lang", cfg.Lang, "words", len(words))

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "error", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Words:    words,
		Lang:     cfg.Lang,
		Store:    st,
		Logger:   logger,
		Validate: validate,
	})
	return srv.ListenAndServe(ctx, serveAddr)
}
