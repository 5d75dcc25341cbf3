package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lyricsync/internal/api"
	"lyricsync/internal/app"
	"lyricsync/internal/i3block"
	"lyricsync/internal/ipc"
	"lyricsync/internal/player"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the lyrics daemon",
	Long: `follow the player, resolve lyrics on every track change and push the
current lines to the unix socket and the status file.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, cleanup, err := app.NewLyricsService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	source, err := player.New(cfg.Player.Backend, cfg.Player.MPRISService)
	if err != nil {
		return fmt.Errorf("failed to connect to player: %w", err)
	}
	defer source.Close()

	server := ipc.NewServer(cfg.App.SocketPath, cfg.App.StatusFile)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer server.Close()

	var notifier app.Notifier
	if cfg.StatusBar.Enabled {
		controller := i3block.NewController(cfg.StatusBar.Process, cfg.StatusBar.Signal, cfg.StatusBar.RefreshInterval)
		if err := controller.Start(); err != nil {
			log.Warn().Err(err).Str("process", cfg.StatusBar.Process).Msg("Status bar not found yet")
		}
		defer controller.Stop()
		notifier = controller
	}

	if cfg.HTTP.Addr != "" {
		router := api.NewRouter(service, source, api.Options{
			TargetLanguage: cfg.App.TargetLanguage,
			LinesBefore:    cfg.App.LinesBefore,
			LinesAfter:     cfg.App.LinesAfter,
		})
		go func() {
			if err := router.Run(ctx, cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", cfg.HTTP.Addr).Msg("HTTP API stopped")
			}
		}()
	}

	daemon := app.New(cfg, source, service, server, notifier)
	if err := daemon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Shutting down")
	return nil
}
