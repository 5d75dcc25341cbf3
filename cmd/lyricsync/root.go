package main

import (
	"fmt"
	"os"
	"time"

	"lyricsync/internal/config"
	"lyricsync/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// global flags
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "lyricsync",
	Short: "synchronized lyrics daemon with line translation",
	Long: `lyricsync follows the current track of a desktop music player, resolves
time-synchronized lyrics from several providers and pushes the lines around
the playback position to local clients, optionally with a translation.

when run without a subcommand, it starts the daemon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/lyricsync/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig 读取.env和配置文件，并初始化日志
func loadConfig() *config.Config {
	logging.SetOutput(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded environment variables from .env file")
	}

	var cfg *config.Config
	if configPath != "" {
		cfg = config.LoadFrom(configPath)
	} else {
		cfg = config.Load()
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return cfg
}
