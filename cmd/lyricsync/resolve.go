package main

import (
	"encoding/json"
	"os"

	"lyricsync/internal/app"
	"lyricsync/pkg/music"

	"github.com/spf13/cobra"
)

var song music.SongInfo

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "resolve lyrics for one track and print them as json",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		service, cleanup, err := app.NewLyricsService(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		tl := service.Resolve(cmd.Context(), song)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tl)
	},
}

func init() {
	addSongFlags(resolveCmd)
	rootCmd.AddCommand(resolveCmd)
}

func addSongFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&song.Title, "title", "t", "", "track title")
	cmd.Flags().StringVarP(&song.Artist, "artist", "a", "", "track artist")
	cmd.Flags().Float64VarP(&song.Duration, "duration", "d", 0, "track duration in seconds")
	cmd.Flags().StringVar(&song.ID, "id", "", "track id used as cache key")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("artist")
	cmd.MarkFlagRequired("duration")
}
