package main

import (
	"fmt"

	"lyricsync/internal/app"
	"lyricsync/pkg/translate"

	"github.com/spf13/cobra"
)

var targetLanguage string

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "resolve and translate lyrics for one track",
	Long:  `resolve lyrics for one track, translate every line and print original and translation side by side.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		target := targetLanguage
		if target == "" {
			target = cfg.App.TargetLanguage
		}

		service, cleanup, err := app.NewLyricsService(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		tl := service.Resolve(cmd.Context(), song)
		if tl.IsPlaceholder() {
			return fmt.Errorf("no lyrics found for %s - %s", song.Artist, song.Title)
		}

		m, err := service.Translate(cmd.Context(), song.Key(), target)
		if err != nil {
			return fmt.Errorf("translation failed: %w", err)
		}

		for i, line := range tl.Lines {
			if !translate.ShouldTranslate(line.Text) {
				fmt.Println(line.Text)
				continue
			}
			translated, _ := m.Get(i)
			fmt.Printf("[%6.2f] %s\n         %s\n", line.Time, line.Text, translated)
		}
		return nil
	},
}

func init() {
	addSongFlags(translateCmd)
	translateCmd.Flags().StringVarP(&targetLanguage, "lang", "l", "", "target language (default from config)")
	rootCmd.AddCommand(translateCmd)
}
