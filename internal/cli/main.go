package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "ankicards <url>",
		Short:        "Build an Anki deck of audio flashcards from a video's subtitles",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().Int("group-size", 0, "Subtitle cues per card (config default: 1)")
	root.Flags().Int64("padding", -1, "Audio padding in ms around each card's window (config default: 200)")
	root.Flags().Bool("skip-download", false, "Reuse cached audio/subtitles instead of downloading")
	root.Flags().String("config", "ankicards.yaml", "Path to YAML config")
	root.Flags().String("content-dir", "", "Directory for cached media assets")
	root.Flags().String("log-level", "", "Log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
