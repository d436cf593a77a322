package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wolf-eval/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "wolf-eval",
	Short: "Werewolf identification benchmark for language models",
	Long: "Parses AIWolf game transcripts, scores suspicion from votes and divinations, " +
		"asks a model to name the werewolf with and without those scores, and reports accuracy per condition.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
