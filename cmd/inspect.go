package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/wolf-eval/internal/belief"
	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/prompt"
	"github.com/sells-group/wolf-eval/internal/transcript"
)

var (
	inspectMaxLines  int
	inspectCondition string
)

// inspection is the JSON document printed by inspect.
type inspection struct {
	Game     *model.GameRecord        `json:"game"`
	WolfIDs  []int                    `json:"wolf_ids"`
	Beliefs  model.BeliefDistribution `json:"beliefs"`
	TopAgent *int                     `json:"top_agent"`
	Prompt   []model.PromptMessage    `json:"prompt,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <log-file>",
	Short: "Parse one transcript and print the record with its suspicion scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read transcript")
		}

		maxLines := cfg.Corpus.MaxLines
		if cmd.Flags().Changed("max-lines") {
			maxLines = inspectMaxLines
		}

		game, err := transcript.ParseBytes(filepath.Base(args[0]), raw, maxLines)
		if err != nil {
			return err
		}
		if !game.Valid() {
			return eris.Errorf("%s yields no game record (no roles or no talk)", args[0])
		}

		out := inspection{
			Game:    game,
			WolfIDs: game.WolfIDs(),
			Beliefs: belief.Score(game, scorerWeights(cfg)),
		}
		if top, ok := belief.Top(out.Beliefs); ok {
			out.TopAgent = &top
		}
		if inspectCondition != "" {
			cond, ok := model.ParseCondition(inspectCondition)
			if !ok {
				return eris.Errorf("unknown condition %q", inspectCondition)
			}
			out.Prompt = prompt.Build(game, cond, out.Beliefs, prompt.Options{MaxTurns: cfg.Eval.MaxTurns})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	},
}

func init() {
	inspectCmd.Flags().IntVar(&inspectMaxLines, "max-lines", 0, "max log lines read, 0 = all (default from config)")
	inspectCmd.Flags().StringVar(&inspectCondition, "prompt", "", "also render the prompt for a condition (dialogue-only or with-beliefs)")
	rootCmd.AddCommand(inspectCmd)
}
