package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wolf-eval/internal/belief"
	"github.com/sells-group/wolf-eval/internal/config"
	"github.com/sells-group/wolf-eval/internal/corpus"
	"github.com/sells-group/wolf-eval/internal/eval"
	"github.com/sells-group/wolf-eval/internal/export"
	"github.com/sells-group/wolf-eval/internal/fetcher"
	"github.com/sells-group/wolf-eval/internal/llm"
	"github.com/sells-group/wolf-eval/internal/model"
)

var (
	evalArchive     string
	evalMaxGames    int
	evalMaxLines    int
	evalMaxTurns    int
	evalConcurrency int
	evalOut         string
	evalXLSX        bool
	evalDryRun      bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a model on the transcript corpus under both prompting conditions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyEvalFlags(cmd, cfg)
		if err := cfg.Validate("eval"); err != nil {
			return err
		}

		if err := ensureCorpus(ctx, cfg); err != nil {
			return err
		}

		games, err := corpus.Load(ctx, cfg.Corpus.Path, corpus.Options{
			MaxGames: cfg.Corpus.MaxGames,
			MaxLines: cfg.Corpus.MaxLines,
			Suffix:   cfg.Corpus.EntrySuffix,
		})
		if err != nil {
			return eris.Wrap(err, "load corpus")
		}
		if len(games) == 0 {
			return eris.Errorf("no usable games in %s", cfg.Corpus.Path)
		}

		weights := scorerWeights(cfg)
		provider := "dry-run"
		var caller llm.Caller
		if evalDryRun {
			caller = llm.DryRun(weights)
		} else {
			provider = llm.ResolveProvider(cfg)
			caller, err = llm.NewFromConfig(ctx, cfg)
			if err != nil {
				return eris.Wrap(err, "build model caller")
			}
		}

		res, err := eval.New(caller, eval.Options{
			MaxTurns:    cfg.Eval.MaxTurns,
			Concurrency: cfg.Eval.Concurrency,
			Weights:     weights,
		}).Run(ctx, games)
		if err != nil {
			return err
		}

		if err := writeResults(cfg, provider, len(games), res); err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), res.Metrics, eval.ErrorCount(res.Rows))
		return nil
	},
}

// applyEvalFlags lets explicitly set flags override the loaded config.
func applyEvalFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("archive") {
		c.Corpus.Path = evalArchive
	}
	if flags.Changed("max-games") {
		c.Corpus.MaxGames = evalMaxGames
	}
	if flags.Changed("max-lines") {
		c.Corpus.MaxLines = evalMaxLines
	}
	if flags.Changed("max-turns") {
		c.Eval.MaxTurns = evalMaxTurns
	}
	if flags.Changed("concurrency") {
		c.Eval.Concurrency = evalConcurrency
	}
	if flags.Changed("out") {
		c.Export.Dir = evalOut
	}
	if flags.Changed("xlsx") {
		c.Export.XLSX = evalXLSX
	}
}

// ensureCorpus downloads the archive when it is missing locally and a
// corpus URL is configured.
func ensureCorpus(ctx context.Context, c *config.Config) error {
	if _, err := os.Stat(c.Corpus.Path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return eris.Wrap(err, "stat corpus")
	}
	if c.Corpus.URL == "" {
		return eris.Errorf("corpus %s not found and corpus.url is not set", c.Corpus.Path)
	}

	zap.L().Info("corpus missing locally, fetching", zap.String("url", c.Corpus.URL))
	f, err := fetcher.ForURL(c.Corpus.URL, fetcher.Options{MaxRetries: c.Retry.MaxAttempts})
	if err != nil {
		return err
	}
	if _, err := fetcher.Fetch(ctx, f, c.Corpus.URL, c.Corpus.Path); err != nil {
		return eris.Wrap(err, "fetch corpus")
	}
	return nil
}

func scorerWeights(c *config.Config) belief.Weights {
	return belief.Weights{
		Vote:        c.Scorer.VoteWeight,
		DivineWolf:  c.Scorer.DivineWolfWeight,
		DivineHuman: c.Scorer.DivineHumanWeight,
		Epsilon:     c.Scorer.Epsilon,
	}
}

func writeResults(c *config.Config, provider string, games int, res *eval.Result) error {
	dir := c.Export.Dir
	if err := export.WriteJSON(dir, res.Rows, res.Metrics); err != nil {
		return err
	}
	if c.Export.XLSX {
		if err := export.WriteXLSX(filepath.Join(dir, export.WorkbookFile), res.Rows, res.Metrics); err != nil {
			return err
		}
	}

	m := export.Manifest{
		RunID:      res.RunID,
		Caller:     res.Caller,
		Provider:   provider,
		Corpus:     c.Corpus.Path,
		Games:      games,
		Errors:     eval.ErrorCount(res.Rows),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Knobs: export.Knobs{
			MaxGames:          c.Corpus.MaxGames,
			MaxLines:          c.Corpus.MaxLines,
			MaxTurns:          c.Eval.MaxTurns,
			Concurrency:       c.Eval.Concurrency,
			VoteWeight:        c.Scorer.VoteWeight,
			DivineWolfWeight:  c.Scorer.DivineWolfWeight,
			DivineHumanWeight: c.Scorer.DivineHumanWeight,
			Epsilon:           c.Scorer.Epsilon,
			MaxTokens:         c.Model.MaxTokens,
			Temperature:       c.Model.Temperature,
		},
		Metrics: export.MetricsByLabel(res.Metrics),
	}
	if err := export.WriteManifest(dir, m); err != nil {
		return err
	}

	zap.L().Info("results written",
		zap.String("dir", dir),
		zap.String("run_id", res.RunID),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond)),
	)
	return nil
}

func printSummary(w io.Writer, metrics map[model.Condition]model.MetricsEntry, failed int) {
	for _, line := range eval.Summary(metrics) {
		fmt.Fprintln(w, line) //nolint:errcheck
	}
	if failed > 0 {
		fmt.Fprintf(w, "errors: %d\n", failed) //nolint:errcheck
	}
}

func init() {
	evalCmd.Flags().StringVar(&evalArchive, "archive", "", "corpus archive or directory (default from config)")
	evalCmd.Flags().IntVar(&evalMaxGames, "max-games", 0, "max games to evaluate, 0 = all (default from config)")
	evalCmd.Flags().IntVar(&evalMaxLines, "max-lines", 0, "max log lines read per game, 0 = all (default from config)")
	evalCmd.Flags().IntVar(&evalMaxTurns, "max-turns", 0, "utterances included in each prompt (default from config)")
	evalCmd.Flags().IntVar(&evalConcurrency, "concurrency", 1, "games evaluated concurrently")
	evalCmd.Flags().StringVar(&evalOut, "out", "", "results directory (default from config)")
	evalCmd.Flags().BoolVar(&evalXLSX, "xlsx", false, "also write results.xlsx")
	evalCmd.Flags().BoolVar(&evalDryRun, "dry-run", false, "answer with the heuristic top suspect instead of calling a model")
	rootCmd.AddCommand(evalCmd)
}
