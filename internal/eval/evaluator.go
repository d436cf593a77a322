// Package eval runs every game under both prompting conditions against a
// model and aggregates accuracy per condition.
package eval

import (
	"context"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/wolf-eval/internal/belief"
	"github.com/sells-group/wolf-eval/internal/llm"
	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/prompt"
)

var predictionPattern = regexp.MustCompile(`Agent\[(\d{2})]`)

// ExtractPrediction returns the agent named by the first two-digit
// Agent[NN] token in text.
func ExtractPrediction(text string) (int, bool) {
	m := predictionPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// Options configures an evaluation run.
type Options struct {
	MaxTurns    int
	Concurrency int
	Weights     belief.Weights
}

// DefaultOptions returns sequential evaluation with stock prompt and
// scorer settings.
func DefaultOptions() Options {
	return Options{
		MaxTurns:    prompt.DefaultMaxTurns,
		Concurrency: 1,
		Weights:     belief.DefaultWeights(),
	}
}

// Result is the outcome of one run. Rows are in (game order, condition
// order) regardless of concurrency.
type Result struct {
	RunID      string                                 `json:"run_id"`
	Caller     string                                 `json:"caller"`
	StartedAt  time.Time                              `json:"started_at"`
	FinishedAt time.Time                              `json:"finished_at"`
	Rows       []model.OutcomeRow                     `json:"rows"`
	Metrics    map[model.Condition]model.MetricsEntry `json:"metrics"`
}

// Evaluator runs games against a model Caller.
type Evaluator struct {
	caller llm.Caller
	opts   Options
}

// New creates an Evaluator. Non-positive concurrency means sequential.
func New(caller llm.Caller, opts Options) *Evaluator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = prompt.DefaultMaxTurns
	}
	if opts.Weights == (belief.Weights{}) {
		opts.Weights = belief.DefaultWeights()
	}
	return &Evaluator{caller: caller, opts: opts}
}

// Run evaluates every game under every condition. It records exactly one
// row per (game, condition) pair: a failed or canceled call becomes an
// error row and never aborts the run.
func (e *Evaluator) Run(ctx context.Context, games []*model.GameRecord) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Caller:    e.caller.Name(),
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("evaluation started",
		zap.Int("games", len(games)),
		zap.Int("concurrency", e.opts.Concurrency),
		zap.String("caller", res.Caller),
	)

	nc := len(model.Conditions)
	rows := make([]model.OutcomeRow, len(games)*nc)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	var failed atomic.Int64
	for i, game := range games {
		g.Go(func() error {
			for j, row := range e.evaluateGame(gctx, game) {
				if row.Error != nil {
					failed.Add(1)
				}
				rows[i*nc+j] = row
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "eval: run")
	}

	res.Rows = rows
	res.Metrics = Aggregate(rows)
	res.FinishedAt = time.Now().UTC()

	fields := []zap.Field{
		zap.Int("rows", len(rows)),
		zap.Int64("errors", failed.Load()),
		zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	}
	for _, c := range model.Conditions {
		m := res.Metrics[c]
		fields = append(fields, zap.Float64(c.String()+"_accuracy", m.Accuracy), zap.Int(c.String()+"_n", m.N))
	}
	log.Info("evaluation complete", fields...)

	return res, nil
}

// evaluateGame produces one row per condition for a single game. Beliefs
// are computed once and shared by both conditions.
func (e *Evaluator) evaluateGame(ctx context.Context, game *model.GameRecord) []model.OutcomeRow {
	beliefs := belief.Score(game, e.opts.Weights)
	wolves := game.WolfIDs()
	popts := prompt.Options{MaxTurns: e.opts.MaxTurns}

	rows := make([]model.OutcomeRow, 0, len(model.Conditions))
	for _, cond := range model.Conditions {
		rows = append(rows, e.evaluatePair(ctx, game, cond, beliefs, wolves, popts))
	}
	return rows
}

func (e *Evaluator) evaluatePair(ctx context.Context, game *model.GameRecord, cond model.Condition,
	beliefs model.BeliefDistribution, wolves []int, popts prompt.Options,
) model.OutcomeRow {
	log := zap.L().With(zap.String("game_id", game.ID), zap.Stringer("condition", cond))

	if err := ctx.Err(); err != nil {
		return model.NewErrorRow(game.ID, cond, wolves, eris.Wrap(err, "eval: not started"))
	}

	msgs := prompt.Build(game, cond, beliefs, popts)
	reply, err := e.caller.Generate(llm.WithCall(ctx, llm.Call{Game: game, Condition: cond}), msgs)
	if err != nil {
		log.Warn("model call failed", zap.Error(err))
		return model.NewErrorRow(game.ID, cond, wolves, err)
	}

	var pred *int
	if id, ok := ExtractPrediction(reply); ok {
		pred = &id
	}
	row := model.NewHitRow(game.ID, cond, wolves, pred, reply)
	log.Debug("pair evaluated",
		zap.Bool("hit", *row.Hit),
		zap.Bool("predicted", pred != nil),
	)
	return row
}
