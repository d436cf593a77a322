package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wolf-eval/internal/belief"
	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/prompt"
)

type dryRunCaller struct {
	weights belief.Weights
}

// DryRun returns a Caller that never leaves the process: it names the
// agent the suspicion heuristic ranks highest for the game attached to the
// context with WithCall.
func DryRun(w belief.Weights) Caller {
	return &dryRunCaller{weights: w}
}

func (c *dryRunCaller) Name() string { return "dry-run:heuristic" }

func (c *dryRunCaller) Generate(ctx context.Context, _ []model.PromptMessage) (string, error) {
	call, ok := CallFrom(ctx)
	if !ok {
		return "", eris.New("llm: dry run needs a game in context")
	}
	top, ok := belief.Top(belief.Score(call.Game, c.weights))
	if !ok {
		return "", eris.Errorf("llm: dry run found no agents in game %s", call.Game.ID)
	}
	return prompt.AgentTag(top) + " ranks highest on votes and divinations.", nil
}
