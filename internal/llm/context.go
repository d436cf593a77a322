package llm

import (
	"context"

	"github.com/sells-group/wolf-eval/internal/model"
)

// Call identifies the game and condition a prompt was built for.
type Call struct {
	Game      *model.GameRecord
	Condition model.Condition
}

type callKey struct{}

// WithCall attaches call metadata to ctx for backends that log or derive
// replies from it.
func WithCall(ctx context.Context, c Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// CallFrom returns the call metadata attached to ctx, if any.
func CallFrom(ctx context.Context) (Call, bool) {
	c, ok := ctx.Value(callKey{}).(Call)
	return c, ok && c.Game != nil
}
