// Package prompt renders game records into chat messages for the two
// evaluation conditions.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/wolf-eval/internal/model"
)

// DefaultMaxTurns is the number of utterances included in the dialogue block.
const DefaultMaxTurns = 25

const systemPrompt = "You are an analyst for AIWolf (Werewolf). Infer which agent is most likely the WEREWOLF from early dialogue. " +
	"Respond with the single Agent ID (e.g., Agent[03]) and a concise rationale."

const (
	dialogueHeader    = "Dialogue (chronological):"
	beliefHeader      = "Belief model (heuristic from votes/divinations): "
	beliefInstruction = "Use the belief scores as prior but override if dialogue strongly contradicts them."
	closingQuestion   = "Which agent is most likely the WEREWOLF? Reply with Agent[NN] then one-sentence justification."
)

// roleOrder fixes the listing order of the role composition line. Roles not
// listed here follow alphabetically.
var roleOrder = []string{
	model.RoleWerewolf,
	model.RoleSeer,
	model.RolePossessed,
	model.RoleBodyguard,
	model.RoleMedium,
	model.RoleVillager,
}

// Options controls prompt rendering.
type Options struct {
	MaxTurns int
}

// DefaultOptions returns the stock rendering options.
func DefaultOptions() Options {
	return Options{MaxTurns: DefaultMaxTurns}
}

// AgentTag formats an agent ID the way it appears in AIWolf talk, e.g. Agent[03].
func AgentTag(id int) string {
	return fmt.Sprintf("Agent[%02d]", id)
}

// Build renders the system and user messages for one game under one
// condition. beliefs is only rendered for WithBeliefs and may be nil.
func Build(game *model.GameRecord, cond model.Condition, beliefs model.BeliefDistribution, opts Options) []model.PromptMessage {
	parts := []string{
		RoleIntro(game),
		"Roster: " + Roster(game),
		dialogueHeader,
		Dialogue(game, opts.MaxTurns),
	}
	if cond == model.WithBeliefs && len(beliefs) > 0 {
		parts = append(parts, beliefHeader+Beliefs(beliefs), beliefInstruction)
	}
	parts = append(parts, closingQuestion)

	return []model.PromptMessage{
		{Role: model.RoleSystem, Content: systemPrompt},
		{Role: model.RoleUser, Content: strings.Join(parts, "\n")},
	}
}

// RoleIntro describes the role composition and the range of player IDs.
func RoleIntro(game *model.GameRecord) string {
	counts := game.RoleCounts()

	var extra []string
	for role := range counts {
		if !known(role) {
			extra = append(extra, role)
		}
	}
	sort.Strings(extra)

	var comp []string
	for _, role := range append(append([]string{}, roleOrder...), extra...) {
		if n := counts[role]; n > 0 {
			comp = append(comp, fmt.Sprintf("%d %s", n, role))
		}
	}

	ids := game.AgentIDs()
	if len(ids) == 0 {
		return "Roles: " + strings.Join(comp, ", ") + "."
	}
	return fmt.Sprintf("Roles: %s. Player IDs are %s..%s.",
		strings.Join(comp, ", "), AgentTag(ids[0]), AgentTag(ids[len(ids)-1]))
}

func known(role string) bool {
	for _, r := range roleOrder {
		if r == role {
			return true
		}
	}
	return false
}

// Roster lists display names by ascending agent ID.
func Roster(game *model.GameRecord) string {
	ids := make([]int, 0, len(game.Names))
	for id := range game.Names {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	entries := make([]string, len(ids))
	for i, id := range ids {
		entries[i] = AgentTag(id) + "=" + game.Names[id]
	}
	return strings.Join(entries, ", ")
}

// Dialogue renders the first maxTurns utterances, one per line. A
// non-positive maxTurns uses DefaultMaxTurns.
func Dialogue(game *model.GameRecord, maxTurns int) string {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	turns := game.Utterances
	if len(turns) > maxTurns {
		turns = turns[:maxTurns]
	}

	lines := make([]string, len(turns))
	for i, u := range turns {
		name, ok := game.Names[u.Speaker]
		if !ok {
			name = AgentTag(u.Speaker)
		}
		lines[i] = fmt.Sprintf("Day %d | %s (%s): %s", u.Day, AgentTag(u.Speaker), name, u.Content)
	}
	return strings.Join(lines, "\n")
}

// Beliefs renders the distribution by ascending agent ID with two decimals.
func Beliefs(dist model.BeliefDistribution) string {
	ids := dist.AgentIDs()
	entries := make([]string, len(ids))
	for i, id := range ids {
		entries[i] = fmt.Sprintf("%s: p_wolf=%.2f", AgentTag(id), dist[id])
	}
	return strings.Join(entries, "; ")
}
