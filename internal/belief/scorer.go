// Package belief derives a heuristic werewolf-likelihood distribution from
// accusations and divination results in a game's dialogue.
package belief

import (
	"regexp"
	"strconv"

	"github.com/sells-group/wolf-eval/internal/model"
)

// Default heuristic weights. They are uncalibrated and exposed through
// Weights so runs can override them from config.
const (
	DefaultVoteWeight        = 0.3
	DefaultDivineWolfWeight  = 0.6
	DefaultDivineHumanWeight = -0.2
	DefaultEpsilon           = 1e-3
)

var (
	votePattern        = regexp.MustCompile(`VOTE Agent\[(\d+)]`)
	divineWolfPattern  = regexp.MustCompile(`DIVINED Agent\[(\d+)] WEREWOLF`)
	divineHumanPattern = regexp.MustCompile(`DIVINED Agent\[(\d+)] HUMAN`)
)

// Weights holds the per-occurrence score contribution of each pattern and
// the floor used when normalizing.
type Weights struct {
	Vote        float64 `yaml:"vote_weight" mapstructure:"vote_weight"`
	DivineWolf  float64 `yaml:"divine_wolf_weight" mapstructure:"divine_wolf_weight"`
	DivineHuman float64 `yaml:"divine_human_weight" mapstructure:"divine_human_weight"`
	Epsilon     float64 `yaml:"epsilon" mapstructure:"epsilon"`
}

// DefaultWeights returns the stock heuristic weights.
func DefaultWeights() Weights {
	return Weights{
		Vote:        DefaultVoteWeight,
		DivineWolf:  DefaultDivineWolfWeight,
		DivineHuman: DefaultDivineHumanWeight,
		Epsilon:     DefaultEpsilon,
	}
}

// Score computes the belief distribution over every agent with a recorded
// role. It never fails for a parsed record.
func Score(game *model.GameRecord, w Weights) model.BeliefDistribution {
	return Normalize(RawScores(game, w), w.Epsilon)
}

// RawScores accumulates pattern contributions per agent. Targets without a
// recorded role are ignored.
func RawScores(game *model.GameRecord, w Weights) map[int]float64 {
	raw := make(map[int]float64, len(game.Roles))
	for id := range game.Roles {
		raw[id] = 0
	}

	for _, u := range game.Utterances {
		accumulate(raw, votePattern, u.Content, w.Vote)
		accumulate(raw, divineWolfPattern, u.Content, w.DivineWolf)
		accumulate(raw, divineHumanPattern, u.Content, w.DivineHuman)
	}
	return raw
}

func accumulate(raw map[int]float64, re *regexp.Regexp, text string, weight float64) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		target, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := raw[target]; ok {
			raw[target] += weight
		}
	}
}

// Normalize shifts scores so the minimum equals epsilon, then divides by the
// total. A non-positive epsilon falls back to DefaultEpsilon.
func Normalize(raw map[int]float64, epsilon float64) model.BeliefDistribution {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	dist := make(model.BeliefDistribution, len(raw))
	if len(raw) == 0 {
		return dist
	}

	first := true
	lowest := 0.0
	for _, v := range raw {
		if first || v < lowest {
			lowest = v
			first = false
		}
	}

	total := 0.0
	for id, v := range raw {
		shifted := v - lowest + epsilon
		dist[id] = shifted
		total += shifted
	}
	for id := range dist {
		dist[id] /= total
	}
	return dist
}

// Top returns the agent with the highest probability, preferring the lowest
// ID on ties. ok is false for an empty distribution.
func Top(dist model.BeliefDistribution) (agent int, ok bool) {
	best := -1.0
	for _, id := range dist.AgentIDs() {
		if dist[id] > best {
			best = dist[id]
			agent = id
			ok = true
		}
	}
	return agent, ok
}
