// Package model defines the game, prompt, and outcome types shared across the evaluation pipeline.
package model

import "sort"

// Role labels as they appear in AIWolf status lines.
const (
	RoleWerewolf  = "WEREWOLF"
	RoleSeer      = "SEER"
	RolePossessed = "POSSESSED"
	RoleVillager  = "VILLAGER"
	RoleBodyguard = "BODYGUARD"
	RoleMedium    = "MEDIUM"
)

// AdversarialRole is the hidden role the model is asked to identify.
const AdversarialRole = RoleWerewolf

// Utterance is one dialogue turn from a "talk" line.
type Utterance struct {
	Day     int    `json:"day"`
	Speaker int    `json:"speaker"`
	Content string `json:"content"`
}

// GameRecord is one parsed transcript. Utterances are kept in the order they
// were encountered in the log.
type GameRecord struct {
	ID         string         `json:"id"`
	Roles      map[int]string `json:"roles"`
	Names      map[int]string `json:"names"`
	Utterances []Utterance    `json:"utterances"`
}

// Valid reports whether the record has at least one role and one utterance.
func (g *GameRecord) Valid() bool {
	return g != nil && len(g.Roles) > 0 && len(g.Utterances) > 0
}

// AgentIDs returns the agents with a recorded role in ascending order.
func (g *GameRecord) AgentIDs() []int {
	ids := make([]int, 0, len(g.Roles))
	for id := range g.Roles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// WolfIDs returns the agents holding the adversarial role in ascending order.
func (g *GameRecord) WolfIDs() []int {
	ids := make([]int, 0, 1)
	for _, id := range g.AgentIDs() {
		if g.Roles[id] == AdversarialRole {
			ids = append(ids, id)
		}
	}
	return ids
}

// RoleCounts tallies how many agents hold each role.
func (g *GameRecord) RoleCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range g.Roles {
		counts[r]++
	}
	return counts
}

// BeliefDistribution maps agent ID to the estimated probability of being a
// werewolf. Values are strictly positive and sum to 1.
type BeliefDistribution map[int]float64

// AgentIDs returns the agents in the distribution in ascending order.
func (b BeliefDistribution) AgentIDs() []int {
	ids := make([]int, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
