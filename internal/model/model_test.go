package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveAgentGame() *GameRecord {
	return &GameRecord{
		ID: "g",
		Roles: map[int]string{
			4: RoleVillager, 1: RoleSeer, 3: RoleWerewolf, 2: RolePossessed, 5: RoleVillager,
		},
		Utterances: []Utterance{{Day: 1, Speaker: 1, Content: "Over"}},
	}
}

func TestGameRecord_Valid(t *testing.T) {
	var nilGame *GameRecord
	assert.False(t, nilGame.Valid())
	assert.False(t, (&GameRecord{Roles: map[int]string{1: RoleSeer}}).Valid())
	assert.False(t, (&GameRecord{Utterances: []Utterance{{}}}).Valid())
	assert.True(t, fiveAgentGame().Valid())
}

func TestGameRecord_IDs(t *testing.T) {
	g := fiveAgentGame()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, g.AgentIDs())
	assert.Equal(t, []int{3}, g.WolfIDs())

	g.Roles[5] = RoleWerewolf
	assert.Equal(t, []int{3, 5}, g.WolfIDs())

	g.Roles = map[int]string{1: RoleSeer}
	assert.Empty(t, g.WolfIDs())
}

func TestGameRecord_RoleCounts(t *testing.T) {
	assert.Equal(t, map[string]int{
		RoleVillager: 2, RoleSeer: 1, RoleWerewolf: 1, RolePossessed: 1,
	}, fiveAgentGame().RoleCounts())
}

func TestBeliefDistribution_AgentIDs(t *testing.T) {
	b := BeliefDistribution{3: 0.2, 1: 0.5, 2: 0.3}
	assert.Equal(t, []int{1, 2, 3}, b.AgentIDs())
}

func TestCondition_Labels(t *testing.T) {
	assert.Equal(t, "dialogue-only", DialogueOnly.String())
	assert.Equal(t, "with-beliefs", WithBeliefs.String())
	assert.Equal(t, "unknown", Condition(7).String())
	assert.Equal(t, []Condition{DialogueOnly, WithBeliefs}, Conditions)

	c, ok := ParseCondition("with-beliefs")
	require.True(t, ok)
	assert.Equal(t, WithBeliefs, c)
	_, ok = ParseCondition("With-Beliefs")
	assert.False(t, ok)
}

func TestCondition_JSONMapKeys(t *testing.T) {
	raw, err := json.Marshal(map[Condition]MetricsEntry{WithBeliefs: {N: 2, Accuracy: 0.5}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"with-beliefs":{"n":2,"accuracy":0.5}}`, string(raw))

	var c Condition
	err = json.Unmarshal([]byte(`"sideways"`), &c)
	var uce *UnknownConditionError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "sideways", uce.Label)
}

func TestNewHitRow(t *testing.T) {
	three, four := 3, 4
	hit := NewHitRow("g", DialogueOnly, []int{3}, &three, "Agent[03]")
	require.NotNil(t, hit.Hit)
	assert.True(t, *hit.Hit)
	assert.True(t, hit.Counted())
	assert.Nil(t, hit.Error)
	assert.Equal(t, "Agent[03]", *hit.Response)

	miss := NewHitRow("g", DialogueOnly, []int{3}, &four, "Agent[04]")
	assert.False(t, *miss.Hit)

	none := NewHitRow("g", WithBeliefs, []int{3}, nil, "unsure")
	require.NotNil(t, none.Hit)
	assert.False(t, *none.Hit)
	assert.Nil(t, none.Prediction)
	assert.True(t, none.Counted())
}

func TestNewErrorRow(t *testing.T) {
	row := NewErrorRow("g", WithBeliefs, []int{2}, errors.New("status 503"))
	assert.False(t, row.Counted())
	assert.Nil(t, row.Hit)
	assert.Nil(t, row.Prediction)
	assert.Nil(t, row.Response)
	require.NotNil(t, row.Error)
	assert.Equal(t, "status 503", *row.Error)
	assert.Equal(t, []int{2}, row.WolfIDs)
}
