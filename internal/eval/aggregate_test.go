package eval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/wolf-eval/internal/model"
)

func hitRow(cond model.Condition, pred int) model.OutcomeRow {
	return model.NewHitRow("g", cond, []int{1, 4}, &pred, "")
}

func TestAggregate_ExcludesErrorRows(t *testing.T) {
	rows := []model.OutcomeRow{
		hitRow(model.DialogueOnly, 1),
		hitRow(model.DialogueOnly, 2),
		hitRow(model.DialogueOnly, 4),
		model.NewErrorRow("g", model.DialogueOnly, []int{1, 4}, errors.New("timeout")),
	}

	m := Aggregate(rows)
	assert.Equal(t, 3, m[model.DialogueOnly].N)
	assert.InDelta(t, 2.0/3.0, m[model.DialogueOnly].Accuracy, 1e-9)
}

func TestAggregate_EmptyConditionPresent(t *testing.T) {
	m := Aggregate([]model.OutcomeRow{hitRow(model.WithBeliefs, 1)})

	assert.Len(t, m, 2)
	assert.Equal(t, model.MetricsEntry{N: 0, Accuracy: 0}, m[model.DialogueOnly])
	assert.Equal(t, model.MetricsEntry{N: 1, Accuracy: 1}, m[model.WithBeliefs])
}

func TestAggregate_NoPredictionCountsAsMiss(t *testing.T) {
	rows := []model.OutcomeRow{
		model.NewHitRow("g", model.DialogueOnly, []int{1}, nil, "no idea"),
		hitRow(model.DialogueOnly, 1),
	}
	m := Aggregate(rows)
	assert.Equal(t, 2, m[model.DialogueOnly].N)
	assert.InDelta(t, 0.5, m[model.DialogueOnly].Accuracy, 1e-9)
}

func TestAggregate_Nil(t *testing.T) {
	m := Aggregate(nil)
	for _, c := range model.Conditions {
		assert.Equal(t, model.MetricsEntry{}, m[c])
	}
}

func TestSummary(t *testing.T) {
	lines := Summary(map[model.Condition]model.MetricsEntry{
		model.DialogueOnly: {N: 3, Accuracy: 2.0 / 3.0},
		model.WithBeliefs:  {N: 3, Accuracy: 1},
	})
	assert.Equal(t, []string{
		"dialogue-only: n=3 accuracy=0.67",
		"with-beliefs: n=3 accuracy=1.00",
	}, lines)
}

func TestErrorCount(t *testing.T) {
	rows := []model.OutcomeRow{
		hitRow(model.DialogueOnly, 1),
		model.NewErrorRow("g", model.WithBeliefs, nil, errors.New("x")),
	}
	assert.Equal(t, 1, ErrorCount(rows))
}
