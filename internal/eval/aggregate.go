package eval

import (
	"fmt"

	"github.com/sells-group/wolf-eval/internal/model"
)

// Aggregate computes accuracy per condition over rows that carry a hit
// flag. Error rows are excluded. Every condition is present in the result;
// a condition with no counted rows has N 0 and accuracy 0.
func Aggregate(rows []model.OutcomeRow) map[model.Condition]model.MetricsEntry {
	hits := make(map[model.Condition]int, len(model.Conditions))
	counts := make(map[model.Condition]int, len(model.Conditions))
	for _, r := range rows {
		if !r.Counted() {
			continue
		}
		counts[r.Condition]++
		if *r.Hit {
			hits[r.Condition]++
		}
	}

	out := make(map[model.Condition]model.MetricsEntry, len(model.Conditions))
	for _, c := range model.Conditions {
		e := model.MetricsEntry{N: counts[c]}
		if e.N > 0 {
			e.Accuracy = float64(hits[c]) / float64(e.N)
		}
		out[c] = e
	}
	return out
}

// Summary renders one line per condition in evaluation order.
func Summary(metrics map[model.Condition]model.MetricsEntry) []string {
	lines := make([]string, 0, len(model.Conditions))
	for _, c := range model.Conditions {
		m := metrics[c]
		lines = append(lines, fmt.Sprintf("%s: n=%d accuracy=%.2f", c, m.N, m.Accuracy))
	}
	return lines
}

// ErrorCount returns the number of rows whose model call failed.
func ErrorCount(rows []model.OutcomeRow) int {
	n := 0
	for _, r := range rows {
		if r.Error != nil {
			n++
		}
	}
	return n
}
