package export

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/wolf-eval/internal/model"
)

// Sheet names in the results workbook.
const (
	OutcomesSheet = "outcomes"
	MetricsSheet  = "metrics"
)

var outcomeHeader = []string{"game_id", "condition", "prediction", "wolf_ids", "hit", "response", "error"}

var metricsHeader = []string{"condition", "n", "accuracy"}

// WriteXLSX writes a workbook with one row per outcome and one row per
// condition. Absent values are left as empty cells.
func WriteXLSX(path string, rows []model.OutcomeRow, metrics map[model.Condition]model.MetricsEntry) error {
	f := xlsx.NewFile()

	outcomes, err := f.AddSheet(OutcomesSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add outcomes sheet")
	}
	addStrings(outcomes.AddRow(), outcomeHeader)
	for _, r := range rows {
		row := outcomes.AddRow()
		row.AddCell().SetString(r.GameID)
		row.AddCell().SetString(r.Condition.String())
		if r.Prediction != nil {
			row.AddCell().SetInt(*r.Prediction)
		} else {
			row.AddCell()
		}
		row.AddCell().SetString(joinIDs(r.WolfIDs))
		if r.Hit != nil {
			row.AddCell().SetString(strconv.FormatBool(*r.Hit))
		} else {
			row.AddCell()
		}
		row.AddCell().SetString(deref(r.Response))
		row.AddCell().SetString(deref(r.Error))
	}

	sheet, err := f.AddSheet(MetricsSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add metrics sheet")
	}
	addStrings(sheet.AddRow(), metricsHeader)
	for _, c := range model.Conditions {
		m := metrics[c]
		row := sheet.AddRow()
		row.AddCell().SetString(c.String())
		row.AddCell().SetInt(m.N)
		row.AddCell().SetFloat(m.Accuracy)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save workbook")
	}
	return nil
}

func addStrings(row *xlsx.Row, values []string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
