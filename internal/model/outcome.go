package model

// OutcomeRow is the result of evaluating one game under one condition.
// Error rows carry no prediction and no hit flag.
type OutcomeRow struct {
	GameID     string    `json:"game_id"`
	Condition  Condition `json:"condition"`
	Prediction *int      `json:"prediction"`
	WolfIDs    []int     `json:"wolf_ids"`
	Hit        *bool     `json:"hit"`
	Response   *string   `json:"response"`
	Error      *string   `json:"error"`
}

// NewHitRow builds a row for a successful model call.
func NewHitRow(gameID string, cond Condition, wolfIDs []int, prediction *int, response string) OutcomeRow {
	hit := false
	if prediction != nil {
		for _, id := range wolfIDs {
			if id == *prediction {
				hit = true
				break
			}
		}
	}
	return OutcomeRow{
		GameID:     gameID,
		Condition:  cond,
		Prediction: prediction,
		WolfIDs:    wolfIDs,
		Hit:        &hit,
		Response:   &response,
	}
}

// NewErrorRow builds a row for a model call that failed irrecoverably.
func NewErrorRow(gameID string, cond Condition, wolfIDs []int, err error) OutcomeRow {
	msg := err.Error()
	return OutcomeRow{
		GameID:    gameID,
		Condition: cond,
		WolfIDs:   wolfIDs,
		Error:     &msg,
	}
}

// Counted reports whether the row contributes to accuracy metrics.
func (r OutcomeRow) Counted() bool {
	return r.Hit != nil
}

// MetricsEntry is the per-condition accuracy summary.
type MetricsEntry struct {
	N        int     `json:"n" yaml:"n"`
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
}
