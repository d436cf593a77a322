package model

// Message roles understood by every model backend.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// PromptMessage is a role-tagged unit of model input.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Condition is one of the two fixed prompting variants.
type Condition int

const (
	DialogueOnly Condition = iota
	WithBeliefs
)

// Conditions lists every condition in evaluation order.
var Conditions = []Condition{DialogueOnly, WithBeliefs}

// String returns the label used in exports and metrics.
func (c Condition) String() string {
	switch c {
	case DialogueOnly:
		return "dialogue-only"
	case WithBeliefs:
		return "with-beliefs"
	default:
		return "unknown"
	}
}

// ParseCondition maps an exported label back to its Condition.
func ParseCondition(label string) (Condition, bool) {
	for _, c := range Conditions {
		if c.String() == label {
			return c, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler so conditions serialize as
// labels, including when used as map keys.
func (c Condition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Condition) UnmarshalText(text []byte) error {
	parsed, ok := ParseCondition(string(text))
	if !ok {
		return &UnknownConditionError{Label: string(text)}
	}
	*c = parsed
	return nil
}

// UnknownConditionError is returned when decoding an unrecognized condition label.
type UnknownConditionError struct {
	Label string
}

func (e *UnknownConditionError) Error() string {
	return "model: unknown condition " + e.Label
}
