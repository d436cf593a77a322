// Package transcript parses AIWolf game logs into structured game records.
package transcript

import (
	"strconv"
	"strings"

	"github.com/sells-group/wolf-eval/internal/model"
)

// maxFields is the number of comma-separated fields a log line is split into.
// The final field keeps any embedded commas.
const maxFields = 6

// Event tags that carry meaning; every other tag is ignored.
const (
	tagStatus = "status"
	tagTalk   = "talk"
)

// LineKind tags the result of parsing a single log line.
type LineKind int

const (
	LineIgnored LineKind = iota
	LineStatus
	LineTalk
)

func (k LineKind) String() string {
	switch k {
	case LineStatus:
		return "status"
	case LineTalk:
		return "talk"
	default:
		return "ignored"
	}
}

// Line is the parsed form of one log line. Only the fields relevant to Kind
// are populated.
type Line struct {
	Kind LineKind
	Day  int

	// Status lines.
	Agent int
	Role  string
	Name  string

	// Talk lines.
	Speaker int
	Content string
}

// Utterance converts a talk line into a model.Utterance.
func (l Line) Utterance() model.Utterance {
	return model.Utterance{Day: l.Day, Speaker: l.Speaker, Content: l.Content}
}

// ParseLine classifies one log line. It never fails: anything that does not
// match the expected shape is reported as LineIgnored.
//
// Layout: day,type,idx,role-or-turn,agent,name-or-text
func ParseLine(raw string) Line {
	parts := strings.SplitN(raw, ",", maxFields)
	if len(parts) < 3 {
		return Line{Kind: LineIgnored}
	}

	day, ok := parseDigits(parts[0])
	if !ok {
		return Line{Kind: LineIgnored}
	}

	switch parts[1] {
	case tagStatus:
		if len(parts) < maxFields {
			return Line{Kind: LineIgnored}
		}
		agent, ok := parseDigits(strings.TrimSpace(parts[2]))
		if !ok {
			return Line{Kind: LineIgnored}
		}
		return Line{
			Kind:  LineStatus,
			Day:   day,
			Agent: agent,
			Role:  parts[3],
			Name:  parts[5],
		}
	case tagTalk:
		if len(parts) < maxFields {
			return Line{Kind: LineIgnored}
		}
		speaker, ok := parseDigits(strings.TrimSpace(parts[4]))
		if !ok {
			return Line{Kind: LineIgnored}
		}
		return Line{
			Kind:    LineTalk,
			Day:     day,
			Speaker: speaker,
			Content: strings.TrimSpace(parts[5]),
		}
	default:
		return Line{Kind: LineIgnored}
	}
}

// parseDigits accepts only a non-empty run of ASCII digits.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
