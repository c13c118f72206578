// Package threshold implements the Nagios-compatible range grammar used by
// the redarrow monitoring wrapper to turn a numeric reading into an alert
// decision.
//
//	range := [ "@" ] bound [ ":" bound ]
//	bound := ""   -> +Inf (end) / 0 (start, when the whole range is omitted)
//	       | "~"  -> -Inf
//	       | decimal
package threshold

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Range is a parsed Nagios threshold: alert when a value falls outside
// [Start,End], or inside it when Inverted is true.
type Range struct {
	Inverted bool
	Start    float64
	End      float64
}

// Parse parses a Nagios range expression. Examples: "10", "10:20", "~:10",
// "@10:20", "5:".
func Parse(expr string) (Range, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Range{}, fmt.Errorf("threshold: empty range")
	}

	inverted := false
	if strings.HasPrefix(expr, "@") {
		inverted = true
		expr = expr[1:]
	}

	start, end := 0.0, math.Inf(1)

	if idx := strings.IndexByte(expr, ':'); idx >= 0 {
		startStr, endStr := expr[:idx], expr[idx+1:]

		s, err := parseBound(startStr, 0)
		if err != nil {
			return Range{}, fmt.Errorf("threshold: bad start %q: %w", startStr, err)
		}
		start = s

		e, err := parseBound(endStr, math.Inf(1))
		if err != nil {
			return Range{}, fmt.Errorf("threshold: bad end %q: %w", endStr, err)
		}
		end = e
	} else {
		e, err := parseBound(expr, math.Inf(1))
		if err != nil {
			return Range{}, fmt.Errorf("threshold: bad value %q: %w", expr, err)
		}
		end = e
	}

	if start > end {
		return Range{}, fmt.Errorf("threshold: start %v greater than end %v", start, end)
	}

	return Range{Inverted: inverted, Start: start, End: end}, nil
}

// parseBound resolves "" -> empty (caller's default), "~" -> -Inf, or a
// decimal literal.
func parseBound(s string, empty float64) (float64, error) {
	switch s {
	case "":
		return empty, nil
	case "~":
		return math.Inf(-1), nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return v, nil
	}
}

// Alert reports whether v should trigger an alert under this range.
//
// Default sense: alert if v < Start or v > End (v outside [Start,End]).
// Inverted sense (the "@" prefix): alert if v is inside [Start,End].
func (r Range) Alert(v float64) bool {
	inside := v >= r.Start && v <= r.End
	if r.Inverted {
		return inside
	}
	return !inside
}

// String renders the range back to Nagios range syntax (not guaranteed to
// be byte-identical to the original input, only semantically equivalent).
func (r Range) String() string {
	var b strings.Builder
	if r.Inverted {
		b.WriteByte('@')
	}
	b.WriteString(formatBound(r.Start, false))
	b.WriteByte(':')
	b.WriteString(formatBound(r.End, true))
	return b.String()
}

func formatBound(v float64, isEnd bool) string {
	if math.IsInf(v, -1) {
		return "~"
	}
	if math.IsInf(v, 1) {
		return ""
	}
	if !isEnd && v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
