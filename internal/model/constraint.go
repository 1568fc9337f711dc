package model

import (
	"strconv"
	"strings"
)

// Constraint kinds.
const (
	ConstraintMaxActions  = "max_actions"
	ConstraintSpendLimit  = "spend_limit"
	ConstraintAllowedTool = "allowed_tool"
)

// Constraint is the typed view of one entry in a cronjob's constraint list.
// Constraints are stored and transmitted as strings ("max_actions:5",
// "spend_limit:10", or a bare tool name); this is the parsed form handlers
// and the scheduler work with.
type Constraint struct {
	Kind  string
	Value int    // for max_actions / spend_limit
	Tool  string // for allowed_tool
}

// ParseConstraint parses a single constraint string. A "key:value" entry with
// a recognized key becomes a numeric constraint; anything else is an allowed
// tool name.
func ParseConstraint(s string) Constraint {
	if key, val, ok := strings.Cut(s, ":"); ok {
		switch key {
		case ConstraintMaxActions, ConstraintSpendLimit:
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || n < 0 {
				n = 0
			}
			return Constraint{Kind: key, Value: n}
		}
	}
	return Constraint{Kind: ConstraintAllowedTool, Tool: s}
}

// String re-encodes the constraint into its wire form.
func (c Constraint) String() string {
	switch c.Kind {
	case ConstraintMaxActions, ConstraintSpendLimit:
		return c.Kind + ":" + strconv.Itoa(c.Value)
	default:
		return c.Tool
	}
}

// ParseConstraints parses a constraint list, preserving order.
func ParseConstraints(entries []string) []Constraint {
	out := make([]Constraint, 0, len(entries))
	for _, e := range entries {
		out = append(out, ParseConstraint(e))
	}
	return out
}
