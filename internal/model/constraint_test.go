package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConstraint_MaxActions(t *testing.T) {
	c := ParseConstraint("max_actions:5")
	assert.Equal(t, ConstraintMaxActions, c.Kind)
	assert.Equal(t, 5, c.Value)
	assert.Equal(t, "max_actions:5", c.String())
}

func TestParseConstraint_SpendLimit(t *testing.T) {
	c := ParseConstraint("spend_limit:10")
	assert.Equal(t, ConstraintSpendLimit, c.Kind)
	assert.Equal(t, 10, c.Value)
}

func TestParseConstraint_NegativeClampsToZero(t *testing.T) {
	c := ParseConstraint("max_actions:-3")
	assert.Equal(t, 0, c.Value)
}

func TestParseConstraint_GarbageValueCoercesToZero(t *testing.T) {
	c := ParseConstraint("spend_limit:lots")
	assert.Equal(t, ConstraintSpendLimit, c.Kind)
	assert.Equal(t, 0, c.Value)
}

func TestParseConstraint_ToolName(t *testing.T) {
	c := ParseConstraint("web_search")
	assert.Equal(t, ConstraintAllowedTool, c.Kind)
	assert.Equal(t, "web_search", c.Tool)
	assert.Equal(t, "web_search", c.String())
}

func TestParseConstraint_UnknownKeyIsToolName(t *testing.T) {
	// "foo:bar" has no recognized key, so the whole string is a tool name.
	c := ParseConstraint("foo:bar")
	assert.Equal(t, ConstraintAllowedTool, c.Kind)
	assert.Equal(t, "foo:bar", c.Tool)
}

func TestParseConstraints_PreservesOrder(t *testing.T) {
	got := ParseConstraints([]string{"max_actions:5", "web_search", "spend_limit:10"})
	assert.Len(t, got, 3)
	assert.Equal(t, ConstraintMaxActions, got[0].Kind)
	assert.Equal(t, ConstraintAllowedTool, got[1].Kind)
	assert.Equal(t, ConstraintSpendLimit, got[2].Kind)
}
