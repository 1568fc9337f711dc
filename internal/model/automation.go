package model

// Automation levels describe how much human approval a cronjob's actions
// require before taking effect.
const (
	AutomationSuggestOnly     = "suggest_only"
	AutomationApprovalNeeded  = "approval_required"
	AutomationConditionalAuto = "conditional_auto_execute"
	AutomationBoundedPilot    = "bounded_autopilot"
)

// AutomationLevels lists every current automation level.
var AutomationLevels = []string{
	AutomationSuggestOnly,
	AutomationApprovalNeeded,
	AutomationConditionalAuto,
	AutomationBoundedPilot,
}

// legacyAutomationLevels maps the retired {manual, assisted, full} enumeration
// onto current values. Stored records only ever carry current values; the
// mapping is applied once at the validation boundary.
var legacyAutomationLevels = map[string]string{
	"manual":   AutomationSuggestOnly,
	"assisted": AutomationApprovalNeeded,
	"full":     AutomationConditionalAuto,
}

// NormalizeAutomationLevel maps legacy automation levels to their current
// equivalent. Current values pass through unchanged; unknown values are
// returned as-is with ok=false.
func NormalizeAutomationLevel(level string) (string, bool) {
	if mapped, ok := legacyAutomationLevels[level]; ok {
		return mapped, true
	}
	for _, l := range AutomationLevels {
		if level == l {
			return level, true
		}
	}
	return level, false
}
