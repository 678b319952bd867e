package escalation

import "time"

type Action int

const (
	ActionNone Action = iota
	ActionMute
	ActionBan
)

// Directive is what the policy tells the caller to apply after a warn.
type Directive struct {
	Action       Action
	MuteDuration time.Duration
}

type tier struct {
	minWarns  int
	directive Directive
}

// Tiers are ordered by minWarns; a count matches the highest tier it
// reaches, so counts past the table clamp to the last entry.
var tiers = []tier{
	{1, Directive{Action: ActionNone}},
	{2, Directive{Action: ActionMute, MuteDuration: 1 * time.Hour}},
	{3, Directive{Action: ActionMute, MuteDuration: 2 * time.Hour}},
	{4, Directive{Action: ActionMute, MuteDuration: 5 * time.Hour}},
	{5, Directive{Action: ActionBan}},
}

// Evaluate maps an active warn count to a directive. It is pure: the
// same count always yields the same directive.
func Evaluate(activeWarns int) Directive {
	result := Directive{Action: ActionNone}
	for _, t := range tiers {
		if activeWarns >= t.minWarns {
			result = t.directive
		}
	}
	return result
}
