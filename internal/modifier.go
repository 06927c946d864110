package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule actions.
const (
	ActionAppend  = "append"
	ActionPrepend = "prepend"
	ActionReplace = "replace"
)

// Rule describes one transformation applied to a turn's body before replay.
type Rule struct {
	Role   string `yaml:"role,omitempty"` // target message role, default "system"
	Action string `yaml:"action"`         // append, prepend or replace
	Text   string `yaml:"text"`
}

// TargetRole returns the message role the rule edits.
func (r Rule) TargetRole() string {
	if r.Role == "" {
		return RoleSystem
	}
	return r.Role
}

func (r Rule) validate() error {
	switch r.Action {
	case ActionAppend, ActionPrepend, ActionReplace:
		return nil
	case "":
		return fmt.Errorf("missing action")
	default:
		return fmt.Errorf("unknown action %q (supported: append, prepend, replace)", r.Action)
	}
}

// RuleSet maps prompt identifiers to the rule applied to matching turns.
//
// A rule file looks like:
//
//	argument-evaluation:
//	  action: append
//	  text: " Keep it short."
//	assistant-argument:
//	  role: system
//	  action: replace
//	  text: "You argue the opposite side."
type RuleSet map[string]Rule

// LoadRuleSet reads and validates a YAML rule file.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	var rules RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", path, err)
	}

	for promptID, rule := range rules {
		if err := rule.validate(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", promptID, err)
		}
	}
	return rules, nil
}

// Apply returns turn with the matching rule, if any, applied to its body.
// The input is never mutated and identity fields (timestamp, path, prompt id)
// carry over unchanged, so the same fetched session can be replayed again
// with a different rule set. A rule whose target role is absent from the
// body is a no-op for that turn. Turns without a prompt identifier are never
// modified.
func (rs RuleSet) Apply(turn Turn) Turn {
	if turn.PromptID == "" {
		return turn
	}
	rule, ok := rs[turn.PromptID]
	if !ok {
		return turn
	}

	idx := turn.Body.FindRole(rule.TargetRole())
	if idx < 0 {
		return turn
	}

	body := turn.Body.Clone()
	switch rule.Action {
	case ActionAppend:
		body.Messages[idx].Content += rule.Text
	case ActionPrepend:
		body.Messages[idx].Content = rule.Text + body.Messages[idx].Content
	case ActionReplace:
		body.Messages[idx].Content = rule.Text
	}
	turn.Body = body
	return turn
}

// ApplyAll applies the rule set to every turn, returning a new slice.
func (rs RuleSet) ApplyAll(turns []Turn) []Turn {
	result := make([]Turn, len(turns))
	for i, turn := range turns {
		result[i] = rs.Apply(turn)
	}
	return result
}
