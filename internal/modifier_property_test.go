package internal

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

func ruleGen() *rapid.Generator[Rule] {
	return rapid.Custom(func(t *rapid.T) Rule {
		return Rule{
			Role:   rapid.SampledFrom([]string{"", RoleSystem, RoleUser, RoleAssistant}).Draw(t, "role"),
			Action: rapid.SampledFrom([]string{ActionAppend, ActionPrepend, ActionReplace}).Draw(t, "action"),
			Text:   rapid.StringN(0, 40, -1).Draw(t, "text"),
		}
	})
}

func turnGen() *rapid.Generator[Turn] {
	return rapid.Custom(func(t *rapid.T) Turn {
		roles := []string{RoleSystem, RoleUser, RoleAssistant}
		n := rapid.IntRange(0, 4).Draw(t, "messages")
		messages := make([]Message, n)
		for i := range messages {
			messages[i] = Message{
				Role:    rapid.SampledFrom(roles).Draw(t, "role"),
				Content: rapid.StringN(0, 40, -1).Draw(t, "content"),
			}
		}
		return Turn{
			RequestID: "req-1",
			PromptID:  rapid.SampledFrom([]string{"", "p1", "p2"}).Draw(t, "prompt"),
			Body:      ChatBody{Model: "gpt-4o-mini", Messages: messages},
		}
	})
}

func TestRuleSetApplyPureProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rules := RuleSet{"p1": ruleGen().Draw(t, "rule")}
		turn := turnGen().Draw(t, "turn")
		before := turn.Body.Clone()

		rules.Apply(turn)

		if !reflect.DeepEqual(turn.Body, before) {
			t.Fatalf("Apply() mutated its input: %+v != %+v", turn.Body, before)
		}
	})
}

func TestRuleSetApplyScopeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rule := ruleGen().Draw(t, "rule")
		rules := RuleSet{"p1": rule}
		turn := turnGen().Draw(t, "turn")

		got := rules.Apply(turn)

		if len(got.Body.Messages) != len(turn.Body.Messages) {
			t.Fatalf("Apply() changed the message count: %d != %d", len(got.Body.Messages), len(turn.Body.Messages))
		}

		target := turn.Body.FindRole(rule.TargetRole())
		for i := range turn.Body.Messages {
			if turn.PromptID == "p1" && i == target {
				continue
			}
			if !reflect.DeepEqual(got.Body.Messages[i], turn.Body.Messages[i]) {
				t.Fatalf("message %d changed without a rule targeting it", i)
			}
		}
	})
}

func TestRuleSetReplaceIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rules := RuleSet{"p1": {
			Role:   rapid.SampledFrom([]string{"", RoleSystem, RoleUser}).Draw(t, "role"),
			Action: ActionReplace,
			Text:   rapid.StringN(0, 40, -1).Draw(t, "text"),
		}}
		turn := turnGen().Draw(t, "turn")

		once := rules.Apply(turn)
		twice := rules.Apply(once)
		if !reflect.DeepEqual(once.Body, twice.Body) {
			t.Fatalf("replace is not idempotent: %+v != %+v", once.Body, twice.Body)
		}
	})
}
