package template

// Built-in message bodies, keyed by template ID. Payload keys are filled by
// the dispatch service per cycle.
var catalog = map[string]string{
	"obligation_due_today": "Hi {{name}}! Your {{kind}} \"{{title}}\" of {{amount}} is due today ({{due_date}}).{{#if recurring}} It repeats {{frequency}}.{{/if}}",
	"obligation_overdue":   "Hi {{name}}! Your {{kind}} \"{{title}}\" of {{amount}} was due on {{due_date}} and is still open.{{#if has_interest}} Interest and penalties may apply.{{/if}}",
	"investment_maturing":  "Hi {{name}}! Your investment \"{{title}}\" of {{amount}} matures on {{maturity_date}}.",
	"goal_progress":        "Hi {{name}}! You have reached {{progress}}% of your goal \"{{title}}\"{{#if deadline}} (deadline {{deadline}}){{/if}}. Keep going!",
	"goal_achieved":        "Congratulations, {{name}}! You completed your goal \"{{title}}\" of {{amount}}.",
	"monthly_report":       "Hi {{name}}! Your summary for {{month}}: expenses {{expense_total}}, revenues {{revenue_total}}, balance {{balance}}.",
	"alert":                "{{severity}} alert: {{metric}} is {{value}} ({{comparator}} {{threshold}}).",
}

// Lookup returns the body for a template ID. ok is false for unknown IDs so
// callers can fail the single job instead of sending an empty message.
func Lookup(id string) (string, bool) {
	body, ok := catalog[id]
	return body, ok
}
