package template

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRenderSubstitution(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		tpl  string
		data map[string]any
		want string
	}{
		{
			name: "plain substitution",
			tpl:  "Hello {{name}}!",
			data: map[string]any{"name": "Ana"},
			want: "Hello Ana!",
		},
		{
			name: "unknown key collapses to empty",
			tpl:  "Hello {{name}}{{surname}}!",
			data: map[string]any{"name": "Ana"},
			want: "Hello Ana!",
		},
		{
			name: "decimal formats with two places",
			tpl:  "Total: {{amount}}",
			data: map[string]any{"amount": decimal.NewFromFloat(1200.5)},
			want: "Total: 1200.50",
		},
		{
			name: "integer and bool",
			tpl:  "{{n}} items, overdue={{late}}",
			data: map[string]any{"n": 3, "late": true},
			want: "3 items, overdue=true",
		},
		{
			name: "no tokens",
			tpl:  "static text",
			data: nil,
			want: "static text",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.tpl, tt.data); got != tt.want {
				t.Fatalf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderConditionals(t *testing.T) {
	t.Parallel()
	tpl := "Hello {{name}}{{#if vip}}, VIP{{/if}}"

	if got := Render(tpl, map[string]any{"name": "Ana", "vip": true}); got != "Hello Ana, VIP" {
		t.Fatalf("truthy cond: got %q", got)
	}
	if got := Render(tpl, map[string]any{"name": "Ana", "vip": false}); got != "Hello Ana" {
		t.Fatalf("falsy cond: got %q", got)
	}
	if got := Render(tpl, map[string]any{"name": "Ana"}); got != "Hello Ana" {
		t.Fatalf("absent cond: got %q", got)
	}
}

func TestRenderConditionalBodyTokens(t *testing.T) {
	t.Parallel()
	tpl := "Due {{date}}.{{#if recurring}} Repeats {{frequency}}.{{/if}}"
	got := Render(tpl, map[string]any{"date": "2024-02-29", "recurring": true, "frequency": "monthly"})
	want := "Due 2024-02-29. Repeats monthly."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderMultipleConditionals(t *testing.T) {
	t.Parallel()
	tpl := "{{#if a}}A{{/if}}-{{#if b}}B{{/if}}"
	if got := Render(tpl, map[string]any{"a": true, "b": false}); got != "A-" {
		t.Fatalf("got %q", got)
	}
	if got := Render(tpl, map[string]any{"a": false, "b": true}); got != "-B" {
		t.Fatalf("got %q", got)
	}
}

func TestTruthiness(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"string", "x", true},
		{"zero int", 0, false},
		{"int", 7, true},
		{"zero decimal", decimal.Zero, false},
		{"decimal", decimal.NewFromInt(1), true},
		{"false", false, false},
		{"true", true, true},
	}
	for _, tt := range tests {
		if got := truthy(tt.v); got != tt.want {
			t.Fatalf("truthy(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()
	if _, ok := Lookup("obligation_due_today"); !ok {
		t.Fatal("expected built-in template obligation_due_today")
	}
	if _, ok := Lookup("no_such_template"); ok {
		t.Fatal("unknown template ID must not resolve")
	}
}
