// Package template renders notification message bodies. The grammar is
// deliberately tiny: {{name}} substitution from a flat map plus non-nested
// {{#if cond}}...{{/if}} blocks with no else branch. Render is a pure
// function; unknown keys collapse to an empty string rather than erroring,
// so a template never fails at send time.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Render substitutes data into tpl. Conditional blocks are resolved first,
// then the surviving text has its {{key}} tokens replaced.
func Render(tpl string, data map[string]any) string {
	return substitute(conditionals(tpl, data), data)
}

// conditionals resolves {{#if key}}...{{/if}} blocks: the enclosed content
// is kept iff data[key] is truthy. Blocks do not nest.
func conditionals(tpl string, data map[string]any) string {
	var b strings.Builder
	rest := tpl
	for {
		open := strings.Index(rest, "{{#if ")
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])
		rest = rest[open+len("{{#if "):]

		closeTag := strings.Index(rest, "}}")
		if closeTag < 0 { // malformed, emit as-is
			b.WriteString("{{#if ")
			b.WriteString(rest)
			return b.String()
		}
		cond := strings.TrimSpace(rest[:closeTag])
		rest = rest[closeTag+2:]

		end := strings.Index(rest, "{{/if}}")
		if end < 0 { // unterminated block, keep body
			if truthy(data[cond]) {
				b.WriteString(rest)
			}
			return b.String()
		}
		if truthy(data[cond]) {
			b.WriteString(rest[:end])
		}
		rest = rest[end+len("{{/if}}"):]
	}
}

func substitute(tpl string, data map[string]any) string {
	var b strings.Builder
	rest := tpl
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		closeTag := strings.Index(rest[open:], "}}")
		if closeTag < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])
		key := strings.TrimSpace(rest[open+2 : open+closeTag])
		b.WriteString(stringify(data[key]))
		rest = rest[open+closeTag+2:]
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case decimal.Decimal:
		return !t.IsZero()
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case decimal.Decimal:
		return t.StringFixed(2)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
