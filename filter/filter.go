// Package filter compiles per-policy keep expressions with the expr language
// and evaluates them against torrents. A matching expression vetoes deletion
// for that torrent.
//
// Expressions see the torrent's fields plus a few helpers:
//
//	Ratio >= 1.0
//	hasTag("permaseed") or Category == "archive"
//	AgeDays < 30
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"qbt-janitor/qbt"
)

// Filter is a compiled keep expression.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles an expression into an executable filter.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}

	program, err := expr.Compile(expression,
		expr.Env(environment(&qbt.TorrentInfo{}, time.Time{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", expression, err)
	}

	return &Filter{expression: expression, program: program}, nil
}

// Expression returns the source text the filter was compiled from.
func (f *Filter) Expression() string {
	return f.expression
}

// Match evaluates the filter against one torrent.
func (f *Filter) Match(t qbt.TorrentInfo, now time.Time) (bool, error) {
	output, err := expr.Run(f.program, environment(&t, now))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate expression %q: %w", f.expression, err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not return a boolean", f.expression)
	}

	return result, nil
}

// environment builds the evaluation environment for one torrent.
func environment(t *qbt.TorrentInfo, now time.Time) map[string]any {
	return map[string]any{
		"Name":     t.Name,
		"Hash":     t.Hash,
		"Category": t.Category,
		"Tags":     t.Tags,
		"State":    t.State,
		"Tracker":  t.TrackerURL,
		"Size":     t.Size,
		"Ratio":    t.Ratio,
		"AgeDays":  t.Age(now).Hours() / 24,

		"hasTag": func(tag string) bool {
			return t.HasTag(tag)
		},
		"hasCategory": func(category string) bool {
			return strings.EqualFold(t.Category, category)
		},
	}
}
