// Package source loads the tickers (and optionally the period) to analyze
// from YAML files or from the input cells of a workbook.
package source

import (
	"context"
	"errors"
	"strings"
)

// ErrNoTickers is returned when a source yields nothing to analyze.
var ErrNoTickers = errors.New("no tickers found")

// Selection is what a source asks the pipeline to run.
type Selection struct {
	Tickers []string
	// Period is a display label such as "1 Year"; empty means the caller's default.
	Period string
}

// Source loads a selection from spec (e.g. a file path).
type Source interface {
	Load(ctx context.Context, spec any) (*Selection, error)
}

// appendTicker adds t upper-cased unless it is blank or already present.
func appendTicker(list []string, seen map[string]struct{}, t string) []string {
	t = strings.ToUpper(strings.TrimSpace(t))
	if t == "" {
		return list
	}
	if _, ok := seen[t]; ok {
		return list
	}
	seen[t] = struct{}{}
	return append(list, t)
}
