package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Filter matches a metric section name.
type Filter interface {
	Match(name string) bool
}

// Parse builds a filter from an expression. Matching ignores case.
// - Comma-separated exact names: "risk,valuation"
// - Glob: "PROFIT*"
// - Regex: "/^(growth|risk)$/"
// - Anything else is a single exact name: "growth"
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile("(?i)" + expr[1:len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	}
	if !strings.Contains(expr, ",") && strings.ContainsAny(expr, "*?[") {
		if _, err := filepath.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Glob{pattern: strings.ToUpper(expr)}, nil
	}
	set := map[string]struct{}{}
	for _, p := range strings.Split(expr, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		set[strings.ToUpper(p)] = struct{}{}
	}
	return ExactSet{set: set}, nil
}

// Implementations

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(name string) bool {
	_, ok := e.set[strings.ToUpper(name)]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(name string) bool {
	ok, _ := filepath.Match(g.pattern, strings.ToUpper(name))
	return ok
}

func (g Glob) String() string { return fmt.Sprintf("glob:%s", g.pattern) }

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(name string) bool { return r.re.MatchString(name) }

func (r Regex) String() string { return fmt.Sprintf("regex:%s", r.re) }
