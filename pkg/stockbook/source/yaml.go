package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLSource loads tickers from a YAML file, or every YAML file under a
// directory. Two shapes are accepted:
//
//	period: 1 Year
//	tickers: [AAPL, MSFT]
//
// or a watchlist of items, optionally grouped:
//
//	watchlist:
//	  - sym: AAPL
//	  - name: Cloud
//	    watchlist:
//	      - sym: MSFT
type YAMLSource struct{}

// Load expects spec to be a string path.
func (YAMLSource) Load(ctx context.Context, spec any) (*Selection, error) { //nolint:revive // ctx reserved
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("yaml source expects filepath string spec")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	files := []string{path}
	if info.IsDir() {
		files = nil
		err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(d.Name()))
			if ext == ".yaml" || ext == ".yml" {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
	}

	sel := &Selection{}
	seen := map[string]struct{}{}
	for _, full := range files {
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		doc, err := parseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", full, err)
		}
		for _, t := range doc.tickers {
			sel.Tickers = appendTicker(sel.Tickers, seen, t)
		}
		if sel.Period == "" {
			sel.Period = doc.period
		}
	}
	if len(sel.Tickers) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTickers)
	}
	return sel, nil
}

type yamlDoc struct {
	period  string
	tickers []string
}

func parseYAML(data []byte) (yamlDoc, error) {
	var root struct {
		Period    string    `yaml:"period"`
		Tickers   []string  `yaml:"tickers"`
		Watchlist yaml.Node `yaml:"watchlist"`
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return yamlDoc{}, err
	}
	doc := yamlDoc{period: strings.TrimSpace(root.Period), tickers: root.Tickers}
	if root.Watchlist.Kind != 0 {
		var wl any
		if err := root.Watchlist.Decode(&wl); err != nil {
			return yamlDoc{}, err
		}
		walk(wl, &doc.tickers)
	}
	if len(doc.tickers) == 0 {
		return yamlDoc{}, fmt.Errorf("invalid yaml: expected 'tickers' or 'watchlist'")
	}
	return doc, nil
}

// walk collects every sym in document order, descending into groups.
func walk(node any, out *[]string) {
	switch n := node.(type) {
	case []any:
		for _, e := range n {
			walk(e, out)
		}
	case map[string]any:
		if child, ok := n["watchlist"]; ok {
			walk(child, out)
			return
		}
		if sym, ok := n["sym"]; ok && sym != nil {
			*out = append(*out, fmt.Sprint(sym))
		}
	case string:
		*out = append(*out, n)
	}
}
