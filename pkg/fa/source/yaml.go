package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/fa/pkg/fa/types"
)

// YAMLSource loads watchlists from a YAML file or a directory of YAML files.
//
// File shape:
//
//	watchlist:
//	  - sym: AAPL
//	  - sym: NISP.JK
//	    name: OCBC NISP
//	  - name: Banks
//	    watchlist:
//	      - sym: JPM
type YAMLSource struct{}

// Load expects spec to be a string path.
func (YAMLSource) Load(_ context.Context, spec any) ([]types.Watchlist, error) {
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("yaml source expects filepath string spec, got %T", spec)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return loadFile(path, base)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []types.Watchlist
	for _, full := range files {
		rel, err := filepath.Rel(path, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		lists, err := loadFile(full, prefix)
		if err != nil {
			return nil, err
		}
		all = append(all, lists...)
	}
	return all, nil
}

func loadFile(path, prefix string) ([]types.Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lists, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range lists {
		switch {
		case strings.TrimSpace(lists[i].Name) == "":
			lists[i].Name = prefix
		case prefix != "":
			lists[i].Name = prefix + "/" + lists[i].Name
		}
	}
	return lists, nil
}

// node is one watchlist entry: either a ticker (sym) or a named group (watchlist).
type node struct {
	Sym       string `yaml:"sym"`
	Name      string `yaml:"name"`
	Watchlist []node `yaml:"watchlist"`
}

func parseYAML(data []byte) ([]types.Watchlist, error) {
	var root node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Watchlist == nil {
		return nil, fmt.Errorf("invalid yaml: missing 'watchlist'")
	}

	var lists []types.Watchlist
	var walk func(entries []node, path []string)
	walk = func(entries []node, path []string) {
		var items []types.Item
		for _, e := range entries {
			if e.Watchlist == nil && strings.TrimSpace(e.Sym) != "" {
				items = append(items, types.Item{Sym: strings.TrimSpace(e.Sym), Name: e.Name})
			}
		}
		if len(items) > 0 {
			lists = append(lists, types.Watchlist{Name: strings.Join(path, "/"), Items: items})
		}
		for _, e := range entries {
			if e.Watchlist == nil {
				continue
			}
			next := append([]string(nil), path...)
			if e.Name != "" {
				next = append(next, e.Name)
			}
			walk(e.Watchlist, next)
		}
	}
	walk(root.Watchlist, nil)
	return lists, nil
}
