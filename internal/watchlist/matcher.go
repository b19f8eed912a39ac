package watchlist

import (
	"fmt"
	"os"
	"strings"

	"github.com/clinsights/pubscreen/internal/model"
	"gopkg.in/yaml.v3"
)

// Matcher maps extracted country mentions onto the configured watch list.
// Matching is exact after normalization: lowercase, trimmed, alias-resolved.
// Substring matching is not used: "Chinatown" must never match China.
type Matcher struct {
	config    *model.WatchlistConfig
	canonical []string          // configured order
	aliasMap  map[string]string // normalized variant -> canonical name
}

// NewMatcher creates a matcher from a watch-list config (nil = built-in list)
func NewMatcher(config *model.WatchlistConfig) *Matcher {
	if config == nil {
		def := model.DefaultWatchlist()
		config = &def
	}

	m := &Matcher{
		config:   config,
		aliasMap: make(map[string]string),
	}

	for _, wc := range config.Countries {
		name := strings.TrimSpace(wc.Name)
		if name == "" {
			continue
		}
		m.canonical = append(m.canonical, name)
		m.aliasMap[normalize(name)] = name
		for _, alias := range wc.Aliases {
			if a := normalize(alias); a != "" {
				m.aliasMap[a] = name
			}
		}
	}

	return m
}

// Canonical returns the watch-list country names in configured order
func (m *Matcher) Canonical() []string {
	out := make([]string, len(m.canonical))
	copy(out, m.canonical)
	return out
}

// Match returns the canonical names of watch-list countries present in the
// given mentions. The result follows watch-list order, never repeats a
// country, and is empty when nothing matches.
func (m *Matcher) Match(mentions []string) []string {
	if len(mentions) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	for _, mention := range mentions {
		if canon, ok := m.aliasMap[normalize(mention)]; ok {
			seen[canon] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}

	matched := make([]string, 0, len(seen))
	for _, name := range m.canonical {
		if seen[name] {
			matched = append(matched, name)
		}
	}
	return matched
}

// normalize prepares a country mention for comparison
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Load reads a watch-list from a YAML file
func Load(path string) (*model.WatchlistConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var cfg model.WatchlistConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}
	if len(cfg.Countries) == 0 {
		return nil, fmt.Errorf("watchlist %s names no countries", path)
	}

	return &cfg, nil
}
