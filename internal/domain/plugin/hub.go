package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/xptrack/internal/domain/format"
)

// ErrInvalidManifest reports a manifest entry that cannot be displayed.
var ErrInvalidManifest = errors.New("invalid plugin manifest")

// manifestKey is the top-level list in the manifest document.
const manifestKey = "plugins"

// Hub is an immutable, ordered plugin catalog.
type Hub struct {
	plugins []Plugin
	fmt     *format.Formatter
}

// NewHub builds a hub over plugins, keeping their order.
func NewHub(f *format.Formatter, plugins []Plugin) (*Hub, error) {
	if f == nil {
		f = format.Default()
	}
	seen := make(map[string]struct{}, len(plugins))
	for i, p := range plugins {
		if p.InternalName == "" {
			return nil, fmt.Errorf("%w: entry %d has no internal_name", ErrInvalidManifest, i)
		}
		if _, dup := seen[p.InternalName]; dup {
			return nil, fmt.Errorf("%w: duplicate internal_name %q", ErrInvalidManifest, p.InternalName)
		}
		seen[p.InternalName] = struct{}{}
	}
	cp := make([]Plugin, len(plugins))
	copy(cp, plugins)
	return &Hub{plugins: cp, fmt: f}, nil
}

// LoadFile reads a YAML manifest with a top-level "plugins" list.
func LoadFile(f *format.Formatter, path string) (*Hub, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load plugin manifest %s: %w", path, err)
	}
	return fromKoanf(f, k)
}

func fromKoanf(f *format.Formatter, k *koanf.Koanf) (*Hub, error) {
	var plugins []Plugin
	if err := k.UnmarshalWithConf(manifestKey, &plugins, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return NewHub(f, plugins)
}

// Len reports the number of plugins.
func (h *Hub) Len() int { return len(h.plugins) }

// Cards lists cards in manifest order. A non-empty author keeps only that
// author's plugins, compared case-insensitively. installed holds internal
// names.
func (h *Hub) Cards(author string, installed map[string]bool) []Card {
	out := make([]Card, 0, len(h.plugins))
	for _, p := range h.plugins {
		if author != "" && !strings.EqualFold(p.Author, author) {
			continue
		}
		out = append(out, NewCard(h.fmt, p, installed[p.InternalName]))
	}
	return out
}

// ParseInstalled splits a comma separated list of internal names.
func ParseInstalled(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = true
		}
	}
	return set
}
