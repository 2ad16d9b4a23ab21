// Package knowledge loads the organization-specific reference texts that
// get injected into prompt templates. Documents are plain markdown files
// with an optional YAML front matter block carrying metadata.
package knowledge

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one knowledge context selectable by callers.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	Content     string `json:"-" yaml:"-"`
}

// Base holds the loaded knowledge entries, keyed by context identifier.
type Base struct {
	entries map[string]Entry
}

// NewBase returns a Base over the supplied entries. Entries without a key
// are skipped.
func NewBase(entries []Entry) *Base {
	base := &Base{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		if entry.Key == "" {
			continue
		}
		base.entries[entry.Key] = entry
	}
	return base
}

// LoadDir reads every *.md file under dir into a Base. A missing or empty
// directory yields an empty base rather than an error; chat turns then
// degrade to running without knowledge context.
func LoadDir(dir string) (*Base, error) {
	if dir == "" {
		return NewBase(nil), nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan knowledge dir: %w", err)
	}

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[knowledge] skipping %s: %v", path, err)
			continue
		}
		entries = append(entries, parseDocument(path, string(raw)))
	}

	return NewBase(entries), nil
}

// Content returns the knowledge text for a context key.
func (b *Base) Content(key string) (string, bool) {
	entry, ok := b.entries[key]
	return entry.Content, ok
}

// List returns entry metadata sorted by key, without the content bodies.
func (b *Base) List() []Entry {
	entries := make([]Entry, 0, len(b.entries))
	for _, entry := range b.entries {
		entry.Content = ""
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Len reports how many contexts are loaded.
func (b *Base) Len() int {
	return len(b.entries)
}

// parseDocument splits an optional "---" delimited YAML front matter block
// from the markdown body. Documents without front matter use the file name
// as their key.
func parseDocument(path, raw string) Entry {
	entry := Entry{Key: strings.TrimSuffix(filepath.Base(path), ".md")}

	body := raw
	if strings.HasPrefix(raw, "---\n") {
		if idx := strings.Index(raw[4:], "\n---"); idx >= 0 {
			header := raw[4 : 4+idx]
			body = strings.TrimPrefix(raw[4+idx+4:], "\n")
			if err := yaml.Unmarshal([]byte(header), &entry); err != nil {
				log.Printf("[knowledge] invalid front matter in %s: %v", path, err)
			}
			if entry.Key == "" {
				entry.Key = strings.TrimSuffix(filepath.Base(path), ".md")
			}
		}
	}

	if entry.Title == "" {
		entry.Title = entry.Key
	}
	entry.Content = strings.TrimSpace(body)
	return entry
}
