// Package names holds the localized strings the document model shows to
// users: the root folder name, default names for new nodes and the names
// of undo steps.
package names

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// DefaultLocale is used when nothing better matches.
const DefaultLocale = "en"

// Catalog holds every embedded locale.
type Catalog struct {
	mu      sync.RWMutex
	locales []*Strings
	matcher language.Matcher
}

// NewCatalog loads the embedded locale files.
func NewCatalog() (*Catalog, error) {
	entries, err := fs.ReadDir(localeFiles, "locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	c := &Catalog{}
	for _, e := range entries {
		if err := c.loadLocaleFile(path.Join("locales", e.Name())); err != nil {
			return nil, err
		}
	}

	// The first tag is the matcher's fallback.
	slices.SortStableFunc(c.locales, func(a, b *Strings) int {
		switch {
		case a.Tag == DefaultLocale:
			return -1
		case b.Tag == DefaultLocale:
			return 1
		}
		return 0
	})
	if len(c.locales) == 0 || c.locales[0].Tag != DefaultLocale {
		return nil, fmt.Errorf("default locale %q is missing", DefaultLocale)
	}

	tags := make([]language.Tag, len(c.locales))
	for i, s := range c.locales {
		tags[i] = language.MustParse(s.Tag)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

func (c *Catalog) loadLocaleFile(filename string) error {
	data, err := localeFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var s Strings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid locale %s: %w", filename, err)
	}
	if _, err := language.Parse(s.Tag); err != nil {
		return fmt.Errorf("invalid locale tag in %s: %w", filename, err)
	}

	c.mu.Lock()
	c.locales = append(c.locales, &s)
	c.mu.Unlock()
	return nil
}

// Namer returns the names for the locale that best matches the given
// preferences, which may be tags or Accept-Language values.
func (c *Catalog) Namer(preferred ...string) Namer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, index := language.MatchStrings(c.matcher, preferred...)
	return Namer{s: c.locales[index]}
}

// Locales returns the tags of every loaded locale, default first.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tags := make([]string, len(c.locales))
	for i, s := range c.locales {
		tags[i] = s.Tag
	}
	return tags
}
