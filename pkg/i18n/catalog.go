// Package i18n renders the structured messages produced by answer checks in
// a caller's locale. Catalogs map message ids to pongo2 templates; the message
// values are exposed to the template as variables.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-pulpoforms/internal/values"
)

// ErrMissingTranslation is returned when no catalog entry matches a key.
var ErrMissingTranslation = errors.New("i18n: missing translation")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string) (string, error)
}

// Catalog is an in-memory Translator. Lookups fall back from a regional
// locale to its language ("es-MX" to "es") and then to the default locale.
type Catalog struct {
	mu       sync.RWMutex
	fallback string
	entries  map[string]map[string]string
}

// NewCatalog returns an empty catalog using fallback as the last resort
// locale.
func NewCatalog(fallback string) *Catalog {
	return &Catalog{
		fallback: normalizeLocale(fallback),
		entries:  make(map[string]map[string]string),
	}
}

// Add merges entries into locale.
func (c *Catalog) Add(locale string, entries map[string]string) {
	locale = normalizeLocale(locale)
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.entries[locale]
	if !ok {
		bucket = make(map[string]string, len(entries))
		c.entries[locale] = bucket
	}
	for key, value := range entries {
		bucket[key] = value
	}
}

// AddYAML merges a YAML document into locale. Nested mappings are flattened
// into dotted keys.
func (c *Catalog) AddYAML(locale string, data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: decode %s catalog: %w", locale, err)
	}
	entries := make(map[string]string)
	flatten("", doc, entries)
	c.Add(locale, entries)
	return nil
}

// LoadFS reads every <locale>.yaml or <locale>.yml file in dir.
func LoadFS(files fs.FS, dir, fallback string) (*Catalog, error) {
	if files == nil {
		return nil, errors.New("i18n: fs is nil")
	}
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read catalog dir: %w", err)
	}

	catalog := NewCatalog(fallback)
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(files, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", entry.Name(), err)
		}
		if err := catalog.AddYAML(strings.TrimSuffix(entry.Name(), ext), data); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// Translate implements Translator.
func (c *Catalog) Translate(locale, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range c.chain(locale) {
		if value, ok := c.entries[candidate][key]; ok {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %q (%s)", ErrMissingTranslation, key, locale)
}

// Locales lists the loaded locales.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.entries))
	for locale := range c.entries {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) chain(locale string) []string {
	locale = normalizeLocale(locale)
	var out []string
	if locale != "" {
		out = append(out, locale)
		if lang, _, ok := strings.Cut(locale, "-"); ok {
			out = append(out, lang)
		}
	}
	if c.fallback != "" {
		out = append(out, c.fallback)
	}
	return out
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := values.Map(value); ok {
			flatten(full, nested, out)
			continue
		}
		out[full] = values.String(value)
	}
}
