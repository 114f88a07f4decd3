package i18n

import (
	"embed"
	"sync"
)

//go:embed locales/*.yaml
var builtin embed.FS

// DefaultLocale is the fallback locale of the built-in catalog.
const DefaultLocale = "en"

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the built-in catalog with English and Spanish texts for
// every message id the engine emits. The catalog is shared; use Merge on a
// fresh catalog to extend it.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = LoadFS(builtin, "locales", DefaultLocale)
	})
	return defaultCatalog, defaultErr
}

// Merge copies every entry of other into c. Entries already in c are
// replaced.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil || other == c {
		return
	}
	other.mu.RLock()
	snapshot := make(map[string]map[string]string, len(other.entries))
	for locale, entries := range other.entries {
		copied := make(map[string]string, len(entries))
		for key, value := range entries {
			copied[key] = value
		}
		snapshot[locale] = copied
	}
	other.mu.RUnlock()

	for locale, entries := range snapshot {
		c.Add(locale, entries)
	}
}
