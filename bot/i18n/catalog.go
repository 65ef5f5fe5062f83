// Package i18n loads per-locale JSON catalogs and resolves display strings.
// A missing key resolves to the key itself so translation gaps degrade
// gracefully instead of crashing a conversation turn.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vesilelab/vesilebot/core/logger"
	"log/slog"
)

// Catalog holds the loaded translations for every available locale.
type Catalog struct {
	mu            sync.RWMutex
	locales       map[string]map[string]string
	defaultLocale string
}

// Load reads every <locale>.json file from dir. The default locale is used
// when a session's locale has no catalog.
func Load(dir, defaultLocale string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	c := &Catalog{
		locales:       make(map[string]map[string]string),
		defaultLocale: defaultLocale,
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		locale := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", path, err)
		}
		table := make(map[string]string)
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", path, err)
		}
		c.locales[locale] = table
	}
	if len(c.locales) == 0 {
		return nil, fmt.Errorf("i18n: no catalogs found in %s", dir)
	}

	logger.Info(context.Background(), "i18n", "catalogs.loaded",
		slog.String("status", "ok"),
		slog.Int("count", len(c.locales)),
		slog.String("payload", strings.Join(c.Locales(), ", ")),
	)
	return c, nil
}

// Text returns the translation for key in the given locale. Unknown locales
// fall back to the default catalog; unknown keys fall back to the key.
func (c *Catalog) Text(locale, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if table, ok := c.locales[locale]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	if table, ok := c.locales[c.defaultLocale]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	return key
}

// Has reports whether the locale has its own catalog.
func (c *Catalog) Has(locale string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.locales[locale]
	return ok
}

// Locales lists the available locales, sorted.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.locales))
	for loc := range c.locales {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}
