package i18n

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeCatalog(t *testing.T, dir, locale, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, locale+".json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "az", `{"greeting": "Salam", "only_az": "yalnız"}`)
	writeCatalog(t, dir, "ru", `{"greeting": "Привет"}`)

	c, err := Load(dir, "az")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.Text("ru", "greeting"); got != "Привет" {
		t.Errorf("ru greeting = %q", got)
	}
	if got := c.Text("az", "greeting"); got != "Salam" {
		t.Errorf("az greeting = %q", got)
	}
}

func TestUnknownLocaleFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "az", `{"greeting": "Salam"}`)

	c, err := Load(dir, "az")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Text("fr", "greeting"); got != "Salam" {
		t.Errorf("fallback = %q, want default catalog hit", got)
	}
}

func TestMissingKeyFallsBackToKey(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "az", `{"greeting": "Salam"}`)
	writeCatalog(t, dir, "ru", `{"greeting": "Привет"}`)

	c, err := Load(dir, "az")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Text("ru", "nonexistent_key"); got != "nonexistent_key" {
		t.Errorf("missing key = %q, want the key itself", got)
	}
}

func TestKeyMissingInLocaleFallsThroughDefault(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "az", `{"greeting": "Salam", "bye": "Sağ ol"}`)
	writeCatalog(t, dir, "ru", `{"greeting": "Привет"}`)

	c, err := Load(dir, "az")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Text("ru", "bye"); got != "Sağ ol" {
		t.Errorf("gap fill = %q, want default catalog entry", got)
	}
}

func TestLoadRejectsEmptyDir(t *testing.T) {
	if _, err := Load(t.TempDir(), "az"); err == nil {
		t.Fatal("Load succeeded with no catalogs")
	}
}

func TestLoadRejectsMissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope"), "az"); err == nil {
		t.Fatal("Load succeeded with a missing directory")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "az", `{broken`)
	if _, err := Load(dir, "az"); err == nil {
		t.Fatal("Load accepted malformed JSON")
	}
}

func TestLocalesSortedAndHas(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "ua", `{}`)
	writeCatalog(t, dir, "az", `{}`)
	writeCatalog(t, dir, "ru", `{}`)

	c, err := Load(dir, "az")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Locales(); !reflect.DeepEqual(got, []string{"az", "ru", "ua"}) {
		t.Errorf("Locales = %v", got)
	}
	if !c.Has("ru") || c.Has("fr") {
		t.Errorf("Has: ru=%v fr=%v", c.Has("ru"), c.Has("fr"))
	}
}

// TestShippedCatalogsCoverSameKeys loads the real catalogs shipped with the
// bot and checks they declare identical key sets, so no locale silently
// falls back for a key another locale has.
func TestShippedCatalogsCoverSameKeys(t *testing.T) {
	c, err := Load("../../translations", "az")
	if err != nil {
		t.Skipf("shipped catalogs unavailable: %v", err)
	}
	locales := c.Locales()
	if len(locales) < 2 {
		t.Skip("need at least two catalogs")
	}

	keys := func(locale string) map[string]bool {
		out := make(map[string]bool)
		c.mu.RLock()
		defer c.mu.RUnlock()
		for k := range c.locales[locale] {
			out[k] = true
		}
		return out
	}
	base := keys(locales[0])
	for _, locale := range locales[1:] {
		got := keys(locale)
		for k := range base {
			if !got[k] {
				t.Errorf("locale %s missing key %q", locale, k)
			}
		}
		for k := range got {
			if !base[k] {
				t.Errorf("locale %s has extra key %q", locale, k)
			}
		}
	}
}
