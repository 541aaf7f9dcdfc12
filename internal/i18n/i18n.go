// Package i18n holds the localized user-facing messages. Catalogs are
// plain JSON maps under a strings directory, one file per locale
// (en-us.json by default).
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu            sync.RWMutex
	stringsDir    = "strings"
	defaultLocale = "en-us"
	cached        = map[string]string{}
)

// Load reads the catalog for a locale from dir and makes it current.
func Load(dir, locale string) error {
	data, err := os.ReadFile(filepath.Join(dir, locale+".json"))
	if err != nil {
		return fmt.Errorf("failed to load strings for locale %s: %w", locale, err)
	}

	catalog := map[string]string{}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("invalid strings file for locale %s: %w", locale, err)
	}

	mu.Lock()
	defer mu.Unlock()
	stringsDir = dir
	defaultLocale = locale
	cached = catalog
	return nil
}

// SetLocale reloads the catalog from the current directory for a new
// locale.
func SetLocale(locale string) error {
	mu.RLock()
	dir := stringsDir
	mu.RUnlock()
	return Load(dir, locale)
}

// Text returns the message for a key. Unknown keys come back verbatim, so
// a missing catalog degrades to key names instead of empty responses.
func Text(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if msg, ok := cached[key]; ok {
		return msg
	}
	return key
}

// Textf formats the message for a key with fmt verbs.
func Textf(key string, args ...interface{}) string {
	return fmt.Sprintf(Text(key), args...)
}
