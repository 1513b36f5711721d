// Package lockfile implements the sync cache: a snapshot of the flattened
// source-language document taken after each incremental sync. Comparing the
// current source against it tells which keys changed since the last run, so
// unchanged keys are not sent to the translation service again.
//
// The cache is stored in the locales directory as .i18n-sync-cache.json.
package lockfile

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/minios-linux/i18nsync/jsontree"
)

// FileName is the cache file name inside the locales directory.
const FileName = ".i18n-sync-cache.json"

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Cache is the on-disk sync cache. SourceData holds the flattened source
// document, every leaf coerced to its string form.
type Cache struct {
	LastSync   time.Time         `json:"lastSync"`
	SourceLang string            `json:"sourceLang"`
	SourceData map[string]string `json:"sourceData"`
}

// New snapshots a source document.
func New(sourceLang string, source *jsontree.Node, now time.Time) *Cache {
	return &Cache{
		LastSync:   now.UTC(),
		SourceLang: sourceLang,
		SourceData: jsontree.Flatten(source).Map(),
	}
}

// Path returns the cache path for a locales directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the cache from dir. Any read or parse failure yields nil: a
// broken cache behaves exactly like no cache. Failures other than a missing
// file are logged.
func Load(dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	path := Path(dir)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to load sync cache", "path", path, "error", err)
		}
		return nil
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		logger.Warn("failed to load sync cache", "path", path, "error", err)
		return nil
	}
	if c.SourceData == nil {
		c.SourceData = make(map[string]string)
	}
	return &c
}

// Save overwrites the cache file in dir.
func (c *Cache) Save(dir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling sync cache: %w", err)
	}

	path := Path(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Remove deletes the cache file in dir. A missing file is not an error.
func Remove(dir string) error {
	if err := os.Remove(Path(dir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", Path(dir), err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Change detection
// ---------------------------------------------------------------------------

// Usable reports whether the cache can be compared against a sync from
// sourceLang. A nil cache or one recorded for another source is not usable.
func (c *Cache) Usable(sourceLang string) bool {
	return c != nil && c.SourceLang == sourceLang
}

// ModifiedKeys returns the source paths that are new or whose value changed
// since the cache was written, in flatten order. When the cache is not
// usable for sourceLang every path is returned.
//
// Values are compared in their string form, so a number 1 and a string "1"
// are the same value.
func (c *Cache) ModifiedKeys(source *jsontree.Node, sourceLang string) []string {
	current := jsontree.Flatten(source)
	if !c.Usable(sourceLang) {
		return slices.Clone(current.Keys())
	}

	var modified []string
	for _, k := range current.Keys() {
		v, _ := current.Get(k)
		old, ok := c.SourceData[k]
		if !ok || old != v {
			modified = append(modified, k)
		}
	}
	return modified
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Fingerprint is a digest over the cached snapshot, stable across key order.
func (c *Cache) Fingerprint() string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(c.SourceData)) {
		b.WriteString(k)
		b.WriteByte(0)
		b.WriteString(c.SourceData[k])
		b.WriteByte(0)
	}
	return Hash(b.String())
}

// Summary returns a human-readable one-line description.
func (c *Cache) Summary() string {
	if c == nil {
		return "no sync cache"
	}
	return fmt.Sprintf("source %s, %d keys, last sync %s, fingerprint %s",
		c.SourceLang, len(c.SourceData), c.LastSync.Format(time.RFC3339), c.Fingerprint()[:12])
}
