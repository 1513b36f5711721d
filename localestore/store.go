// Package localestore reads and writes per-language JSON locale files kept
// side by side in one directory (<dir>/<lang>.json).
//
// Loading never fails: a missing file is an empty document and an unparsable
// one is logged and treated as empty, so one broken language does not stop
// work on the others.
package localestore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/lo"

	"github.com/minios-linux/i18nsync/jsontree"
	"github.com/minios-linux/i18nsync/lockfile"
)

// DefaultFilePattern names a locale file after its language code.
const DefaultFilePattern = "{lang}.json"

// Store is a locale directory plus the registry of languages known in it.
type Store struct {
	dir     string
	pattern string
	exclude []glob.Glob
	logger  *slog.Logger

	mu    sync.Mutex
	langs []string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for non-fatal load and save problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFilePattern sets the file name pattern; "{lang}" is replaced by the
// language code. The pattern must end in ".json".
func WithFilePattern(pattern string) Option {
	return func(s *Store) {
		if pattern != "" {
			s.pattern = pattern
		}
	}
}

// WithExclude skips matching file names during detection. Entries are
// exact names or glob patterns ("*.backup.json").
func WithExclude(patterns ...string) Option {
	return func(s *Store) {
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				s.logger.Warn("ignoring invalid exclude pattern", "pattern", p, "error", err)
				continue
			}
			s.exclude = append(s.exclude, g)
		}
	}
}

// New opens the locale directory and detects its languages once.
// A missing directory yields an empty registry, not an error.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:     dir,
		pattern: DefaultFilePattern,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	langs, err := s.DetectLanguages()
	if err != nil {
		s.logger.Warn("cannot detect languages", "dir", dir, "error", err)
	} else if len(langs) == 0 {
		s.logger.Warn("no locale files found", "dir", dir)
	} else {
		s.logger.Debug("detected languages", "count", len(langs), "languages", strings.Join(langs, ", "))
	}
	s.langs = langs
	return s
}

// Dir returns the locale directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for a language.
func (s *Store) Path(lang string) string {
	return filepath.Join(s.dir, strings.ReplaceAll(s.pattern, "{lang}", lang))
}

// Exists reports whether the language file is present on disk.
func (s *Store) Exists(lang string) bool {
	_, err := os.Stat(s.Path(lang))
	return err == nil
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// Load returns the document for lang. It returns an empty document when the
// file is absent or malformed; the latter is logged as an error.
func (s *Store) Load(lang string) *jsontree.Node {
	path := s.Path(lang)
	doc, err := jsontree.ParseFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error("cannot load locale file", "lang", lang, "path", path, "error", err)
		}
		return jsontree.NewObject()
	}
	return doc
}

// Save rewrites the whole file for lang, creating the directory if needed.
func (s *Store) Save(lang string, doc *jsontree.Node) error {
	path := s.Path(lang)
	if err := jsontree.WriteFile(path, doc); err != nil {
		s.logger.Error("cannot save locale file", "lang", lang, "path", path, "error", err)
		return fmt.Errorf("saving %s: %w", lang, err)
	}
	s.logger.Debug("saved locale file", "lang", lang, "path", path)
	return nil
}

// ---------------------------------------------------------------------------
// Language registry
// ---------------------------------------------------------------------------

// DetectLanguages lists the languages with a locale file in the directory,
// sorted. Hidden files, excluded names and the sync cache are skipped.
func (s *Store) DetectLanguages() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.dir, err)
	}

	var langs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lang, ok := s.languageOf(e.Name())
		if ok {
			langs = append(langs, lang)
		}
	}
	slices.Sort(langs)
	return langs, nil
}

func (s *Store) languageOf(name string) (string, bool) {
	if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
		return "", false
	}
	if name == lockfile.FileName {
		return "", false
	}
	for _, g := range s.exclude {
		if g.Match(name) {
			return "", false
		}
	}

	prefix, suffix, _ := strings.Cut(s.pattern, "{lang}")
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) || len(name) <= len(prefix)+len(suffix) {
		return "", false
	}
	return name[len(prefix) : len(name)-len(suffix)], true
}

// Languages returns the registered languages, sorted.
func (s *Store) Languages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.langs)
}

// HasLanguage reports whether lang is registered.
func (s *Store) HasLanguage(lang string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.langs, lang)
}

// RegisterLanguage adds lang to the in-memory registry. The directory is
// not re-scanned.
func (s *Store) RegisterLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.langs = lo.Uniq(append(s.langs, lang))
	slices.Sort(s.langs)
}
