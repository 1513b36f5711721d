// Package syncer keeps the locale files of a directory in step with a
// source language. Manager is the entry point used by the CLI.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/minios-linux/i18nsync/diff"
	"github.com/minios-linux/i18nsync/jsontree"
	"github.com/minios-linux/i18nsync/langmeta"
	"github.com/minios-linux/i18nsync/localestore"
	"github.com/minios-linux/i18nsync/lockfile"
	"github.com/minios-linux/i18nsync/translate"
)

var (
	// ErrEmptySource aborts a sync whose source document has no keys.
	ErrEmptySource = errors.New("source locale is empty")
	// ErrSourceMissing means the source locale file does not exist.
	ErrSourceMissing = errors.New("source locale file not found")
	// ErrLanguageExists means a locale file for the new language exists.
	ErrLanguageExists = errors.New("language already exists")
	// ErrInvalidLanguage is returned for malformed language codes.
	ErrInvalidLanguage = errors.New("invalid language code")
)

// Defaults used when options leave values unset.
const (
	DefaultSourceLang   = "en"
	DefaultBatchSize    = translate.DefaultBatchSize
	DefaultDelay        = time.Second
	DefaultCallInterval = 100 * time.Millisecond
)

// Manager runs sync operations against one Store. Operations that write
// files are serialized; read-only ones may run concurrently with them.
type Manager struct {
	store      *localestore.Store
	translator translate.Translator
	logger     *slog.Logger
	sink       translate.Sink
	now        func() time.Time

	sourceLang   string
	batchSize    int
	delay        time.Duration
	callInterval time.Duration

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSourceLang sets the source language used when a call passes "".
func WithSourceLang(lang string) Option {
	return func(m *Manager) {
		if lang != "" {
			m.sourceLang = lang
		}
	}
}

// WithBatching sets the batch size and the pause between batches.
func WithBatching(size int, delay time.Duration) Option {
	return func(m *Manager) {
		if size > 0 {
			m.batchSize = size
		}
		if delay >= 0 {
			m.delay = delay
		}
	}
}

// WithCallInterval sets the minimum spacing of translate calls made by
// TranslateBatch. Zero disables pacing.
func WithCallInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.callInterval = d
		}
	}
}

// WithSink sets the progress sink used by SyncTranslations.
func WithSink(s translate.Sink) Option {
	return func(m *Manager) { m.sink = s }
}

// WithClock overrides the time source used for the sync cache timestamp.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New returns a Manager translating with tr. tr is wrapped in
// translate.FailSoft, so backend failures never surface as errors.
func New(store *localestore.Store, tr translate.Translator, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		logger:       slog.Default(),
		sink:         translate.NopSink,
		now:          time.Now,
		sourceLang:   DefaultSourceLang,
		batchSize:    DefaultBatchSize,
		delay:        DefaultDelay,
		callInterval: DefaultCallInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.translator = translate.FailSoft(tr, m.logger)
	return m
}

// Store returns the locale store.
func (m *Manager) Store() *localestore.Store { return m.store }

// SourceLang returns the default source language.
func (m *Manager) SourceLang() string { return m.sourceLang }

func (m *Manager) source(lang string) string {
	if lang == "" {
		return m.sourceLang
	}
	return lang
}

func (m *Manager) batcher(sink translate.Sink) *translate.Batcher {
	return &translate.Batcher{
		Translator: m.translator,
		BatchSize:  m.batchSize,
		Delay:      m.delay,
		Sink:       sink,
		Logger:     m.logger,
	}
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

// LanguageResult is the outcome of syncing one target language.
type LanguageResult struct {
	Language  string
	Selected  int
	Breakdown diff.Breakdown
	Saved     bool
	Err       error
}

// SyncReport summarizes a SyncTranslations run.
type SyncReport struct {
	SourceLang   string
	Force        bool
	TotalKeys    int
	Results      []LanguageResult
	CacheUpdated bool
}

// Failed returns the results whose save failed.
func (r *SyncReport) Failed() []LanguageResult {
	var out []LanguageResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// SyncTranslations brings every registered language in line with
// sourceLang ("" for the default source).
//
// In smart mode a key is translated when the target lacks it or the source
// value changed since the last smart sync; afterwards the sync cache is
// rewritten from the current source. In force mode every key is translated
// again into a fresh document and the cache is left alone.
//
// A target whose file cannot be written is recorded in the report and the
// remaining targets are still processed. Only an empty source or a
// cancelled context end the run with an error.
func (m *Manager) SyncTranslations(ctx context.Context, sourceLang string, force bool) (*SyncReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.source(sourceLang)
	source := m.store.Load(src)
	total := jsontree.CountKeys(source)
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, m.store.Path(src))
	}

	var cache *lockfile.Cache
	if !force {
		cache = lockfile.Load(m.store.Dir(), m.logger)
	}

	report := &SyncReport{SourceLang: src, Force: force, TotalKeys: total}
	m.logger.Info("sync started", "source", src, "keys", total, "force", force, "cache", cache.Usable(src))

	for _, lang := range m.store.Languages() {
		if lang == src {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := LanguageResult{Language: lang}
		target := m.store.Load(lang)
		keys := diff.KeysNeedingTranslation(source, target, src, lang, cache, force)
		res.Selected = len(keys)
		if !force {
			res.Breakdown = diff.Classify(source, target, src, lang, cache)
		}
		if len(keys) == 0 {
			m.logger.Info("language up to date", "language", lang)
			report.Results = append(report.Results, res)
			continue
		}

		base := target
		if force {
			base = jsontree.NewObject()
		}
		m.logger.Info("translating", "language", lang, "keys", len(keys))
		updated, err := m.batcher(m.sink).TranslateKeys(ctx, keys, source, base, src, lang)
		if err != nil {
			return report, err
		}

		if err := m.store.Save(lang, updated); err != nil {
			res.Err = err
		} else {
			res.Saved = true
		}
		report.Results = append(report.Results, res)
	}

	if !force {
		if err := lockfile.New(src, source, m.now()).Save(m.store.Dir()); err != nil {
			m.logger.Error("cannot update sync cache", "error", err)
		} else {
			report.CacheUpdated = true
		}
	}

	m.logger.Info("sync finished", "source", src, "languages", len(report.Results), "failed", len(report.Failed()))
	return report, nil
}

// ---------------------------------------------------------------------------
// Keys and languages
// ---------------------------------------------------------------------------

// AddKey sets path to value in the source language and to a translation of
// value in every other registered language, saving each file. Save errors
// do not stop the loop; they are returned joined.
func (m *Manager) AddKey(ctx context.Context, path, value, sourceLang string) error {
	if path == "" {
		return errors.New("key path must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.source(sourceLang)
	langs := m.store.Languages()
	if !m.store.HasLanguage(src) {
		langs = append([]string{src}, langs...)
	}

	var errs []error
	for _, lang := range langs {
		doc := m.store.Load(lang)
		text := value
		if lang != src && strings.TrimSpace(value) != "" {
			text, _ = m.translator.Translate(ctx, value, lang, src)
		}
		jsontree.Set(doc, path, jsontree.String(text))
		if err := m.store.Save(lang, doc); err != nil {
			errs = append(errs, err)
			continue
		}
		m.logger.Debug("key added", "language", lang, "key", path)
	}
	return errors.Join(errs...)
}

// AddLanguageResult is the outcome of AddNewLanguage.
type AddLanguageResult struct {
	Language       string
	KeysTranslated int
	TotalKeys      int
}

// AddNewLanguage creates the locale file of newLang with every key of
// sourceLang translated, then registers the language. It fails before
// touching any file when newLang is malformed, the source file is absent or
// the new file already exists. sink may be nil.
func (m *Manager) AddNewLanguage(ctx context.Context, sourceLang, newLang string, sink translate.Sink) (*AddLanguageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.source(sourceLang)
	emit := func(stage, msg string, progress int) {
		typ := translate.EventProgress
		if stage == translate.StageComplete {
			typ = translate.EventComplete
		}
		translate.Emit(sink, translate.Event{Type: typ, Stage: stage, Language: newLang, Message: msg, Progress: progress})
	}
	fail := func(err error) (*AddLanguageResult, error) {
		translate.Emit(sink, translate.Event{Type: translate.EventError, Language: newLang, Message: err.Error()})
		return nil, fmt.Errorf("adding language %s: %w", newLang, err)
	}

	if err := langmeta.Validate(newLang); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrInvalidLanguage, err))
	}
	if !m.store.Exists(src) {
		return fail(fmt.Errorf("%w: %s", ErrSourceMissing, m.store.Path(src)))
	}
	// "pt_br" is stored as "pt-BR"
	canonical := langmeta.Canonical(newLang)
	if m.store.Exists(newLang) || m.store.Exists(canonical) || m.store.HasLanguage(canonical) {
		return fail(fmt.Errorf("%w: %s", ErrLanguageExists, m.store.Path(canonical)))
	}
	newLang = canonical

	emit(translate.StageCreatingFile, "Creating language file", 10)
	source := m.store.Load(src)

	keys := jsontree.AllKeys(source)
	emit(translate.StageAnalyzingKeys, fmt.Sprintf("Found %d keys", len(keys)), 20)

	emit(translate.StageTranslating, "Translating", 30)
	updated, err := m.batcher(sink).TranslateKeys(ctx, keys, source, jsontree.NewObject(), src, newLang)
	if err != nil {
		return fail(err)
	}

	emit(translate.StageSaving, "Saving", 95)
	if err := m.store.Save(newLang, updated); err != nil {
		return fail(err)
	}
	m.store.RegisterLanguage(newLang)

	res := &AddLanguageResult{Language: newLang, KeysTranslated: countStrings(source, keys), TotalKeys: len(keys)}
	emit(translate.StageComplete, fmt.Sprintf("Added %s", newLang), 100)
	m.logger.Info("language added", "language", newLang, "keys", res.TotalKeys)
	return res, nil
}

// countStrings counts the keys whose source value is sent to the
// translator.
func countStrings(source *jsontree.Node, keys []string) int {
	n := 0
	for _, k := range keys {
		v, _ := jsontree.Get(source, k)
		if s, ok := v.StringValue(); ok && strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// TranslateBatch translates the window [offset, offset+batchSize) of the
// source keys into targetLang, one call at a time. Keys whose target value
// is non-empty and differs from the source are skipped. It returns the
// number of keys written; the target file is saved when that is non-zero.
func (m *Manager) TranslateBatch(ctx context.Context, sourceLang, targetLang string, batchSize, offset int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if offset < 0 {
		offset = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.source(sourceLang)
	if targetLang == "" || targetLang == src {
		return 0, nil
	}
	source := m.store.Load(src)
	keys := jsontree.AllKeys(source)
	if len(keys) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptySource, m.store.Path(src))
	}
	if offset >= len(keys) {
		return 0, nil
	}
	window := keys[offset:min(offset+batchSize, len(keys))]

	limit := rate.Inf
	if m.callInterval > 0 {
		limit = rate.Every(m.callInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	target := m.store.Load(targetLang)
	written := 0
	var runErr error
	for _, key := range window {
		sv, _ := jsontree.Get(source, key)
		if tv, ok := jsontree.Get(target, key); ok && !tv.IsEmpty() && tv.Text() != sv.Text() {
			continue
		}

		text, isString := sv.StringValue()
		if !isString || strings.TrimSpace(text) == "" {
			if tv, ok := jsontree.Get(target, key); ok && jsontree.Equal(tv, sv) {
				continue
			}
			jsontree.Set(target, key, sv.Clone())
			written++
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			runErr = err
			break
		}
		out, _ := m.translator.Translate(ctx, text, targetLang, src)
		jsontree.Set(target, key, jsontree.String(out))
		written++
	}

	if written > 0 {
		if err := m.store.Save(targetLang, target); err != nil {
			return written, errors.Join(runErr, err)
		}
	}
	return written, runErr
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// LanguageStatus is the completeness of one language.
type LanguageStatus = diff.Status

// TranslationStatus reports completeness against sourceLang for targetLang,
// or for every registered language when targetLang is "".
func (m *Manager) TranslationStatus(sourceLang, targetLang string) ([]LanguageStatus, error) {
	src := m.source(sourceLang)
	if !m.store.Exists(src) {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, m.store.Path(src))
	}
	source := m.store.Load(src)

	langs := m.store.Languages()
	if targetLang != "" {
		langs = []string{targetLang}
	}

	out := make([]LanguageStatus, 0, len(langs))
	for _, lang := range langs {
		var target *jsontree.Node
		if lang != src {
			target = m.store.Load(lang)
		}
		out = append(out, diff.Compute(source, target, src, lang))
	}
	return out, nil
}

// SupportedLanguages returns the registered languages, sorted.
func (m *Manager) SupportedLanguages() []string {
	return m.store.Languages()
}

// KeyCount returns the number of leaf keys of sourceLang.
func (m *Manager) KeyCount(sourceLang string) int {
	return jsontree.CountKeys(m.store.Load(m.source(sourceLang)))
}

// RegisterLanguage adds lang to the in-memory registry.
func (m *Manager) RegisterLanguage(lang string) {
	m.store.RegisterLanguage(lang)
}
