// i18nsync keeps JSON locale files in step with a source language using
// machine translation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/i18nsync/config"
	"github.com/minios-linux/i18nsync/diff"
	"github.com/minios-linux/i18nsync/i18n"
	"github.com/minios-linux/i18nsync/langmeta"
	"github.com/minios-linux/i18nsync/localestore"
	"github.com/minios-linux/i18nsync/lockfile"
	"github.com/minios-linux/i18nsync/settings"
	"github.com/minios-linux/i18nsync/syncer"
	"github.com/minios-linux/i18nsync/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	infoTag    = color.New(color.FgBlue).SprintFunc()
	successTag = color.New(color.FgGreen).SprintFunc()
	warnTag    = color.New(color.FgYellow, color.Bold).SprintFunc()
	errorTag   = color.New(color.FgRed).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", infoTag("[INFO]"), fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", successTag("[OK]"), fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warnTag("[WARN]"), fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorTag("[ERROR]"), fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir     string
	verbose     bool
	serviceFlag string
	apiKeyFlag  string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "i18nsync",
		Short: i18n.T("Keep JSON locale files in sync with a source language"),
		Long: i18n.T(`i18nsync keeps JSON locale files in sync with a source language.

Locale files live side by side in one directory (<localesPath>/<lang>.json).
A sync finds keys that are missing in a target language or that changed in
the source since the last sync, translates them and writes the targets.
The state of the last sync is kept in .i18n-sync-cache.json.

Commands:
  sync             Translate missing and changed keys into every language
  status           Show translation completeness per language
  add-key          Add a key to every language
  add-language     Create a new language from the source
  translate-batch  Translate a window of source keys into one language
  languages        List detected languages
  key-count        Count the keys of a language
  config           Print the effective configuration
  cache            Show or clear the sync cache
  auth             Manage API keys

Translation services:
  google-free    Public Google Translate endpoint (default, no key)
  openai         Any OpenAI-compatible chat-completions API`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))
	pf.BoolVarP(&verbose, "verbose", "v", false, i18n.T("Enable debug logging"))
	pf.StringVar(&serviceFlag, "service", "", i18n.T("Translation service (google-free, openai)"))
	pf.StringVar(&apiKeyFlag, "api-key", "", i18n.T("API key for the translation service"))

	root.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newAddKeyCmd(),
		newAddLanguageCmd(),
		newTranslateBatchCmd(),
		newLanguagesCmd(),
		newKeyCountCmd(),
		newConfigCmd(),
		newCacheCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logWarning("%s", i18n.T("Interrupted"))
		} else {
			logError("%v", err)
		}
		stop()
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Setup shared by the commands
// ---------------------------------------------------------------------------

// newTranslator builds the client for the configured service.
var newTranslator = translate.New

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *localestore.Store
}

// loadApp reads the configuration and installs the logger. It does not
// build a translator, so read-only commands work without credentials.
func loadApp() (*app, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	if serviceFlag != "" {
		cfg.TranslationService = serviceFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := newLogger(os.Stderr, cfg.LogLevel, verbose)
	slog.SetDefault(logger)
	if cfg.Source != "" {
		logger.Debug("config loaded", "path", cfg.Source)
	}

	store := localestore.New(cfg.LocalesDir(rootDir),
		localestore.WithLogger(logger),
		localestore.WithFilePattern(cfg.FilePattern),
		localestore.WithExclude(cfg.ExcludeFiles...),
	)
	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) provider() translate.Provider {
	return translate.Provider{
		ID:      a.cfg.TranslationService,
		BaseURL: settings.ResolveBaseURL(a.cfg.TranslationService, a.cfg.APIBaseURL),
		APIKey:  settings.ResolveAPIKey(a.cfg.TranslationService, apiKeyFlag, a.cfg.APIKey),
		Model:   a.cfg.Model,
		Proxy:   a.cfg.Proxy,
		Timeout: time.Duration(a.cfg.Timeout) * time.Second,
	}
}

// manager builds the sync manager with the configured translator.
func (a *app) manager(opts ...syncer.Option) (*syncer.Manager, error) {
	tr, err := newTranslator(a.provider(), a.logger)
	if err != nil {
		return nil, err
	}
	base := []syncer.Option{
		syncer.WithLogger(a.logger),
		syncer.WithSourceLang(a.cfg.DefaultSourceLang),
		syncer.WithBatching(a.cfg.RateLimiting.BatchSize,
			time.Duration(a.cfg.RateLimiting.DelayBetweenBatches)*time.Millisecond),
	}
	return syncer.New(a.store, tr, append(base, opts...)...), nil
}

// readOnlyManager serves commands that never translate.
func (a *app) readOnlyManager() *syncer.Manager {
	return syncer.New(a.store, translate.Identity,
		syncer.WithLogger(a.logger),
		syncer.WithSourceLang(a.cfg.DefaultSourceLang),
	)
}

func newLogger(w io.Writer, level string, debug bool) *slog.Logger {
	lvl := parseLevel(level)
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
		NoColor:    color.NoColor,
	}))
}

// parseLevel maps a level name to slog; unknown names mean info.
func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "i18nsync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync [source-lang]",
		Short: i18n.T("Translate missing and changed keys into every language"),
		Long: i18n.T(`Translate every key that is missing in a target language or that changed
in the source since the last sync. With --force every key is translated
again and existing translations are replaced.`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			bars := newBatchBars(os.Stderr)
			mgr, err := a.manager(syncer.WithSink(bars))
			if err != nil {
				return err
			}

			src := optionalArg(args, 0)
			if src == "" {
				src = mgr.SourceLang()
			}
			if force {
				logInfo(i18n.T("Force sync from %s: every key will be translated again"), src)
			} else {
				logInfo(i18n.T("Smart sync from %s"), src)
			}

			report, err := mgr.SyncTranslations(cmd.Context(), src, force)
			bars.finish()
			if report != nil {
				printSyncReport(report)
			}
			if err != nil {
				return err
			}
			if n := len(report.Failed()); n > 0 {
				return fmt.Errorf(i18n.N("%d language could not be saved", "%d languages could not be saved", n), n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, i18n.T("Translate every key, ignoring the sync cache"))
	return cmd
}

func printSyncReport(r *syncer.SyncReport) {
	for _, res := range r.Results {
		switch {
		case res.Err != nil:
			logError(i18n.T("%s: %v"), res.Language, res.Err)
		case res.Selected == 0:
			logSuccess(i18n.T("%s: up to date"), res.Language)
		default:
			logSuccess("%s: %s", res.Language, describeSelection(res, r.Force))
		}
	}
	if r.CacheUpdated {
		logInfo(i18n.T("Sync cache updated (%d keys)"), r.TotalKeys)
	}
}

func describeSelection(res syncer.LanguageResult, force bool) string {
	keys := fmt.Sprintf(i18n.N("%d key translated", "%d keys translated", res.Selected), res.Selected)
	if force {
		return keys
	}
	b := res.Breakdown
	return fmt.Sprintf(i18n.T("%s (%d modified, %d missing, %d both)"),
		keys, len(b.ModifiedOnly), len(b.MissingOnly), len(b.Both))
}

// batchBars renders one progress bar per target language.
type batchBars struct {
	w    io.Writer
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newBatchBars(w io.Writer) *batchBars {
	return &batchBars{w: w, bars: map[string]*progressbar.ProgressBar{}}
}

func (b *batchBars) OnProgress(e translate.Event) {
	if e.Total <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	bar, ok := b.bars[e.Language]
	if !ok {
		bar = progressbar.NewOptions(e.Total,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription(langLabel(e.Language)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetVisibility(!color.NoColor),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(b.w) }),
		)
		b.bars[e.Language] = bar
	}
	_ = bar.Set(e.Translated)
	if e.Stage == translate.StageTranslationComplete {
		_ = bar.Finish()
	}
}

func (b *batchBars) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bar := range b.bars {
		if !bar.IsFinished() {
			_ = bar.Finish()
		}
	}
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

type statusRow struct {
	diff.Status
	Name string `json:"name"`
	Flag string `json:"flag,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var (
		lang   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status [source-lang]",
		Short: i18n.T("Show translation completeness per language"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			mgr := a.readOnlyManager()

			stats, err := mgr.TranslationStatus(optionalArg(args, 0), lang)
			if err != nil {
				return err
			}
			rows := make([]statusRow, 0, len(stats))
			for _, s := range stats {
				meta := langmeta.Resolve(s.Language)
				rows = append(rows, statusRow{Status: s, Name: meta.Name, Flag: meta.Flag})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			printStatusTable(out, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", i18n.T("Only show this language"))
	cmd.Flags().BoolVar(&asJSON, "json", false, i18n.T("Print JSON instead of a table"))
	return cmd
}

func printStatusTable(w io.Writer, rows []statusRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, i18n.T("No languages found"))
		return
	}
	codes := make([]string, len(rows))
	for i, r := range rows {
		codes[i] = r.Language
	}
	width := langColumnWidth(codes)

	for _, r := range rows {
		fmt.Fprintf(w, "%s  %-20s %5d/%-5d %s  %s\n",
			langCell(r.Language, width),
			r.Name,
			r.Translated, r.Total,
			progressBar(r.Completeness, 20),
			missingLabel(r.Missing))
	}
}

func missingLabel(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(i18n.N("%d missing", "%d missing", n), n)
}

// progressBar renders a colored bar followed by the percentage.
func progressBar(percent float64, width int) string {
	percent = max(0, min(percent, 100))
	filled := int(percent / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	paint := color.New(color.FgRed).SprintFunc()
	switch {
	case percent >= 100:
		paint = color.New(color.FgGreen).SprintFunc()
	case percent >= 50:
		paint = color.New(color.FgYellow).SprintFunc()
	}
	return fmt.Sprintf("%s %5.1f%%", paint(bar), percent)
}

func langColumnWidth(langs []string) int {
	w := 0
	for _, l := range langs {
		w = max(w, len(l))
	}
	return w
}

// langCell is a flag followed by the padded code; unknown flags become
// two spaces so columns stay aligned.
func langCell(lang string, width int) string {
	flag := langmeta.Flag(lang)
	if flag == "" {
		flag = "  "
	}
	return fmt.Sprintf("%s %-*s", flag, width, lang)
}

func langLabel(lang string) string {
	if flag := langmeta.Flag(lang); flag != "" {
		return flag + " " + lang
	}
	return lang
}

// ---------------------------------------------------------------------------
// add-key
// ---------------------------------------------------------------------------

func newAddKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-key <path> <value> [source-lang]",
		Short: i18n.T("Add a key to every language"),
		Long: i18n.T(`Add a key (dot path, e.g. "menu.file.open") with its source text. The
source language gets the text as is; every other language gets a
translation.`),
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			if err := mgr.AddKey(cmd.Context(), args[0], args[1], optionalArg(args, 2)); err != nil {
				return err
			}
			n := len(mgr.SupportedLanguages())
			logSuccess(i18n.N("Added %s to %d language", "Added %s to %d languages", n), args[0], n)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// add-language
// ---------------------------------------------------------------------------

func newAddLanguageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-language <source-lang> <new-lang>",
		Short: i18n.T("Create a new language from the source"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription(langLabel(args[1])),
				progressbar.OptionSetWidth(30),
				progressbar.OptionSetVisibility(!color.NoColor),
				progressbar.OptionClearOnFinish(),
			)
			sink := translate.SinkFunc(func(e translate.Event) {
				if e.Type == translate.EventError {
					return
				}
				bar.Describe(fmt.Sprintf("%s %s", langLabel(args[1]), e.Stage))
				_ = bar.Set(e.Progress)
			})

			res, err := mgr.AddNewLanguage(cmd.Context(), args[0], args[1], sink)
			_ = bar.Finish()
			if err != nil {
				return err
			}
			logSuccess(i18n.T("Added %s (%s): %d of %d keys translated"),
				res.Language, langmeta.EnglishName(res.Language), res.KeysTranslated, res.TotalKeys)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// translate-batch
// ---------------------------------------------------------------------------

func newTranslateBatchCmd() *cobra.Command {
	var size, offset int

	cmd := &cobra.Command{
		Use:   "translate-batch <source-lang> <target-lang>",
		Short: i18n.T("Translate a window of source keys into one language"),
		Long: i18n.T(`Translate the source keys [offset, offset+size) into the target language.
Keys that already hold a translation are skipped. Run repeatedly with a
growing offset to translate a large file in small steps.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			mgr, err := a.manager()
			if err != nil {
				return err
			}
			n, err := mgr.TranslateBatch(cmd.Context(), args[0], args[1], size, offset)
			if err != nil {
				return err
			}
			logSuccess(i18n.N("%s: %d key translated", "%s: %d keys translated", n), args[1], n)
			if next := offset + size; next < mgr.KeyCount(args[0]) {
				logInfo(i18n.T("Next batch: --offset %d"), next)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", syncer.DefaultBatchSize, i18n.T("Number of keys in the window"))
	cmd.Flags().IntVar(&offset, "offset", 0, i18n.T("Index of the first key"))
	return cmd
}

// ---------------------------------------------------------------------------
// languages / key-count
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: i18n.T("List detected languages"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			langs := a.readOnlyManager().SupportedLanguages()
			out := cmd.OutOrStdout()
			if len(langs) == 0 {
				fmt.Fprintln(out, i18n.T("No languages found"))
				return nil
			}
			width := langColumnWidth(langs)
			for _, l := range langs {
				meta := langmeta.Resolve(l)
				fmt.Fprintf(out, "%s  %s (%s)\n", langCell(l, width), meta.Name, meta.EnglishName)
			}
			return nil
		},
	}
}

func newKeyCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key-count [source-lang]",
		Short: i18n.T("Count the keys of a language"),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.readOnlyManager().KeyCount(optionalArg(args, 0)))
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// config / cache
// ---------------------------------------------------------------------------

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: i18n.T("Print the effective configuration"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			cfg := *a.cfg
			if cfg.APIKey != "" {
				cfg.APIKey = settings.MaskKey(cfg.APIKey)
			}
			if cfg.Source != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.Source)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}

func newCacheCmd() *cobra.Command {
	var clearCache bool

	cmd := &cobra.Command{
		Use:   "cache",
		Short: i18n.T("Show or clear the sync cache"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			dir := a.store.Dir()
			if clearCache {
				if err := lockfile.Remove(dir); err != nil {
					return err
				}
				logSuccess(i18n.T("Sync cache removed; the next sync translates every key"))
				return nil
			}

			c := lockfile.Load(dir, a.logger)
			if c == nil {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("No sync cache"))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", lockfile.Path(dir), c.Summary())
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearCache, "clear", false, i18n.T("Remove the sync cache"))
	return cmd
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage API keys"),
		Long: i18n.T(`Manage API keys of translation services.

Keys are stored in the user data directory with 0600 permissions and used
when neither --api-key, I18N_API_KEY nor apiKey in the config file is set.

Examples:
  i18nsync auth set openai sk-...     Store a key
  i18nsync auth remove openai         Remove a key
  i18nsync auth list                  Show stored keys`),
	}

	cmd.AddCommand(newAuthSetCmd(), newAuthRemoveCmd(), newAuthListCmd())
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "set <service> <key>",
		Short: i18n.T("Store an API key"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.SetAPIKey(args[0], args[1], baseURL); err != nil {
				return err
			}
			logSuccess(i18n.T("Key for %s saved to %s"), args[0], settings.FilePath())
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", i18n.T("API endpoint the key belongs to"))
	return cmd
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [service]",
		Aliases: []string{"rm"},
		Short:   i18n.T("Remove a stored key, or all keys without an argument"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess(i18n.T("All stored keys removed"))
				return nil
			}
			if err := settings.Remove(args[0]); err != nil {
				return err
			}
			logSuccess(i18n.T("Key for %s removed"), args[0])
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("Show stored keys"),
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			store := settings.Load()
			if len(store) == 0 {
				fmt.Fprintln(out, i18n.T("No stored keys"))
			}
			for _, id := range store.Services() {
				info := store[id]
				line := fmt.Sprintf("  %-14s %s", id, settings.MaskKey(info.Key))
				if info.BaseURL != "" {
					line += "  " + info.BaseURL
				}
				fmt.Fprintln(out, line)
			}
			if env := os.Getenv(config.EnvPrefix + "API_KEY"); env != "" {
				fmt.Fprintf(out, i18n.T("  %sAPI_KEY is set (%s) and overrides stored keys\n"), config.EnvPrefix, settings.MaskKey(env))
			}
		},
	}
}
