package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want, cfg)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, filepath.Join(dir, "src", "i18n", "locales"), cfg.LocalesDir(dir))
}

func TestLoadFileFormats(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "i18n.config.yaml", "localesPath: locales\ndefaultSourceLang: de\nexcludeFiles: [\"*.bak.json\"]\nrateLimiting:\n  batchSize: 5\n"},
		{"json", "i18n.config.json", `{"localesPath":"locales","defaultSourceLang":"de","excludeFiles":["*.bak.json"],"rateLimiting":{"batchSize":5}}`},
		{"toml", "translation.config.toml", "localesPath = \"locales\"\ndefaultSourceLang = \"de\"\nexcludeFiles = [\"*.bak.json\"]\n\n[rateLimiting]\nbatchSize = 5\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tc.file, tc.content)

			cfg, err := Load(dir)
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(dir, tc.file), cfg.Source)
			assert.Equal(t, "locales", cfg.LocalesPath)
			assert.Equal(t, "de", cfg.DefaultSourceLang)
			assert.Equal(t, []string{"*.bak.json"}, cfg.ExcludeFiles)
			assert.Equal(t, 5, cfg.RateLimiting.BatchSize)
			// untouched fields keep defaults
			assert.Equal(t, 1000, cfg.RateLimiting.DelayBetweenBatches)
			assert.Equal(t, "google-free", cfg.TranslationService)
		})
	}
}

func TestFindOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "translation.config.yaml", "localesPath: b\n")
	writeFile(t, dir, "i18n.config.json", `{"localesPath":"a"}`)

	path, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "i18n.config.json"), path)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.LocalesPath)
}

func TestLoadEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "i18n.config.yaml", "localesPath: from-file\ndefaultSourceLang: fr\n")
	writeFile(t, dir, DotEnvFile, "I18N_LOCALES_PATH=from-dotenv\nI18N_RATE_LIMITING_BATCH_SIZE=3\nI18N_MODEL=dotenv-model\n")
	t.Setenv("I18N_MODEL", "env-model")
	t.Setenv("I18N_RATE_LIMITING_DELAY_BETWEEN_BATCHES", "0")
	t.Setenv("I18N_EXCLUDE_FILES", "a.json,b.json")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.LocalesPath)
	assert.Equal(t, "fr", cfg.DefaultSourceLang)
	assert.Equal(t, 3, cfg.RateLimiting.BatchSize)
	assert.Equal(t, 0, cfg.RateLimiting.DelayBetweenBatches)
	assert.Equal(t, "env-model", cfg.Model)
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.ExcludeFiles)
}

func TestLoadErrors(t *testing.T) {
	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "i18n.config.json", `{"localesPath":`)
		_, err := Load(dir)
		assert.ErrorContains(t, err, "parsing")
	})

	t.Run("invalid values", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "i18n.config.yaml", "rateLimiting:\n  batchSize: 0\n")
		_, err := Load(dir)
		assert.ErrorContains(t, err, "batchSize")
	})

	t.Run("bad env value", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("I18N_TIMEOUT", "soon")
		_, err := Load(dir)
		assert.ErrorContains(t, err, "environment")
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty locales path", func(c *Config) { c.LocalesPath = " " }, "localesPath"},
		{"empty source", func(c *Config) { c.DefaultSourceLang = "" }, "defaultSourceLang"},
		{"source with separator", func(c *Config) { c.DefaultSourceLang = "../en" }, "defaultSourceLang"},
		{"source named by file stem", func(c *Config) { c.DefaultSourceLang = "english" }, ""},
		{"unknown service", func(c *Config) { c.TranslationService = "deepl" }, "translationService"},
		{"pattern without lang", func(c *Config) { c.FilePattern = "messages.json" }, "filePattern"},
		{"negative delay", func(c *Config) { c.RateLimiting.DelayBetweenBatches = -1 }, "delayBetweenBatches"},
		{"openai without model", func(c *Config) { c.TranslationService = "openai" }, "model"},
		{"openai url left to the credential store", func(c *Config) { c.TranslationService = "openai"; c.Model = "m" }, ""},
		{"openai complete", func(c *Config) {
			c.TranslationService = "openai"
			c.Model = "m"
			c.APIBaseURL = "http://localhost:11434/v1"
		}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLocalesDirAbsolute(t *testing.T) {
	cfg := Default()
	cfg.LocalesPath = "/srv/app/locales/"
	assert.Equal(t, "/srv/app/locales", cfg.LocalesDir("/anything"))
}
