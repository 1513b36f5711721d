// Package translate talks to machine-translation services and drives them
// over batches of locale keys.
//
// Two services are built in: "google-free" (the public Google Translate web
// endpoint) and "openai" (any OpenAI-compatible chat-completions API, e.g.
// Groq, Ollama or a self-hosted gateway). Every backend is reached through
// FailSoft, so a failed call degrades to returning the source text.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Service IDs
// ---------------------------------------------------------------------------

const (
	ServiceGoogleFree = "google-free"
	ServiceOpenAI     = "openai"
)

// Services lists the supported service IDs.
func Services() []string {
	return []string{ServiceGoogleFree, ServiceOpenAI}
}

// ---------------------------------------------------------------------------
// Translator
// ---------------------------------------------------------------------------

// Translator translates one piece of text. Implementations may fail; callers
// in this module wrap them with FailSoft.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
}

// Func adapts a plain function to the Translator interface.
type Func func(ctx context.Context, text, targetLang, sourceLang string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	return f(ctx, text, targetLang, sourceLang)
}

// Identity returns the text unchanged. Useful for dry runs.
var Identity = Func(func(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
})

// failSoft never returns an error: a failed translation yields the input.
type failSoft struct {
	next   Translator
	logger *slog.Logger
}

// FailSoft wraps t so that errors and empty results are logged and replaced
// by the original text.
func FailSoft(t Translator, logger *slog.Logger) Translator {
	if fs, ok := t.(*failSoft); ok {
		return fs
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &failSoft{next: t, logger: logger}
}

func (f *failSoft) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	out, err := f.next.Translate(ctx, text, targetLang, sourceLang)
	if err != nil {
		f.logger.Warn("translation failed", "text", truncate(text, 80), "target", targetLang, "error", err)
		return text, nil
	}
	if strings.TrimSpace(out) == "" {
		f.logger.Warn("translation returned empty text", "text", truncate(text, 80), "target", targetLang)
		return text, nil
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the settings of a translation service.
type Provider struct {
	// ID is the service identifier (google-free, openai).
	ID string
	// BaseURL is the API base URL (openai only).
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier (openai only).
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// MaxRetries is the number of retries on rate limits and server errors.
	MaxRetries int
}

func (p Provider) effectiveTimeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return 60 * time.Second
}

func (p Provider) effectiveMaxRetries() int {
	if p.MaxRetries > 0 {
		return p.MaxRetries
	}
	return 3
}

// New builds the backend for prov.ID. The result is not wrapped in FailSoft.
func New(prov Provider, logger *slog.Logger) (Translator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch prov.ID {
	case ServiceGoogleFree, "":
		return NewGoogleFree(prov), nil
	case ServiceOpenAI:
		if prov.BaseURL == "" {
			return nil, fmt.Errorf("service %s requires a base URL (apiBaseUrl or auth set --base-url)", prov.ID)
		}
		if prov.Model == "" {
			return nil, fmt.Errorf("service %s requires a model", prov.ID)
		}
		return NewOpenAI(prov, logger), nil
	}
	return nil, fmt.Errorf("unknown translation service %q (supported: %s)", prov.ID, strings.Join(Services(), ", "))
}

// truncate shortens s for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
