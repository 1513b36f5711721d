package translate

import (
	"context"
	"strings"

	"github.com/bregydoc/gtranslate"
)

// GoogleFree translates through the public Google Translate web endpoint.
// It needs no API key but is rate limited by Google; pace calls with the
// batch size and inter-batch delay.
type GoogleFree struct {
	call func(text, from, to string) (string, error)
}

// NewGoogleFree returns the google-free backend.
func NewGoogleFree(Provider) *GoogleFree {
	return &GoogleFree{call: func(text, from, to string) (string, error) {
		return gtranslate.TranslateWithParams(text, gtranslate.TranslationParams{
			From: from,
			To:   to,
		})
	}}
}

// Translate implements Translator. The underlying client is not
// context-aware; a cancelled context returns early and abandons the call.
func (g *GoogleFree) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		out, err := g.call(text, googleCode(sourceLang), googleCode(targetLang))
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

// googleCode maps locale codes to the form the endpoint accepts
// ("pt_BR" -> "pt-BR"). Chinese needs its script region kept.
func googleCode(lang string) string {
	code := strings.ReplaceAll(lang, "_", "-")
	switch strings.ToLower(code) {
	case "zh-hans", "zh":
		return "zh-CN"
	case "zh-hant":
		return "zh-TW"
	}
	return code
}
