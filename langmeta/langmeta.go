// Package langmeta validates language codes and provides display metadata
// (native name, English name, emoji flag) for CLI output and prompts.
package langmeta

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrInvalid is returned for codes that are not valid BCP 47 tags.
var ErrInvalid = errors.New("invalid language code")

// Meta describes language display metadata.
type Meta struct {
	Name        string `json:"name"`
	EnglishName string `json:"englishName"`
	Flag        string `json:"flag"`
}

func canonicalize(lang string) string {
	return strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
}

// Parse parses lang ("pt_BR", "pt-br", "fr") as a BCP 47 tag.
func Parse(lang string) (language.Tag, error) {
	normalized := canonicalize(lang)
	if normalized == "" {
		return language.Und, fmt.Errorf("%w: empty code", ErrInvalid)
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return language.Und, fmt.Errorf("%w %q: %v", ErrInvalid, lang, err)
	}
	if tag == language.Und {
		return language.Und, fmt.Errorf("%w %q", ErrInvalid, lang)
	}
	return tag, nil
}

// Validate reports whether lang is a usable language code.
func Validate(lang string) error {
	_, err := Parse(lang)
	return err
}

// Canonical returns the canonical spelling of lang ("pt_br" -> "pt-BR"), or
// lang unchanged when it does not parse.
func Canonical(lang string) string {
	tag, err := Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

// Name returns the language's name in itself ("français"), or lang when it
// is unknown.
func Name(lang string) string {
	tag, err := Parse(lang)
	if err != nil {
		return lang
	}
	if n := display.Self.Name(tag); n != "" {
		return n
	}
	return lang
}

// EnglishName returns the English name of lang ("French"), or lang when it
// is unknown.
func EnglishName(lang string) string {
	tag, err := Parse(lang)
	if err != nil {
		return lang
	}
	if n := display.English.Tags().Name(tag); n != "" {
		return n
	}
	return lang
}

// Flag returns the emoji flag of the most likely region of lang, or "".
func Flag(lang string) string {
	tag, err := Parse(lang)
	if err != nil {
		return ""
	}
	region, conf := tag.Region()
	if conf == language.No || !region.IsCountry() {
		return ""
	}
	code := region.String()
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range code {
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}

// Resolve returns best-effort metadata for lang. Unknown codes come back
// with Name set to lang and no flag.
func Resolve(lang string) Meta {
	return Meta{Name: Name(lang), EnglishName: EnglishName(lang), Flag: Flag(lang)}
}
