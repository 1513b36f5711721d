// Package diff decides which source keys a target language needs translated.
//
// A key is selected when it is missing from the target (absent, null, empty
// string, or still holding the untranslated source string) or when the
// source value changed since the last recorded sync. Force mode selects
// every key.
package diff

import (
	"math"

	"github.com/samber/lo"

	"github.com/minios-linux/i18nsync/jsontree"
	"github.com/minios-linux/i18nsync/lockfile"
)

// Breakdown classifies the selected keys of one target for reporting.
// The three slices are disjoint and each keeps flatten order.
type Breakdown struct {
	ModifiedOnly []string
	MissingOnly  []string
	Both         []string
}

// Total returns the number of selected keys.
func (b Breakdown) Total() int {
	return len(b.ModifiedOnly) + len(b.MissingOnly) + len(b.Both)
}

// NeedsTranslation reports whether the target lacks a usable translation of
// path. The source language never needs translation.
//
// A target value equal to the source value counts as untranslated, for
// every leaf kind. The heuristic also flags words that are legitimately
// spelled the same in both languages, and numbers or booleans copied from
// the source; those are re-copied without a translate call.
func NeedsTranslation(path string, source, target *jsontree.Node, sourceLang, targetLang string) bool {
	if targetLang == sourceLang {
		return false
	}
	tv, ok := jsontree.Get(target, path)
	if !ok || tv.IsEmpty() {
		return true
	}
	sv, _ := jsontree.Get(source, path)
	return jsontree.Equal(tv, sv)
}

// MissingKeys returns the source paths that need translation in target,
// in flatten order.
func MissingKeys(source, target *jsontree.Node, sourceLang, targetLang string) []string {
	if targetLang == sourceLang {
		return nil
	}
	return lo.Filter(jsontree.AllKeys(source), func(k string, _ int) bool {
		return NeedsTranslation(k, source, target, sourceLang, targetLang)
	})
}

// KeysNeedingTranslation returns the ordered set of source paths to
// translate into targetLang. With force every source path is returned.
// Otherwise the missing keys come first, followed by keys that were only
// modified in the source since cache was written. A nil cache marks every
// key as modified. The result is empty when targetLang is sourceLang.
func KeysNeedingTranslation(source, target *jsontree.Node, sourceLang, targetLang string, cache *lockfile.Cache, force bool) []string {
	if targetLang == sourceLang {
		return nil
	}
	if force {
		return jsontree.AllKeys(source)
	}

	missing := MissingKeys(source, target, sourceLang, targetLang)
	modified := cache.ModifiedKeys(source, sourceLang)
	return lo.Uniq(append(missing, modified...))
}

// Classify splits the selection of KeysNeedingTranslation into modified-only,
// missing-only and both.
func Classify(source, target *jsontree.Node, sourceLang, targetLang string, cache *lockfile.Cache) Breakdown {
	if targetLang == sourceLang {
		return Breakdown{}
	}

	missing := MissingKeys(source, target, sourceLang, targetLang)
	modified := cache.ModifiedKeys(source, sourceLang)

	missingSet := lo.SliceToMap(missing, func(k string) (string, struct{}) { return k, struct{}{} })
	modifiedSet := lo.SliceToMap(modified, func(k string) (string, struct{}) { return k, struct{}{} })

	var b Breakdown
	for _, k := range missing {
		if _, ok := modifiedSet[k]; ok {
			b.Both = append(b.Both, k)
		} else {
			b.MissingOnly = append(b.MissingOnly, k)
		}
	}
	for _, k := range modified {
		if _, ok := missingSet[k]; !ok {
			b.ModifiedOnly = append(b.ModifiedOnly, k)
		}
	}
	return b
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status is the completeness of one language relative to the source.
type Status struct {
	Language     string  `json:"language"`
	Total        int     `json:"total"`
	Translated   int     `json:"translated"`
	Missing      int     `json:"missing"`
	Completeness float64 `json:"completeness"`
}

// Compute reports how many source keys the target has translated.
// The source language is always complete.
func Compute(source, target *jsontree.Node, sourceLang, targetLang string) Status {
	total := jsontree.CountKeys(source)
	if targetLang == sourceLang {
		return Status{Language: targetLang, Total: total, Translated: total, Completeness: 100}
	}

	missing := len(MissingKeys(source, target, sourceLang, targetLang))
	translated := total - missing
	return Status{
		Language:     targetLang,
		Total:        total,
		Translated:   translated,
		Missing:      missing,
		Completeness: percent(translated, total),
	}
}

// percent returns part/total as a percentage rounded to one decimal.
func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}
