package translate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/i18nsync/jsontree"
)

// DefaultBatchSize is used when Batcher.BatchSize is not positive.
const DefaultBatchSize = 25

// Batcher translates a key set in sequential batches. Calls within a batch
// run concurrently and the batch finishes only when all of them have
// returned. Delay separates consecutive batches.
type Batcher struct {
	// Translator is called once per string key. It is wrapped in FailSoft.
	Translator Translator
	BatchSize  int
	Delay      time.Duration
	// Sink receives one event per finished batch. May be nil.
	Sink   Sink
	Logger *slog.Logger
}

// TranslateKeys returns a copy of target in which every path of keys holds
// the translation of the source value at that path. Non-string and empty
// source values are copied without calling the translator; paths missing
// from source are skipped. target itself is not modified.
//
// The context is checked between batches only. A cancelled context returns
// the partially updated copy together with the context error.
func (b *Batcher) TranslateKeys(ctx context.Context, keys []string, source, target *jsontree.Node, sourceLang, targetLang string) (*jsontree.Node, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tr := FailSoft(b.Translator, logger)
	size := b.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	out := target.Clone()
	if out == nil || !out.IsObject() {
		out = jsontree.NewObject()
	}

	batches := lo.Chunk(keys, size)
	done := 0
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		logger.Debug("translating batch",
			"target", targetLang, "batch", i+1, "batches", len(batches), "keys", len(batch))

		results := make([]*jsontree.Node, len(batch))
		var g errgroup.Group
		for j, key := range batch {
			sv, ok := jsontree.Get(source, key)
			if !ok {
				continue
			}
			text, isString := sv.StringValue()
			if !isString || strings.TrimSpace(text) == "" {
				results[j] = sv.Clone()
				continue
			}
			g.Go(func() error {
				// Detached from ctx: an in-flight batch always completes.
				translated, _ := tr.Translate(context.WithoutCancel(ctx), text, targetLang, sourceLang)
				results[j] = jsontree.String(translated)
				return nil
			})
		}
		_ = g.Wait()

		for j, key := range batch {
			if results[j] != nil {
				jsontree.Set(out, key, results[j])
			}
		}

		done += len(batch)
		Emit(b.Sink, Event{
			Type:       EventProgress,
			Stage:      StageTranslating,
			Language:   targetLang,
			Message:    fmt.Sprintf("Translated %d/%d keys", done, len(keys)),
			Progress:   batchProgress(done, len(keys)),
			Translated: done,
			Total:      len(keys),
		})

		if i < len(batches)-1 && b.Delay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(b.Delay):
			}
		}
	}

	Emit(b.Sink, Event{
		Type:       EventProgress,
		Stage:      StageTranslationComplete,
		Language:   targetLang,
		Message:    fmt.Sprintf("Translated %d keys", done),
		Progress:   90,
		Translated: done,
		Total:      len(keys),
	})
	return out, nil
}

// batchProgress maps done/total onto the 30..90 band reserved for
// translation.
func batchProgress(done, total int) int {
	if total <= 0 {
		return 90
	}
	return int(math.Round(30 + float64(done)/float64(total)*60))
}
