// Package reconcile reads aligned sentences back out of an alignment
// artifact. When the right-hand side was aligned through a machine
// translation, the translated sentences are mapped back to the original
// sentences they were produced from.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/bundle"
	"github.com/valpere/mojify/internal/engine"
	"github.com/valpere/mojify/internal/translator"
)

type Reconciler struct {
	Engine engine.Engine
	Logger *zap.Logger
}

func New(e engine.Engine, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{Engine: e, Logger: logger}
}

// AlignedSentences returns the aligned bundle stored at path. s is the
// bundle the artifact was built from; its Translation decides whether the
// right-hand side is a translation.
func (r *Reconciler) AlignedSentences(ctx context.Context, path string, s bundle.Splitted) (bundle.Aligned, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	p, err := r.Engine.ReadParagraphs(ctx, path, engine.DirectionTo)
	if err != nil {
		return bundle.Aligned{}, fmt.Errorf("read paragraphs: %w", err)
	}

	var out bundle.Aligned
	out.From = flatten(p.From)
	right := flatten(p.To)
	log.Info("aligned sentences read", zap.String("direction", string(bundle.From)), zap.Int("sentences", len(out.From)))

	if s.HasTranslation() {
		out.Translation = right
		log.Info("aligned sentences read", zap.String("direction", string(bundle.Translation)), zap.Int("sentences", len(right)))

		out.To = BackMap(right, s.Translation, s.To)
		log.Info("translated sentences mapped back",
			zap.Int("sentences", len(out.To)),
			zap.Int("recovered", countFilled(out.To)))
	} else {
		out.To = right
		log.Info("aligned sentences read", zap.String("direction", string(bundle.To)), zap.Int("sentences", len(right)))
	}

	out.Pad()
	return out, nil
}

// BackMap returns, for every aligned translation, the original sentence it
// was translated from. The lookup is an exact match against the first
// occurrence in translation, so duplicated translations all resolve to the
// first original. A sentence carrying the query-too-long marker ends the
// mapping; one carrying a service warning is skipped. Unmapped positions
// are empty.
func BackMap(aligned, translation, original []string) []string {
	first := make(map[string]int, len(translation))
	for i, t := range translation {
		if _, seen := first[t]; !seen {
			first[t] = i
		}
	}

	out := make([]string, len(aligned))
	for i, t := range aligned {
		if strings.Contains(t, translator.QueryTooLongMarker) {
			break
		}
		if strings.Contains(t, translator.ServiceWarningMarker) {
			continue
		}
		idx, ok := first[t]
		if !ok || idx >= len(original) {
			continue
		}
		out[i] = original[idx]
	}
	return out
}

func flatten(paragraphs [][]string) []string {
	var out []string
	for _, p := range paragraphs {
		out = append(out, p...)
	}
	return out
}

func countFilled(ss []string) int {
	n := 0
	for _, s := range ss {
		if s != "" {
			n++
		}
	}
	return n
}
