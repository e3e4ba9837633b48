package length

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valpere/mojify/internal/engine"
)

type unit struct {
	from  []string
	to    []string
	batch int
}

// units groups the sentences by link. A from sentence whose link repeats
// the previous target joins the previous unit; a new target opens a unit
// covering every to sentence after the previous target. Unlinked from
// sentences join the previous unit, and to sentences after the last target
// join the last unit.
func units(from, to []string, ls []link) []unit {
	byFrom := make(map[int]link, len(ls))
	for _, l := range ls {
		byFrom[l.From] = l
	}

	var out []unit
	prevTo := -1
	for i, s := range from {
		l, ok := byFrom[i]
		switch {
		case ok && l.To > prevTo && l.To < len(to):
			out = append(out, unit{from: []string{s}, to: to[prevTo+1 : l.To+1], batch: l.Batch})
			prevTo = l.To
		case len(out) > 0:
			out[len(out)-1].from = append(out[len(out)-1].from, s)
		default:
			out = append(out, unit{from: []string{s}, batch: 0})
		}
	}
	if prevTo+1 < len(to) {
		if len(out) == 0 {
			out = append(out, unit{})
		}
		last := &out[len(out)-1]
		last.to = append(last.to[:len(last.to):len(last.to)], to[prevTo+1:]...)
	}
	return out
}

func joinSentences(ss []string) string {
	parts := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// ReadParagraphs returns one aligned line per unit, the sentences of a unit
// joined with a space. Units aligned in the same batch form a paragraph.
// Both directions yield the same structure.
func (e *Engine) ReadParagraphs(ctx context.Context, path, direction string) (engine.Paragraphs, error) {
	if direction != engine.DirectionFrom && direction != engine.DirectionTo {
		return engine.Paragraphs{}, fmt.Errorf("unknown direction %q", direction)
	}

	a, err := load(ctx, path)
	if err != nil {
		return engine.Paragraphs{}, err
	}
	defer a.db.Close()

	ls, err := a.links(ctx)
	if err != nil {
		return engine.Paragraphs{}, err
	}

	var p engine.Paragraphs
	delimiters := []int{}
	batch := -1
	for k, u := range units(a.from, a.to, ls) {
		if k == 0 || u.batch != batch {
			p.From = append(p.From, nil)
			p.To = append(p.To, nil)
			if k > 0 {
				delimiters = append(delimiters, k)
			}
			batch = u.batch
		}
		last := len(p.From) - 1
		p.From[last] = append(p.From[last], joinSentences(u.from))
		p.To[last] = append(p.To[last], joinSentences(u.to))
		p.Count++
	}

	p.Delimiters, _ = json.Marshal(delimiters)
	p.Meta, _ = json.Marshal(map[string]string{
		"lang_from": a.meta["lang_from"],
		"lang_to":   a.meta["lang_to"],
		"direction": direction,
	})
	return p, nil
}
