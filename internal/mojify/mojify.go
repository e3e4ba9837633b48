// Package mojify wraps aligned sentence pairs of two texts with a shared
// emoji so a reader can match them across languages.
package mojify

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/valpere/mojify/internal/bundle"
)

// Report summarises a Mojify call. Progress values are the percentage of
// each text, in runes, up to and including the last occurrence of the last
// emoji placed, rounded to one decimal. All values are zero when nothing
// was marked.
type Report struct {
	Progress1  float64
	Progress2  float64
	EmojisUsed int
	// Used holds the palette index of every marking in order.
	Used []int
}

// Mojify wraps the unique occurrence of a.From[i] in text1 and of a.To[i]
// in text2 with the same emoji. Pairs with an empty side, or whose
// sentences are absent or occur more than once, are skipped. The palette
// advances only after a successful marking and wraps around.
func (p *Palette) Mojify(text1, text2 string, a bundle.Aligned, demojifyFirst bool) (string, string, Report) {
	if demojifyFirst {
		text1 = p.Demojify(text1)
		text2 = p.Demojify(text2)
	}

	var rep Report
	idx := 0
	n := min(len(a.From), len(a.To))
	for i := 0; i < n; i++ {
		s1, s2 := a.From[i], a.To[i]
		if s1 == "" || s2 == "" {
			continue
		}
		if strings.Count(text1, s1) != 1 || strings.Count(text2, s2) != 1 {
			continue
		}

		emoji := string(p.At(idx))
		text1 = strings.Replace(text1, s1, emoji+s1+emoji, 1)
		text2 = strings.Replace(text2, s2, emoji+s2+emoji, 1)

		rep.Used = append(rep.Used, idx)
		rep.EmojisUsed++
		idx = (idx + 1) % p.Len()
	}

	if rep.EmojisUsed > 0 {
		last := string(p.At(rep.Used[len(rep.Used)-1]))
		rep.Progress1 = progress(text1, last)
		rep.Progress2 = progress(text2, last)
	}
	return text1, text2, rep
}

func progress(text, emoji string) float64 {
	total := utf8.RuneCountInString(text)
	at := strings.LastIndex(text, emoji)
	if total == 0 || at < 0 {
		return 0
	}
	pos := utf8.RuneCountInString(text[:at]) + 1
	return math.Round(float64(pos)/float64(total)*1000) / 10
}
