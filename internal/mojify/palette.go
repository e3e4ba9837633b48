package mojify

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// DefaultPath is where the palette file is looked up relative to the
// working directory.
const DefaultPath = "emojis/emojis.txt"

var ErrEmptyPalette = errors.New("emoji palette is empty")

//go:embed emojis.txt
var defaultPalette string

// Palette is an ordered set of marker runes. Whitespace in the source is
// ignored and repeated runes keep their first position.
type Palette struct {
	runes []rune
	set   map[rune]struct{}
}

func NewPalette(s string) (*Palette, error) {
	p := &Palette{set: map[rune]struct{}{}}
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if _, dup := p.set[r]; dup {
			continue
		}
		p.set[r] = struct{}{}
		p.runes = append(p.runes, r)
	}
	if len(p.runes) == 0 {
		return nil, ErrEmptyPalette
	}
	return p, nil
}

// LoadPalette reads a UTF-8 palette file. An empty path selects the built-in
// palette.
func LoadPalette(path string) (*Palette, error) {
	if path == "" {
		return DefaultPalette(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read emoji palette: %w", err)
	}
	p, err := NewPalette(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func DefaultPalette() *Palette {
	p, err := NewPalette(defaultPalette)
	if err != nil {
		panic("mojify: built-in palette: " + err.Error())
	}
	return p
}

func (p *Palette) Len() int {
	return len(p.runes)
}

// At returns the rune at index i modulo the palette length.
func (p *Palette) At(i int) rune {
	return p.runes[i%len(p.runes)]
}

func (p *Palette) Contains(r rune) bool {
	_, ok := p.set[r]
	return ok
}

// Demojify removes every palette rune from text.
func (p *Palette) Demojify(text string) string {
	return strings.Map(func(r rune) rune {
		if p.Contains(r) {
			return -1
		}
		return r
	}, text)
}
