// Package bundle holds the sentence sequences passed between the split,
// align, reconcile and mojify stages.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
)

// Direction names a side of the alignment.
type Direction string

const (
	From        Direction = "from"
	To          Direction = "to"
	Translation Direction = "translation"
)

// Splitted holds the sentences of two texts before alignment. From and To
// are produced independently and need not have the same length.
type Splitted struct {
	From        []string `json:"from"`
	To          []string `json:"to"`
	Translation []string `json:"translation,omitempty"`
}

// HasTranslation reports whether a non-empty translation of To is present.
func (s Splitted) HasTranslation() bool {
	return len(s.Translation) > 0
}

// RightHand returns the sequence aligned against From: the translation when
// present, To otherwise.
func (s Splitted) RightHand() []string {
	if s.HasTranslation() {
		return s.Translation
	}
	return s.To
}

// Aligned holds sentence sequences where index i of From corresponds to
// index i of To. Entries are empty when no counterpart was recovered.
type Aligned struct {
	From        []string `json:"from"`
	To          []string `json:"to"`
	Translation []string `json:"translation,omitempty"`
}

// Pad extends the shorter of From and To with empty strings so both have
// the same length.
func (a *Aligned) Pad() {
	for len(a.From) < len(a.To) {
		a.From = append(a.From, "")
	}
	for len(a.To) < len(a.From) {
		a.To = append(a.To, "")
	}
}

// Len returns the number of aligned positions.
func (a Aligned) Len() int {
	if len(a.To) > len(a.From) {
		return len(a.To)
	}
	return len(a.From)
}

// Filled returns the number of positions where both sides are non-empty.
func (a Aligned) Filled() int {
	n := 0
	for i := 0; i < len(a.From) && i < len(a.To); i++ {
		if a.From[i] != "" && a.To[i] != "" {
			n++
		}
	}
	return n
}

// Save writes v as indented JSON to path.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads JSON written by Save into v.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
