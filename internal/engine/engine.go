// Package engine defines the capability interface of a sentence alignment
// engine and a registry of named implementations. An engine owns an
// alignment artifact at a filesystem path: it seeds it with two sentence
// sequences, aligns them in batches, finds and resolves conflicts, and reads
// the aligned paragraphs back.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const (
	ModelMultilingual = "sentence_transformer_multilingual"
	ModelLabse        = "sentence_transformer_multilingual_labse"

	DirectionFrom = "from"
	DirectionTo   = "to"
)

var ErrUnknownEngine = errors.New("unknown alignment engine")

// BatchParams controls AlignBatches.
type BatchParams struct {
	BatchSize      int   `json:"batch_size"`
	BatchIDs       []int `json:"batch_ids"`
	Window         int   `json:"window"`
	EmbedBatchSize int   `json:"embed_batch_size"`
	Normalize      bool  `json:"normalize_embeddings"`
}

// ConflictQuery selects conflicts by chain length and span. BatchID -1 scans
// the whole artifact.
type ConflictQuery struct {
	MinChain     int  `json:"min_chain_length"`
	MaxLen       int  `json:"max_conflicts_len"`
	BatchID      int  `json:"batch_id"`
	HandleStart  bool `json:"handle_start"`
	HandleFinish bool `json:"handle_finish"`
}

// Span is a half-open range of sentence indices.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Conflict is an ambiguous region of the alignment. Raw carries the
// engine's own representation and is handed back unchanged on resolution.
type Conflict struct {
	Length int             `json:"length"`
	From   Span            `json:"from"`
	To     Span            `json:"to"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Paragraphs is the aligned content of an artifact. From and To hold the
// same number of paragraphs; paragraph i of From corresponds to paragraph i
// of To.
type Paragraphs struct {
	From       [][]string      `json:"from"`
	To         [][]string      `json:"to"`
	Delimiters json.RawMessage `json:"delimiters,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	Count      int             `json:"count"`
}

// RenderParams controls Render.
type RenderParams struct {
	LangFrom  string `json:"lang_name_from"`
	LangTo    string `json:"lang_name_to"`
	BatchSize int    `json:"batch_size"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Engine is implemented by every alignment backend.
type Engine interface {
	Name() string
	Init(ctx context.Context, path, lang1, lang2 string, from, to []string) error
	AlignBatches(ctx context.Context, path, model string, p BatchParams) error
	FindConflicts(ctx context.Context, path string, q ConflictQuery) (conflicts, rest []Conflict, err error)
	ResolveConflicts(ctx context.Context, path string, conflicts []Conflict, model string) error
	ReadParagraphs(ctx context.Context, path, direction string) (Paragraphs, error)
	Render(ctx context.Context, path, out string, p RenderParams) error
}

// Options are passed to engine factories. Fields an engine does not use are
// ignored.
type Options struct {
	// Python is the interpreter used by subprocess engines.
	Python string `mapstructure:"python" toml:"python"`
	// Script overrides the embedded bridge script.
	Script string      `mapstructure:"script" toml:"script"`
	Logger *zap.Logger `mapstructure:"-" toml:"-"`
}

// Factory builds an engine.
type Factory func(opts Options) (Engine, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes an engine available under name. It panics on duplicates.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic("engine: Register called twice for " + name)
	}
	factories[name] = f
}

// Open builds the engine registered under name.
func Open(name string, opts Options) (Engine, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return f(opts)
}

// Names lists registered engines in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stats summarises a set of conflicts by length.
type Stats struct {
	Total    int
	ByLength map[int]int
}

// Lengths returns the distinct conflict lengths in ascending order.
func (s Stats) Lengths() []int {
	out := make([]int, 0, len(s.ByLength))
	for l := range s.ByLength {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

func Statistics(conflicts []Conflict) Stats {
	s := Stats{Total: len(conflicts), ByLength: map[int]int{}}
	for _, c := range conflicts {
		s.ByLength[c.Length]++
	}
	return s
}
