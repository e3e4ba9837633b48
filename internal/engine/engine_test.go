package engine

import (
	"context"
	"errors"
	"testing"
)

type nopEngine struct{}

func (nopEngine) Name() string { return "nop" }
func (nopEngine) Init(context.Context, string, string, string, []string, []string) error {
	return nil
}
func (nopEngine) AlignBatches(context.Context, string, string, BatchParams) error { return nil }
func (nopEngine) FindConflicts(context.Context, string, ConflictQuery) ([]Conflict, []Conflict, error) {
	return nil, nil, nil
}
func (nopEngine) ResolveConflicts(context.Context, string, []Conflict, string) error { return nil }
func (nopEngine) ReadParagraphs(context.Context, string, string) (Paragraphs, error) {
	return Paragraphs{}, nil
}
func (nopEngine) Render(context.Context, string, string, RenderParams) error { return nil }

func TestOpen(t *testing.T) {
	Register("nop-test", func(Options) (Engine, error) { return nopEngine{}, nil })

	e, err := Open("nop-test", Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if e.Name() != "nop" {
		t.Errorf("expected nop, got %s", e.Name())
	}

	if _, err := Open("missing", Options{}); !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("expected ErrUnknownEngine, got %v", err)
	}

	found := false
	for _, n := range Names() {
		if n == "nop-test" {
			found = true
		}
	}
	if !found {
		t.Error("expected nop-test in Names()")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Register("dup-test", func(Options) (Engine, error) { return nopEngine{}, nil })
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("dup-test", func(Options) (Engine, error) { return nopEngine{}, nil })
}

func TestStatistics(t *testing.T) {
	s := Statistics([]Conflict{{Length: 2}, {Length: 3}, {Length: 2}})
	if s.Total != 3 {
		t.Errorf("expected total 3, got %d", s.Total)
	}
	if s.ByLength[2] != 2 || s.ByLength[3] != 1 {
		t.Errorf("unexpected histogram %v", s.ByLength)
	}
	if got := s.Lengths(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("unexpected lengths %v", got)
	}

	empty := Statistics(nil)
	if empty.Total != 0 || len(empty.Lengths()) != 0 {
		t.Errorf("unexpected empty stats %+v", empty)
	}
}

func TestSpanLen(t *testing.T) {
	if (Span{Start: 3, End: 7}).Len() != 4 {
		t.Error("expected 4")
	}
	if (Span{Start: 5, End: 2}).Len() != 0 {
		t.Error("expected 0 for inverted span")
	}
}
