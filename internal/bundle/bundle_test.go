package bundle

import (
	"path/filepath"
	"testing"
)

func TestSplitted_RightHand(t *testing.T) {
	s := Splitted{From: []string{"a"}, To: []string{"b"}}
	if got := s.RightHand(); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected To as right hand, got %v", got)
	}
	if s.HasTranslation() {
		t.Error("expected no translation")
	}

	s.Translation = []string{"c"}
	if got := s.RightHand(); got[0] != "c" {
		t.Errorf("expected Translation as right hand, got %v", got)
	}
}

func TestSplitted_EmptyTranslationFallsBack(t *testing.T) {
	s := Splitted{From: []string{"a"}, To: []string{"b"}, Translation: []string{}}
	if s.HasTranslation() {
		t.Error("empty translation must not count")
	}
	if got := s.RightHand(); got[0] != "b" {
		t.Errorf("expected To, got %v", got)
	}
}

func TestAligned_Pad(t *testing.T) {
	a := Aligned{From: []string{"1", "2", "3"}, To: []string{"x"}}
	a.Pad()
	if len(a.From) != len(a.To) {
		t.Fatalf("lengths differ after Pad: %d vs %d", len(a.From), len(a.To))
	}
	if a.To[1] != "" || a.To[2] != "" {
		t.Errorf("expected empty padding, got %q", a.To)
	}
	if a.Filled() != 1 {
		t.Errorf("expected 1 filled pair, got %d", a.Filled())
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitted.json")
	in := Splitted{From: []string{"Hello."}, To: []string{"Привіт."}}

	if err := Save(path, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var out Splitted
	if err := Load(path, &out); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out.From[0] != "Hello." || out.To[0] != "Привіт." {
		t.Errorf("unexpected bundle: %+v", out)
	}
	if out.HasTranslation() {
		t.Error("translation should stay empty")
	}
}

func TestLoad_Missing(t *testing.T) {
	var out Splitted
	if err := Load(filepath.Join(t.TempDir(), "nope.json"), &out); err == nil {
		t.Error("expected error for missing file")
	}
}
