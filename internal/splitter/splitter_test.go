package splitter

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"delimiter", "one<delimiter>two", "one two"},
		{"heading", "<h1>Chapter 1</h1>Text.", "Chapter 1Text."},
		{"bold and italic", "<b>Bold</b> and <i>italic</i>.", "Bold and italic."},
		{"empty tags", "a<>b</>c", "abc"},
		{"other tags kept", "<p>para</p>", "<p>para</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRuleSplitter_Split(t *testing.T) {
	r := NewRuleSplitter(nil, "", false)

	got, err := r.Split("Hello world. How are you? Fine!", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Hello world.", " How are you?", " Fine!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRuleSplitter_Trim(t *testing.T) {
	r := NewRuleSplitter(nil, "", true)

	got, err := r.Split("Hello world. How are you? Fine!", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Hello world.", "How are you?", "Fine!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRuleSplitter_Reconstruction(t *testing.T) {
	texts := []string{
		"Hello world. How are you? Fine!",
		"No terminal mark at all",
		"Trailing remainder. without stop",
		"Wait... what?! Really.\n\nNext paragraph.",
		"ሰላም። እንዴት ነህ፧ ደህና ነኝ።",
		"यह एक वाक्य है। यह दूसरा है।",
		"",
	}

	r := NewRuleSplitter(nil, "", false)
	for _, text := range texts {
		got, err := r.Split(text, "")
		if err != nil {
			t.Fatalf("Split(%q) error: %v", text, err)
		}
		if joined := strings.Join(got, ""); joined != text {
			t.Errorf("reconstruction failed:\n got %q\nwant %q", joined, text)
		}
	}
}

func TestRuleSplitter_MixedScripts(t *testing.T) {
	r := NewRuleSplitter([]string{".", "।"}, "", true)

	got, err := r.Split("One. दो। Three.", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"One.", "दो।", "Three."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRuleSplitter_DefaultMarksBound(t *testing.T) {
	r := NewRuleSplitter(nil, "", false)
	if !reflect.DeepEqual(r.Marks(), DefaultPeriodMarks) {
		t.Errorf("expected default marks, got %q", r.Marks())
	}
}

func TestRuleSplitter_SurrogateInText(t *testing.T) {
	r := NewRuleSplitter(nil, "", false)
	_, err := r.Split("broken <del> text.", "")
	if !errors.Is(err, ErrSurrogateInText) {
		t.Errorf("expected ErrSurrogateInText, got %v", err)
	}
}

func TestRuleSplitter_CustomSurrogate(t *testing.T) {
	r := NewRuleSplitter([]string{"."}, "|", true)
	got, err := r.Split("text with <del>. Second.", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"text with <del>.", "Second."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestModelSplitter_English(t *testing.T) {
	m := NewModelSplitter("")

	got, err := m.Split("Hello there. How are you?\n\nI am fine.", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Hello there.", "How are you?", "I am fine."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestModelSplitter_BadModelFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "xx.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewModelSplitter(dir)
	if _, err := m.Split("Text.", "xx"); err == nil {
		t.Error("expected error for corrupt model file")
	}
}

func TestModelSplitter_MissingModelFallsBack(t *testing.T) {
	m := NewModelSplitter(t.TempDir())
	got, err := m.Split("One sentence. Two sentences.", "fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 sentences, got %q", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"model", MethodModel, false},
		{"splitter", MethodModel, false},
		{"rule", MethodRule, false},
		{"standard_split", MethodRule, false},
		{"magic", "", true},
	}

	for _, tt := range tests {
		m, err := New(tt.name, Options{})
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMethod) {
				t.Errorf("New(%q): expected ErrUnknownMethod, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q) error: %v", tt.name, err)
		}
		if m.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, m.Name(), tt.want)
		}
	}
}

func TestSplitPair(t *testing.T) {
	rule := NewRuleSplitter(nil, "", true)

	got, err := SplitPair(
		Side{Text: "<h1>Title</h1>One. Two.", Lang: "en", Method: rule},
		Side{Text: "Один.<delimiter>Два. Три.", Lang: "ru", Method: rule},
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantFrom := []string{"TitleOne.", "Two."}
	wantTo := []string{"Один.", "Два.", "Три."}
	if !reflect.DeepEqual(got.From, wantFrom) {
		t.Errorf("From = %q, want %q", got.From, wantFrom)
	}
	if !reflect.DeepEqual(got.To, wantTo) {
		t.Errorf("To = %q, want %q", got.To, wantTo)
	}
	if got.HasTranslation() {
		t.Error("expected no translation")
	}
}
