package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valpere/mojify/internal/alignment"
	"github.com/valpere/mojify/internal/engine"
	"github.com/valpere/mojify/internal/engine/length"
	"github.com/valpere/mojify/internal/mojify"
	"github.com/valpere/mojify/internal/splitter"
	"github.com/valpere/mojify/internal/store"
	"github.com/valpere/mojify/internal/translation"
	"github.com/valpere/mojify/internal/translator"
)

const (
	text1 = "One apple. Two pears here! Three plums?"
	text2 = "Uno manzana. Dos peras aquí! Tres ciruelas?"
)

type dictService struct {
	dict  map[string]string
	quota string
}

func (s *dictService) Name() string { return "dict" }

func (s *dictService) Translate(_ context.Context, _ translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	key := strings.TrimSpace(req.Text)
	if key == s.quota {
		return &translator.ServiceResult{TranslatedText: translator.QuotaExceededMarker}, nil
	}
	return &translator.ServiceResult{TranslatedText: s.dict[key]}, nil
}

func (s *dictService) IsAvailable(context.Context) error { return nil }

func (s *dictService) SupportedLanguages(context.Context) ([]string, error) { return nil, nil }

func newPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.New(filepath.Join(dir, "data", "mojify.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return &Pipeline{
		Engine:  length.New(nil),
		Palette: mojify.DefaultPalette(),
		WorkDir: dir,
		Ledger:  db,
	}, db
}

func input() Input {
	rule := splitter.NewRuleSplitter(nil, "", false)
	return Input{
		BookID:        "fruit",
		Text1:         text1,
		Text2:         text2,
		Lang1:         "en",
		Lang2:         "es",
		Split1:        rule,
		Split2:        rule,
		Align:         alignment.Options{BatchSize: 100, ExtraBatches: 1},
		DemojifyFirst: true,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	p, db := newPipeline(t)

	out, err := p.Run(context.Background(), input())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(out.Splitted.From) != 3 || len(out.Splitted.To) != 3 {
		t.Fatalf("unexpected split %+v", out.Splitted)
	}
	if out.Alignment.Passes != 1 {
		t.Errorf("expected a single resolution pass, got %d", out.Alignment.Passes)
	}
	if out.Mojify.EmojisUsed != 3 {
		t.Errorf("expected 3 emojis, got %d (aligned %q / %q)", out.Mojify.EmojisUsed, out.Aligned.From, out.Aligned.To)
	}
	if p.Palette.Demojify(out.Text1) != text1 || p.Palette.Demojify(out.Text2) != text2 {
		t.Error("mojified texts must demojify to the input")
	}
	if out.Mojify.Progress1 != 100 {
		t.Errorf("expected the whole of text 1 marked, got %v", out.Mojify.Progress1)
	}

	for _, img := range out.Alignment.Images {
		if _, err := os.Stat(img); err != nil {
			t.Errorf("expected image %s: %v", img, err)
		}
	}

	run, err := db.GetRun(context.Background(), out.RunID)
	if err != nil {
		t.Fatalf("run not recorded: %v", err)
	}
	if run.Status != store.RunCompleted || run.EmojisUsed != 3 || run.BatchCount != 1 || run.Engine != length.Name {
		t.Errorf("unexpected ledger row %+v", run)
	}
}

func TestRun_ThroughTranslationWithQuota(t *testing.T) {
	p, db := newPipeline(t)
	svc := &dictService{
		dict: map[string]string{
			"Uno manzana.":    "One apple.",
			"Dos peras aquí!": "Two pears here!",
			"Tres ciruelas?":  "Three plums?",
		},
		quota: "Tres ciruelas?",
	}
	p.Translator = &translation.Adapter{Service: svc}

	in := input()
	in.Translate = true
	out, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !out.Translation.QuotaHit || len(out.Splitted.Translation) != 2 {
		t.Fatalf("expected the translation cut at the quota, got %+v", out.Translation)
	}
	if out.Aligned.Translation == nil {
		t.Fatal("expected translation routed through the aligned bundle")
	}
	if len(out.Aligned.From) != len(out.Aligned.To) {
		t.Error("aligned sides must have equal length")
	}
	if out.Aligned.To[0] != "Uno manzana." {
		t.Errorf("expected back-mapped original, got %q", out.Aligned.To[0])
	}
	if !strings.HasPrefix(out.Text2, string(p.Palette.At(0))+"Uno manzana.") {
		t.Errorf("expected first Spanish sentence marked, got %q", out.Text2)
	}

	run, _ := db.GetRun(context.Background(), out.RunID)
	if run.Translated != 2 {
		t.Errorf("expected 2 translated sentences in the ledger, got %d", run.Translated)
	}
}

func TestRun_TranslationWithoutTranslator(t *testing.T) {
	p, _ := newPipeline(t)
	in := input()
	in.Translate = true
	if _, err := p.Run(context.Background(), in); err == nil {
		t.Error("expected error without translator")
	}
}

func TestRun_SplitErrorStopsEarly(t *testing.T) {
	p, db := newPipeline(t)
	in := input()
	in.Text1 = "broken <del> text."

	_, err := p.Run(context.Background(), in)
	if !errors.Is(err, splitter.ErrSurrogateInText) {
		t.Fatalf("expected ErrSurrogateInText, got %v", err)
	}
	runs, _ := db.ListRuns(context.Background(), "")
	if len(runs) != 0 {
		t.Errorf("no run should be recorded before splitting succeeds, got %d", len(runs))
	}
}

func TestRun_AlignmentFailureIsRecorded(t *testing.T) {
	p, db := newPipeline(t)
	p.Engine = failingEngine{length.New(nil)}

	out, err := p.Run(context.Background(), input())
	if err == nil {
		t.Fatal("expected alignment error")
	}
	run, gerr := db.GetRun(context.Background(), out.RunID)
	if gerr != nil {
		t.Fatalf("run not recorded: %v", gerr)
	}
	if run.Status != store.RunFailed || !strings.Contains(run.Error, "render") {
		t.Errorf("unexpected failed run %+v", run)
	}
}

type failingEngine struct {
	*length.Engine
}

func (failingEngine) Render(context.Context, string, string, engine.RenderParams) error {
	return errors.New("no display")
}

type rejectingVerifier struct {
	text, lang string
}

func (v *rejectingVerifier) Verify(text, lang string) error {
	v.text, v.lang = text, lang
	return errors.New("detected de")
}

func TestRun_TranslationLanguageCheckWarns(t *testing.T) {
	p, _ := newPipeline(t)
	core, logs := observer.New(zapcore.WarnLevel)
	p.Logger = zap.New(core)
	p.Translator = &translation.Adapter{Service: &dictService{dict: map[string]string{
		"Uno manzana.":    "One apple.",
		"Dos peras aquí!": "Two pears here!",
		"Tres ciruelas?":  "Three plums?",
	}}}
	v := &rejectingVerifier{}
	p.Verifier = v

	in := input()
	in.Translate = true
	if _, err := p.Run(context.Background(), in); err != nil {
		t.Fatalf("a failed language check must not stop the run: %v", err)
	}

	if v.lang != "en" || v.text != "One apple. Two pears here! Three plums?" {
		t.Errorf("verifier got %q in %q", v.text, v.lang)
	}
	if logs.FilterMessage("translation language check failed").Len() != 1 {
		t.Errorf("expected a warning, got %v", logs.All())
	}
}
