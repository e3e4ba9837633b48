package alignment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valpere/mojify/internal/bundle"
	"github.com/valpere/mojify/internal/engine"
)

// stubEngine records calls and reports restPasses non-empty rests before
// reporting an empty one.
type stubEngine struct {
	restPasses int

	initPath   string
	initLangs  [2]string
	initTo     []string
	existed    bool
	batch      engine.BatchParams
	queries    []engine.ConflictQuery
	resolved   int
	rendered   []string
	renderSize []int
	failAlign  error
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Init(_ context.Context, path, lang1, lang2 string, _, to []string) error {
	_, err := os.Stat(path)
	s.existed = err == nil
	s.initPath = path
	s.initLangs = [2]string{lang1, lang2}
	s.initTo = to
	return nil
}

func (s *stubEngine) AlignBatches(_ context.Context, _, _ string, p engine.BatchParams) error {
	s.batch = p
	return s.failAlign
}

func (s *stubEngine) FindConflicts(_ context.Context, _ string, q engine.ConflictQuery) ([]engine.Conflict, []engine.Conflict, error) {
	s.queries = append(s.queries, q)
	conflicts := []engine.Conflict{{Length: 2}, {Length: 3}}
	// the first query is the statistics scan
	pass := len(s.queries) - 1
	if pass > 0 && pass > s.restPasses {
		return conflicts, nil, nil
	}
	return conflicts, []engine.Conflict{{Length: 9}}, nil
}

func (s *stubEngine) ResolveConflicts(_ context.Context, _ string, c []engine.Conflict, _ string) error {
	s.resolved++
	return nil
}

func (s *stubEngine) ReadParagraphs(context.Context, string, string) (engine.Paragraphs, error) {
	return engine.Paragraphs{}, nil
}

func (s *stubEngine) Render(_ context.Context, _, out string, p engine.RenderParams) error {
	s.rendered = append(s.rendered, out)
	s.renderSize = append(s.renderSize, p.Width)
	return nil
}

func splitted(n int) bundle.Splitted {
	s := bundle.Splitted{}
	for i := 0; i < n; i++ {
		s.From = append(s.From, "from")
		s.To = append(s.To, "to")
	}
	return s
}

func TestBatchCount(t *testing.T) {
	tests := []struct {
		n, size, extra, want int
	}{
		{250, 100, 10, 12},
		{99, 100, 10, 10},
		{0, 100, 0, 0},
		{1000, 100, 0, 10},
		{5, 0, 3, 3},
	}
	for _, tt := range tests {
		if got := BatchCount(tt.n, tt.size, tt.extra); got != tt.want {
			t.Errorf("BatchCount(%d, %d, %d) = %d, want %d", tt.n, tt.size, tt.extra, got, tt.want)
		}
	}
}

func TestPaths(t *testing.T) {
	if got := ArtifactPath("w", "kolobok", "en", "ru"); got != filepath.Join("w", "db", "kolobok_en_ru.db") {
		t.Errorf("unexpected artifact path %s", got)
	}
	if got := ImagePath("w", "conflicts", "kolobok", "en", "ru", "1"); got != filepath.Join("w", "img", "conflicts_kolobok_en_ru.1.png") {
		t.Errorf("unexpected image path %s", got)
	}
}

func TestAlign_StopsWhenRestIsEmpty(t *testing.T) {
	dir := t.TempDir()
	e := &stubEngine{restPasses: 0}
	o := New(e, dir, nil)

	report, err := o.Align(context.Background(), splitted(250), "book", "en", "ru", Options{BatchSize: 100, ExtraBatches: 10})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if report.Passes != 1 {
		t.Errorf("expected exactly 1 pass, got %d", report.Passes)
	}
	if e.resolved != 1 {
		t.Errorf("expected 1 resolve call, got %d", e.resolved)
	}
	if report.BatchCount != 12 || len(e.batch.BatchIDs) != 12 || e.batch.BatchIDs[11] != 11 {
		t.Errorf("unexpected batches %d %v", report.BatchCount, e.batch.BatchIDs)
	}
	if e.batch.Window != 40 || e.batch.EmbedBatchSize != 10 || !e.batch.Normalize || e.batch.BatchSize != 100 {
		t.Errorf("unexpected batch params %+v", e.batch)
	}
	if report.Conflicts.Total != 2 || report.Rest.Total != 1 {
		t.Errorf("unexpected initial statistics %+v / %+v", report.Conflicts, report.Rest)
	}

	first := e.queries[0]
	if first.MinChain != 2 || first.MaxLen != 6 || first.BatchID != -1 || first.HandleStart {
		t.Errorf("unexpected statistics query %+v", first)
	}

	wantImages := []string{
		ImagePath(dir, "alignment", "book", "en", "ru", ""),
		ImagePath(dir, "conflicts", "book", "en", "ru", ""),
	}
	if strings.Join(e.rendered, ",") != strings.Join(wantImages, ",") {
		t.Errorf("unexpected images %v", e.rendered)
	}
	if e.renderSize[0] != 800 || e.renderSize[1] != 600 {
		t.Errorf("unexpected render sizes %v", e.renderSize)
	}
	for _, sub := range []string{"db", "img"} {
		if fi, err := os.Stat(filepath.Join(dir, sub)); err != nil || !fi.IsDir() {
			t.Errorf("expected %s directory", sub)
		}
	}
}

func TestAlign_WidensWindowOverThreePasses(t *testing.T) {
	e := &stubEngine{restPasses: 10}
	o := New(e, t.TempDir(), nil)

	report, err := o.Align(context.Background(), splitted(10), "book", "en", "ru", Options{})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if report.Passes != 3 || report.Remaining != 1 {
		t.Errorf("expected 3 passes with 1 remaining, got %d / %d", report.Passes, report.Remaining)
	}
	if len(e.queries) != 4 {
		t.Fatalf("expected 4 conflict queries, got %d", len(e.queries))
	}
	for i, q := range e.queries[1:] {
		if q.MinChain != 2+i || q.MaxLen != 6*(i+1) || q.BatchID != -1 || !q.HandleStart || !q.HandleFinish {
			t.Errorf("pass %d: unexpected query %+v", i, q)
		}
	}
	if e.batch.BatchSize != DefaultBatchSize {
		t.Errorf("expected default batch size, got %d", e.batch.BatchSize)
	}
}

func TestAlign_SecondPassEmpties(t *testing.T) {
	e := &stubEngine{restPasses: 1}
	o := New(e, t.TempDir(), nil)

	report, err := o.Align(context.Background(), splitted(3), "book", "en", "ru", Options{})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if report.Passes != 2 || report.Remaining != 0 {
		t.Errorf("expected 2 passes, got %d (remaining %d)", report.Passes, report.Remaining)
	}
}

func TestAlign_SeedsTranslationAndNormalisesLanguages(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := &stubEngine{}
	o := New(e, t.TempDir(), zap.New(core))

	s := bundle.Splitted{
		From:        []string{"Привет."},
		To:          []string{"Hej."},
		Translation: []string{"Привет!"},
	}
	if _, err := o.Align(context.Background(), s, "book", "be", "qq", Options{}); err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if len(e.initTo) != 1 || e.initTo[0] != "Привет!" {
		t.Errorf("expected translation as right-hand side, got %v", e.initTo)
	}
	if e.initLangs != [2]string{"bu", "xx"} {
		t.Errorf("unexpected engine languages %v", e.initLangs)
	}
	if filepath.Base(e.initPath) != "book_be_qq.db" {
		t.Errorf("artifact key must use the caller's codes, got %s", e.initPath)
	}
	if logs.FilterMessageSnippet("not supported").Len() != 1 {
		t.Errorf("expected one unsupported-language warning, got %d", logs.Len())
	}
}

func TestAlign_DeletesExistingArtifact(t *testing.T) {
	dir := t.TempDir()
	path := ArtifactPath(dir, "book", "en", "ru")
	os.MkdirAll(filepath.Dir(path), 0755)
	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	e := &stubEngine{}
	if _, err := New(e, dir, nil).Align(context.Background(), splitted(1), "book", "en", "ru", Options{}); err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if e.existed {
		t.Error("stale artifact was not deleted before Init")
	}
}

func TestAlign_ArtifactBusy(t *testing.T) {
	dir := t.TempDir()
	path := ArtifactPath(dir, "book", "en", "ru")
	os.MkdirAll(filepath.Dir(path), 0755)

	held := flock.New(path + ".lock")
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("failed to take lock: %v", err)
	}
	defer held.Unlock()

	_, err := New(&stubEngine{}, dir, nil).Align(context.Background(), splitted(1), "book", "en", "ru", Options{})
	if !errors.Is(err, ErrArtifactBusy) {
		t.Errorf("expected ErrArtifactBusy, got %v", err)
	}
}

func TestAlign_EngineErrorIsWrapped(t *testing.T) {
	boom := errors.New("model missing")
	e := &stubEngine{failAlign: boom}

	_, err := New(e, t.TempDir(), nil).Align(context.Background(), splitted(1), "book", "en", "ru", Options{})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped engine error, got %v", err)
	}
}

func TestAlign_WritesStatsTables(t *testing.T) {
	var buf bytes.Buffer
	o := New(&stubEngine{}, t.TempDir(), nil)
	o.Stats = &buf

	if _, err := o.Align(context.Background(), splitted(1), "book", "en", "ru", Options{}); err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Conflicts to solve", "Rest", "Total"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsTable(t *testing.T) {
	out := StatsTable("Conflicts", engine.Statistics([]engine.Conflict{{Length: 2}, {Length: 2}, {Length: 5}}))
	if !strings.Contains(out, "5") || !strings.Contains(out, "3") {
		t.Errorf("unexpected table:\n%s", out)
	}
}
