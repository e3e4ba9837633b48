package translation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valpere/mojify/internal/translator"
)

type stubService struct {
	translateFunc func(req translator.TranslateRequest) (string, error)
	calls         atomic.Int32
}

func (s *stubService) Name() string { return "stub" }

func (s *stubService) Translate(ctx context.Context, cfg translator.ServiceConfig, req translator.TranslateRequest) (*translator.ServiceResult, error) {
	s.calls.Add(1)
	text, err := s.translateFunc(req)
	res := &translator.ServiceResult{ServiceName: "stub", TranslatedText: text}
	if err != nil {
		res.Error = err.Error()
	}
	return res, err
}

func (s *stubService) IsAvailable(ctx context.Context) error { return nil }

func (s *stubService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"en", "uk"}, nil
}

// quotaOn returns the quota notice for the sentence "s<n>".
func quotaOn(n int) func(req translator.TranslateRequest) (string, error) {
	return func(req translator.TranslateRequest) (string, error) {
		if req.Text == fmt.Sprintf("s%d", n) {
			return translator.QuotaExceededMarker + ". NEXT AVAILABLE IN 23 HOURS", nil
		}
		return "t" + req.Text[1:], nil
	}
}

var five = []string{"s1", "s2", "s3", "s4", "s5"}

func TestAdapter_Translate_AllSentences(t *testing.T) {
	svc := &stubService{translateFunc: quotaOn(-1)}
	a := &Adapter{Service: svc}

	res, err := a.Translate(context.Background(), five, "en", "uk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"t1", "t2", "t3", "t4", "t5"}
	if !reflect.DeepEqual(res.Sentences, want) {
		t.Errorf("got %q, want %q", res.Sentences, want)
	}
	if res.QuotaHit {
		t.Error("unexpected quota hit")
	}
	if res.Percent() != 100 {
		t.Errorf("expected 100%%, got %v", res.Percent())
	}
}

func TestAdapter_Translate_QuotaTruncates(t *testing.T) {
	svc := &stubService{translateFunc: quotaOn(3)}
	a := &Adapter{Service: svc}

	res, err := a.Translate(context.Background(), five, "en", "uk")
	if err != nil {
		t.Fatalf("quota must not be an error: %v", err)
	}
	if len(res.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %q", len(res.Sentences), res.Sentences)
	}
	if !res.QuotaHit {
		t.Error("expected QuotaHit")
	}
	if got := svc.calls.Load(); got != 3 {
		t.Errorf("expected 3 service calls, got %d", got)
	}
	if res.Percent() != 40 {
		t.Errorf("expected 40%%, got %v", res.Percent())
	}
}

func TestAdapter_Translate_ConcurrentMatchesSequential(t *testing.T) {
	for _, workers := range []int{2, 3, 8} {
		svc := &stubService{translateFunc: func(req translator.TranslateRequest) (string, error) {
			// Later sentences answer first to shake the ordering.
			if req.Text == "s1" {
				time.Sleep(20 * time.Millisecond)
			}
			return quotaOn(3)(req)
		}}
		a := &Adapter{Service: svc, Workers: workers}

		res, err := a.Translate(context.Background(), five, "en", "uk")
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		want := []string{"t1", "t2"}
		if !reflect.DeepEqual(res.Sentences, want) {
			t.Errorf("workers=%d: got %q, want %q", workers, res.Sentences, want)
		}
		if !res.QuotaHit {
			t.Errorf("workers=%d: expected QuotaHit", workers)
		}
	}
}

func TestAdapter_Translate_ConcurrentOrder(t *testing.T) {
	input := make([]string, 40)
	for i := range input {
		input[i] = fmt.Sprintf("s%d", i+1)
	}
	svc := &stubService{translateFunc: quotaOn(-1)}
	a := &Adapter{Service: svc, Workers: 6}

	res, err := a.Translate(context.Background(), input, "en", "uk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range res.Sentences {
		if want := fmt.Sprintf("t%d", i+1); s != want {
			t.Fatalf("position %d: got %q, want %q", i, s, want)
		}
	}
}

func TestAdapter_Translate_ServiceError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := &stubService{translateFunc: func(req translator.TranslateRequest) (string, error) {
		if req.Text == "s4" {
			return "", boom
		}
		return "t" + req.Text[1:], nil
	}}

	for _, workers := range []int{1, 4} {
		a := &Adapter{Service: svc, Workers: workers}
		res, err := a.Translate(context.Background(), five, "en", "uk")
		if !errors.Is(err, boom) {
			t.Errorf("workers=%d: expected wrapped error, got %v", workers, err)
		}
		if len(res.Sentences) != 3 {
			t.Errorf("workers=%d: expected 3 sentences before the error, got %q", workers, res.Sentences)
		}
	}
}

func TestAdapter_Translate_NoService(t *testing.T) {
	a := &Adapter{}
	if _, err := a.Translate(context.Background(), five, "en", "uk"); err == nil {
		t.Error("expected error without service")
	}
}

func TestAdapter_Translate_Empty(t *testing.T) {
	a := &Adapter{Service: &stubService{translateFunc: quotaOn(-1)}}
	res, err := a.Translate(context.Background(), nil, "en", "uk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Sentences) != 0 || res.Percent() != 100 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAdapter_Translate_Progress(t *testing.T) {
	var seen []int
	a := &Adapter{
		Service:  &stubService{translateFunc: quotaOn(4)},
		Progress: func(done, total int) { seen = append(seen, done) },
	}

	if _, err := a.Translate(context.Background(), five, "en", "uk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(seen, []int{1, 2, 3}) {
		t.Errorf("unexpected progress calls %v", seen)
	}
}

func TestAdapter_Translate_LogsQuota(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a := &Adapter{Service: &stubService{translateFunc: quotaOn(1)}, Logger: zap.New(core)}

	if _, err := a.Translate(context.Background(), five, "en", "uk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := logs.FilterMessage("translation quota exhausted").All()
	if len(entries) != 1 {
		t.Fatalf("expected one quota warning, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["translated"]; got != int64(0) {
		t.Errorf("expected translated=0, got %v", got)
	}
}

type mapCache struct {
	mu     sync.Mutex
	data   map[string]string
	stores int
}

func (c *mapCache) Lookup(ctx context.Context, text, sourceLang, targetLang string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[sourceLang+"|"+targetLang+"|"+text]
	return v, ok, nil
}

func (c *mapCache) Store(ctx context.Context, text, sourceLang, targetLang, translated, service string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[sourceLang+"|"+targetLang+"|"+text] = translated
	c.stores++
	return nil
}

func TestAdapter_Translate_Cache(t *testing.T) {
	cache := &mapCache{data: map[string]string{"en|uk|s2": "cached"}}
	svc := &stubService{translateFunc: quotaOn(5)}
	a := &Adapter{Service: svc, Cache: cache}

	res, err := a.Translate(context.Background(), five, "en", "uk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"t1", "cached", "t3", "t4"}
	if !reflect.DeepEqual(res.Sentences, want) {
		t.Errorf("got %q, want %q", res.Sentences, want)
	}
	if got := svc.calls.Load(); got != 4 {
		t.Errorf("expected 4 service calls (one cached), got %d", got)
	}
	if cache.stores != 3 {
		t.Errorf("expected 3 stores (quota notice not cached), got %d", cache.stores)
	}
}
