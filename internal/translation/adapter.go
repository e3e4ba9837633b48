// Package translation submits the sentences of a text one by one to a
// translation service and stops as soon as the service reports that its
// daily quota is exhausted.
package translation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/mojify/internal/translator"
)

// Cache is a sentence-level translation memory.
type Cache interface {
	Lookup(ctx context.Context, text, sourceLang, targetLang string) (string, bool, error)
	Store(ctx context.Context, text, sourceLang, targetLang, translated, service string) error
}

// Adapter translates sentence sequences through Service.
type Adapter struct {
	Service translator.TranslationService
	Config  translator.ServiceConfig
	Cache   Cache
	// Workers bounds the number of sentences in flight. Values below 2 run
	// strictly one sentence at a time.
	Workers int
	// Progress is called after every finished sentence.
	Progress func(done, total int)
	Logger   *zap.Logger
}

// Result is the translated prefix of the input.
type Result struct {
	Sentences []string
	Total     int
	// QuotaHit is set when the service ran out of quota; Notice holds the
	// service text that said so.
	QuotaHit bool
	Notice   string
}

// Percent is the share of input sentences translated, rounded to 0.1.
func (r Result) Percent() float64 {
	if r.Total == 0 {
		return 100
	}
	return math.Round(float64(len(r.Sentences))/float64(r.Total)*1000) / 10
}

// Translate returns the translations of sentences in input order. On a quota
// notice or a service error the sentences before the failing one are
// returned; remaining sentences are not submitted. Service errors are also
// returned, wrapped.
func (a *Adapter) Translate(ctx context.Context, sentences []string, sourceLang, targetLang string) (Result, error) {
	var (
		res Result
		err error
	)
	if a.Workers > 1 {
		res, err = a.translateConcurrent(ctx, sentences, sourceLang, targetLang)
	} else {
		res, err = a.translateSequential(ctx, sentences, sourceLang, targetLang)
	}
	a.report(res, sourceLang, targetLang)
	return res, err
}

func (a *Adapter) translateSequential(ctx context.Context, sentences []string, sourceLang, targetLang string) (Result, error) {
	res := Result{Total: len(sentences), Sentences: make([]string, 0, len(sentences))}

	for i, s := range sentences {
		text, err := a.translateOne(ctx, s, sourceLang, targetLang)
		if err != nil {
			return res, fmt.Errorf("translation stopped at sentence %d: %w", i+1, err)
		}
		if strings.Contains(text, translator.QuotaExceededMarker) {
			res.QuotaHit = true
			res.Notice = text
			return res, nil
		}
		res.Sentences = append(res.Sentences, text)
		a.progress(i+1, len(sentences))
	}
	return res, nil
}

// translateConcurrent keeps the observable behaviour of the sequential loop:
// output order is input order and the cut happens at the first failing
// index, whatever order the responses arrive in.
func (a *Adapter) translateConcurrent(ctx context.Context, sentences []string, sourceLang, targetLang string) (Result, error) {
	n := len(sentences)
	res := Result{Total: n}
	out := make([]string, n)

	var (
		stop    atomic.Int64
		mu      sync.Mutex
		done    int
		errAt   = n
		firstEr error
		notice  string
		quotaAt = n
	)
	stop.Store(int64(n))

	lowerStop := func(i int) {
		for {
			cur := stop.Load()
			if int64(i) >= cur || stop.CompareAndSwap(cur, int64(i)) {
				return
			}
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(a.Workers)

	for i, s := range sentences {
		if int64(i) > stop.Load() {
			break
		}
		g.Go(func() error {
			if int64(i) > stop.Load() {
				return nil
			}
			text, err := a.translateOne(ctx, s, sourceLang, targetLang)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if i < errAt {
					errAt, firstEr = i, err
				}
				lowerStop(i)
			case strings.Contains(text, translator.QuotaExceededMarker):
				if i < quotaAt {
					quotaAt, notice = i, text
				}
				lowerStop(i)
			default:
				out[i] = text
				done++
				a.progress(done, n)
			}
			return nil
		})
	}
	_ = g.Wait()

	cut := min(errAt, quotaAt)
	res.Sentences = out[:cut]
	if cut == errAt && firstEr != nil {
		return res, fmt.Errorf("translation stopped at sentence %d: %w", errAt+1, firstEr)
	}
	if cut == quotaAt && quotaAt < n {
		res.QuotaHit = true
		res.Notice = notice
	}
	return res, nil
}

func (a *Adapter) translateOne(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if a.Service == nil {
		return "", errors.New("no translation service configured")
	}

	if a.Cache != nil {
		if cached, ok, err := a.Cache.Lookup(ctx, text, sourceLang, targetLang); err == nil && ok {
			return cached, nil
		} else if err != nil {
			a.logger().Debug("translation cache lookup failed", zap.Error(err))
		}
	}

	result, err := a.Service.Translate(ctx, a.Config, translator.TranslateRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	})
	if err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("%s: %s", result.ServiceName, result.Error)
	}

	if a.Cache != nil && !translator.HasMarker(result.TranslatedText) {
		if err := a.Cache.Store(ctx, text, sourceLang, targetLang, result.TranslatedText, result.ServiceName); err != nil {
			a.logger().Debug("translation cache store failed", zap.Error(err))
		}
	}
	return result.TranslatedText, nil
}

func (a *Adapter) progress(done, total int) {
	if a.Progress != nil {
		a.Progress(done, total)
	}
}

func (a *Adapter) report(res Result, sourceLang, targetLang string) {
	fields := []zap.Field{
		zap.String("from", sourceLang),
		zap.String("to", targetLang),
		zap.Int("translated", len(res.Sentences)),
		zap.Int("total", res.Total),
		zap.Float64("percent", res.Percent()),
	}
	if res.QuotaHit {
		a.logger().Warn("translation quota exhausted", append(fields, zap.String("notice", res.Notice))...)
		return
	}
	a.logger().Info("translation finished", fields...)
}

func (a *Adapter) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
