// Package pipeline runs the whole chain for one book: split both texts,
// optionally translate the second into the first language, align, read the
// aligned sentences back and mojify the texts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/alignment"
	"github.com/valpere/mojify/internal/bundle"
	"github.com/valpere/mojify/internal/engine"
	"github.com/valpere/mojify/internal/mojify"
	"github.com/valpere/mojify/internal/reconcile"
	"github.com/valpere/mojify/internal/splitter"
	"github.com/valpere/mojify/internal/store"
	"github.com/valpere/mojify/internal/translation"
)

// Ledger records runs. *store.Store implements it.
type Ledger interface {
	CreateRun(ctx context.Context, r store.Run) error
	RecordAlignment(ctx context.Context, id string, batchCount, passes, conflicts int) error
	RecordMojify(ctx context.Context, id string, emojisUsed int, progress1, progress2 float64) error
	FinishRun(ctx context.Context, id string, runErr error) error
}

// LanguageVerifier checks the language of a text. *language.Detector
// implements it.
type LanguageVerifier interface {
	Verify(text, lang string) error
}

type Input struct {
	BookID string
	Text1  string
	Text2  string
	Lang1  string
	Lang2  string
	Split1 splitter.Method
	Split2 splitter.Method
	// Translate aligns text 1 against a translation of text 2 into Lang1.
	Translate     bool
	Align         alignment.Options
	DemojifyFirst bool
}

type Output struct {
	RunID       string
	Splitted    bundle.Splitted
	Translation *translation.Result
	Alignment   *alignment.Report
	Aligned     bundle.Aligned
	Text1       string
	Text2       string
	Mojify      mojify.Report
}

type Pipeline struct {
	Engine engine.Engine
	// Translator is required when Input.Translate is set.
	Translator *translation.Adapter
	// Verifier, when set, checks that the translation is in Lang1.
	Verifier LanguageVerifier
	Palette  *mojify.Palette
	WorkDir  string
	Ledger   Ledger
	Logger   *zap.Logger
	Stats    io.Writer
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Run executes every stage. Translation failures are logged and the
// translated prefix is used; any other stage error ends the run.
func (p *Pipeline) Run(ctx context.Context, in Input) (out *Output, err error) {
	log := p.logger()
	if p.Palette == nil {
		return nil, mojify.ErrEmptyPalette
	}
	if in.Translate && p.Translator == nil {
		return nil, errors.New("translation requested but no translator configured")
	}

	out = &Output{RunID: uuid.New().String()}
	log = log.With(zap.String("run", out.RunID), zap.String("book", in.BookID))

	s, err := splitter.SplitPair(
		splitter.Side{Text: in.Text1, Lang: in.Lang1, Method: in.Split1},
		splitter.Side{Text: in.Text2, Lang: in.Lang2, Method: in.Split2},
		log)
	if err != nil {
		return nil, err
	}

	if in.Translate {
		res, terr := p.Translator.Translate(ctx, s.To, in.Lang2, in.Lang1)
		if terr != nil {
			log.Warn("translation stopped early, aligning with the translated prefix", zap.Error(terr))
		}
		s.Translation = res.Sentences
		out.Translation = &res
		if p.Verifier != nil && len(res.Sentences) > 0 {
			if verr := p.Verifier.Verify(strings.Join(res.Sentences, " "), in.Lang1); verr != nil {
				log.Warn("translation language check failed", zap.Error(verr))
			}
		}
	}
	out.Splitted = s

	p.startRun(ctx, out.RunID, in, s, log)
	defer func() {
		p.finishRun(ctx, out, err, log)
	}()

	o := alignment.New(p.Engine, p.WorkDir, log)
	o.Stats = p.Stats
	report, err := o.Align(ctx, s, in.BookID, in.Lang1, in.Lang2, in.Align)
	if err != nil {
		return out, fmt.Errorf("align: %w", err)
	}
	out.Alignment = report

	r := reconcile.New(p.Engine, log)
	aligned, err := r.AlignedSentences(ctx, report.ArtifactPath, s)
	if err != nil {
		return out, fmt.Errorf("reconcile: %w", err)
	}
	out.Aligned = aligned

	out.Text1, out.Text2, out.Mojify = p.Palette.Mojify(in.Text1, in.Text2, aligned, in.DemojifyFirst)
	log.Info("texts mojified",
		zap.Float64("progress1", out.Mojify.Progress1),
		zap.Float64("progress2", out.Mojify.Progress2),
		zap.Int("emojis_used", out.Mojify.EmojisUsed))

	return out, nil
}

func (p *Pipeline) startRun(ctx context.Context, id string, in Input, s bundle.Splitted, log *zap.Logger) {
	if p.Ledger == nil {
		return
	}
	run := store.Run{
		ID:            id,
		BookID:        in.BookID,
		LangFrom:      in.Lang1,
		LangTo:        in.Lang2,
		Text1Hash:     store.Fingerprint(in.Text1),
		Text2Hash:     store.Fingerprint(in.Text2),
		Engine:        p.Engine.Name(),
		Model:         in.Align.Model,
		SentencesFrom: len(s.From),
		SentencesTo:   len(s.To),
		Translated:    len(s.Translation),
	}
	if err := p.Ledger.CreateRun(ctx, run); err != nil {
		log.Warn("failed to record run", zap.Error(err))
	}
}

func (p *Pipeline) finishRun(ctx context.Context, out *Output, runErr error, log *zap.Logger) {
	if p.Ledger == nil {
		return
	}
	if out.Alignment != nil {
		a := out.Alignment
		if err := p.Ledger.RecordAlignment(ctx, out.RunID, a.BatchCount, a.Passes, a.Conflicts.Total); err != nil {
			log.Warn("failed to record alignment", zap.Error(err))
		}
	}
	if runErr == nil {
		m := out.Mojify
		if err := p.Ledger.RecordMojify(ctx, out.RunID, m.EmojisUsed, m.Progress1, m.Progress2); err != nil {
			log.Warn("failed to record mojify result", zap.Error(err))
		}
	}
	if err := p.Ledger.FinishRun(ctx, out.RunID, runErr); err != nil {
		log.Warn("failed to finish run", zap.Error(err))
	}
}
