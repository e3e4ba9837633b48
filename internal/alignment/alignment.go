// Package alignment drives an alignment engine over a Splitted bundle: it
// rebuilds the artifact for a (book, language pair) key, aligns every batch
// and widens the conflict resolution window over up to three passes.
package alignment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/bundle"
	"github.com/valpere/mojify/internal/engine"
	"github.com/valpere/mojify/internal/language"
)

const (
	DefaultBatchSize    = 100
	DefaultExtraBatches = 10

	window         = 40
	embedBatchSize = 10

	resolvePasses = 3
)

var ErrArtifactBusy = errors.New("alignment artifact is locked by another run")

type Options struct {
	// Index is appended to image names: alignment_{book}_{l1}_{l2}.{index}.png.
	Index        string
	Model        string
	BatchSize    int
	ExtraBatches int
}

// Report describes a finished alignment.
type Report struct {
	ArtifactPath string
	BatchCount   int
	Conflicts    engine.Stats
	Rest         engine.Stats
	// Passes is the number of resolution passes run.
	Passes int
	// Remaining counts the conflicts left unresolved after the last pass.
	Remaining int
	Images    []string
}

type Orchestrator struct {
	Engine  engine.Engine
	WorkDir string
	Logger  *zap.Logger
	// Stats, when set, receives the initial conflict statistics tables.
	Stats io.Writer
}

func New(e engine.Engine, workDir string, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Engine: e, WorkDir: workDir, Logger: logger}
}

// ArtifactPath is db/{book}_{l1}_{l2}.db under workDir.
func ArtifactPath(workDir, bookID, lang1, lang2 string) string {
	return filepath.Join(workDir, "db", fmt.Sprintf("%s_%s_%s.db", bookID, lang1, lang2))
}

// ImagePath is img/{kind}_{book}_{l1}_{l2}.{index}.png under workDir.
func ImagePath(workDir, kind, bookID, lang1, lang2, index string) string {
	return filepath.Join(workDir, "img", fmt.Sprintf("%s_%s_%s_%s.%s.png", kind, bookID, lang1, lang2, index))
}

// BatchCount is n/batchSize + extra.
func BatchCount(n, batchSize, extra int) int {
	if batchSize <= 0 {
		return extra
	}
	return n/batchSize + extra
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Align rebuilds the artifact for (bookID, lang1, lang2) from s and aligns
// it. Only one Align may run per artifact; a concurrent call returns
// ErrArtifactBusy.
func (o *Orchestrator) Align(ctx context.Context, s bundle.Splitted, bookID, lang1, lang2 string, opts Options) (*Report, error) {
	log := o.logger()

	if opts.Model == "" {
		opts.Model = engine.ModelMultilingual
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	path := ArtifactPath(o.WorkDir, bookID, lang1, lang2)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire artifact lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactBusy, path)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release artifact lock", zap.Error(err))
		}
	}()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to delete old artifact: %w", err)
	}

	name1 := engineLang(lang1, log)
	name2 := engineLang(lang2, log)

	if err := o.Engine.Init(ctx, path, name1, name2, s.From, s.RightHand()); err != nil {
		return nil, fmt.Errorf("init artifact: %w", err)
	}

	report := &Report{ArtifactPath: path}
	report.BatchCount = BatchCount(len(s.From), opts.BatchSize, opts.ExtraBatches)
	ids := make([]int, report.BatchCount)
	for i := range ids {
		ids[i] = i
	}
	log.Info("aligning batches",
		zap.String("book", bookID),
		zap.Int("batch_count", report.BatchCount),
		zap.String("model", opts.Model))

	params := engine.BatchParams{
		BatchSize:      opts.BatchSize,
		BatchIDs:       ids,
		Window:         window,
		EmbedBatchSize: embedBatchSize,
		Normalize:      true,
	}
	if err := o.Engine.AlignBatches(ctx, path, opts.Model, params); err != nil {
		return nil, fmt.Errorf("align batches: %w", err)
	}

	img := ImagePath(o.WorkDir, "alignment", bookID, lang1, lang2, opts.Index)
	if err := o.render(ctx, path, img, name1, name2, 800); err != nil {
		return nil, err
	}
	report.Images = append(report.Images, img)

	conflicts, rest, err := o.Engine.FindConflicts(ctx, path, engine.ConflictQuery{MinChain: 2, MaxLen: 6, BatchID: -1})
	if err != nil {
		return nil, fmt.Errorf("find conflicts: %w", err)
	}
	report.Conflicts = engine.Statistics(conflicts)
	report.Rest = engine.Statistics(rest)
	log.Info("initial conflicts",
		zap.Int("conflicts", report.Conflicts.Total),
		zap.Int("rest", report.Rest.Total))
	if o.Stats != nil {
		fmt.Fprintln(o.Stats, StatsTable("Conflicts to solve", report.Conflicts))
		fmt.Fprintln(o.Stats, StatsTable("Rest", report.Rest))
	}

	img = ImagePath(o.WorkDir, "conflicts", bookID, lang1, lang2, opts.Index)
	for i := 0; i < resolvePasses; i++ {
		q := engine.ConflictQuery{
			MinChain:     2 + i,
			MaxLen:       6 * (i + 1),
			BatchID:      -1,
			HandleStart:  true,
			HandleFinish: true,
		}
		conflicts, rest, err := o.Engine.FindConflicts(ctx, path, q)
		if err != nil {
			return nil, fmt.Errorf("find conflicts (pass %d): %w", i+1, err)
		}
		if err := o.Engine.ResolveConflicts(ctx, path, conflicts, opts.Model); err != nil {
			return nil, fmt.Errorf("resolve conflicts (pass %d): %w", i+1, err)
		}
		if err := o.render(ctx, path, img, name1, name2, 600); err != nil {
			return nil, err
		}
		report.Passes = i + 1
		report.Remaining = len(rest)

		log.Info("resolution pass finished",
			zap.Int("pass", i+1),
			zap.Int("resolved", len(conflicts)),
			zap.Int("rest", len(rest)))
		if len(rest) == 0 {
			break
		}
	}
	report.Images = append(report.Images, img)

	return report, nil
}

func (o *Orchestrator) render(ctx context.Context, path, out, lang1, lang2 string, size int) error {
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	p := engine.RenderParams{
		LangFrom:  lang1,
		LangTo:    lang2,
		BatchSize: 400,
		Width:     size,
		Height:    size,
	}
	if err := o.Engine.Render(ctx, path, out, p); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(out), err)
	}
	return nil
}

func engineLang(code string, log *zap.Logger) string {
	name, ok := language.Normalize(code)
	if !ok {
		log.Warn("language is not supported by the aligner, using the unknown code",
			zap.String("lang", code),
			zap.String("renamed", name))
	}
	return name
}
