/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/alignment"
	"github.com/valpere/mojify/internal/bundle"
	"github.com/valpere/mojify/internal/engine"
	"github.com/valpere/mojify/internal/reconcile"
	"github.com/valpere/mojify/internal/store"
)

var (
	bookID     string
	imageIndex string
	alignedOut string
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align the sentences of a split bundle",
	Long: `Align the two sentence sequences of a split bundle with the configured
engine, resolve conflicts and write the aligned sentence pairs.

The alignment artifact is stored at <work-dir>/db/{book}_{lang1}_{lang2}.db and
visualisations at <work-dir>/img/. When the bundle holds a translation of
text 2, text 1 is aligned against it and the result is mapped back to the
original sentences.

Engines:
  - lingtrain  lingtrain_aligner over a Python subprocess
  - length     built-in sentence-length aligner, no dependencies`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var s bundle.Splitted
		if err := bundle.Load(inputFile, &s); err != nil {
			return err
		}
		if lang1 == "auto" || lang2 == "auto" {
			return fmt.Errorf("--lang1 and --lang2 are required to align")
		}

		ctx := context.Background()

		e, err := openEngine()
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runID := uuid.New().String()
		run := store.Run{
			ID:            runID,
			BookID:        bookID,
			LangFrom:      lang1,
			LangTo:        lang2,
			Engine:        e.Name(),
			Model:         cfg.Alignment.Model,
			SentencesFrom: len(s.From),
			SentencesTo:   len(s.To),
			Translated:    len(s.Translation),
		}
		if err := db.CreateRun(ctx, run); err != nil {
			logger.Warn("failed to record run", zap.Error(err))
		}

		aligned, report, err := alignBundle(ctx, e, s)
		if report != nil {
			_ = db.RecordAlignment(ctx, runID, report.BatchCount, report.Passes, report.Conflicts.Total)
		}
		_ = db.FinishRun(ctx, runID, err)
		if err != nil {
			return err
		}

		if err := bundle.Save(alignedOut, aligned); err != nil {
			return err
		}
		fmt.Printf("Aligned %d sentence pairs (%d filled) in %d passes\n", aligned.Len(), aligned.Filled(), report.Passes)
		fmt.Printf("Artifact: %s\n", report.ArtifactPath)
		for _, img := range report.Images {
			fmt.Printf("Image:    %s\n", img)
		}
		return nil
	},
}

func alignBundle(ctx context.Context, e engine.Engine, s bundle.Splitted) (bundle.Aligned, *alignment.Report, error) {
	o := alignment.New(e, cfg.WorkDir, logger)
	o.Stats = os.Stderr

	report, err := o.Align(ctx, s, bookID, lang1, lang2, alignOptions())
	if err != nil {
		return bundle.Aligned{}, nil, err
	}

	aligned, err := reconcile.New(e, logger).AlignedSentences(ctx, report.ArtifactPath, s)
	if err != nil {
		return bundle.Aligned{}, report, err
	}
	return aligned, report, nil
}

func alignOptions() alignment.Options {
	return alignment.Options{
		Index:        imageIndex,
		Model:        cfg.Alignment.Model,
		BatchSize:    cfg.Alignment.BatchSize,
		ExtraBatches: cfg.Alignment.ExtraBatches,
	}
}

// addAlignFlags registers the flags shared by align and run.
func addAlignFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&bookID, "book", "book", "Book identifier used in artifact and image names")
	f.StringVar(&imageIndex, "index", "0", "Suffix of the visualisation images")
	f.String("engine", "lingtrain", fmt.Sprintf("Alignment engine: %v", engine.Names()))
	f.String("model", engine.ModelMultilingual, "Embedding model passed to the engine")
	f.Int("batch-size", alignment.DefaultBatchSize, "Sentences per alignment batch")
	f.Int("extra-batches", alignment.DefaultExtraBatches, "Batches aligned beyond the text length")
	f.String("python", "python3", "Python interpreter for the lingtrain engine")

	bindKey(f, "engine", "alignment.engine")
	bindKey(f, "model", "alignment.model")
	bindKey(f, "batch-size", "alignment.batch_size")
	bindKey(f, "extra-batches", "alignment.extra_batches")
	bindKey(f, "python", "alignment.python")
}

func init() {
	rootCmd.AddCommand(alignCmd)

	f := alignCmd.Flags()
	f.StringVarP(&inputFile, "input", "i", "splitted.json", "Split bundle to align")
	f.StringVarP(&alignedOut, "output", "o", "aligned.json", "Output aligned bundle")
	f.StringVar(&lang1, "lang1", "auto", "Language code of text 1")
	f.StringVar(&lang2, "lang2", "auto", "Language code of text 2")
	addAlignFlags(alignCmd)
}
