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

	"github.com/spf13/cobra"

	"github.com/valpere/mojify/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Split, align and mojify two texts in one go",
	Long: `Run the whole chain for one book: split both texts, optionally translate
text 2 into the language of text 1, align, and mark the aligned sentence
pairs of both texts with emoji.

Every run is recorded in the database; see "mojify runs".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		text1, err := readText(text1File)
		if err != nil {
			return err
		}
		text2, err := readText(text2File)
		if err != nil {
			return err
		}
		if lang1, err = resolveLang(lang1, text1, "text 1"); err != nil {
			return err
		}
		if lang2, err = resolveLang(lang2, text2, "text 2"); err != nil {
			return err
		}

		m1, m2, err := splitMethods()
		if err != nil {
			return err
		}
		e, err := openEngine()
		if err != nil {
			return err
		}
		palette, err := loadPalette()
		if err != nil {
			return err
		}
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		p := &pipeline.Pipeline{
			Engine:  e,
			Palette: palette,
			WorkDir: cfg.WorkDir,
			Ledger:  db,
			Logger:  logger,
			Stats:   os.Stderr,
		}
		doTranslate := translate || cfg.Translation.Enabled
		if doTranslate {
			if p.Translator, err = buildAdapter(cacheFor(db)); err != nil {
				return err
			}
			p.Verifier = languageDetector()
		}

		out, err := p.Run(ctx, pipeline.Input{
			BookID:        bookID,
			Text1:         text1,
			Text2:         text2,
			Lang1:         lang1,
			Lang2:         lang2,
			Split1:        m1,
			Split2:        m2,
			Translate:     doTranslate,
			Align:         alignOptions(),
			DemojifyFirst: !keepEmojis,
		})
		if err != nil {
			if out != nil {
				fmt.Fprintf(os.Stderr, "Run %s failed\n", out.RunID)
			}
			return err
		}

		if out.Translation != nil {
			fmt.Printf("Translated %d/%d sentences (%.1f%%)\n",
				len(out.Translation.Sentences), out.Translation.Total, out.Translation.Percent())
		}
		fmt.Printf("Run %s: %d sentence pairs aligned in %d passes\n",
			out.RunID, out.Aligned.Len(), out.Alignment.Passes)
		return writeMojified(out.Text1, out.Text2, out.Mojify)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVar(&text1File, "text1", "", "First text (required)")
	f.StringVar(&text2File, "text2", "", "Second text (required)")
	f.StringVar(&lang1, "lang1", "auto", "Language code of text 1")
	f.StringVar(&lang2, "lang2", "auto", "Language code of text 2")
	f.BoolVar(&translate, "translate", false, "Align through a translation of text 2 into the language of text 1")
	f.BoolVar(&noCache, "no-cache", false, "Disable translation memory cache")
	f.String("method1", "model", "Split method of text 1")
	f.String("method2", "model", "Split method of text 2")
	f.String("service", "mymemory", "Translation service")

	bindKey(f, "method1", "split.method_from")
	bindKey(f, "method2", "split.method_to")
	bindKey(f, "service", "translation.service")

	addAlignFlags(runCmd)
	addOutputFlags(runCmd)

	runCmd.MarkFlagRequired("text1")
	runCmd.MarkFlagRequired("text2")
}
