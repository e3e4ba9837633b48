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
	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/bundle"
	"github.com/valpere/mojify/internal/splitter"
)

var (
	text1File string
	text2File string
	lang1     string
	lang2     string
	splitOut  string
	translate bool
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split two texts into sentences",
	Long: `Split two parallel texts into sentences and write them as a JSON bundle
that the translate and align commands read.

Split methods (split.method_from / split.method_to):
  - model   Punkt sentence-boundary model per language
  - rule    cut after a list of terminal marks`,
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
		s, err := splitter.SplitPair(
			splitter.Side{Text: text1, Lang: lang1, Method: m1},
			splitter.Side{Text: text2, Lang: lang2, Method: m2},
			logger)
		if err != nil {
			return err
		}

		if translate || cfg.Translation.Enabled {
			a, closeFn, err := openAdapter(false)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := a.Translate(ctx, s.To, lang2, lang1)
			if err != nil {
				logger.Warn("translation stopped early", zap.Error(err))
			}
			s.Translation = res.Sentences
			fmt.Fprintf(os.Stderr, "Translated %d/%d sentences (%.1f%%)\n", len(res.Sentences), res.Total, res.Percent())
		}

		if err := bundle.Save(splitOut, s); err != nil {
			return err
		}
		fmt.Printf("Split %d + %d sentences into %s\n", len(s.From), len(s.To), splitOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)

	f := splitCmd.Flags()
	f.StringVar(&text1File, "text1", "", "First text (required)")
	f.StringVar(&text2File, "text2", "", "Second text (required)")
	f.StringVar(&lang1, "lang1", "auto", "Language code of text 1")
	f.StringVar(&lang2, "lang2", "auto", "Language code of text 2")
	f.StringVarP(&splitOut, "output", "o", "splitted.json", "Output bundle")
	f.BoolVar(&translate, "translate", false, "Translate text 2 into the language of text 1")
	f.String("method1", splitter.MethodModel, "Split method of text 1")
	f.String("method2", splitter.MethodModel, "Split method of text 2")
	f.Bool("trim", false, "Strip whitespace around sentences")

	bindKey(f, "method1", "split.method_from")
	bindKey(f, "method2", "split.method_to")
	bindKey(f, "trim", "split.trim")

	splitCmd.MarkFlagRequired("text1")
	splitCmd.MarkFlagRequired("text2")
}
