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

	"github.com/valpere/mojify/internal/bundle"
	"github.com/valpere/mojify/internal/translator"
)

var (
	inputFile  string
	outputFile string
	noCache    bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the second text of a split bundle",
	Long: `Translate the sentences of text 2 in a split bundle into the language of
text 1, one sentence at a time. Alignment then runs against the translation.

Translation stops at the first quota notice of the service; the translated
prefix is kept.

Available services:
  - mymemory  MyMemory (free, daily quota)
  - google    Google Cloud Translation (requires credentials)
  - ollama    Ollama LLM (self-hosted)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		var s bundle.Splitted
		if err := bundle.Load(inputFile, &s); err != nil {
			return err
		}
		if lang1 == "auto" || lang2 == "auto" {
			return fmt.Errorf("--lang1 and --lang2 are required to translate")
		}

		ctx := context.Background()

		a, closeFn, err := openAdapter(noCache)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := a.Translate(ctx, s.To, lang2, lang1)
		s.Translation = res.Sentences
		if res.QuotaHit {
			fmt.Fprintf(os.Stderr, "Service quota exhausted: %s\n", res.Notice)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Translation stopped early: %v\n", err)
		}

		if err := bundle.Save(outputFile, s); err != nil {
			return err
		}
		fmt.Printf("Translated %d/%d sentences %s to %s (%.1f%%)\n",
			len(res.Sentences), res.Total, lang2, lang1, res.Percent())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	f := translateCmd.Flags()
	f.StringVarP(&inputFile, "input", "i", "", "Split bundle to translate (required)")
	f.StringVarP(&outputFile, "output", "o", "", "Output bundle (required)")
	f.StringVar(&lang1, "lang1", "auto", "Language of text 1, the translation target")
	f.StringVar(&lang2, "lang2", "auto", "Language of text 2, the translation source")
	f.BoolVar(&noCache, "no-cache", false, "Disable translation memory cache")

	f.String("service", "mymemory", fmt.Sprintf("Translation service: %v", translator.Names))
	f.Int("workers", 1, "Sentences translated concurrently")
	f.String("credentials", "", "Path to Google Cloud credentials")
	f.String("project", "", "Google Cloud Project ID")
	f.String("mymemory-email", "", "MyMemory email (for higher limits)")
	f.String("ollama-url", "", "Ollama base URL")
	f.String("ollama-model", "", "Ollama model")

	bindKey(f, "service", "translation.service")
	bindKey(f, "workers", "translation.workers")
	bindKey(f, "credentials", "translation.credentials")
	bindKey(f, "project", "translation.project_id")
	bindKey(f, "mymemory-email", "translation.email")
	bindKey(f, "ollama-url", "translation.base_url")
	bindKey(f, "ollama-model", "translation.model")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
}
