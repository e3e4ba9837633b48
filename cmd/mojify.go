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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/mojify/internal/bundle"
	"github.com/valpere/mojify/internal/markdown"
	"github.com/valpere/mojify/internal/mojify"
)

var (
	out1File      string
	out2File      string
	htmlFile      string
	keepEmojis    bool
	mojifyAligned string
)

var mojifyCmd = &cobra.Command{
	Use:   "mojify",
	Short: "Mark aligned sentences of two texts with emoji",
	Long: `Wrap every aligned sentence pair of an aligned bundle with the same emoji in
both texts. Sentences that are missing from a text, or occur in it more
than once, are left unmarked.

Existing palette emoji are removed first unless --keep-emojis is set, so
running the command twice gives the same result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var a bundle.Aligned
		if err := bundle.Load(mojifyAligned, &a); err != nil {
			return err
		}
		text1, err := readText(text1File)
		if err != nil {
			return err
		}
		text2, err := readText(text2File)
		if err != nil {
			return err
		}
		p, err := loadPalette()
		if err != nil {
			return err
		}

		m1, m2, rep := p.Mojify(text1, text2, a, !keepEmojis)
		if err := writeMojified(m1, m2, rep); err != nil {
			return err
		}
		return nil
	},
}

func writeMojified(text1, text2 string, rep mojify.Report) error {
	if err := writeText(out1File, text1); err != nil {
		return err
	}
	if err := writeText(out2File, text2); err != nil {
		return err
	}
	if htmlFile != "" {
		page, err := markdown.SideBySide(bookID,
			markdown.Column{Lang: lang1, Text: text1},
			markdown.Column{Lang: lang2, Text: text2})
		if err != nil {
			return err
		}
		if err := writeText(htmlFile, page); err != nil {
			return err
		}
	}

	fmt.Printf("Marked %d sentence pairs\n", rep.EmojisUsed)
	fmt.Printf("Progress: text 1 %.1f%%, text 2 %.1f%%\n", rep.Progress1, rep.Progress2)
	fmt.Printf("Written: %s\n", strings.Join(nonEmpty(out1File, out2File, htmlFile), ", "))
	return nil
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, s := range values {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// addOutputFlags registers the flags shared by mojify and run.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&out1File, "out1", "", "Mojified text 1 (required)")
	f.StringVar(&out2File, "out2", "", "Mojified text 2 (required)")
	f.StringVar(&htmlFile, "html", "", "Also write both texts side by side as HTML")
	f.BoolVar(&keepEmojis, "keep-emojis", false, "Do not remove palette emoji from the texts first")
	f.String("emojis", "", "Emoji palette file (built-in palette when empty)")

	bindKey(f, "emojis", "emojis")

	cmd.MarkFlagRequired("out1")
	cmd.MarkFlagRequired("out2")
}

func init() {
	rootCmd.AddCommand(mojifyCmd)

	f := mojifyCmd.Flags()
	f.StringVar(&text1File, "text1", "", "First text (required)")
	f.StringVar(&text2File, "text2", "", "Second text (required)")
	f.StringVarP(&mojifyAligned, "aligned", "a", "aligned.json", "Aligned bundle")
	f.StringVar(&lang1, "lang1", "", "Language of text 1, used in the HTML page")
	f.StringVar(&lang2, "lang2", "", "Language of text 2, used in the HTML page")
	f.StringVar(&bookID, "book", "", "Title of the HTML page")
	addOutputFlags(mojifyCmd)

	mojifyCmd.MarkFlagRequired("text1")
	mojifyCmd.MarkFlagRequired("text2")
}
