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

	"github.com/spf13/cobra"
)

var demojifyCmd = &cobra.Command{
	Use:   "demojify",
	Short: "Remove palette emoji from a text",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(inputFile)
		if err != nil {
			return err
		}
		p, err := loadPalette()
		if err != nil {
			return err
		}
		clean := p.Demojify(text)

		dst := outputFile
		if dst == "" {
			dst = inputFile
		}
		if err := writeText(dst, clean); err != nil {
			return err
		}
		fmt.Printf("Removed %d emoji from %s\n", len([]rune(text))-len([]rune(clean)), dst)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demojifyCmd)

	f := demojifyCmd.Flags()
	f.StringVarP(&inputFile, "input", "i", "", "Text to clean (required)")
	f.StringVarP(&outputFile, "output", "o", "", "Output text (default: overwrite input)")
	f.String("emojis", "", "Emoji palette file (built-in palette when empty)")
	bindKey(f, "emojis", "emojis")

	demojifyCmd.MarkFlagRequired("input")
}
