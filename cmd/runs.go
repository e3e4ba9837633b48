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

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/valpere/mojify/internal/store"
)

var runsBook string

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List recorded alignment runs",
	Long:  `List the align and run invocations recorded in the database, or show one run in detail.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.Store) error {
			if len(args) == 1 {
				return showRun(ctx, db, args[0])
			}
			return listRuns(ctx, db)
		})
	},
}

func showRun(ctx context.Context, db *store.Store, id string) error {
	r, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendRows([]table.Row{
		{"ID", r.ID},
		{"Book", r.BookID},
		{"Languages", r.LangFrom + " / " + r.LangTo},
		{"Text 1 BLAKE3", r.Text1Hash},
		{"Text 2 BLAKE3", r.Text2Hash},
		{"Engine", r.Engine + " " + r.Model},
		{"Sentences", fmt.Sprintf("%d / %d (%d translated)", r.SentencesFrom, r.SentencesTo, r.Translated)},
		{"Batches", r.BatchCount},
		{"Passes", r.Passes},
		{"Conflicts", r.Conflicts},
		{"Emojis used", r.EmojisUsed},
		{"Progress", fmt.Sprintf("%.1f%% / %.1f%%", r.Progress1, r.Progress2)},
		{"Status", r.Status},
		{"Error", r.Error},
		{"Started", r.CreatedAt.Format("2006-01-02 15:04:05")},
	})
	tw.Render()
	return nil
}

func listRuns(ctx context.Context, db *store.Store) error {
	runs, err := db.ListRuns(ctx, runsBook)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"ID", "Book", "Langs", "Engine", "Passes", "Emojis", "Progress", "Status", "Started"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.ID, r.BookID, r.LangFrom + "-" + r.LangTo, r.Engine,
			r.Passes, r.EmojisUsed, fmt.Sprintf("%.1f%%", r.Progress1),
			r.Status, r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	tw.Render()
	return nil
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsBook, "book", "", "Only runs of this book")
}
