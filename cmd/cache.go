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

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation memory cache",
	Long: `List, inspect, and clear the sentence-level translation memory that
translate and run consult before calling a service.`,
}

// withStore runs fn against the configured database.
func withStore(fn func(ctx context.Context, db *store.Store) error) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(context.Background(), db)
}

func listMemory(ctx context.Context, db *store.Store) error {
	entries, err := db.ListMemory(ctx)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No entries in translation memory.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"ID", "Source", "Target", "Service", "Used", "Last used", "Invalid", "Text"})
	for _, e := range entries {
		tw.AppendRow(table.Row{
			e.ID, e.SourceLang, e.TargetLang, e.ServiceUsed,
			e.UsageCount, e.LastUsed.Format("2006-01-02 15:04"),
			e.Invalidated, snippet(e.SourceText, 40),
		})
	}
	tw.Render()
	return nil
}

func memoryStats(ctx context.Context, db *store.Store) error {
	s, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Translation memory")
	tw.AppendRows([]table.Row{
		{"Total entries", s.TotalEntries},
		{"Active entries", s.ActiveEntries},
		{"Invalid entries", s.InvalidEntries},
		{"Total usage", s.TotalUsage},
	})
	tw.Render()
	return nil
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(listMemory)
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(memoryStats)
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Stop serving a translation memory entry without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.Store) error {
			if err := db.InvalidateMemory(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to invalidate entry: %w", err)
			}
			fmt.Printf("Invalidated entry: %s\n", args[0])
			return nil
		})
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.Store) error {
			if err := db.DeleteMemory(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}
			fmt.Printf("Deleted entry: %s\n", args[0])
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.Store) error {
			n, err := db.ClearMemory(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Printf("Cleared %d entries from translation memory.\n", n)
			return nil
		})
	},
}

// snippet shortens s to at most n runes.
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheListCmd, cacheStatsCmd, cacheInvalidateCmd, cacheDeleteCmd, cacheClearCmd)
}
