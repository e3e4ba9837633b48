package alignment

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/valpere/mojify/internal/engine"
)

// StatsTable renders conflict counts per conflict length.
func StatsTable(title string, s engine.Stats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Length", "Conflicts"})
	for _, l := range s.Lengths() {
		tw.AppendRow(table.Row{strconv.Itoa(l), strconv.Itoa(s.ByLength[l])})
	}
	tw.AppendFooter(table.Row{"Total", strconv.Itoa(s.Total)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
