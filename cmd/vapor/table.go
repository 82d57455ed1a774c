package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"vapord/internal/journal"
)

// renderHistoryTable formats journal outcomes for the history command. The
// column set is fixed: numeric columns right-aligned, everything else left.
func renderHistoryTable(outcomes []journal.Outcome) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "USER", "QUERY", "STATUS", "ELAPSED", "WHEN", "REASON"})

	for _, outcome := range outcomes {
		tw.AppendRow(table.Row{
			strconv.FormatInt(outcome.ID, 10),
			outcome.Username,
			truncate(outcome.QueryText, 40),
			string(outcome.Status),
			fmt.Sprintf("%.1fs", outcome.ElapsedSeconds),
			humanize.Time(outcome.CreatedAt),
			truncate(outcome.Reason, 60),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func truncate(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}
