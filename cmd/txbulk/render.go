package main

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// renderTable draws a rounded table for terminal output. rightAligned lists
// zero-based indexes of numeric columns; every other column stays
// left-aligned. Ragged rows are padded so summary tables can omit trailing
// cells.
func renderTable(headers []string, rows [][]string, rightAligned ...int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, name := range headers {
		header[i] = name
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, len(headers))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}

	if len(rightAligned) > 0 {
		configs := make([]table.ColumnConfig, 0, len(rightAligned))
		for _, index := range rightAligned {
			configs = append(configs, table.ColumnConfig{
				Number:      index + 1,
				Align:       text.AlignRight,
				AlignHeader: text.AlignLeft,
			})
		}
		tw.SetColumnConfigs(configs)
	}

	return tw.Render()
}

// writeJSON encodes v as indented JSON to the command's stdout. HTML escaping
// is disabled so download URLs come through verbatim.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
