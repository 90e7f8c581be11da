package applications

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable writes view as a text table to w.
func RenderTable(w io.Writer, view ListView) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	header := make(table.Row, 0, len(view.Columns))
	for _, col := range view.Columns {
		header = append(header, col)
	}
	tw.AppendHeader(header)

	for _, row := range view.Rows {
		cells := make(table.Row, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		tw.AppendRow(cells)
	}

	tw.Render()
	fmt.Fprintf(w, "page %d of %d (%d total)\n", view.Page, view.Pages, view.Total)
}
