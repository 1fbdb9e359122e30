package ui

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	tableColumnSeparatorConstant = "  "
)

// ColumnAlignment selects the horizontal alignment of a table column.
type ColumnAlignment int

// Supported column alignments.
const (
	AlignDefault ColumnAlignment = iota
	AlignLeft
	AlignRight
)

// Table accumulates rows and renders them as aligned plain-text columns.
type Table struct {
	writer        table.Writer
	columnConfigs []table.ColumnConfig
}

// NewTable constructs a table with the provided column headers.
func NewTable(headers ...string) *Table {
	tableWriter := table.NewWriter()
	tableWriter.SetStyle(plainTableStyle())
	if len(headers) > 0 {
		headerRow := make(table.Row, len(headers))
		for headerIndex, header := range headers {
			headerRow[headerIndex] = header
		}
		tableWriter.AppendHeader(headerRow)
	}
	return &Table{writer: tableWriter}
}

// AppendRow adds one row of values.
func (renderedTable *Table) AppendRow(values ...any) {
	row := make(table.Row, len(values))
	copy(row, values)
	renderedTable.writer.AppendRow(row)
}

// AlignColumn sets the alignment of a 1-based column.
func (renderedTable *Table) AlignColumn(columnNumber int, alignment ColumnAlignment) {
	renderedTable.columnConfigs = append(renderedTable.columnConfigs, table.ColumnConfig{
		Number: columnNumber,
		Align:  toTextAlignment(alignment),
	})
	renderedTable.writer.SetColumnConfigs(renderedTable.columnConfigs)
}

// Len reports the number of data rows.
func (renderedTable *Table) Len() int {
	return renderedTable.writer.Length()
}

// Render returns the table text without a trailing newline.
func (renderedTable *Table) Render() string {
	return renderedTable.writer.Render()
}

func plainTableStyle() table.Style {
	style := table.StyleDefault
	style.Box.MiddleVertical = tableColumnSeparatorConstant
	style.Box.PaddingLeft = ""
	style.Box.PaddingRight = ""
	style.Format.Header = text.FormatDefault
	style.Options = table.Options{
		DrawBorder:      false,
		SeparateColumns: true,
		SeparateFooter:  false,
		SeparateHeader:  false,
		SeparateRows:    false,
	}
	return style
}

func toTextAlignment(alignment ColumnAlignment) text.Align {
	switch alignment {
	case AlignLeft:
		return text.AlignLeft
	case AlignRight:
		return text.AlignRight
	default:
		return text.AlignDefault
	}
}
