// gradeframe - annotate and grade PDF submissions
// Copyright (C) 2026  The gradeframe authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package export

import (
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/color"

	"github.com/gradeframe/gradeframe/internal/grade"
)

const (
	tableFontSize = 8.0
	tablePadX     = 4.0
	tablePadY     = 3.0
)

var (
	tableHeaderFill = color.DeviceRGB(0.937, 0.267, 0.267)
	tableValueFill  = color.DeviceGray(1)
	tableText       = color.DeviceRGB(0.937, 0.267, 0.267)
)

// tableColumn is one column of the summary table: the task label on top,
// the point value below.
type tableColumn struct {
	header string
	value  string
	width  float64
}

// tableLayout is the resolved geometry of the summary table at a given
// scale factor.
type tableLayout struct {
	columns  []tableColumn
	fontSize float64
	rowH     float64
}

// layoutTable computes the columns of the summary table: one per task plus
// a total column.  Column widths follow the wider of header and value.
func layoutTable(fonts *fontSet, tasks []grade.Task, g grade.PdfGrading, scale float64) tableLayout {
	fontSize := tableFontSize * scale
	padX := tablePadX * scale

	var columns []tableColumn
	for _, task := range tasks {
		columns = append(columns, tableColumn{
			header: task.Label,
			value:  grade.FormatPoints(grade.DisplayPoints(task, g)),
		})
	}
	columns = append(columns, tableColumn{
		header: "Σ",
		value: grade.FormatPoints(grade.DocumentTotal(tasks, g)) +
			"/" + grade.FormatPoints(grade.MaxTotal(tasks)),
	})

	for i := range columns {
		c := &columns[i]
		w := max(textWidth(fonts.bold, fontSize, c.header),
			textWidth(fonts.regular, fontSize, c.value))
		c.width = w + 2*padX
	}

	return tableLayout{
		columns:  columns,
		fontSize: fontSize,
		rowH:     fontSize + 2*tablePadY*scale,
	}
}

// totalWidth is the width of the whole table in PDF points.
func (t tableLayout) totalWidth() float64 {
	var w float64
	for _, c := range t.columns {
		w += c.width
	}
	return w
}

// drawTable paints the summary table with its top-left corner at (x, y).
// The header row has a red fill with white text, the value row is white
// with red text.
func drawTable(g *graphics.Writer, fonts *fontSet, t tableLayout, x, y float64) {
	scale := t.fontSize / tableFontSize
	padX := tablePadX * scale
	padY := tablePadY * scale
	desc := fonts.regular.GetGeometry().Descent * t.fontSize

	g.PushGraphicsState()
	g.SetStrokeColor(tableText)
	g.SetLineWidth(0.8 * scale)

	cx := x
	for _, col := range t.columns {
		// header cell
		g.SetFillColor(tableHeaderFill)
		g.Rectangle(cx, y-t.rowH, col.width, t.rowH)
		g.FillAndStroke()

		// value cell
		g.SetFillColor(tableValueFill)
		g.Rectangle(cx, y-2*t.rowH, col.width, t.rowH)
		g.FillAndStroke()

		g.TextBegin()
		g.TextSetFont(fonts.bold, t.fontSize)
		g.SetFillColor(white)
		g.TextFirstLine(cx+padX, y-t.rowH+padY-desc)
		g.TextShow(col.header)
		g.TextEnd()

		g.TextBegin()
		g.TextSetFont(fonts.regular, t.fontSize)
		g.SetFillColor(tableText)
		g.TextFirstLine(cx+padX, y-2*t.rowH+padY-desc)
		g.TextShow(col.value)
		g.TextEnd()

		cx += col.width
	}
	g.PopGraphicsState()
}
