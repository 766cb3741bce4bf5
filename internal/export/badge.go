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
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/standard"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/color"

	"github.com/gradeframe/gradeframe/internal/grade"
)

const (
	badgeFontSize = 8.0
	badgePadX     = 4.0
	badgePadY     = 3.0

	// side length of the comment icon rectangle, in PDF points
	noteSize = 16.0
	noteGap  = 4.0
)

// badgeStyle is the color scheme of one badge, as RGB triples.  The raw
// components are kept so that the sticky-note dictionaries can reuse them.
type badgeStyle struct {
	fill   [3]float64
	border [3]float64
}

var (
	positiveStyle = badgeStyle{
		fill:   [3]float64{0.16, 0.72, 0.42},
		border: [3]float64{0.10, 0.48, 0.28},
	}
	negativeStyle = badgeStyle{
		fill:   [3]float64{0.87, 0.25, 0.25},
		border: [3]float64{0.58, 0.15, 0.15},
	}
	neutralStyle = badgeStyle{
		fill:   [3]float64{0.55, 0.55, 0.55},
		border: [3]float64{0.38, 0.38, 0.38},
	}
	white = color.DeviceGray(1)
)

func rgb(c [3]float64) color.Color {
	return color.DeviceRGB(c[0], c[1], c[2])
}

// styleFor selects the badge colors from the point value.
func styleFor(points float64) badgeStyle {
	switch {
	case points > 0:
		return positiveStyle
	case points < 0:
		return negativeStyle
	default:
		return neutralStyle
	}
}

// badgeText is the string shown inside a badge.  Point deltas already carry
// a signed numeric label; comment marks get their point value appended
// unless the label is itself a bare number.
func badgeText(a grade.Annotation) string {
	if a.Kind() == grade.PointDelta || a.Points == 0 || grade.IsNumericLabel(a.Label) {
		return a.Label
	}
	return a.Label + " " + grade.FormatSigned(a.Points) + "P"
}

// fontSet bundles the two standard fonts used for overlays.
type fontSet struct {
	regular font.Layouter
	bold    font.Layouter
}

func newFontSet() *fontSet {
	return &fontSet{
		regular: standard.Helvetica.New(),
		bold:    standard.HelveticaBold.New(),
	}
}

// textWidth measures a string at the given size, in PDF points.
func textWidth(f font.Layouter, size float64, s string) float64 {
	return f.Layout(nil, size, s).TotalWidth()
}

// badgeRect computes the rectangle of a badge centered on (cx, cy).
func badgeRect(fonts *fontSet, a grade.Annotation, cx, cy float64) pdf.Rectangle {
	geom := fonts.bold.GetGeometry()
	asc := geom.Ascent * badgeFontSize
	desc := geom.Descent * badgeFontSize // negative
	w := textWidth(fonts.bold, badgeFontSize, badgeText(a)) + 2*badgePadX
	h := asc - desc + 2*badgePadY
	return pdf.Rectangle{
		LLx: cx - w/2,
		LLy: cy - h/2,
		URx: cx + w/2,
		URy: cy + h/2,
	}
}

// noteRect places the comment icon to the right of a badge.
func noteRect(badge pdf.Rectangle, cy float64) pdf.Rectangle {
	return pdf.Rectangle{
		LLx: badge.URx + noteGap,
		LLy: cy - noteSize/2,
		URx: badge.URx + noteGap + noteSize,
		URy: cy + noteSize/2,
	}
}

// drawBadge paints one badge into the overlay.
func drawBadge(g *graphics.Writer, fonts *fontSet, a grade.Annotation, rect pdf.Rectangle) {
	style := styleFor(a.Points)
	geom := fonts.bold.GetGeometry()
	desc := geom.Descent * badgeFontSize

	g.PushGraphicsState()
	g.SetFillColor(rgb(style.fill))
	g.SetStrokeColor(rgb(style.border))
	g.SetLineWidth(0.8)
	g.Rectangle(rect.LLx, rect.LLy, rect.URx-rect.LLx, rect.URy-rect.LLy)
	g.FillAndStroke()

	g.SetFillColor(white)
	g.TextBegin()
	g.TextSetFont(fonts.bold, badgeFontSize)
	g.TextFirstLine(rect.LLx+badgePadX, rect.LLy+badgePadY-desc)
	g.TextShow(badgeText(a))
	g.TextEnd()
	g.PopGraphicsState()
}
