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

// Package report renders the grading summary as Markdown.
package report

import (
	"strings"

	"github.com/gradeframe/gradeframe/internal/grade"
)

// Document pairs a filename with the annotations placed on it.
type Document struct {
	Filename    string
	Annotations []grade.Annotation
}

// Build renders one Markdown section per task, in task order.  Each section
// lists the matching annotations grouped by document, in the order the
// documents are given.  Tasks without any matching annotation get a
// placeholder line instead.
func Build(tasks []grade.Task, docs []Document) string {
	var b strings.Builder

	for i, task := range tasks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## ")
		b.WriteString(task.Label)
		b.WriteString(" (max ")
		b.WriteString(grade.FormatPoints(task.MaxPoints))
		b.WriteString(" P)\n")

		empty := true
		for _, doc := range docs {
			var lines []string
			for _, a := range doc.Annotations {
				if a.TaskID != task.ID {
					continue
				}
				lines = append(lines, annotationLine(a))
			}
			if len(lines) == 0 {
				continue
			}
			empty = false
			b.WriteString("\n### ")
			b.WriteString(doc.Filename)
			b.WriteString("\n\n")
			for _, l := range lines {
				b.WriteString(l)
				b.WriteString("\n")
			}
		}
		if empty {
			b.WriteString("\nNo comments.\n")
		}
	}

	return b.String()
}

// annotationLine renders one annotation as a list item.  Point deltas have
// a numeric label, so the separate signed value is redundant for them.
func annotationLine(a grade.Annotation) string {
	var b strings.Builder
	b.WriteString("- ")
	if a.Kind() == grade.PointDelta || grade.IsNumericLabel(a.Label) {
		b.WriteString(a.Label)
	} else {
		b.WriteString(a.Label)
		b.WriteString(" (")
		b.WriteString(grade.FormatSigned(a.Points))
		b.WriteString(")")
	}
	if a.Description != "" {
		b.WriteString(": ")
		b.WriteString(a.Description)
	}
	return b.String()
}
