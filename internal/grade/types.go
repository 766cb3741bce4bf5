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

// Package grade defines the grading data model and the points computation.
package grade

// Mode selects how the displayed points of a task are computed.
type Mode string

// The three scoring modes.
const (
	// Additive sums the positive annotation points of the task.
	Additive Mode = "additive"

	// Subtractive deducts the negative annotation points from the
	// task's maximum, with a floor at zero.
	Subtractive Mode = "subtractive"

	// Manual uses a directly entered value instead of annotations.
	Manual Mode = "manual"
)

// Sign marks a comment stamp as rewarding or penalising.
type Sign string

// The valid values of a [Sign] variable.
const (
	Positive Sign = "positive"
	Negative Sign = "negative"
)

// Task is a gradable rubric item.
type Task struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	MaxPoints float64 `json:"maxPoints"`
	Mode      Mode    `json:"mode"`
}

// CommentStamp is a reusable annotation template.  Stamps created while a
// task is active carry the task's id, so that they only appear in that
// task's palette.
type CommentStamp struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`
	Sign        Sign    `json:"sign"`
	TaskID      string  `json:"taskId,omitempty"`
}

// Annotation is a mark placed on a page of a document.
//
// Page counts from 1.  X and Y are percentages in the range 0 to 100,
// measured from the top-left corner of the page, independent of rendering
// scale.
type Annotation struct {
	ID           string  `json:"id"`
	TaskID       string  `json:"taskId"`
	StampID      string  `json:"stampId"`
	Page         int     `json:"page"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Points       float64 `json:"points"`
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	IsPointStamp bool    `json:"isPointStamp"`
}

// Kind distinguishes the two annotation variants.
type Kind int

const (
	// PointDelta is an anonymous signed point value without a stamp.
	PointDelta Kind = iota

	// CommentMark is a stamp-based mark with a label and description.
	CommentMark
)

// Kind returns the variant of the annotation.
func (a Annotation) Kind() Kind {
	if a.IsPointStamp {
		return PointDelta
	}
	return CommentMark
}

// PdfGrading bundles the grading state of a single document.
type PdfGrading struct {
	Annotations  []Annotation       `json:"annotations"`
	ManualPoints map[string]float64 `json:"manualPoints"`
}

// PointsTableConfig places the summary table overlay on the first page.
// X and Y are percentages of the page size, Scale is a multiplier in the
// range 0.5 to 3.0.
type PointsTableConfig struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// ProjectConfig is the root aggregate persisted as `.config.json` in the
// graded folder.  Grading maps document filenames to their grading state.
type ProjectConfig struct {
	Name        string                `json:"name"`
	Tasks       []Task                `json:"tasks"`
	Stamps      []CommentStamp        `json:"stamps"`
	Grading     map[string]PdfGrading `json:"grading"`
	PointsTable *PointsTableConfig    `json:"pointsTable,omitempty"`
}

// Normalize replaces nil collections with empty ones, so that configs
// written by older versions of the tool load cleanly.
func (c *ProjectConfig) Normalize() {
	if c.Name == "" {
		c.Name = "Untitled"
	}
	if c.Tasks == nil {
		c.Tasks = []Task{}
	}
	if c.Stamps == nil {
		c.Stamps = []CommentStamp{}
	}
	if c.Grading == nil {
		c.Grading = map[string]PdfGrading{}
	}
}

// Clone returns a deep copy of the config.
func (c ProjectConfig) Clone() ProjectConfig {
	res := c
	res.Tasks = append([]Task(nil), c.Tasks...)
	res.Stamps = append([]CommentStamp(nil), c.Stamps...)
	res.Grading = make(map[string]PdfGrading, len(c.Grading))
	for name, g := range c.Grading {
		gg := PdfGrading{
			Annotations:  append([]Annotation(nil), g.Annotations...),
			ManualPoints: make(map[string]float64, len(g.ManualPoints)),
		}
		for k, v := range g.ManualPoints {
			gg.ManualPoints[k] = v
		}
		res.Grading[name] = gg
	}
	if c.PointsTable != nil {
		pt := *c.PointsTable
		res.PointsTable = &pt
	}
	return res
}
