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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"github.com/gradeframe/gradeframe/internal/grade"
)

func TestPageCoords(t *testing.T) {
	box := &pdf.Rectangle{URx: 600, URy: 800}
	cases := []struct {
		x, y   float64
		cx, cy float64
	}{
		{0, 0, 0, 800},
		{50, 0, 300, 800},
		{0, 100, 0, 0},
		{100, 100, 600, 0},
		{50, 50, 300, 400},
	}
	for _, c := range cases {
		cx, cy := pageCoords(box, c.x, c.y)
		if cx != c.cx || cy != c.cy {
			t.Errorf("pageCoords(%g, %g) = (%g, %g), want (%g, %g)",
				c.x, c.y, cx, cy, c.cx, c.cy)
		}
	}
}

func TestPageCoordsOffsetBox(t *testing.T) {
	box := &pdf.Rectangle{LLx: 10, LLy: 20, URx: 110, URy: 220}
	cx, cy := pageCoords(box, 50, 50)
	if cx != 60 || cy != 120 {
		t.Errorf("got (%g, %g), want (60, 120)", cx, cy)
	}
}

func TestBadgeText(t *testing.T) {
	cases := []struct {
		name   string
		ann    grade.Annotation
		expect string
	}{
		{
			name:   "point stamp keeps numeric label",
			ann:    grade.Annotation{Label: "+2", Points: 2, IsPointStamp: true},
			expect: "+2",
		},
		{
			name:   "comment stamp appends signed points",
			ann:    grade.Annotation{Label: "unclear", Points: -1},
			expect: "unclear -1P",
		},
		{
			name:   "zero points omit the value",
			ann:    grade.Annotation{Label: "see note", Points: 0},
			expect: "see note",
		},
		{
			name:   "numeric label not doubled",
			ann:    grade.Annotation{Label: "-0.5", Points: -0.5},
			expect: "-0.5",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := badgeText(c.ann); got != c.expect {
				t.Errorf("got %q, want %q", got, c.expect)
			}
		})
	}
}

func TestStyleFor(t *testing.T) {
	if styleFor(1) != positiveStyle {
		t.Error("positive points do not select the positive style")
	}
	if styleFor(-0.5) != negativeStyle {
		t.Error("negative points do not select the negative style")
	}
	if styleFor(0) != neutralStyle {
		t.Error("zero points do not select the neutral style")
	}
}

func TestBadgeRect(t *testing.T) {
	fonts := newFontSet()
	a := grade.Annotation{Label: "+1", Points: 1, IsPointStamp: true}

	rect := badgeRect(fonts, a, 100, 200)
	if rect.LLx >= rect.URx || rect.LLy >= rect.URy {
		t.Fatalf("degenerate badge rect %v", rect)
	}
	if cx := (rect.LLx + rect.URx) / 2; cx != 100 {
		t.Errorf("badge not centered horizontally: %g", cx)
	}
	if cy := (rect.LLy + rect.URy) / 2; cy != 200 {
		t.Errorf("badge not centered vertically: %g", cy)
	}

	note := noteRect(rect, 200)
	if note.LLx <= rect.URx {
		t.Error("note icon overlaps the badge")
	}
	if note.URx-note.LLx != noteSize || note.URy-note.LLy != noteSize {
		t.Errorf("note icon is %gx%g, want %gx%g",
			note.URx-note.LLx, note.URy-note.LLy, noteSize, noteSize)
	}
}

func TestLayoutTable(t *testing.T) {
	fonts := newFontSet()
	tasks := []grade.Task{
		{ID: "t1", Label: "Q1", MaxPoints: 10, Mode: grade.Additive},
		{ID: "t2", Label: "Q2", MaxPoints: 5, Mode: grade.Subtractive},
	}
	g := grade.PdfGrading{
		Annotations: []grade.Annotation{
			{TaskID: "t1", Points: 3},
			{TaskID: "t2", Points: -2},
		},
	}

	layout := layoutTable(fonts, tasks, g, 1)
	if n := len(layout.columns); n != 3 {
		t.Fatalf("got %d columns, want 3", n)
	}
	if v := layout.columns[0].value; v != "3" {
		t.Errorf("column 1 value %q, want %q", v, "3")
	}
	if v := layout.columns[1].value; v != "3" {
		t.Errorf("column 2 value %q, want %q", v, "3")
	}
	last := layout.columns[2]
	if last.header != "Σ" || last.value != "6/15" {
		t.Errorf("total column is %q/%q, want Σ/6-of-15", last.header, last.value)
	}
	for i, c := range layout.columns {
		if c.width <= 0 {
			t.Errorf("column %d has width %g", i, c.width)
		}
	}

	doubled := layoutTable(fonts, tasks, g, 2)
	if doubled.fontSize != 2*layout.fontSize || doubled.rowH != 2*layout.rowH {
		t.Error("scale factor not applied to font size and row height")
	}
}

// sourcePDF builds a small document with the given number of empty pages.
func sourcePDF(t *testing.T, numPages int) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	w, err := pdf.NewWriter(buf, pdf.V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	tree := pagetree.NewWriter(w)
	for i := 0; i < numPages; i++ {
		ref := w.Alloc()
		dict := pdf.Dict{
			"Type":     pdf.Name("Page"),
			"MediaBox": &pdf.Rectangle{URx: 600, URy: 800},
		}
		err = tree.AppendPageRef(ref, dict)
		if err != nil {
			t.Fatal(err)
		}
	}
	treeRef, err := tree.Close()
	if err != nil {
		t.Fatal(err)
	}
	w.GetMeta().Catalog.Pages = treeRef
	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAnnotateRoundTrip(t *testing.T) {
	src := sourcePDF(t, 2)
	job := &Job{
		Tasks: []grade.Task{
			{ID: "t1", Label: "Q1", MaxPoints: 10, Mode: grade.Additive},
		},
		Grading: grade.PdfGrading{
			Annotations: []grade.Annotation{
				{TaskID: "t1", Page: 1, X: 50, Y: 50, Points: -1,
					Label: "unclear", Description: "explain your reasoning"},
				{TaskID: "t1", Page: 2, X: 10, Y: 10, Points: 2,
					Label: "+2", IsPointStamp: true},
				{TaskID: "t1", Page: 99, X: 10, Y: 10, Points: 1, Label: "+1"},
			},
		},
		PointsTable: &grade.PointsTableConfig{X: 70, Y: 5, Scale: 1},
		Author:      "grader",
	}

	out := &bytes.Buffer{}
	err := Annotate(out, src, job)
	if err != nil {
		t.Fatal(err)
	}

	r, err := pdf.NewReader(bytes.NewReader(out.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	n, err := pagetree.NumPages(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("got %d pages, want 2", n)
	}

	_, page0, err := pagetree.GetPage(r, 0)
	if err != nil {
		t.Fatal(err)
	}
	annots, err := pdf.GetArray(r, page0["Annots"])
	if err != nil {
		t.Fatal(err)
	}
	if len(annots) != 1 {
		t.Fatalf("page 0 has %d annotations, want 1", len(annots))
	}
	noteDict, err := pdf.GetDict(r, annots[0])
	if err != nil {
		t.Fatal(err)
	}
	contents, _ := noteDict["Contents"].(pdf.String)
	if got := contents.AsTextString(); got != "explain your reasoning" {
		t.Errorf("note contents %q, want the bare description", got)
	}

	_, page1, err := pagetree.GetPage(r, 1)
	if err != nil {
		t.Fatal(err)
	}
	pieces, err := pdf.GetArray(r, page1["Contents"])
	if err != nil {
		t.Fatal(err)
	}
	if len(pieces) < 2 {
		t.Errorf("page 1 content not spliced: %d pieces", len(pieces))
	}
}

func TestAnnotatePassThrough(t *testing.T) {
	src := sourcePDF(t, 1)
	job := &Job{}

	out := &bytes.Buffer{}
	err := Annotate(out, src, job)
	if err != nil {
		t.Fatal(err)
	}

	r, err := pdf.NewReader(bytes.NewReader(out.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	n, err := pagetree.NumPages(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d pages, want 1", n)
	}
}

func TestFolderTargetFolder(t *testing.T) {
	src := t.TempDir()
	target := t.TempDir()
	err := os.WriteFile(filepath.Join(src, "alice.pdf"), sourcePDF(t, 1), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	err = Folder(context.Background(), src, target, grade.ProjectConfig{Name: "hw1"})
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"alice.pdf", ReportFilename} {
		if _, err := os.Stat(filepath.Join(target, OutputDir, name)); err != nil {
			t.Errorf("missing %s in the target folder: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(src, OutputDir)); !os.IsNotExist(err) {
		t.Error("graded/ was created in the source folder")
	}
}

func TestFolderDefaultOutput(t *testing.T) {
	src := t.TempDir()
	err := os.WriteFile(filepath.Join(src, "alice.pdf"), sourcePDF(t, 1), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	err = Folder(context.Background(), src, "", grade.ProjectConfig{Name: "hw1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(src, OutputDir, "alice.pdf")); err != nil {
		t.Errorf("annotated copy not next to the sources: %v", err)
	}
}
