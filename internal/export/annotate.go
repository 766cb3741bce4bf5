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

// Package export burns grading annotations into PDF documents.
//
// The pages of the source document are copied unchanged; badges and the
// summary table are drawn into a form XObject which is painted on top,
// and descriptions become native text annotations that viewers show as
// comment pop-ups.
package export

import (
	"bytes"
	"fmt"
	"io"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/pagetree"
	"seehuhn.de/go/pdf/pdfcopy"

	"github.com/gradeframe/gradeframe/internal/grade"
)

// letter-sized fallback for pages without a MediaBox
var defaultMediaBox = pdf.Rectangle{URx: 612, URy: 792}

// annotation flag bits, PDF 32000-1 table 165
const (
	annotFlagPrint    = 1 << 2
	annotFlagNoZoom   = 1 << 3
	annotFlagNoRotate = 1 << 4
)

// Job describes the grading state burned into one document.
type Job struct {
	Tasks       []grade.Task
	Grading     grade.PdfGrading
	PointsTable *grade.PointsTableConfig
	Author      string
}

// Annotate copies the document src to out, overlaying badges on every
// annotated page and, if configured, the summary table on the first page.
// Annotations whose page number is out of range are skipped.
func Annotate(out io.Writer, src []byte, job *Job) error {
	r, err := pdf.NewReader(bytes.NewReader(src), nil)
	if err != nil {
		return fmt.Errorf("reading source document: %w", err)
	}

	ver := r.GetMeta().Version
	if ver < pdf.V1_7 {
		ver = pdf.V1_7
	}
	w, err := pdf.NewWriter(out, ver, nil)
	if err != nil {
		return err
	}
	rm := pdf.NewResourceManager(w)
	copier := pdfcopy.NewCopier(w, r)
	tree := pagetree.NewWriter(w)

	numPages, err := pagetree.NumPages(r)
	if err != nil {
		return fmt.Errorf("reading page tree: %w", err)
	}

	// annotation pages count from 1
	byPage := make(map[int][]grade.Annotation)
	for _, a := range job.Grading.Annotations {
		if a.Page < 1 || a.Page > numPages {
			continue
		}
		byPage[a.Page-1] = append(byPage[a.Page-1], a)
	}

	fonts := newFontSet()

	for pageNo := 0; pageNo < numPages; pageNo++ {
		_, orig, err := pagetree.GetPage(r, pageNo)
		if err != nil {
			return fmt.Errorf("reading page %d: %w", pageNo, err)
		}
		dict, err := copier.CopyDict(orig)
		if err != nil {
			return fmt.Errorf("copying page %d: %w", pageNo, err)
		}
		delete(dict, "Parent")

		anns := byPage[pageNo]
		withTable := pageNo == 0 && job.PointsTable != nil && len(job.Tasks) > 0
		if len(anns) > 0 || withTable {
			err = overlayPage(r, w, rm, copier, fonts, job, orig, dict, anns, withTable)
			if err != nil {
				return fmt.Errorf("annotating page %d: %w", pageNo, err)
			}
		}

		ref := w.Alloc()
		err = tree.AppendPageRef(ref, dict)
		if err != nil {
			return err
		}
	}

	treeRef, err := tree.Close()
	if err != nil {
		return err
	}
	w.GetMeta().Catalog.Pages = treeRef

	err = rm.Close()
	if err != nil {
		return err
	}
	return w.Close()
}

// pageCoords maps screen percentages, measured from the top-left corner of
// the page, to PDF user space coordinates inside the media box.
func pageCoords(box *pdf.Rectangle, x, y float64) (float64, float64) {
	w := box.URx - box.LLx
	h := box.URy - box.LLy
	return box.LLx + x/100*w, box.LLy + h - y/100*h
}

// overlayPage draws the badges and the table for one page and splices the
// overlay into the copied page dict.  The original content stream is
// bracketed in q/Q so that the overlay starts from a clean graphics state.
func overlayPage(r *pdf.Reader, w *pdf.Writer, rm *pdf.ResourceManager, copier *pdfcopy.Copier, fonts *fontSet, job *Job, orig, dict pdf.Dict, anns []grade.Annotation, withTable bool) error {
	box, err := pdf.GetRectangle(r, orig["MediaBox"])
	if err != nil {
		return err
	}
	if box == nil {
		box = &defaultMediaBox
	}

	// draw the overlay content
	buf := &bytes.Buffer{}
	g := graphics.NewWriter(buf, rm)

	type note struct {
		rect pdf.Rectangle
		ann  grade.Annotation
	}
	var notes []note
	for _, a := range anns {
		cx, cy := pageCoords(box, a.X, a.Y)
		rect := badgeRect(fonts, a, cx, cy)
		drawBadge(g, fonts, a, rect)
		if a.Description != "" {
			notes = append(notes, note{rect: noteRect(rect, cy), ann: a})
		}
	}
	if withTable {
		layout := layoutTable(fonts, job.Tasks, job.Grading, job.PointsTable.Scale)
		x, y := pageCoords(box, job.PointsTable.X, job.PointsTable.Y)
		drawTable(g, fonts, layout, x, y)
	}
	if g.Err != nil {
		return g.Err
	}

	// embed the overlay as a form XObject
	formRef := w.Alloc()
	formDict := pdf.Dict{
		"Type":      pdf.Name("XObject"),
		"Subtype":   pdf.Name("Form"),
		"BBox":      box,
		"Resources": pdf.AsDict(g.Resources),
	}
	stm, err := w.OpenStream(formRef, formDict, pdf.FilterCompress{})
	if err != nil {
		return err
	}
	_, err = stm.Write(buf.Bytes())
	if err != nil {
		return err
	}
	err = stm.Close()
	if err != nil {
		return err
	}

	name, err := registerXObject(r, copier, dict, orig, formRef)
	if err != nil {
		return err
	}

	err = spliceContents(r, w, copier, dict, orig, name)
	if err != nil {
		return err
	}

	// native comment pop-ups for the descriptions
	annots, err := copiedAnnots(r, copier, orig)
	if err != nil {
		return err
	}
	for _, n := range notes {
		style := styleFor(n.ann.Points)
		rect := n.rect
		text := pdf.Dict{
			"Type":     pdf.Name("Annot"),
			"Subtype":  pdf.Name("Text"),
			"Rect":     &rect,
			"Contents": pdf.TextString(n.ann.Description),
			"Name":     pdf.Name("Comment"),
			"C": pdf.Array{
				pdf.Real(style.fill[0]),
				pdf.Real(style.fill[1]),
				pdf.Real(style.fill[2]),
			},
			"F": pdf.Integer(annotFlagPrint | annotFlagNoZoom | annotFlagNoRotate),
		}
		if job.Author != "" {
			text["T"] = pdf.TextString(job.Author)
		}
		ref := w.Alloc()
		err = w.Put(ref, text)
		if err != nil {
			return err
		}
		annots = append(annots, ref)
	}
	if len(annots) > 0 {
		dict["Annots"] = annots
	}
	return nil
}

// registerXObject makes the overlay form available under a fresh name in
// the page's resource dictionary.  Resources are re-resolved from the
// source document because the copied dict may hold them behind an
// indirect reference.
func registerXObject(r *pdf.Reader, copier *pdfcopy.Copier, dict, orig pdf.Dict, formRef pdf.Reference) (pdf.Name, error) {
	origRes, err := pdf.GetDict(r, orig["Resources"])
	if err != nil {
		return "", err
	}
	res, err := copier.CopyDict(origRes)
	if err != nil {
		return "", err
	}
	if res == nil {
		res = pdf.Dict{}
	}

	origX, err := pdf.GetDict(r, origRes["XObject"])
	if err != nil {
		return "", err
	}
	xdict, err := copier.CopyDict(origX)
	if err != nil {
		return "", err
	}
	if xdict == nil {
		xdict = pdf.Dict{}
	}

	name := pdf.Name("GFov")
	for i := 0; ; i++ {
		if _, used := xdict[name]; !used {
			break
		}
		name = pdf.Name(fmt.Sprintf("GFov%d", i))
	}
	xdict[name] = formRef
	res["XObject"] = xdict
	dict["Resources"] = res
	return name, nil
}

// spliceContents rebuilds the page's content array as
// [prefix, original streams..., suffix], where the prefix saves the
// graphics state, and the suffix restores it and paints the overlay.
func spliceContents(r *pdf.Reader, w *pdf.Writer, copier *pdfcopy.Copier, dict, orig pdf.Dict, name pdf.Name) error {
	var middle pdf.Array
	if c := orig["Contents"]; c != nil {
		resolved, err := pdf.Resolve(r, c)
		if err != nil {
			return err
		}
		switch obj := resolved.(type) {
		case pdf.Array:
			middle, err = copier.CopyArray(obj)
			if err != nil {
				return err
			}
		case *pdf.Stream:
			if ref, isRef := c.(pdf.Reference); isRef {
				copied, err := copier.Copy(ref)
				if err != nil {
					return err
				}
				middle = pdf.Array{copied}
			}
		}
	}

	prefixRef, err := writeContentPiece(w, "q\n")
	if err != nil {
		return err
	}
	suffix := "Q\nq\n/" + string(name) + " Do\nQ\n"
	suffixRef, err := writeContentPiece(w, suffix)
	if err != nil {
		return err
	}

	contents := pdf.Array{prefixRef}
	contents = append(contents, middle...)
	contents = append(contents, suffixRef)
	dict["Contents"] = contents
	return nil
}

func writeContentPiece(w *pdf.Writer, body string) (pdf.Reference, error) {
	ref := w.Alloc()
	stm, err := w.OpenStream(ref, nil, pdf.FilterCompress{})
	if err != nil {
		return 0, err
	}
	_, err = io.WriteString(stm, body)
	if err != nil {
		return 0, err
	}
	return ref, stm.Close()
}

// copiedAnnots carries the pre-existing annotations of a page over into
// the output file.
func copiedAnnots(r *pdf.Reader, copier *pdfcopy.Copier, orig pdf.Dict) (pdf.Array, error) {
	arr, err := pdf.GetArray(r, orig["Annots"])
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return nil, nil
	}
	return copier.CopyArray(arr)
}
