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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gradeframe/gradeframe/internal/grade"
	"github.com/gradeframe/gradeframe/internal/project"
	"github.com/gradeframe/gradeframe/internal/report"
)

// OutputDir is the subfolder receiving the annotated copies.
const OutputDir = "graded"

// ReportFilename is the name of the Markdown summary written next to the
// annotated copies.
const ReportFilename = "report.md"

// pause between documents, to keep the UI responsive during long exports
const interDocumentPause = 300 * time.Millisecond

// Folder exports every PDF of a folder into the graded/ subfolder of
// outFolder and writes the Markdown report.  An empty outFolder exports
// next to the source documents.  A document that cannot be annotated
// aborts the export; the files written so far are left in place.
func Folder(ctx context.Context, folder, outFolder string, cfg grade.ProjectConfig) error {
	docs, err := project.ListDocuments(folder)
	if err != nil {
		return err
	}

	if outFolder == "" {
		outFolder = folder
	}
	outDir := filepath.Join(outFolder, OutputDir)
	err = os.MkdirAll(outDir, 0o755)
	if err != nil {
		return fmt.Errorf("creating output folder: %w", err)
	}

	for i, name := range docs {
		if i > 0 {
			select {
			case <-time.After(interDocumentPause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		job := &Job{
			Tasks:       cfg.Tasks,
			Grading:     cfg.Grading[name],
			PointsTable: cfg.PointsTable,
			Author:      cfg.Name,
		}
		err := exportOne(filepath.Join(folder, name), filepath.Join(outDir, name), job)
		if err != nil {
			return fmt.Errorf("exporting %q: %w", name, err)
		}
		slog.Info("document exported",
			"document", name,
			"annotations", len(job.Grading.Annotations))
	}

	var reportDocs []report.Document
	for _, name := range docs {
		reportDocs = append(reportDocs, report.Document{
			Filename:    name,
			Annotations: cfg.Grading[name].Annotations,
		})
	}
	md := report.Build(cfg.Tasks, reportDocs)
	err = os.WriteFile(filepath.Join(outDir, ReportFilename), []byte(md), 0o644)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	slog.Info("export finished", "folder", folder, "output", outDir, "documents", len(docs))
	return nil
}

func exportOne(src, dst string, job *Job) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	err = Annotate(out, data, job)
	if err2 := out.Close(); err == nil {
		err = err2
	}
	if err != nil {
		os.Remove(dst)
	}
	return err
}
