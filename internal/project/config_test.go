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

package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gradeframe/gradeframe/internal/grade"
)

func TestLoadConfigMissing(t *testing.T) {
	dir := t.TempDir()

	cfg := LoadConfig(dir)
	if cfg.Name != filepath.Base(dir) {
		t.Errorf("default name %q, want folder name %q", cfg.Name, filepath.Base(dir))
	}
	if cfg.Tasks == nil || cfg.Stamps == nil || cfg.Grading == nil {
		t.Error("default config has nil collections")
	}
}

func TestLoadConfigCorrupt(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte("{{{"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig(dir)
	if len(cfg.Tasks) != 0 {
		t.Error("corrupt config did not fall back to default")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := grade.ProjectConfig{
		Name: "exam",
		Tasks: []grade.Task{
			{ID: "t1", Label: "Q1", MaxPoints: 10, Mode: grade.Additive},
		},
		Stamps: []grade.CommentStamp{
			{ID: "s1", Label: "unclear", Points: -1, Sign: grade.Negative, TaskID: "t1"},
		},
		Grading: map[string]grade.PdfGrading{
			"alice.pdf": {
				Annotations: []grade.Annotation{
					{ID: "a1", TaskID: "t1", StampID: "s1", Page: 0,
						X: 10, Y: 20, Points: -1, Label: "unclear"},
				},
				ManualPoints: map[string]float64{},
			},
		},
		PointsTable: &grade.PointsTableConfig{X: 70, Y: 5, Scale: 1},
	}

	if err := SaveConfig(dir, cfg); err != nil {
		t.Fatal(err)
	}
	got := LoadConfig(dir)
	if d := cmp.Diff(cfg, got); d != "" {
		t.Errorf("config differs after round trip (-want +got):\n%s", d)
	}
}

func TestSaveConfigLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	if err := SaveConfig(dir, cfg); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != ConfigFilename {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected folder contents %v", names)
	}
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	files := []string{"b.pdf", "a.PDF", ".hidden.pdf", "notes.txt", ConfigFilename}
	for _, name := range files {
		err := os.WriteFile(filepath.Join(dir, name), nil, 0o644)
		if err != nil {
			t.Fatal(err)
		}
	}
	err := os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ListDocuments(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.PDF", "b.pdf"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("document list differs (-want +got):\n%s", d)
	}
}

func TestOpenMissingFolder(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no-such-folder"))
	if err == nil {
		t.Error("expected error for missing folder")
	}
}
