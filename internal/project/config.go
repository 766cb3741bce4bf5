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

// Package project owns the editing state of one graded folder: the project
// config, its persistence, and the mutation operations on annotations,
// stamps, tasks and manual points.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gradeframe/gradeframe/internal/grade"
)

// ConfigFilename is the name of the per-folder project file.
const ConfigFilename = ".config.json"

// DefaultConfig returns a fresh project named after the folder.
func DefaultConfig(folder string) grade.ProjectConfig {
	name := filepath.Base(filepath.Clean(folder))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "Untitled"
	}
	cfg := grade.ProjectConfig{Name: name}
	cfg.Normalize()
	return cfg
}

// LoadConfig reads the project config of a folder.  A missing or
// unparseable file yields a fresh default config; parse errors are logged
// but never surfaced as fatal.
func LoadConfig(folder string) grade.ProjectConfig {
	path := filepath.Join(folder, ConfigFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("cannot read project config", "path", path, "error", err)
		}
		return DefaultConfig(folder)
	}

	var cfg grade.ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("cannot parse project config, starting fresh",
			"path", path, "error", err)
		return DefaultConfig(folder)
	}
	cfg.Normalize()
	return cfg
}

// SaveConfig writes the whole project config, pretty-printed.  The write
// goes through a temporary file and a rename, so an interrupted save never
// truncates the previous config.
func SaveConfig(folder string, cfg grade.ProjectConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(folder, ConfigFilename)
	tmp, err := os.CreateTemp(folder, ConfigFilename+".*")
	if err != nil {
		return fmt.Errorf("saving project config: %w", err)
	}
	tmpName := tmp.Name()
	_, err = tmp.Write(data)
	if err2 := tmp.Close(); err == nil {
		err = err2
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving project config: %w", err)
	}
	return nil
}

// ListDocuments enumerates the PDF documents of a folder: direct entries
// whose name ends in ".pdf" (case-insensitive) and does not start with a
// dot, sorted lexicographically.
func ListDocuments(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", folder, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
