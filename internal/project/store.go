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
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/gradeframe/gradeframe/internal/grade"
)

// ErrNotFound is returned when an id does not match any task, stamp,
// annotation or document.
var ErrNotFound = errors.New("not found")

// SaveFunc persists one version of the project config.  Writes carry a
// monotonic version number; an implementation must never let a stale
// version overwrite a newer one.
type SaveFunc func(version uint64, cfg grade.ProjectConfig) error

// Selection is the stamp currently armed for placement.  A selection
// without a label places raw point stamps.
type Selection struct {
	StampID     string
	Points      float64
	Label       string
	Description string
}

// Store owns the mutable project state of one folder.  Every mutating
// operation bumps the version counter and triggers a write-through persist;
// persist failures are logged and the in-memory state is kept.
type Store struct {
	mu      sync.Mutex
	folder  string
	cfg     grade.ProjectConfig
	version uint64
	save    SaveFunc

	activeTaskID string
	selection    *Selection
}

// Open loads the project config of a folder and returns a store that
// persists into the folder's config file.
func Open(folder string) (*Store, error) {
	if _, err := ListDocuments(folder); err != nil {
		return nil, err
	}
	cfg := LoadConfig(folder)
	s := NewStore(folder, cfg, fileSaver(folder))
	return s, nil
}

// NewStore creates a store around an existing config.  The save function
// may be nil, in which case mutations are kept in memory only.
func NewStore(folder string, cfg grade.ProjectConfig, save SaveFunc) *Store {
	cfg.Normalize()
	s := &Store{folder: folder, cfg: cfg, save: save}
	if len(cfg.Tasks) > 0 {
		s.activeTaskID = cfg.Tasks[0].ID
	}
	return s
}

// fileSaver serializes writes to the folder's config file and drops writes
// that have been superseded by a newer version.
func fileSaver(folder string) SaveFunc {
	var mu sync.Mutex
	var written uint64
	return func(version uint64, cfg grade.ProjectConfig) error {
		mu.Lock()
		defer mu.Unlock()
		if version <= written {
			return nil
		}
		if err := SaveConfig(folder, cfg); err != nil {
			return err
		}
		written = version
		return nil
	}
}

// Folder returns the folder this store was opened on.
func (s *Store) Folder() string {
	return s.folder
}

// Config returns a deep copy of the current project config.
func (s *Store) Config() grade.ProjectConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Version returns the current mutation counter.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// persist must be called with the lock held, after the mutation.
func (s *Store) persist() {
	s.version++
	if s.save == nil {
		return
	}
	if err := s.save(s.version, s.cfg.Clone()); err != nil {
		slog.Error("cannot persist project config",
			"folder", s.folder, "version", s.version, "error", err)
	}
}

// AddTask appends a new task in additive mode and returns it.  The first
// task added becomes the active task.
func (s *Store) AddTask(label string, maxPoints float64) grade.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := grade.Task{
		ID:        uuid.NewString(),
		Label:     label,
		MaxPoints: max(0, maxPoints),
		Mode:      grade.Additive,
	}
	s.cfg.Tasks = append(s.cfg.Tasks, task)
	if s.activeTaskID == "" {
		s.activeTaskID = task.ID
	}
	s.persist()
	return task
}

// TaskUpdate describes a partial task change; nil fields are left alone.
type TaskUpdate struct {
	Label     *string
	MaxPoints *float64
	Mode      *grade.Mode
}

// UpdateTask applies a partial change to a task.  Switching a task into
// manual mode clears the active stamp selection.
func (s *Store) UpdateTask(id string, upd TaskUpdate) (grade.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cfg.Tasks {
		if s.cfg.Tasks[i].ID != id {
			continue
		}
		t := &s.cfg.Tasks[i]
		if upd.Label != nil {
			t.Label = *upd.Label
		}
		if upd.MaxPoints != nil {
			t.MaxPoints = max(0, *upd.MaxPoints)
		}
		if upd.Mode != nil {
			t.Mode = *upd.Mode
			if t.Mode == grade.Manual && id == s.activeTaskID {
				s.selection = nil
			}
		}
		s.persist()
		return *t, nil
	}
	return grade.Task{}, ErrNotFound
}

// DeleteTask removes a task.  Annotations referencing the task are kept;
// they no longer contribute to any total because no task matches them.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.cfg.Tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	s.cfg.Tasks = append(s.cfg.Tasks[:idx], s.cfg.Tasks[idx+1:]...)
	if s.activeTaskID == id {
		s.activeTaskID = ""
		if len(s.cfg.Tasks) > 0 {
			s.activeTaskID = s.cfg.Tasks[0].ID
		}
	}
	s.persist()
	return nil
}

// SelectTask makes a task the target for subsequent placements.
func (s *Store) SelectTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.cfg.Tasks {
		if t.ID == id {
			s.activeTaskID = id
			return nil
		}
	}
	return ErrNotFound
}

// ActiveTask returns the currently selected task.
func (s *Store) ActiveTask() (grade.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.cfg.Tasks {
		if t.ID == s.activeTaskID {
			return t, true
		}
	}
	return grade.Task{}, false
}

// CreateStamp adds a comment stamp to the palette and makes it the active
// selection.  The stored points are forced to agree with the sign, and the
// stamp is tagged with the active task, if any.
func (s *Store) CreateStamp(label, description string, points float64, sign grade.Sign) grade.CommentStamp {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := math.Abs(points)
	if sign == grade.Negative {
		p = -p
	}
	stamp := grade.CommentStamp{
		ID:          uuid.NewString(),
		Label:       label,
		Description: description,
		Points:      p,
		Sign:        sign,
		TaskID:      s.activeTaskID,
	}
	s.cfg.Stamps = append(s.cfg.Stamps, stamp)
	s.selection = &Selection{
		StampID:     stamp.ID,
		Points:      stamp.Points,
		Label:       stamp.Label,
		Description: stamp.Description,
	}
	s.persist()
	return stamp
}

// SelectStamp arms an existing comment stamp for placement.
func (s *Store) SelectStamp(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.cfg.Stamps {
		if st.ID == id {
			s.selection = &Selection{
				StampID:     st.ID,
				Points:      st.Points,
				Label:       st.Label,
				Description: st.Description,
			}
			return nil
		}
	}
	return ErrNotFound
}

// SelectPointValue arms a raw point value for placement.  Annotations
// placed from such a selection are point stamps: they carry no persistent
// label and reference no comment stamp.
func (s *Store) SelectPointValue(points float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = &Selection{Points: points}
}

// ClearSelection disarms the current stamp.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// ActiveSelection returns the armed stamp, if any.
func (s *Store) ActiveSelection() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return Selection{}, false
	}
	return *s.selection, true
}

func clampPercent(v float64) float64 {
	return min(100, max(0, v))
}

// AddAnnotation places the armed stamp on a page of a document.  When no
// task or no stamp is active the call is a no-op and the second return
// value is false.
func (s *Store) AddAnnotation(filename string, page int, x, y float64) (grade.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selection == nil || s.activeTaskID == "" || filename == "" {
		return grade.Annotation{}, false
	}

	sel := *s.selection
	label := sel.Label
	if label == "" {
		label = grade.FormatSigned(sel.Points)
	}
	ann := grade.Annotation{
		ID:           uuid.NewString(),
		TaskID:       s.activeTaskID,
		StampID:      sel.StampID,
		Page:         page,
		X:            clampPercent(x),
		Y:            clampPercent(y),
		Points:       sel.Points,
		Label:        label,
		Description:  sel.Description,
		IsPointStamp: sel.Label == "",
	}

	g := s.cfg.Grading[filename]
	if g.ManualPoints == nil {
		g.ManualPoints = map[string]float64{}
	}
	g.Annotations = append(g.Annotations, ann)
	s.cfg.Grading[filename] = g

	s.persist()
	return ann, true
}

// findAnnotation returns the document and index of an annotation.
// Must be called with the lock held.
func (s *Store) findAnnotation(id string) (string, int) {
	for filename, g := range s.cfg.Grading {
		for i, a := range g.Annotations {
			if a.ID == id {
				return filename, i
			}
		}
	}
	return "", -1
}

// stampInUse reports whether any annotation of any document references the
// stamp.  Must be called with the lock held.
func (s *Store) stampInUse(stampID string) bool {
	for _, g := range s.cfg.Grading {
		for _, a := range g.Annotations {
			if a.Kind() == grade.CommentMark && a.StampID == stampID {
				return true
			}
		}
	}
	return false
}

// DeleteAnnotation removes an annotation.  If it was the last reference to
// a comment stamp, the stamp is removed from the palette as well.  The
// stamp scan is linear in the total annotation count, which is small for a
// grading session.
func (s *Store) DeleteAnnotation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filename, idx := s.findAnnotation(id)
	if idx < 0 {
		return ErrNotFound
	}

	g := s.cfg.Grading[filename]
	removed := g.Annotations[idx]
	g.Annotations = append(g.Annotations[:idx], g.Annotations[idx+1:]...)
	s.cfg.Grading[filename] = g

	if removed.Kind() == grade.CommentMark && removed.StampID != "" && !s.stampInUse(removed.StampID) {
		for i, st := range s.cfg.Stamps {
			if st.ID == removed.StampID {
				s.cfg.Stamps = append(s.cfg.Stamps[:i], s.cfg.Stamps[i+1:]...)
				break
			}
		}
		if s.selection != nil && s.selection.StampID == removed.StampID {
			s.selection = nil
		}
	}

	s.persist()
	return nil
}

// MoveAnnotation updates the position of an annotation, clamping the
// coordinates into the 0 to 100 range.  All other fields are unchanged.
func (s *Store) MoveAnnotation(id string, x, y float64) (grade.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filename, idx := s.findAnnotation(id)
	if idx < 0 {
		return grade.Annotation{}, ErrNotFound
	}
	g := s.cfg.Grading[filename]
	g.Annotations[idx].X = clampPercent(x)
	g.Annotations[idx].Y = clampPercent(y)
	s.cfg.Grading[filename] = g

	s.persist()
	return g.Annotations[idx], nil
}

// AnnotationUpdate describes a partial annotation change; nil fields are
// left alone.  The stamp and task references and the point-stamp flag
// cannot be changed after placement.
type AnnotationUpdate struct {
	Label       *string
	Description *string
	Points      *float64
}

// UpdateAnnotation applies a partial change to an annotation.
func (s *Store) UpdateAnnotation(id string, upd AnnotationUpdate) (grade.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filename, idx := s.findAnnotation(id)
	if idx < 0 {
		return grade.Annotation{}, ErrNotFound
	}
	g := s.cfg.Grading[filename]
	a := &g.Annotations[idx]
	if upd.Label != nil {
		a.Label = *upd.Label
	}
	if upd.Description != nil {
		a.Description = *upd.Description
	}
	if upd.Points != nil {
		a.Points = *upd.Points
	}
	s.cfg.Grading[filename] = g

	s.persist()
	return *a, nil
}

// SetManualPoints stores a manual override for a task of a document,
// clamped into [0, maxPoints].  The clamped value is returned.
func (s *Store) SetManualPoints(filename, taskID string, value float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var task *grade.Task
	for i := range s.cfg.Tasks {
		if s.cfg.Tasks[i].ID == taskID {
			task = &s.cfg.Tasks[i]
			break
		}
	}
	if task == nil {
		return 0, ErrNotFound
	}

	v := min(task.MaxPoints, max(0, value))

	g := s.cfg.Grading[filename]
	if g.ManualPoints == nil {
		g.ManualPoints = map[string]float64{}
	}
	g.ManualPoints[taskID] = v
	s.cfg.Grading[filename] = g

	s.persist()
	return v, nil
}

// SetPointsTable places the summary table overlay.  The position is
// clamped into [0, 90] percent and the scale into [0.5, 3.0].
func (s *Store) SetPointsTable(x, y, scale float64) grade.PointsTableConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt := grade.PointsTableConfig{
		X:     min(90, max(0, x)),
		Y:     min(90, max(0, y)),
		Scale: min(3.0, max(0.5, scale)),
	}
	s.cfg.PointsTable = &pt

	s.persist()
	return pt
}

// PointsForDocument computes the displayed points per task id.
func (s *Store) PointsForDocument(filename string) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.cfg.Grading[filename]
	res := make(map[string]float64, len(s.cfg.Tasks))
	for _, t := range s.cfg.Tasks {
		res[t.ID] = grade.DisplayPoints(t, g)
	}
	return res
}

// DocumentTotal computes the displayed total of a document.
func (s *Store) DocumentTotal(filename string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return grade.DocumentTotal(s.cfg.Tasks, s.cfg.Grading[filename])
}

// MaxTotal is the sum of the task maxima.
func (s *Store) MaxTotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return grade.MaxTotal(s.cfg.Tasks)
}
