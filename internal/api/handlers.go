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

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gradeframe/gradeframe/internal/export"
	"github.com/gradeframe/gradeframe/internal/grade"
	"github.com/gradeframe/gradeframe/internal/project"
	"github.com/gradeframe/gradeframe/internal/report"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handler

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Project handler

type projectResponse struct {
	Name        string                   `json:"name"`
	Tasks       []grade.Task             `json:"tasks"`
	Stamps      []grade.CommentStamp     `json:"stamps"`
	PointsTable *grade.PointsTableConfig `json:"pointsTable,omitempty"`
	Documents   []string                 `json:"documents"`
	Version     uint64                   `json:"version"`
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	docs, err := project.ListDocuments(s.store.Folder())
	if err != nil {
		slog.Error("failed to list documents", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list documents")
		return
	}

	cfg := s.store.Config()
	respondJSON(w, http.StatusOK, projectResponse{
		Name:        cfg.Name,
		Tasks:       cfg.Tasks,
		Stamps:      cfg.Stamps,
		PointsTable: cfg.PointsTable,
		Documents:   docs,
		Version:     s.store.Version(),
	})
}

// Task handlers

type addTaskRequest struct {
	Label     string  `json:"label"`
	MaxPoints float64 `json:"maxPoints"`
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Label == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "label is required")
		return
	}

	task := s.store.AddTask(req.Label, req.MaxPoints)
	respondJSON(w, http.StatusCreated, task)
}

type updateTaskRequest struct {
	Label     *string     `json:"label,omitempty"`
	MaxPoints *float64    `json:"maxPoints,omitempty"`
	Mode      *grade.Mode `json:"mode,omitempty"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Mode != nil {
		switch *req.Mode {
		case grade.Additive, grade.Subtractive, grade.Manual:
		default:
			respondError(w, http.StatusBadRequest, "validation_error", "unknown scoring mode")
			return
		}
	}

	task, err := s.store.UpdateTask(id, project.TaskUpdate{
		Label:     req.Label,
		MaxPoints: req.MaxPoints,
		Mode:      req.Mode,
	})
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		slog.Error("failed to update task", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update task")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteTask(id); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		slog.Error("failed to delete task", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleSelectTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.SelectTask(id); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to select task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Stamp and selection handlers

type createStampRequest struct {
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Points      float64    `json:"points"`
	Sign        grade.Sign `json:"sign"`
}

func (s *Server) handleCreateStamp(w http.ResponseWriter, r *http.Request) {
	var req createStampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Label == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "label is required")
		return
	}
	if req.Sign != grade.Positive && req.Sign != grade.Negative {
		respondError(w, http.StatusBadRequest, "validation_error", "sign must be positive or negative")
		return
	}

	stamp := s.store.CreateStamp(req.Label, req.Description, req.Points, req.Sign)
	respondJSON(w, http.StatusCreated, stamp)
}

func (s *Server) handleSelectStamp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.SelectStamp(id); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "stamp not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to select stamp")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

type selectPointsRequest struct {
	Points float64 `json:"points"`
}

func (s *Server) handleSelectPointValue(w http.ResponseWriter, r *http.Request) {
	var req selectPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s.store.SelectPointValue(req.Points)
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.store.ClearSelection()
	respondJSON(w, http.StatusOK, nil)
}

// Document handlers

type documentInfo struct {
	Filename    string             `json:"filename"`
	Annotations []grade.Annotation `json:"annotations"`
	Points      map[string]float64 `json:"points"`
	Total       float64            `json:"total"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := project.ListDocuments(s.store.Folder())
	if err != nil {
		slog.Error("failed to list documents", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list documents")
		return
	}

	cfg := s.store.Config()
	infos := make([]documentInfo, 0, len(docs))
	for _, name := range docs {
		g := cfg.Grading[name]
		anns := g.Annotations
		if anns == nil {
			anns = []grade.Annotation{}
		}
		infos = append(infos, documentInfo{
			Filename:    name,
			Annotations: anns,
			Points:      s.store.PointsForDocument(name),
			Total:       s.store.DocumentTotal(name),
		})
	}
	respondJSON(w, http.StatusOK, infos)
}

type pointsResponse struct {
	Points   map[string]float64 `json:"points"`
	Total    float64            `json:"total"`
	MaxTotal float64            `json:"maxTotal"`
}

func (s *Server) handleGetPoints(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	respondJSON(w, http.StatusOK, pointsResponse{
		Points:   s.store.PointsForDocument(name),
		Total:    s.store.DocumentTotal(name),
		MaxTotal: s.store.MaxTotal(),
	})
}

// Annotation handlers

type addAnnotationRequest struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func (s *Server) handleAddAnnotation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req addAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Page < 1 {
		respondError(w, http.StatusBadRequest, "validation_error", "page numbers start at 1")
		return
	}

	ann, ok := s.store.AddAnnotation(name, req.Page, req.X, req.Y)
	if !ok {
		respondError(w, http.StatusConflict, "no_selection", "no active task and stamp")
		return
	}
	respondJSON(w, http.StatusCreated, ann)
}

type updateAnnotationRequest struct {
	Label       *string  `json:"label,omitempty"`
	Description *string  `json:"description,omitempty"`
	Points      *float64 `json:"points,omitempty"`
}

func (s *Server) handleUpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ann, err := s.store.UpdateAnnotation(id, project.AnnotationUpdate{
		Label:       req.Label,
		Description: req.Description,
		Points:      req.Points,
	})
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "annotation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update annotation")
		return
	}
	respondJSON(w, http.StatusOK, ann)
}

type moveAnnotationRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleMoveAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req moveAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ann, err := s.store.MoveAnnotation(id, req.X, req.Y)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "annotation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to move annotation")
		return
	}
	respondJSON(w, http.StatusOK, ann)
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteAnnotation(id); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "annotation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete annotation")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Manual points and table placement

type manualPointsRequest struct {
	Value float64 `json:"value"`
}

func (s *Server) handleSetManualPoints(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	taskID := chi.URLParam(r, "taskID")

	var req manualPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	value, err := s.store.SetManualPoints(name, taskID, req.Value)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to set manual points")
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"value": value})
}

type pointsTableRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleSetPointsTable(w http.ResponseWriter, r *http.Request) {
	var req pointsTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	pt := s.store.SetPointsTable(req.X, req.Y, req.Scale)
	respondJSON(w, http.StatusOK, pt)
}

// Export and report handlers

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OutputFolder string `json:"outputFolder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	cfg := s.store.Config()
	if err := export.Folder(r.Context(), s.store.Folder(), req.OutputFolder, cfg); err != nil {
		slog.Error("export failed", "error", err)
		respondError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	outFolder := req.OutputFolder
	if outFolder == "" {
		outFolder = s.store.Folder()
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"outputDir": filepath.Join(outFolder, export.OutputDir),
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	docs, err := project.ListDocuments(s.store.Folder())
	if err != nil {
		slog.Error("failed to list documents", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list documents")
		return
	}

	cfg := s.store.Config()
	var reportDocs []report.Document
	for _, name := range docs {
		reportDocs = append(reportDocs, report.Document{
			Filename:    name,
			Annotations: cfg.Grading[name].Annotations,
		})
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(report.Build(cfg.Tasks, reportDocs))); err != nil {
		slog.Error("failed to write report", "error", err)
	}
}
