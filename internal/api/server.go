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

// Package api exposes the grading session over a local HTTP interface.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gradeframe/gradeframe/internal/project"
)

// Server serves the grading API for one open folder.
type Server struct {
	store  *project.Store
	router *chi.Mux
}

// NewServer creates the API server around an open project store.
func NewServer(store *project.Store) *Server {
	s := &Server{store: store}
	s.setupRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/project", s.handleGetProject)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.handleAddTask)
			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
				r.Post("/select", s.handleSelectTask)
			})
		})

		r.Route("/stamps", func(r chi.Router) {
			r.Post("/", s.handleCreateStamp)
			r.Post("/{id}/select", s.handleSelectStamp)
		})

		r.Route("/selection", func(r chi.Router) {
			r.Post("/points", s.handleSelectPointValue)
			r.Delete("/", s.handleClearSelection)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/points", s.handleGetPoints)
				r.Post("/annotations", s.handleAddAnnotation)
				r.Put("/manual-points/{taskID}", s.handleSetManualPoints)
			})
		})

		r.Route("/annotations/{id}", func(r chi.Router) {
			r.Patch("/", s.handleUpdateAnnotation)
			r.Post("/move", s.handleMoveAnnotation)
			r.Delete("/", s.handleDeleteAnnotation)
		})

		r.Put("/points-table", s.handleSetPointsTable)
		r.Post("/export", s.handleExport)
		r.Get("/report", s.handleGetReport)
	})

	s.router = r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
