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

// Gradeframe annotates and grades folders of PDF submissions.
//
// Usage:
//
//	gradeframe serve [-addr host:port] folder
//	gradeframe export [-out folder] folder
//	gradeframe report folder
//	gradeframe ls folder
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gradeframe/gradeframe/internal/api"
	"github.com/gradeframe/gradeframe/internal/export"
	"github.com/gradeframe/gradeframe/internal/grade"
	"github.com/gradeframe/gradeframe/internal/project"
	"github.com/gradeframe/gradeframe/internal/report"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if os.Args[1] == "serve" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "report":
		err = runReport(os.Args[2:])
	case "ls":
		err = runList(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  gradeframe serve [-addr host:port] folder")
	fmt.Fprintln(os.Stderr, "  gradeframe export [-out folder] folder")
	fmt.Fprintln(os.Stderr, "  gradeframe report folder")
	fmt.Fprintln(os.Stderr, "  gradeframe ls folder")
}

func folderArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one folder argument")
	}
	return fs.Arg(0), nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:8417", "listen address")
	fs.Parse(args)

	folder, err := folderArg(fs)
	if err != nil {
		return err
	}

	store, err := project.Open(folder)
	if err != nil {
		return err
	}

	server := api.NewServer(store)
	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // exports can take a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr, "folder", folder)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "output folder (default: the project folder)")
	fs.Parse(args)

	folder, err := folderArg(fs)
	if err != nil {
		return err
	}

	cfg := project.LoadConfig(folder)
	return export.Folder(context.Background(), folder, *out, cfg)
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	fs.Parse(args)

	folder, err := folderArg(fs)
	if err != nil {
		return err
	}

	docs, err := project.ListDocuments(folder)
	if err != nil {
		return err
	}
	cfg := project.LoadConfig(folder)

	var reportDocs []report.Document
	for _, name := range docs {
		reportDocs = append(reportDocs, report.Document{
			Filename:    name,
			Annotations: cfg.Grading[name].Annotations,
		})
	}
	_, err = os.Stdout.WriteString(report.Build(cfg.Tasks, reportDocs))
	return err
}

func runList(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	fs.Parse(args)

	folder, err := folderArg(fs)
	if err != nil {
		return err
	}

	docs, err := project.ListDocuments(folder)
	if err != nil {
		return err
	}
	cfg := project.LoadConfig(folder)

	maxTotal := grade.MaxTotal(cfg.Tasks)
	for _, name := range docs {
		g := cfg.Grading[name]
		total := grade.DocumentTotal(cfg.Tasks, g)
		fmt.Printf("%-40s %6s / %s  (%d annotations)\n",
			name, grade.FormatPoints(total), grade.FormatPoints(maxTotal),
			len(g.Annotations))
	}
	return nil
}
