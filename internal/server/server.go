// Package server exposes the underwriting tool over HTTP: the form page, the
// analyze endpoint, and the job status/result surface the processing page
// polls.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/propforma/underwrite/internal/deal"
	"github.com/propforma/underwrite/internal/jobs"
	"github.com/propforma/underwrite/internal/render"
	"github.com/propforma/underwrite/pkg/form"
)

const maxFormMemory = 10 << 20

// Server holds the request-serving state. The form model is swappable so the
// schema watcher can push reloaded models without a restart.
type Server struct {
	log    *zap.SugaredLogger
	engine *render.Engine
	store  *jobs.Store
	runner *jobs.Runner
	preset form.DemoPreset

	mu    sync.RWMutex
	model form.Model
}

// New wires a Server from its collaborators.
func New(log *zap.SugaredLogger, engine *render.Engine, store *jobs.Store, runner *jobs.Runner, model form.Model) *Server {
	return &Server{
		log:    log,
		engine: engine,
		store:  store,
		runner: runner,
		preset: form.DemoDeal(),
		model:  model,
	}
}

// SetModel swaps the form model served on subsequent requests.
func (s *Server) SetModel(model form.Model) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}

// Model returns the currently served form model.
func (s *Server) Model() form.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /processing/{job_id}", s.handleProcessing)
	mux.HandleFunc("GET /api/status/{job_id}", s.handleStatus)
	mux.HandleFunc("GET /results/{job_id}", s.handleResults)
	mux.HandleFunc("GET /api/results/{job_id}", s.handleResultsJSON)
	mux.HandleFunc("GET /api/download/{job_id}/{file_type}", s.handleDownload)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, http.StatusOK)
}

func (s *Server) renderIndex(w http.ResponseWriter, status int) {
	data, err := render.FormContext(s.Model(), s.preset)
	if err != nil {
		s.log.Errorw("build form context", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	page, err := s.engine.RenderTemplate("form", data)
	if err != nil {
		s.log.Errorw("render form page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := parseSubmission(r); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Invalid input: %v", err)})
		return
	}

	d := deal.ParseForm(r.Form)
	switch {
	case d.PurchasePrice <= 0:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Purchase price is required"})
		return
	case d.TotalUnits <= 0:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Number of units is required"})
		return
	case d.InPlaceRent <= 0:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "In-place rent is required"})
		return
	}

	jobID := s.store.Create(d)
	// The job outlives this request; the request context is cancelled as soon
	// as the handler returns.
	s.runner.Start(context.WithoutCancel(r.Context()), jobID, d)
	s.log.Infow("analysis accepted", "job", jobID, "address", d.Address)
	s.writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID})
}

// parseSubmission accepts both browser multipart posts and urlencoded forms,
// leaving the merged values in r.Form.
func parseSubmission(r *http.Request) error {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		contentType = ""
	}
	if strings.HasPrefix(contentType, "multipart/") {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

func (s *Server) handleProcessing(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if _, ok := s.store.Get(jobID); !ok {
		s.renderIndex(w, http.StatusNotFound)
		return
	}
	page, err := s.engine.RenderTemplate("processing", map[string]any{"job_id": jobID})
	if err != nil {
		s.log.Errorw("render processing page", "job", jobID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.store.Get(r.PathValue("job_id"))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
		return
	}
	resp := map[string]string{"status": string(job.Status)}
	if job.Status == jobs.StatusError {
		message := job.Message
		if message == "" {
			message = "Unknown error"
		}
		resp["message"] = message
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	job, ok := s.store.Get(jobID)
	if !ok {
		s.renderIndex(w, http.StatusNotFound)
		return
	}
	if job.Status != jobs.StatusComplete {
		s.handleProcessing(w, r)
		return
	}
	page, err := s.engine.RenderTemplate("results", map[string]any{
		"job_id":  jobID,
		"results": job.Results,
	})
	if err != nil {
		s.log.Errorw("render results page", "job", jobID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleResultsJSON(w http.ResponseWriter, r *http.Request) {
	job, ok := s.store.Get(r.PathValue("job_id"))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	if job.Status != jobs.StatusComplete {
		s.writeJSON(w, http.StatusAccepted, map[string]string{"status": string(job.Status)})
		return
	}
	s.writeJSON(w, http.StatusOK, job.Results)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	job, ok := s.store.Get(jobID)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}
	if job.Status != jobs.StatusComplete {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Analysis not complete"})
		return
	}

	var path, downloadName string
	switch r.PathValue("file_type") {
	case "excel":
		path = job.ExcelPath
		downloadName = fmt.Sprintf("underwriting_%s.xlsx", jobID)
	case "word":
		path = job.WordPath
		downloadName = fmt.Sprintf("investment_memo_%s.docx", jobID)
	}
	if path == "" {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	http.ServeFile(w, r, filepath.Clean(path))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Errorw("write json response", "error", err)
	}
}
