package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/dgallion1/docbuild/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type buildRequest struct {
	Docx  *bool `json:"docx"`
	Write bool  `json:"write"`
}

type buildStatus struct {
	pipeline.JobSnapshot
	Issues  []doctree.Issue `json:"issues,omitempty"`
	SiteURL string          `json:"site_url,omitempty"`
}

func (s *Server) handleCreateBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			jsonError(w, "invalid build request: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	docx := s.cfg.Docx
	if req.Docx != nil {
		docx = *req.Docx
	}
	var outDir string
	if req.Write {
		if s.outDir == "" {
			jsonError(w, "server has no output directory", http.StatusBadRequest)
			return
		}
		outDir = s.outDir
	}

	job := pipeline.NewJob(s.root, outDir, docx)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"build_id": job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": "/api/builds/" + job.ID,
	})
}

func (s *Server) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	buildID := chi.URLParam(r, "buildID")
	job := s.orchestrator.GetJob(buildID)
	if job == nil {
		jsonError(w, "build not found", http.StatusNotFound)
		return
	}

	resp := buildStatus{JobSnapshot: job.Snapshot()}
	if rep := job.Report(); rep != nil {
		resp.Issues = rep.Issues
	}
	if s.orchestrator.Latest() == job {
		resp.SiteURL = "/site/"
	}
	writeJSON(w, http.StatusOK, resp)
}
