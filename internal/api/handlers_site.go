package api

import (
	"bytes"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSiteRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/site/", http.StatusMovedPermanently)
}

// handleSite serves files of the most recent completed build from memory.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.Latest()
	if job == nil || job.Output() == nil {
		jsonError(w, "no completed build yet; POST /api/builds first", http.StatusNotFound)
		return
	}
	out := job.Output()

	name := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
	switch {
	case name == "":
		name = "index.html"
	case strings.HasSuffix(r.URL.Path, "/"):
		name = path.Join(name, "index.html")
	}

	data, ok := out.Files[name]
	if !ok {
		// Directory index: redirect so relative links resolve.
		if _, isDir := out.Files[path.Join(name, "index.html")]; isDir {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		http.NotFound(w, r)
		return
	}

	snap := job.Snapshot()
	w.Header().Set("X-Docbuild-Build", snap.ID)
	http.ServeContent(w, r, name, snap.UpdatedAt, bytes.NewReader(data))
}
