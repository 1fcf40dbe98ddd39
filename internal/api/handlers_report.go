package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/docbuild/internal/pipeline"
	"github.com/dgallion1/docbuild/internal/report"
)

var reportContentTypes = map[report.Format]string{
	report.FormatText: "text/plain; charset=utf-8",
	report.FormatJSON: "application/json",
	report.FormatCSV:  "text/csv; charset=utf-8",
}

// handleReport validates the root synchronously. The format query parameter
// defaults to json.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := report.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	res, err := s.orchestrator.Runner().Validate(r.Context(), s.root)
	if err != nil {
		var rootErr *pipeline.RootError
		if errors.As(err, &rootErr) {
			s.log.Error("documentation root unavailable", "root", s.root, "error", err)
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		jsonError(w, "validation canceled: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	c := res.Report.Counts()
	w.Header().Set("Content-Type", reportContentTypes[format])
	w.Header().Set("X-Docbuild-Errors", strconv.Itoa(c.Errors))
	w.Header().Set("X-Docbuild-Warnings", strconv.Itoa(c.Warnings))
	w.WriteHeader(http.StatusOK)
	if err := report.Write(w, res.Report, format); err != nil {
		s.log.Warn("write report", "error", err)
	}
}
