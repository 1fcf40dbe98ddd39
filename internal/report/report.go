// Package report collects validation issues and writes them out.
package report

import (
	"sort"

	"github.com/dgallion1/docbuild/internal/doctree"
)

// Report is the outcome of one validation run.
type Report struct {
	Root   string          `json:"root"`
	Pages  int             `json:"pages"`
	Issues []doctree.Issue `json:"issues"`
}

// Counts summarizes a report by severity.
type Counts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// New returns an empty report for root.
func New(root string) *Report {
	return &Report{Root: root, Issues: []doctree.Issue{}}
}

// Add appends issues. Issues are values; callers keep their own copies.
func (r *Report) Add(issues ...doctree.Issue) {
	r.Issues = append(r.Issues, issues...)
}

// Sort orders issues by path, then offset. Manifest issues carry no offset,
// so line breaks ties before severity and message.
func (r *Report) Sort() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Severity != b.Severity {
			return a.Severity == doctree.SeverityError
		}
		return a.Message < b.Message
	})
}

// Counts tallies issues by severity.
func (r *Report) Counts() Counts {
	var c Counts
	for _, is := range r.Issues {
		switch is.Severity {
		case doctree.SeverityError:
			c.Errors++
		case doctree.SeverityWarning:
			c.Warnings++
		}
	}
	return c
}

// HasErrors reports whether any error-severity issue was recorded.
func (r *Report) HasErrors() bool {
	for _, is := range r.Issues {
		if is.Severity == doctree.SeverityError {
			return true
		}
	}
	return false
}

// Filter returns the issues with the given severity.
func (r *Report) Filter(sev doctree.Severity) []doctree.Issue {
	var out []doctree.Issue
	for _, is := range r.Issues {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}
