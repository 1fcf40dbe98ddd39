package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docbuild/internal/doctree"
)

// Format selects a report writer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or csv)", s)
	}
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	default:
		return WriteText(w, r)
	}
}

type textStyles struct {
	err, warn, loc, summary lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	re := lipgloss.NewRenderer(w)
	return textStyles{
		err:     re.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true),
		warn:    re.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		loc:     re.NewStyle().Bold(true),
		summary: re.NewStyle().Faint(true),
	}
}

// WriteText prints one line per issue, "severity path:line: message", then
// a summary count. Styling is dropped when w is not a terminal.
func WriteText(w io.Writer, r *Report) error {
	st := newTextStyles(w)
	for _, is := range r.Issues {
		sev := st.warn.Render(string(is.Severity))
		if is.Severity == doctree.SeverityError {
			sev = st.err.Render(string(is.Severity))
		}
		loc := is.Path
		if is.Line > 0 {
			loc = fmt.Sprintf("%s:%d", is.Path, is.Line)
		}
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", sev, st.loc.Render(loc), is.Message); err != nil {
			return err
		}
	}
	c := r.Counts()
	_, err := fmt.Fprintln(w, st.summary.Render(fmt.Sprintf("%s checked: %s, %s",
		plural(r.Pages, "page"), plural(c.Errors, "error"), plural(c.Warnings, "warning"))))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

type jsonReport struct {
	*Report
	Counts Counts `json:"counts"`
}

// WriteJSON encodes the report with its counts.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{Report: r, Counts: r.Counts()})
}

var csvHeader = []string{"severity", "path", "line", "offset", "message"}

// WriteCSV writes a header row then one row per issue.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, is := range r.Issues {
		row := []string{string(is.Severity), is.Path, strconv.Itoa(is.Line), strconv.Itoa(is.Offset), is.Message}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadCSV parses a report written by WriteCSV.
func ReadCSV(rd io.Reader) ([]doctree.Issue, error) {
	reader := csv.NewReader(rd)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// First row is headers.
	var issues []doctree.Issue
	for i, row := range records[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("parse csv: row %d has %d fields, want %d", i+2, len(row), len(csvHeader))
		}
		line, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("parse csv: row %d line: %w", i+2, err)
		}
		offset, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("parse csv: row %d offset: %w", i+2, err)
		}
		issues = append(issues, doctree.Issue{
			Severity: doctree.Severity(row[0]),
			Path:     row[1],
			Line:     line,
			Offset:   offset,
			Message:  row[4],
		})
	}
	return issues, nil
}
