package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// TextFormat names a plain-text attachment syntax.
type TextFormat string

const (
	FormatPlain TextFormat = "text"
	FormatCSV   TextFormat = "csv"
	FormatJSON  TextFormat = "json"
	FormatYAML  TextFormat = "yaml"
)

// TextChecker checks that linked text attachments are UTF-8 and, for
// structured formats, that they parse.
type TextChecker struct {
	Format TextFormat
}

// Check returns the number of lines, or records for CSV.
func (p *TextChecker) Check(data []byte) (int, error) {
	if !utf8.Valid(data) {
		return 0, errors.New("file is not valid UTF-8")
	}

	switch p.Format {
	case FormatCSV:
		reader := csv.NewReader(bytes.NewReader(data))
		reader.LazyQuotes = true
		reader.TrimLeadingSpace = true
		records, err := reader.ReadAll()
		if err != nil {
			return 0, fmt.Errorf("parse csv: %w", err)
		}
		return len(records), nil
	case FormatJSON:
		if !json.Valid(data) {
			return 0, errors.New("parse json: invalid document")
		}
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return 0, fmt.Errorf("parse yaml: %w", err)
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := 0
	for scanner.Scan() {
		lines++
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return lines, nil
}
