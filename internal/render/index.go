package render

import (
	_ "embed"
	"encoding/json"

	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/xeipuuv/gojsonschema"
)

// IndexPath is where the site index is written.
const IndexPath = "site.json"

//go:embed assets/site.schema.json
var indexSchema string

// Index is the machine-readable description of a rendered site.
type Index struct {
	Title string      `json:"title"`
	Pages []IndexPage `json:"pages"`
	Nav   []*NavItem  `json:"nav"`
}

// IndexPage describes one rendered page.
type IndexPage struct {
	ID       string            `json:"id"`
	Path     string            `json:"path"`
	Output   string            `json:"output"`
	Title    string            `json:"title"`
	Summary  string            `json:"summary,omitempty"`
	Listed   bool              `json:"listed"`
	Hash     string            `json:"hash"`
	Prev     string            `json:"prev,omitempty"`
	Next     string            `json:"next,omitempty"`
	Headings []doctree.Heading `json:"headings"`
}

// BuildIndex describes site in the site.json format.
func BuildIndex(site *Site) *Index {
	idx := &Index{Title: site.Title, Pages: make([]IndexPage, 0, len(site.Pages)), Nav: site.Nav}
	if idx.Nav == nil {
		idx.Nav = []*NavItem{}
	}
	for _, sp := range site.Pages {
		p := IndexPage{
			ID:       sp.ID,
			Path:     sp.Path,
			Output:   sp.Output,
			Title:    sp.Title,
			Summary:  Describe(sp),
			Listed:   sp.Listed,
			Hash:     sp.Page.Hash,
			Headings: sp.Page.Headings,
		}
		if p.Headings == nil {
			p.Headings = []doctree.Heading{}
		}
		if sp.Prev != nil {
			p.Prev = sp.Prev.Output
		}
		if sp.Next != nil {
			p.Next = sp.Next.Output
		}
		idx.Pages = append(idx.Pages, p)
	}
	return idx
}

// MarshalIndex encodes idx and checks the result against the site schema.
func MarshalIndex(idx *Index) ([]byte, error) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, &RenderError{Op: "encode", Path: IndexPath, Err: err}
	}
	if err := ValidateIndex(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ValidateIndex checks a site.json document against the embedded schema.
func ValidateIndex(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(indexSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &RenderError{Op: "validate", Path: IndexPath, Err: err}
	}
	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Errors = append(schemaErr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return schemaErr
}
