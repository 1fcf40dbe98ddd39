package directive

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docbuild/internal/doctree"
)

// Class describes how a directive kind is terminated.
type Class int

const (
	// Block directives must be closed by a matching end tag.
	Block Class = iota
	// OptionalEnd directives may be closed by an end tag; otherwise they
	// behave as self-closing and hold no nested directives.
	OptionalEnd
	// SelfClosing directives never take an end tag.
	SelfClosing
)

var vocabulary = map[doctree.DirectiveKind]Class{
	doctree.KindHint:       Block,
	doctree.KindCode:       Block,
	doctree.KindTabs:       Block,
	doctree.KindTab:        Block,
	doctree.KindStepper:    Block,
	doctree.KindStep:       Block,
	doctree.KindColumns:    Block,
	doctree.KindColumn:     Block,
	doctree.KindContentRef: Block,
	doctree.KindEmbed:      OptionalEnd,
	doctree.KindFile:       OptionalEnd,
	doctree.KindInclude:    SelfClosing,
}

// ClassOf returns the class of kind and whether the kind is known.
// Unknown kinds are treated as OptionalEnd.
func ClassOf(kind doctree.DirectiveKind) (Class, bool) {
	c, ok := vocabulary[kind]
	if !ok {
		return OptionalEnd, false
	}
	return c, true
}

// requiredParent maps a kind to the kind that must directly contain it.
var requiredParent = map[doctree.DirectiveKind]doctree.DirectiveKind{
	doctree.KindTab:    doctree.KindTabs,
	doctree.KindStep:   doctree.KindStepper,
	doctree.KindColumn: doctree.KindColumns,
}

var (
	hintStyles    = []string{"info", "success", "warning", "danger"}
	codeOverflows = []string{"wrap", "scroll"}
	booleans      = []string{"true", "false"}
	widthRe       = regexp.MustCompile(`^\d+(\.\d+)?%?$`)
)

// requiredAttrs lists attributes a kind cannot do without.
var requiredAttrs = map[doctree.DirectiveKind][]string{
	doctree.KindTab:        {"title"},
	doctree.KindContentRef: {"url"},
	doctree.KindEmbed:      {"url"},
	doctree.KindFile:       {"src"},
	doctree.KindInclude:    {"src"},
}

// checkAttributes returns a message for every attribute problem on d.
func checkAttributes(d *doctree.Directive) []string {
	var problems []string
	for _, name := range requiredAttrs[d.Kind] {
		if strings.TrimSpace(d.Attributes[name]) == "" {
			problems = append(problems, d.Kind.String()+` directive is missing attribute "`+name+`"`)
		}
	}

	switch d.Kind {
	case doctree.KindHint:
		if v, ok := d.Attributes["style"]; ok && !oneOf(v, hintStyles) {
			problems = append(problems, `hint style "`+v+`" is not one of `+strings.Join(hintStyles, ", "))
		}
	case doctree.KindCode:
		if v, ok := d.Attributes["lineNumbers"]; ok && !oneOf(v, booleans) {
			problems = append(problems, `code lineNumbers "`+v+`" must be true or false`)
		}
		if v, ok := d.Attributes["overflow"]; ok && !oneOf(v, codeOverflows) {
			problems = append(problems, `code overflow "`+v+`" is not one of `+strings.Join(codeOverflows, ", "))
		}
	case doctree.KindColumns, doctree.KindColumn:
		if v, ok := d.Attributes["width"]; ok && !widthRe.MatchString(v) {
			problems = append(problems, d.Kind.String()+` width "`+v+`" is not a number or percentage`)
		}
	}
	return problems
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

var attrRe = regexp.MustCompile(`([A-Za-z_][\w-]*)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+)))?|"([^"]*)"|'([^']*)'`)

// parseAttributes decodes `key="value"` pairs. Bare keys map to "true".
// A leading positional string (as in {% include "path" %}) is stored
// under "src".
func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(s, -1) {
		if m[1] == "" {
			if _, ok := attrs["src"]; !ok {
				attrs["src"] = m[5] + m[6]
			}
			continue
		}
		switch {
		case strings.Contains(m[0], "="):
			attrs[m[1]] = m[2] + m[3] + m[4]
		default:
			attrs[m[1]] = "true"
		}
	}
	return attrs
}
