// Package directive finds GitBook {% ... %} block directives in a page and
// resolves them into a nested tree, reporting unmatched and unclosed tags.
package directive

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docbuild/internal/doctree"
)

// DefaultMaxRecoveryDepth bounds how far down the open stack a mismatched
// end tag may search for its opening tag.
const DefaultMaxRecoveryDepth = 8

// Config controls scanning behavior.
type Config struct {
	MaxRecoveryDepth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxRecoveryDepth: DefaultMaxRecoveryDepth}
}

// Scanner resolves directives for one page at a time. It is safe for
// concurrent use.
type Scanner struct {
	cfg Config
}

func NewScanner(cfg Config) *Scanner {
	if cfg.MaxRecoveryDepth <= 0 {
		cfg.MaxRecoveryDepth = DefaultMaxRecoveryDepth
	}
	return &Scanner{cfg: cfg}
}

// Scan resolves the directives of page with the default configuration.
func Scan(page *doctree.Page) ([]*doctree.Directive, []doctree.Issue) {
	return NewScanner(DefaultConfig()).Scan(page)
}

// tag is one {% ... %} token.
type tag struct {
	name    string
	closing bool
	attrs   string
	start   int
	end     int
	hasEnd  bool // Opening tag with a later end tag of the same kind
}

var tagRe = regexp.MustCompile(`^\{%-?\s*([A-Za-z][\w-]*)\s*(.*?)\s*-?%\}`)

type stackEntry struct {
	d     *doctree.Directive
	class Class
}

// scan holds the state of a single Scan call.
type scan struct {
	page   *doctree.Page
	cfg    Config
	roots  []*doctree.Directive
	stack  []stackEntry
	issues []doctree.Issue
}

// Scan returns the top-level directives of page, with nested directives
// attached as children, plus every structural and attribute issue found.
// Directive offsets index into page.RawText.
func (s *Scanner) Scan(page *doctree.Page) ([]*doctree.Directive, []doctree.Issue) {
	st := &scan{page: page, cfg: s.cfg}
	tags := tokenize(page.RawText, page.BodyOffset)
	markEnds(tags)
	for _, t := range tags {
		if t.closing {
			st.close(t)
		} else {
			st.open(t)
		}
	}

	for len(st.stack) > 0 {
		top := st.pop()
		if top.class == Block {
			st.errorf(top.d.StartOffset, "unclosed directive %q", top.d.Kind)
		}
		top.d.CloseStart = len(page.RawText)
		top.d.EndOffset = len(page.RawText)
	}
	return st.roots, st.issues
}

func (st *scan) open(t tag) {
	kind := doctree.DirectiveKind(t.name)
	class, known := ClassOf(kind)
	if !known {
		st.warnf(t.start, "unknown directive %q", t.name)
	}

	d := &doctree.Directive{
		Kind:        kind,
		StartOffset: t.start,
		OpenEnd:     t.end,
		Attributes:  parseAttributes(t.attrs),
	}
	for _, msg := range checkAttributes(d) {
		st.warnf(t.start, "%s", msg)
	}
	if want, ok := requiredParent[kind]; ok {
		if p := st.parent(); p == nil || p.Kind != want {
			st.warnf(t.start, "%s directive should be directly inside %s", kind, want)
		}
	}

	st.attach(d)
	// Optional-end directives without an end tag close at their opening tag.
	if class == SelfClosing || (class == OptionalEnd && !t.hasEnd) {
		selfClose(d)
		return
	}
	st.stack = append(st.stack, stackEntry{d: d, class: class})
}

func (st *scan) close(t tag) {
	kind := doctree.DirectiveKind(t.name)

	match := -1
	for i, depth := len(st.stack)-1, 0; i >= 0 && depth < st.cfg.MaxRecoveryDepth; i, depth = i-1, depth+1 {
		if st.stack[i].d.Kind == kind {
			match = i
			break
		}
	}
	if match < 0 {
		st.errorf(t.start, "unmatched directive %q", "end"+t.name)
		return
	}

	for len(st.stack)-1 > match {
		top := st.pop()
		if top.class == Block {
			st.errorf(top.d.StartOffset, "unclosed directive %q", top.d.Kind)
		}
		top.d.CloseStart = t.start
		top.d.EndOffset = t.start
	}
	d := st.pop().d
	d.CloseStart = t.start
	d.EndOffset = t.end
}

func (st *scan) parent() *doctree.Directive {
	if len(st.stack) == 0 {
		return nil
	}
	return st.stack[len(st.stack)-1].d
}

func (st *scan) attach(d *doctree.Directive) {
	if p := st.parent(); p != nil {
		p.Children = append(p.Children, d)
		return
	}
	st.roots = append(st.roots, d)
}

func (st *scan) pop() stackEntry {
	top := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]
	return top
}

func (st *scan) errorf(offset int, format string, args ...any) {
	st.issues = append(st.issues, doctree.Errorf(st.page.Path, offset, doctree.LineAt(st.page.RawText, offset), format, args...))
}

func (st *scan) warnf(offset int, format string, args ...any) {
	st.issues = append(st.issues, doctree.Warnf(st.page.Path, offset, doctree.LineAt(st.page.RawText, offset), format, args...))
}

func selfClose(d *doctree.Directive) {
	d.SelfClosing = true
	d.CloseStart = d.OpenEnd
	d.EndOffset = d.OpenEnd
}

// markEnds flags opening tags that have an end tag of the same kind later
// on, before the next opening tag of that kind.
func markEnds(tags []tag) {
	for i := range tags {
		if tags[i].closing {
			continue
		}
		for j := i + 1; j < len(tags); j++ {
			if tags[j].name != tags[i].name {
				continue
			}
			tags[i].hasEnd = tags[j].closing
			break
		}
	}
}

// tokenize returns every directive tag in text from offset base onward,
// skipping fenced code blocks and inline code spans.
func tokenize(text string, base int) []tag {
	var tags []tag
	var fence fenceState

	pos := base
	for pos < len(text) {
		end := strings.IndexByte(text[pos:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += pos + 1
		}
		line := text[pos:end]
		if fence.step(line) {
			pos = end
			continue
		}
		tags = append(tags, lineTags(line, pos)...)
		pos = end
	}
	return tags
}

// lineTags finds tags within one line outside of inline code spans.
func lineTags(line string, base int) []tag {
	var tags []tag
	for i := 0; i < len(line); {
		switch {
		case line[i] == '`':
			n := runLength(line, i, '`')
			if j := findBacktickRun(line, i+n, n); j >= 0 {
				i = j + n
			} else {
				i += n
			}
		case strings.HasPrefix(line[i:], "{%"):
			m := tagRe.FindStringSubmatch(line[i:])
			if m == nil {
				i += 2
				continue
			}
			t := tag{name: m[1], attrs: m[2], start: base + i, end: base + i + len(m[0])}
			if strings.HasPrefix(t.name, "end") && len(t.name) > len("end") {
				t.closing = true
				t.name = t.name[len("end"):]
			}
			tags = append(tags, t)
			i += len(m[0])
		default:
			i++
		}
	}
	return tags
}

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// findBacktickRun returns the index of the next run of exactly n backticks
// at or after i, or -1.
func findBacktickRun(s string, i, n int) int {
	for i < len(s) {
		if s[i] != '`' {
			i++
			continue
		}
		run := runLength(s, i, '`')
		if run == n {
			return i
		}
		i += run
	}
	return -1
}

// fenceState tracks whether the scanner is inside a fenced code block.
type fenceState struct {
	char byte
	size int
}

// step consumes one line and reports whether the line belongs to a fence
// (including the fence markers themselves).
func (f *fenceState) step(line string) bool {
	trimmed := stripContainers(line)
	if f.size > 0 {
		if n := runLength(trimmed, 0, f.char); n >= f.size && strings.TrimSpace(trimmed[n:]) == "" {
			f.size = 0
		}
		return true
	}
	if trimmed == "" || (trimmed[0] != '`' && trimmed[0] != '~') {
		return false
	}
	c := trimmed[0]
	n := runLength(trimmed, 0, c)
	if n < 3 {
		return false
	}
	if c == '`' && strings.ContainsRune(trimmed[n:], '`') {
		return false
	}
	f.char, f.size = c, n
	return true
}

// stripContainers removes leading indentation, blockquote markers and list
// item markers so fences nested in quotes and list items are recognized.
func stripContainers(line string) string {
	for {
		s := strings.TrimLeft(line, " \t")
		switch {
		case strings.HasPrefix(s, ">"):
			line = s[1:]
			continue
		case len(s) > 1 && (s[0] == '-' || s[0] == '*' || s[0] == '+') && (s[1] == ' ' || s[1] == '\t'):
			line = s[2:]
			continue
		}
		if d := orderedMarker(s); d > 0 {
			line = s[d:]
			continue
		}
		return s
	}
}

// orderedMarker returns the length of a leading "1. " or "1) " list marker,
// or 0.
func orderedMarker(s string) int {
	i := 0
	for i < len(s) && i < 9 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(s) || (s[i] != '.' && s[i] != ')') || (s[i+1] != ' ' && s[i+1] != '\t') {
		return 0
	}
	return i + 2
}

// Count returns the number of directives in the given trees.
func Count(ds []*doctree.Directive) int {
	n := 0
	for _, d := range ds {
		n += 1 + Count(d.Children)
	}
	return n
}
