package manifest

import (
	"strings"
	"testing"

	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/google/go-cmp/cmp"
)

type flatNode struct {
	Title string
	Path  string
	Depth int
}

func flatten(root *doctree.ManifestNode) []flatNode {
	var out []flatNode
	Walk(root, func(n *doctree.ManifestNode) {
		out = append(out, flatNode{Title: n.Title, Path: n.Path, Depth: n.Depth})
	})
	return out
}

func errorCount(issues []doctree.Issue) int {
	n := 0
	for _, is := range issues {
		if is.Severity == doctree.SeverityError {
			n++
		}
	}
	return n
}

const nestedSummary = `# Table of contents

* [Introduction](README.md)
* [Events](csharp/events.md)
  * [Delegates](csharp/delegates.md)
    * [Multicast](csharp/multicast.md)
  * [Operators](csharp/operators.md)
* [Interview questions](interview/README.md)
`

func TestParse_NestedHierarchy(t *testing.T) {
	root, issues := Parse(nestedSummary)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if root.Title != "Table of contents" {
		t.Errorf("expected root title %q, got %q", "Table of contents", root.Title)
	}

	want := []flatNode{
		{"Introduction", "README.md", 1},
		{"Events", "csharp/events.md", 1},
		{"Delegates", "csharp/delegates.md", 2},
		{"Multicast", "csharp/multicast.md", 3},
		{"Operators", "csharp/operators.md", 2},
		{"Interview questions", "interview/README.md", 1},
	}
	if diff := cmp.Diff(want, flatten(root)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NodeCountMatchesListItems(t *testing.T) {
	root, _ := Parse(nestedSummary)
	items := 0
	for _, line := range strings.Split(nestedSummary, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "* ") {
			items++
		}
	}
	if got := Count(root); got != items {
		t.Errorf("expected %d nodes, got %d", items, got)
	}
}

func TestSerialize_RoundTripPreservesDepths(t *testing.T) {
	inputs := []string{
		nestedSummary,
		"* [A](a.md)\n\t* [B](b.md)\n\t\t* [C](c.md)\n* [D](d.md)\n",
		"## Basics\n\n* [A](a.md)\n  * [B](b.md)\n\n## Advanced\n\n* [C](c.md)\n",
		"- Section\n  - [Child](child.md)\n- [Mention](ref.md \"mention\")\n",
	}
	for _, input := range inputs {
		first, _ := Parse(input)
		second, issues := Parse(Serialize(first))
		if len(issues) != 0 {
			t.Errorf("re-parse produced issues: %v", issues)
		}
		if diff := cmp.Diff(flatten(first), flatten(second)); diff != "" {
			t.Errorf("round trip mismatch for %q (-first +second):\n%s", input, diff)
		}
	}
}

func TestParse_MisalignedItemAttachesToShallowerAncestor(t *testing.T) {
	input := "* [A](a.md)\n    * [B](b.md)\n  * [C](c.md)\n* [D](d.md)\n"
	root, issues := Parse(input)

	if errorCount(issues) != 1 {
		t.Fatalf("expected 1 error, got %v", issues)
	}
	if issues[0].Line != 3 || !strings.Contains(issues[0].Message, "misaligned") {
		t.Errorf("unexpected issue: %+v", issues[0])
	}

	a := root.Children[0]
	if len(a.Children) != 2 {
		t.Fatalf("expected A to have 2 children, got %d", len(a.Children))
	}
	if a.Children[1].Title != "C" || a.Children[1].Depth != 2 {
		t.Errorf("expected C at depth 2 under A, got %q at %d", a.Children[1].Title, a.Children[1].Depth)
	}
	if len(root.Children) != 2 || root.Children[1].Title != "D" {
		t.Errorf("expected D to remain a top-level sibling, got %v", flatten(root))
	}
}

func TestParse_MentionAndPlainItems(t *testing.T) {
	input := "* Basics\n  * [Events](events.md \"mention\")\n"
	root, issues := Parse(input)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}

	section := root.Children[0]
	if !section.IsSection() {
		t.Errorf("expected %q to be a section header", section.Title)
	}
	ref := section.Children[0]
	if !ref.Mention {
		t.Error("expected mention flag")
	}
	if ref.Path != "events.md" || ref.Title != "Events" {
		t.Errorf("unexpected mention node: %+v", ref)
	}
}

func TestParse_GroupHeadings(t *testing.T) {
	input := "# Summary\n\n## Language\n\n* [Events](events.md)\n\n## Interview\n\n* [Questions](q.md)\n"
	root, issues := Parse(input)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	want := []flatNode{
		{"Language", "", 1},
		{"Events", "events.md", 2},
		{"Interview", "", 1},
		{"Questions", "q.md", 2},
	}
	if diff := cmp.Diff(want, flatten(root)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if !root.Children[0].Group {
		t.Error("expected group flag on heading node")
	}
}

func TestParse_EmptySectionIsWarning(t *testing.T) {
	_, issues := Parse("* Orphan section\n* [A](a.md)\n")
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %v", issues)
	}
	if issues[0].Severity != doctree.SeverityWarning {
		t.Errorf("expected warning, got %s", issues[0].Severity)
	}
}

func TestParse_PathNormalization(t *testing.T) {
	tests := []struct {
		line     string
		path     string
		anchor   string
		external bool
	}{
		{"* [A](./docs/a.md)", "docs/a.md", "", false},
		{"* [B](docs/b%20c.md#intro)", "docs/b c.md", "intro", false},
		{"* [C](<docs/with space.md>)", "docs/with space.md", "", false},
		{"* [D](https://example.com/page)", "https://example.com/page", "", true},
	}
	for _, tt := range tests {
		root, issues := Parse(tt.line)
		if len(issues) != 0 {
			t.Errorf("%q: unexpected issues %v", tt.line, issues)
			continue
		}
		n := root.Children[0]
		if n.Path != tt.path || n.Anchor != tt.anchor || n.External != tt.external {
			t.Errorf("%q: got path=%q anchor=%q external=%v", tt.line, n.Path, n.Anchor, n.External)
		}
	}
}

func TestParse_PathOutsideRootIsError(t *testing.T) {
	_, issues := Parse("* [Up](../secret.md)\n")
	if errorCount(issues) != 1 {
		t.Fatalf("expected 1 error, got %v", issues)
	}
}

func TestParse_EmptyTargetReportedOnce(t *testing.T) {
	_, issues := Parse("* [T]()\n* [A](a.md)\n")
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %v", issues)
	}
	if issues[0].Severity != doctree.SeverityError || !strings.Contains(issues[0].Message, "empty link target") {
		t.Errorf("unexpected issue: %v", issues[0])
	}

	// An empty target with children is still only the one error.
	_, issues = Parse("* [T]()\n  * [A](a.md)\n")
	if len(issues) != 1 || issues[0].Line != 1 {
		t.Errorf("expected a single error on line 1, got %v", issues)
	}
}

func TestParse_SkipsRulesAndComments(t *testing.T) {
	input := "<!-- generated -->\n* [A](a.md)\n\n***\n\n* [B](b.md)\nstray text\n"
	root, issues := Parse(input)
	if Count(root) != 2 {
		t.Errorf("expected 2 nodes, got %d", Count(root))
	}
	if len(issues) != 1 || issues[0].Severity != doctree.SeverityWarning || issues[0].Line != 7 {
		t.Errorf("expected one warning for the stray line, got %v", issues)
	}
}

func TestPagePaths_DocumentOrderWithoutDuplicates(t *testing.T) {
	root, _ := Parse("* [A](a.md)\n  * [B](b.md)\n* [A again](a.md)\n* [Ext](http://x.io)\n* Section\n  * [C](c.md)\n")
	want := []string{"a.md", "b.md", "c.md"}
	if diff := cmp.Diff(want, PagePaths(root)); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}
