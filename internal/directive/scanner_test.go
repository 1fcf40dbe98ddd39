package directive

import (
	"strings"
	"testing"

	"github.com/dgallion1/docbuild/internal/doctree"
)

func page(text string) *doctree.Page {
	return &doctree.Page{Path: "page.md", RawText: text}
}

func countSeverity(issues []doctree.Issue, sev doctree.Severity) int {
	n := 0
	for _, is := range issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}

func TestScan_NestedPairs(t *testing.T) {
	for n := 1; n <= 6; n++ {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			sb.WriteString(`{% hint style="info" %}` + "\n")
		}
		sb.WriteString("body\n")
		for i := 0; i < n; i++ {
			sb.WriteString("{% endhint %}\n")
		}

		ds, issues := Scan(page(sb.String()))
		if len(issues) != 0 {
			t.Errorf("n=%d: expected no issues, got %v", n, issues)
		}
		if got := Count(ds); got != n {
			t.Errorf("n=%d: expected %d directives, got %d", n, n, got)
		}
	}
}

func TestScan_SequentialAndMixedKinds(t *testing.T) {
	input := `{% tabs %}
{% tab title="C#" %}
{% code title="Program.cs" lineNumbers="true" %}
` + "```csharp\nConsole.WriteLine();\n```" + `
{% endcode %}
{% endtab %}
{% tab title="VB" %}
text
{% endtab %}
{% endtabs %}

{% stepper %}
{% step %}
one
{% endstep %}
{% endstepper %}
`
	ds, issues := Scan(page(input))
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if len(ds) != 2 {
		t.Fatalf("expected 2 top-level directives, got %d", len(ds))
	}
	tabs := ds[0]
	if tabs.Kind != doctree.KindTabs || len(tabs.Children) != 2 {
		t.Fatalf("unexpected tabs tree: %+v", tabs)
	}
	first := tabs.Children[0]
	if first.Attributes["title"] != "C#" {
		t.Errorf("expected tab title C#, got %q", first.Attributes["title"])
	}
	if len(first.Children) != 1 || first.Children[0].Kind != doctree.KindCode {
		t.Errorf("expected nested code directive, got %+v", first.Children)
	}
	if Count(ds) != 6 {
		t.Errorf("expected 6 directives, got %d", Count(ds))
	}
}

func TestScan_Offsets(t *testing.T) {
	input := "intro\n{% hint style=\"warning\" %}\nbody\n{% endhint %}\n"
	ds, _ := Scan(page(input))
	if len(ds) != 1 {
		t.Fatalf("expected 1 directive, got %d", len(ds))
	}
	d := ds[0]
	if d.StartOffset != strings.Index(input, "{% hint") {
		t.Errorf("unexpected start offset %d", d.StartOffset)
	}
	if input[d.StartOffset:d.OpenEnd] != `{% hint style="warning" %}` {
		t.Errorf("unexpected opening tag %q", input[d.StartOffset:d.OpenEnd])
	}
	if input[d.CloseStart:d.EndOffset] != "{% endhint %}" {
		t.Errorf("unexpected closing tag %q", input[d.CloseStart:d.EndOffset])
	}
	if input[d.OpenEnd:d.CloseStart] != "\nbody\n" {
		t.Errorf("unexpected content %q", input[d.OpenEnd:d.CloseStart])
	}
}

func TestScan_UnclosedReportsStartOffset(t *testing.T) {
	for _, prefix := range []string{"", "text\n", "# Title\n\nparagraph "} {
		input := prefix + `{% hint style="info" %}` + "\nnever closed\n"
		_, issues := Scan(page(input))
		if len(issues) != 1 {
			t.Fatalf("expected 1 issue, got %v", issues)
		}
		is := issues[0]
		if is.Severity != doctree.SeverityError || !strings.Contains(is.Message, "unclosed directive") {
			t.Errorf("unexpected issue: %+v", is)
		}
		if is.Offset != len(prefix) {
			t.Errorf("expected offset %d, got %d", len(prefix), is.Offset)
		}
	}
}

func TestScan_UnmatchedEndTag(t *testing.T) {
	_, issues := Scan(page("text\n{% endhint %}\n"))
	if len(issues) != 1 || !strings.Contains(issues[0].Message, "unmatched directive") {
		t.Fatalf("expected one unmatched issue, got %v", issues)
	}
	if issues[0].Line != 2 {
		t.Errorf("expected line 2, got %d", issues[0].Line)
	}
}

func TestScan_MismatchPrefersInnermost(t *testing.T) {
	// The inner hint is closed first; the stray tabs is left unclosed.
	input := "{% hint %}\n{% tabs %}\n{% hint %}\n{% endhint %}\n{% endhint %}\n"
	ds, issues := Scan(page(input))

	if countSeverity(issues, doctree.SeverityError) != 1 {
		t.Fatalf("expected 1 error, got %v", issues)
	}
	if issues[0].Offset != strings.Index(input, "{% tabs") {
		t.Errorf("expected unclosed tabs to be reported, got %+v", issues[0])
	}
	outer := ds[0]
	if outer.Kind != doctree.KindHint || len(outer.Children) != 1 {
		t.Fatalf("unexpected tree: %+v", outer)
	}
	tabs := outer.Children[0]
	if len(tabs.Children) != 1 || tabs.Children[0].Kind != doctree.KindHint {
		t.Errorf("expected inner hint under tabs, got %+v", tabs.Children)
	}
	inner := tabs.Children[0]
	if inner.CloseStart != strings.Index(input, "{% endhint %}") {
		t.Errorf("expected inner hint to take the first end tag, got %d", inner.CloseStart)
	}
}

func TestScan_RecoveryDepthIsBounded(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("{% hint %}\n")
	for i := 0; i < 3; i++ {
		sb.WriteString("{% tabs %}\n")
	}
	sb.WriteString("{% endhint %}\n")

	_, issues := NewScanner(Config{MaxRecoveryDepth: 2}).Scan(page(sb.String()))
	unmatched := 0
	for _, is := range issues {
		if strings.Contains(is.Message, "unmatched") {
			unmatched++
		}
	}
	if unmatched != 1 {
		t.Errorf("expected the end tag to be unmatched with a shallow search, got %v", issues)
	}
	// hint and three tabs are still open at the end.
	if got := countSeverity(issues, doctree.SeverityError); got != 5 {
		t.Errorf("expected 5 errors, got %d: %v", got, issues)
	}
}

func TestScan_FencedExampleIsIgnored(t *testing.T) {
	input := "# Formatting guide\n\nUse hints like this:\n\n" +
		"```markdown\n{% hint style=\"info\" %}\nImportant note.\n{% endhint %}\n```\n\n" +
		"   ~~~~\n{% tabs %}\n   ~~~~\n\n" +
		"````\n```\n{% endcode %}\n```\n````\n"
	ds, issues := Scan(page(input))
	if len(ds) != 0 || len(issues) != 0 {
		t.Errorf("expected nothing inside fences, got %d directives and %v", len(ds), issues)
	}
}

func TestScan_InlineCodeIsIgnored(t *testing.T) {
	input := "Write `{% hint %}` to open and ``{% endhint %}`` to close.\n"
	ds, issues := Scan(page(input))
	if len(ds) != 0 || len(issues) != 0 {
		t.Errorf("expected nothing inside code spans, got %d directives and %v", len(ds), issues)
	}
}

func TestScan_AfterFenceResumes(t *testing.T) {
	input := "```\n{% hint %}\n```\n{% hint style=\"success\" %}\nok\n{% endhint %}\n"
	ds, issues := Scan(page(input))
	if len(issues) != 0 || len(ds) != 1 {
		t.Errorf("expected one live directive, got %d and %v", len(ds), issues)
	}
}

func TestScan_SkipsFrontMatter(t *testing.T) {
	raw := "---\ntitle: \"{% hint %}\"\n---\n{% hint %}\nx\n{% endhint %}\n"
	p := page(raw)
	p.BodyOffset = strings.Index(raw, "{% hint %}\nx")
	ds, issues := Scan(p)
	if len(issues) != 0 || len(ds) != 1 {
		t.Fatalf("expected one directive, got %d and %v", len(ds), issues)
	}
	if ds[0].StartOffset != p.BodyOffset {
		t.Errorf("expected offset into raw text %d, got %d", p.BodyOffset, ds[0].StartOffset)
	}
}

func TestScan_AttributeWarnings(t *testing.T) {
	tests := []struct {
		input string
		warn  string
	}{
		{`{% hint style="shiny" %}x{% endhint %}`, "hint style"},
		{`{% code lineNumbers="yes" %}x{% endcode %}`, "lineNumbers"},
		{`{% code overflow="clip" %}x{% endcode %}`, "overflow"},
		{`{% columns width="wide" %}x{% endcolumns %}`, "width"},
		{`{% tabs %}{% tab %}x{% endtab %}{% endtabs %}`, `missing attribute "title"`},
		{`{% content-ref %}x{% endcontent-ref %}`, `missing attribute "url"`},
		{`{% sparkle %}`, "unknown directive"},
	}
	for _, tt := range tests {
		_, issues := Scan(page(tt.input))
		if countSeverity(issues, doctree.SeverityError) != 0 {
			t.Errorf("%s: unexpected errors %v", tt.input, issues)
			continue
		}
		if len(issues) != 1 || !strings.Contains(issues[0].Message, tt.warn) {
			t.Errorf("%s: expected one warning containing %q, got %v", tt.input, tt.warn, issues)
		}
	}
}

func TestScan_ValidAttributes(t *testing.T) {
	input := `{% columns %}
{% column width="50%" %}
a
{% endcolumn %}
{% column width="50" %}
b
{% endcolumn %}
{% endcolumns %}
{% code title="x.cs" overflow="wrap" lineNumbers="false" %}
y
{% endcode %}
{% include "reusable/snippet.md" %}
{% embed url="https://example.com/video" %}
`
	ds, issues := Scan(page(input))
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if Count(ds) != 6 {
		t.Errorf("expected 6 directives, got %d", Count(ds))
	}
	include := ds[2]
	if !include.SelfClosing || include.Attributes["src"] != "reusable/snippet.md" {
		t.Errorf("unexpected include: %+v", include)
	}
}

func TestScan_ContainmentWarnings(t *testing.T) {
	tests := []string{
		`{% tab title="x" %}a{% endtab %}`,
		`{% step %}x{% endstep %}`,
		`{% hint %}{% step %}a{% endstep %}{% endhint %}`,
		`{% columns %}{% hint %}{% column %}a{% endcolumn %}{% endhint %}{% endcolumns %}`,
	}
	for _, input := range tests {
		_, issues := Scan(page(input))
		if countSeverity(issues, doctree.SeverityError) != 0 {
			t.Errorf("%s: containment must not be an error, got %v", input, issues)
		}
		if len(issues) != 1 || !strings.Contains(issues[0].Message, "directly inside") {
			t.Errorf("%s: expected one containment warning, got %v", input, issues)
		}
	}
}

func TestScan_CompleteVocabularyHasNoIssues(t *testing.T) {
	input := `{% tabs %}
{% tab title="C#" %}
{% stepper %}
{% step %}
{% columns %}
{% column %}
{% hint style="info" %}
ok
{% endhint %}
{% endcolumn %}
{% endcolumns %}
{% endstep %}
{% endstepper %}
{% endtab %}
{% endtabs %}
`
	ds, issues := Scan(page(input))
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if Count(ds) != 7 {
		t.Errorf("expected 7 directives, got %d", Count(ds))
	}
}

func TestScan_OptionalEnd(t *testing.T) {
	input := `{% embed url="https://a" %}
{% embed url="https://b" %}
caption
{% endembed %}
{% hint %}x{% endhint %}
`
	ds, issues := Scan(page(input))
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if len(ds) != 3 {
		t.Fatalf("expected 3 top-level directives, got %d", len(ds))
	}
	if !ds[0].SelfClosing {
		t.Error("expected first embed to close without an end tag")
	}
	if ds[1].SelfClosing || !strings.Contains(input[ds[1].OpenEnd:ds[1].CloseStart], "caption") {
		t.Errorf("expected second embed to wrap its caption, got %+v", ds[1])
	}
}

func TestScan_OptionalEndHoldsChildren(t *testing.T) {
	input := `{% file src="a.pdf" %}
{% hint %}
Slides for the talk.
{% endhint %}
{% endfile %}
{% file src="b.pdf" %}
{% hint %}x{% endhint %}
`
	ds, issues := Scan(page(input))
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if len(ds) != 3 {
		t.Fatalf("expected 3 top-level directives, got %d", len(ds))
	}
	first := ds[0]
	if first.SelfClosing || len(first.Children) != 1 || first.Children[0].Kind != doctree.KindHint {
		t.Errorf("expected first file to hold the hint, got %+v", first)
	}
	if !strings.HasPrefix(input[first.CloseStart:], "{% endfile %}") {
		t.Errorf("expected close at endfile, got offset %d", first.CloseStart)
	}
	if !ds[1].SelfClosing || len(ds[1].Children) != 0 {
		t.Errorf("expected second file to close at its opening tag, got %+v", ds[1])
	}
}

func TestScan_FencesInContainers(t *testing.T) {
	tests := []string{
		"> ```markdown\n> {% hint style=\"info\" %}\n> text\n> ```\n",
		"- ```md\n  {% tabs %}\n  ```\n",
		"1. ~~~\n   {% stepper %}\n   ~~~\n",
		"> - ```\n>   {% code %}\n>   ```\n",
	}
	for _, input := range tests {
		ds, issues := Scan(page(input))
		if len(ds) != 0 || len(issues) != 0 {
			t.Errorf("%q: expected nothing inside fences, got %d directives and %v", input, len(ds), issues)
		}
	}

	// A quoted fence still ends, and scanning resumes after it.
	ds, issues := Scan(page("> ```\n> {% hint %}\n> ```\n{% hint %}\nlive\n{% endhint %}\n"))
	if len(ds) != 1 || len(issues) != 0 {
		t.Errorf("expected one live directive after a quoted fence, got %d and %v", len(ds), issues)
	}
}

func TestStripContainers(t *testing.T) {
	tests := map[string]string{
		"  ```go":     "```go",
		"> > ```":     "```",
		"- ```":       "```",
		"12. ```":     "```",
		"---":         "---",
		"***":         "***",
		"-not a list": "-not a list",
	}
	for in, want := range tests {
		if got := stripContainers(in); got != want {
			t.Errorf("stripContainers(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScan_ManyDirectivesTerminate(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("{% endtab %}{% tabs %}")
	}
	_, issues := Scan(page(sb.String()))
	if len(issues) == 0 {
		t.Error("expected issues for malformed input")
	}
}

func TestParseAttributes(t *testing.T) {
	got := parseAttributes(`title="Hello world" lineNumbers=true overflow='wrap' fullWidth`)
	want := map[string]string{
		"title":       "Hello world",
		"lineNumbers": "true",
		"overflow":    "wrap",
		"fullWidth":   "true",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, got[k])
		}
	}
}
