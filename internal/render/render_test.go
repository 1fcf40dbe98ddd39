package render

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dgallion1/docbuild/internal/directive"
	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/dgallion1/docbuild/internal/loader"
	"github.com/dgallion1/docbuild/internal/manifest"
	"github.com/google/go-cmp/cmp"
)

var bookFS = fstest.MapFS{
	"SUMMARY.md": {Data: []byte("# C# Book\n\n* [Page A](README.md)\n* [Page B](csharp/b.md)\n")},
	"README.md": {Data: []byte("# A\n\n{% hint style=\"info\" %}\nNote.\n{% endhint %}\n\n" +
		"See [B](csharp/b.md#details) and ![logo](img/logo.png).\n")},
	"csharp/b.md":  {Data: []byte("# B\n\nBody of B.\n\n## Details\n\nBack [home](../README.md).\n")},
	"notes/old.md": {Data: []byte("# Old notes\n")},
	"img/logo.png": {Data: []byte("\x89PNG")},
}

func loadSite(t *testing.T, fsys fstest.MapFS) *Site {
	t.Helper()
	root, issues := manifest.Parse(string(fsys["SUMMARY.md"].Data))
	if len(issues) != 0 {
		t.Fatalf("manifest issues: %v", issues)
	}
	paths, err := loader.Discover(fsys, "SUMMARY.md", nil)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	pages := make(map[string]*doctree.Page)
	for _, p := range paths {
		page, err := loader.LoadPage(p, fsys)
		if err != nil {
			t.Fatalf("load %s: %v", p, err)
		}
		page.Directives, _ = directive.Scan(page)
		pages[p] = page
	}
	return Render(root, pages)
}

func TestRender_ManifestOrderAndOrphans(t *testing.T) {
	site := loadSite(t, bookFS)

	if site.Title != "C# Book" {
		t.Errorf("expected site title %q, got %q", "C# Book", site.Title)
	}
	type entry struct {
		Path   string
		Title  string
		Output string
		Listed bool
	}
	var got []entry
	for _, sp := range site.Pages {
		got = append(got, entry{sp.Path, sp.Title, sp.Output, sp.Listed})
	}
	want := []entry{
		{"README.md", "Page A", "index.html", true},
		{"csharp/b.md", "Page B", "csharp/b.html", true},
		{"notes/old.md", "Old notes", "notes/old.html", false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}

	a, b := site.Pages[0], site.Pages[1]
	if a.Next != b || b.Prev != a || a.Prev != nil || b.Next != nil {
		t.Error("expected prev/next links between listed pages only")
	}
	if len(a.Directives()) != 1 || a.Directives()[0].Kind != doctree.KindHint {
		t.Errorf("expected hint directive tree, got %+v", a.Directives())
	}
}

func TestRender_TwoPageSite(t *testing.T) {
	fsys := fstest.MapFS{
		"SUMMARY.md": {Data: []byte("* [A](a.md)\n* [B](b.md)\n")},
		"a.md":       {Data: []byte("# A\n\n[B](b.md)\n")},
		"b.md":       {Data: []byte("# B\n")},
	}
	site := loadSite(t, fsys)
	if len(site.Pages) != 2 || site.Pages[0].Path != "a.md" || site.Pages[1].Path != "b.md" {
		t.Fatalf("expected two pages in manifest order, got %+v", site.Pages)
	}
	if site.Title != DefaultTitle {
		t.Errorf("expected default title, got %q", site.Title)
	}
	if len(site.Nav) != 2 || site.Nav[1].Output != "b.html" {
		t.Errorf("unexpected nav: %+v", site.Nav)
	}
}

func TestPageID_Stable(t *testing.T) {
	id := PageID("csharp/events.md")
	if id != PageID("csharp/events.md") {
		t.Error("expected the same id for the same path")
	}
	if id == PageID("csharp/delegates.md") {
		t.Error("expected different ids for different paths")
	}
	if len(id) != 36 {
		t.Errorf("expected uuid string, got %q", id)
	}
}

func TestOutputPath(t *testing.T) {
	tests := map[string]string{
		"README.md":            "index.html",
		"guide/README.md":      "guide/index.html",
		"guide/readme.md":      "guide/index.html",
		"csharp/events.md":     "csharp/events.html",
		"notes/draft.markdown": "notes/draft.html",
	}
	for in, want := range tests {
		if got := OutputPath(in); got != want {
			t.Errorf("OutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRelHref(t *testing.T) {
	tests := []struct {
		from, to, want string
	}{
		{"index.html", "b.html", "b.html"},
		{"csharp/events.html", "index.html", "../index.html"},
		{"csharp/events.html", "csharp/delegates.html", "delegates.html"},
		{"a/b/x.html", "a/c/y.html", "../c/y.html"},
		{"a/x.html", "assets/docbuild.css", "../assets/docbuild.css"},
	}
	for _, tt := range tests {
		if got := relHref(tt.from, tt.to); got != tt.want {
			t.Errorf("relHref(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestBuild_PageHTML(t *testing.T) {
	site := loadSite(t, bookFS)
	out, err := Build(site, Options{Assets: bookFS})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	index := string(out.Files["index.html"])
	for _, want := range []string{
		`<div class="gb-hint" data-style="info">`,
		`<p>Note.</p>`,
		`<h1 id="a">A</h1>`,
		`href="csharp/b.html#details"`,
		`src="img/logo.png"`,
		`<title>Page A | C# Book</title>`,
		`<meta name="description" content="Note. See B`,
		`<a rel="next" href="csharp/b.html">`,
	} {
		if !strings.Contains(index, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
	if strings.Contains(index, "{%") {
		t.Error("expected directive tags to be replaced")
	}

	b := string(out.Files["csharp/b.html"])
	for _, want := range []string{
		`href="../index.html"`,
		`href="../assets/docbuild.css"`,
		`<h2 id="details">Details</h2>`,
		`<li class="current"><a href="b.html">Page B</a>`,
	} {
		if !strings.Contains(b, want) {
			t.Errorf("csharp/b.html missing %q", want)
		}
	}

	orphan := string(out.Files["notes/old.html"])
	if !strings.Contains(orphan, `<body class="unlisted">`) {
		t.Error("expected orphan page to be marked unlisted")
	}

	if string(out.Files["img/logo.png"]) != "\x89PNG" {
		t.Error("expected linked asset to be copied")
	}
	if _, ok := out.Files[StylesheetPath]; !ok {
		t.Error("expected stylesheet in output")
	}
	if _, ok := out.Files[BookPath]; ok {
		t.Error("expected no book without the docx option")
	}
}

func TestBuild_SiteIndex(t *testing.T) {
	site := loadSite(t, bookFS)
	out, err := Build(site, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	data := out.Files[IndexPath]
	if err := ValidateIndex(data); err != nil {
		t.Fatalf("site.json does not validate: %v", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(idx.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(idx.Pages))
	}
	first := idx.Pages[0]
	if first.Next != "csharp/b.html" || first.Hash != site.Pages[0].Page.Hash || first.ID != site.Pages[0].ID {
		t.Errorf("unexpected first page entry: %+v", first)
	}
	if idx.Pages[2].Listed {
		t.Error("expected orphan to be unlisted in index")
	}
}

func TestDescribe(t *testing.T) {
	site := loadSite(t, bookFS)

	tests := map[string]string{
		"README.md":    "Note. See B",
		"csharp/b.md":  "Body of B.",
		"notes/old.md": "",
	}
	for path, want := range tests {
		sp, ok := site.Lookup(path)
		if !ok {
			t.Fatalf("page %s not in site", path)
		}
		got := Describe(sp)
		if !strings.HasPrefix(got, want) || (want == "") != (got == "") {
			t.Errorf("Describe(%s) = %q, want prefix %q", path, got, want)
		}
		if strings.Contains(got, "{%") || strings.Contains(got, "\n") {
			t.Errorf("Describe(%s) kept markup or newlines: %q", path, got)
		}
	}
}

func TestDescribe_LongProseIsCut(t *testing.T) {
	fsys := fstest.MapFS{
		"SUMMARY.md": {Data: []byte("* [Long](README.md)\n")},
		"README.md":  {Data: []byte("# Long\n\n" + strings.Repeat("Events notify subscribers. ", 40) + "\n")},
	}
	site := loadSite(t, fsys)
	got := Describe(site.Pages[0])
	if got == "" || !strings.HasPrefix(got, "Events notify subscribers.") {
		t.Fatalf("unexpected description %q", got)
	}
	if n := len(strings.Fields(got)); n >= 120 {
		t.Errorf("expected a cut description, got %d words", n)
	}
}

func TestValidateIndex_RejectsBadDocument(t *testing.T) {
	err := ValidateIndex([]byte(`{"title": "", "pages": [{"id": "x"}], "nav": []}`))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if len(schemaErr.Errors) == 0 {
		t.Error("expected field errors")
	}
}

func TestWriteSite_Idempotent(t *testing.T) {
	site := loadSite(t, bookFS)
	first, second := t.TempDir(), t.TempDir()

	if _, err := WriteSite(site, first, Options{Assets: bookFS}); err != nil {
		t.Fatalf("first render: %v", err)
	}
	// Render again from a fresh load of the same input.
	if _, err := WriteSite(loadSite(t, bookFS), second, Options{Assets: bookFS}); err != nil {
		t.Fatalf("second render: %v", err)
	}

	a, b := readTree(t, first), readTree(t, second)
	if len(a) == 0 {
		t.Fatal("expected output files")
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("renders differ (-first +second):\n%s", diff)
	}
}

func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree: %v", err)
	}
	return files
}

func TestBuildBook_RoundTrip(t *testing.T) {
	site := loadSite(t, bookFS)
	data, err := BuildBook(site)
	if err != nil {
		t.Fatalf("build book: %v", err)
	}

	sections, err := ReadBook(data)
	if err != nil {
		t.Fatalf("read book: %v", err)
	}
	var chapters []string
	for _, s := range sections {
		if s.Level == 1 {
			chapters = append(chapters, s.Title)
		}
	}
	want := []string{"Page A", "Page B", "Old notes"}
	if diff := cmp.Diff(want, chapters); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}

	found := false
	for _, s := range sections {
		if s.Title == "B" && s.Level == 2 && strings.Contains(s.Text, "Body of B.") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected page B body under its heading, got %+v", sections)
	}
}

func TestExpandDirectives_Nested(t *testing.T) {
	raw := "{% tabs %}\n{% tab title=\"C#\" %}\ncode\n{% endtab %}\n{% endtabs %}\n{% include \"x.md\" %}\n"
	page := &doctree.Page{Path: "p.md", RawText: raw}
	page.Directives, _ = directive.Scan(page)

	got := ExpandDirectives(page)
	for _, want := range []string{
		`<div class="gb-tabs">`,
		`<div class="gb-tab" data-title="C#"><p class="gb-tab-title">C#</p>`,
		`<div class="gb-include" data-src="x.md"><a class="gb-ref" href="x.md">x.md</a></div>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expanded body missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "</div>") != 3 {
		t.Errorf("expected 3 closing divs, got:\n%s", got)
	}

	stripped := StripDirectives(page)
	if strings.Contains(stripped, "{%") || !strings.Contains(stripped, "code") {
		t.Errorf("unexpected stripped body %q", stripped)
	}
}

func TestBuild_OutputCollision(t *testing.T) {
	fsys := fstest.MapFS{
		"SUMMARY.md":      {Data: []byte("# Book\n\n* [Guide](guide/README.md)\n* [Index](guide/index.md)\n")},
		"guide/README.md": {Data: []byte("# Guide\n\nFrom the readme.\n")},
		"guide/index.md":  {Data: []byte("# Index\n\nFrom the index.\n")},
	}
	site := loadSite(t, fsys)

	if len(site.Renamed) != 1 {
		t.Fatalf("expected 1 renamed page, got %+v", site.Renamed)
	}
	want := Rename{Path: "guide/index.md", Wanted: "guide/index.html", Output: "guide/index-2.html", Owner: "guide/README.md"}
	if diff := cmp.Diff(want, site.Renamed[0]); diff != "" {
		t.Errorf("rename mismatch (-want +got):\n%s", diff)
	}

	out, err := Build(site, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(string(out.Files["guide/index.html"]), "From the readme.") {
		t.Error("expected guide/index.html to hold the readme")
	}
	if !strings.Contains(string(out.Files["guide/index-2.html"]), "From the index.") {
		t.Error("expected guide/index-2.html to hold index.md")
	}
}
