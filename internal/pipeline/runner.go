package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dgallion1/docbuild/internal/config"
	"github.com/dgallion1/docbuild/internal/directive"
	"github.com/dgallion1/docbuild/internal/doctree"
	"github.com/dgallion1/docbuild/internal/linkcheck"
	"github.com/dgallion1/docbuild/internal/loader"
	"github.com/dgallion1/docbuild/internal/manifest"
	"github.com/dgallion1/docbuild/internal/render"
	"github.com/dgallion1/docbuild/internal/report"
)

// ErrHasErrors is returned by Render when validation recorded an error.
var ErrHasErrors = errors.New("validation reported errors; refusing to render")

// RootError is the one fatal condition: the documentation root or its
// manifest cannot be read at all.
type RootError struct {
	Root string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("documentation root %s: %v", e.Root, e.Err)
}

func (e *RootError) Unwrap() error {
	return e.Err
}

// Result is everything one validation run produced.
type Result struct {
	Root     string
	FS       fs.FS
	Manifest *doctree.ManifestNode
	Pages    map[string]*doctree.Page
	Report   *report.Report
}

// Runner runs the validation passes over a documentation root.
type Runner struct {
	cfg     config.Config
	scanner *directive.Scanner
	log     *slog.Logger
}

func NewRunner(cfg config.Config, log *slog.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		scanner: directive.NewScanner(directive.Config{MaxRecoveryDepth: cfg.MaxRecoveryDepth}),
		log:     log,
	}
}

// Validate checks the documentation tree at root. Content problems end up in
// the report; only an unreadable root or manifest is returned as an error.
func (r *Runner) Validate(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &RootError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &RootError{Root: root, Err: errors.New("not a directory")}
	}
	return r.ValidateFS(ctx, root, os.DirFS(root))
}

// ValidateFS is Validate over an arbitrary file system; name labels the
// report.
func (r *Runner) ValidateFS(ctx context.Context, name string, fsys fs.FS) (*Result, error) {
	log := r.log.With("root", name)
	manifestPath := r.cfg.SummaryFile

	// Pass 1: manifest
	data, err := fs.ReadFile(fsys, manifestPath)
	if err != nil {
		return nil, &RootError{Root: name, Err: fmt.Errorf("read manifest: %w", err)}
	}
	tree, issues := manifest.ParseNamed(manifestPath, string(data))

	res := &Result{
		Root:     name,
		FS:       fsys,
		Manifest: tree,
		Pages:    make(map[string]*doctree.Page),
		Report:   report.New(name),
	}
	res.Report.Add(issues...)
	log.Debug("parsed manifest", "entries", manifest.Count(tree), "issues", len(issues))

	// Pass 2: load
	paths, err := loader.Discover(fsys, manifestPath, r.cfg.Ignore)
	if err != nil {
		return nil, &RootError{Root: name, Err: err}
	}
	discovered := make(map[string]bool, len(paths))
	for _, p := range paths {
		discovered[p] = true
	}
	// Listed pages are loaded even when discovery skipped them.
	for _, p := range manifest.PagePaths(tree) {
		if !discovered[p] {
			discovered[p] = true
			paths = append(paths, p)
		}
	}

	ld := loader.New(fsys, r.cfg.MaxPageBytes)
	unreadable := make(map[string]bool)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := ld.Load(p)
		if err != nil {
			if errors.Is(err, loader.ErrNotFound) {
				// The link checker reports missing manifest pages.
				continue
			}
			unreadable[p] = true
			res.Report.Add(loadIssue(p, err))
			log.Warn("page not loaded", "path", p, "error", err)
			continue
		}
		// Directives are attached here, before the page is shared.
		var dirIssues []doctree.Issue
		page.Directives, dirIssues = r.scanner.Scan(page)
		res.Report.Add(dirIssues...)
		res.Pages[p] = page
	}
	log.Debug("loaded pages", "pages", len(res.Pages), "unreadable", len(unreadable))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Pass 3: references
	checker := &linkcheck.Checker{
		ManifestPath: manifestPath,
		Unreadable:   unreadable,
		ParseAssets:  r.cfg.ParseAssets,
	}
	if r.cfg.CheckAssets {
		checker.Assets = fsys
	}
	res.Report.Add(checker.Check(tree, res.Pages)...)

	// Pages that would share an output file, e.g. README.md and index.md.
	for _, rn := range render.Render(tree, res.Pages).Renamed {
		res.Report.Add(doctree.Warnf(rn.Path, 0, 0,
			"output file %s is already produced by %s; page is written as %s", rn.Wanted, rn.Owner, rn.Output))
	}

	res.Report.Pages = len(res.Pages)
	res.Report.Sort()

	c := res.Report.Counts()
	log.Info("validation complete", "pages", res.Report.Pages, "errors", c.Errors, "warnings", c.Warnings)
	return res, nil
}

func loadIssue(p string, err error) doctree.Issue {
	var le *loader.LoadError
	if !errors.As(err, &le) {
		return doctree.Errorf(p, 0, 0, "cannot load page: %v", err)
	}
	switch le.Kind {
	case loader.EncodingError:
		return doctree.Errorf(p, le.Offset, 0, "page is not valid UTF-8 (first invalid byte at offset %d)", le.Offset)
	case loader.FrontMatterError:
		return doctree.Errorf(p, 0, 1, "invalid front matter: %v", le.Cause)
	case loader.TooLarge:
		return doctree.Errorf(p, 0, 0, "page exceeds size limit: %v", le.Cause)
	default:
		return doctree.Errorf(p, 0, 0, "cannot read page: %v", le.Cause)
	}
}

// Render turns a clean validation result into a site. When outDir is empty
// the output is only built in memory. Assets default to the validated tree.
// outDir may not be the root or lie inside it.
func (r *Runner) Render(ctx context.Context, res *Result, outDir string, opts render.Options) (*render.Output, error) {
	if res.Report.HasErrors() {
		return nil, ErrHasErrors
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if outDir != "" {
		if err := CheckOutDir(res.Root, outDir); err != nil {
			return nil, err
		}
	}
	if opts.Assets == nil {
		opts.Assets = res.FS
	}

	site := render.Render(res.Manifest, res.Pages)
	var (
		out *render.Output
		err error
	)
	if outDir == "" {
		out, err = render.Build(site, opts)
	} else {
		out, err = render.WriteSite(site, outDir, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", res.Root, err)
	}

	r.log.Info("rendered site", "root", res.Root, "out", outDir, "pages", len(site.Pages),
		"files", len(out.Files), "book", out.Files[render.BookPath] != nil)
	return out, nil
}
