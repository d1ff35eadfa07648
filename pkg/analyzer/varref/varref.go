// Package varref checks every variable reference in a JavaScript file
// against its declaration: redeclarations, references inside the
// temporal dead zone, writes to constants, block-scoped declarations
// outside blocks, and (optionally) assignments nothing ever reads.
package varref

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/refcheck/refcheck/internal/fileproc"
	"github.com/refcheck/refcheck/pkg/analyzer"
	"github.com/refcheck/refcheck/pkg/jsdoc"
	"github.com/refcheck/refcheck/pkg/models"
	"github.com/refcheck/refcheck/pkg/parser"
	"github.com/refcheck/refcheck/pkg/scope"
)

// Analyzer runs the variable-reference check over files.
type Analyzer struct {
	parser *parser.Parser

	checkUnused       bool
	warnUnusedImports bool
	externsPatterns   []string
	onGlobalRedecl    GlobalRedeclarationFunc
	maxFileSize       int64
}

// Compile-time check that Analyzer implements analyzer.FileAnalyzer.
var _ analyzer.FileAnalyzer[*models.ReferenceAnalysis] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithUnusedLocalCheck enables the unused-local-assignment warning.
func WithUnusedLocalCheck() Option {
	return func(a *Analyzer) {
		a.checkUnused = true
	}
}

// WithWarnUnusedImports is a forward-compatibility hook: unused imports
// are currently never warned, matching the upstream contract, and this
// option records intent without changing behavior yet.
func WithWarnUnusedImports() Option {
	return func(a *Analyzer) {
		a.warnUnusedImports = true
	}
}

// WithExternsPatterns marks files matching any of the glob patterns as
// externs; externs never produce diagnostics.
func WithExternsPatterns(patterns []string) Option {
	return func(a *Analyzer) {
		a.externsPatterns = patterns
	}
}

// WithGlobalRedeclarationReporter routes global hoisted redeclarations
// to the caller instead of emitting VAR_MULTIPLY_DECLARED locally.
func WithGlobalRedeclarationReporter(fn GlobalRedeclarationFunc) Option {
	return func(a *Analyzer) {
		a.onGlobalRedecl = fn
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// New creates a new variable-reference analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parser: parser.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {
	if a.parser != nil {
		a.parser.Close()
	}
}

// AnalyzeSource checks a single source text. The path is used for
// language detection, externs matching, and diagnostic locations.
func (a *Analyzer) AnalyzeSource(source []byte, path string) ([]models.Diagnostic, error) {
	result, err := a.parser.Parse(source, path)
	if err != nil {
		return nil, err
	}
	return a.analyzeParsed(result), nil
}

// AnalyzeFile checks a single file.
func (a *Analyzer) AnalyzeFile(path string) ([]models.Diagnostic, error) {
	return a.analyzeFileWithParser(a.parser, path)
}

func (a *Analyzer) analyzeFileWithParser(p *parser.Parser, path string) ([]models.Diagnostic, error) {
	var result *parser.ParseResult
	var err error

	if a.maxFileSize > 0 {
		result, err = p.ParseFileWithLimit(path, a.maxFileSize)
	} else {
		result, err = p.ParseFile(path)
	}
	if err != nil {
		return nil, err
	}
	if result == nil || result.Tree == nil {
		return nil, nil
	}
	return a.analyzeParsed(result), nil
}

// analyzeParsed builds the scope tree for one parsed file and drives
// the reference collector over it. Diagnostics come back ordered by
// their site in the source.
func (a *Analyzer) analyzeParsed(result *parser.ParseResult) []models.Diagnostic {
	root := result.Tree.RootNode()
	doc := jsdoc.Scan(root, result.Source)

	tree := scope.Build(result, scope.Options{
		IsExterns: a.isExterns(result.Path),
		Doc:       doc,
	})

	eng := &engine{
		tree:           tree,
		doc:            doc,
		path:           result.Path,
		checkUnused:    a.checkUnused,
		onGlobalRedecl: a.onGlobalRedecl,
	}

	newCollector(tree, eng).run(root)

	sort.SliceStable(eng.diags, func(i, j int) bool {
		return eng.diags[i].Offset < eng.diags[j].Offset
	})
	return eng.diags
}

func (a *Analyzer) isExterns(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range a.externsPatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// Analyze checks all files concurrently and aggregates the results.
// Individual file failures are collected, never fatal.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*models.ReferenceAnalysis, error) {
	supported := make([]string, 0, len(files))
	for _, f := range files {
		if parser.DetectLanguage(f) != parser.LangUnknown {
			supported = append(supported, f)
		}
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.SetTotal(len(supported))
	}

	perFile, errs := fileproc.MapFilesWithContext(ctx, supported, func(p *parser.Parser, path string) ([]models.Diagnostic, error) {
		diags, err := a.analyzeFileWithParser(p, path)
		if tracker != nil {
			tracker.Tick(path)
		}
		return diags, err
	})

	var all []models.Diagnostic
	for _, diags := range perFile {
		all = append(all, diags...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		return all[i].Offset < all[j].Offset
	})

	analysis := &models.ReferenceAnalysis{
		Diagnostics: all,
		Summary:     models.NewReferenceSummary(),
	}
	analysis.Summary.TotalFilesAnalyzed = len(supported)
	for _, d := range all {
		analysis.Summary.Add(d)
	}

	if errs != nil && errs.HasErrors() {
		return analysis, errs
	}
	return analysis, nil
}
