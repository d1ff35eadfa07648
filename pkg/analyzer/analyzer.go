// Package analyzer defines the contract shared by file-based analyses
// and the progress plumbing they report through.
package analyzer

import "context"

// FileAnalyzer is the interface all file-based analyzers implement.
type FileAnalyzer[T any] interface {
	// Analyze processes a collection of files and returns the result.
	// The context carries cancellation and, optionally, a progress
	// tracker (see WithTracker).
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
