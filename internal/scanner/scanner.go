// Package scanner finds JavaScript source files under the given paths,
// honoring config excludes and .gitignore.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/refcheck/refcheck/pkg/config"
	"github.com/refcheck/refcheck/pkg/parser"
)

// Scanner finds source files in a directory tree.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// New creates a new file scanner.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the repository root by looking for a .git
// directory. Returns "" outside a repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns combines config exclude patterns with the
// repository's .gitignore files.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			fsys := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(fsys, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// isExcluded checks a path against the loaded matchers.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	if len(s.matchers) == 0 {
		return false
	}
	parts := strings.Split(path, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// ScanPaths returns every analyzable source file under the given
// paths, sorted. Plain files are accepted as-is when their language is
// supported.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if parser.DetectLanguage(root) != parser.LangUnknown && !seen[root] {
				seen[root] = true
				files = append(files, root)
			}
			continue
		}

		s.matchers = nil
		s.loadExcludePatterns(root)

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}

			if d.IsDir() {
				name := d.Name()
				for _, excluded := range s.config.Exclude.Dirs {
					if name == excluded {
						return filepath.SkipDir
					}
				}
				if rel != "." && s.isExcluded(rel, true) {
					return filepath.SkipDir
				}
				return nil
			}

			if parser.DetectLanguage(path) == parser.LangUnknown {
				return nil
			}
			if s.config.ShouldExclude(path) || s.isExcluded(rel, false) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
