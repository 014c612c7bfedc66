package fsnode

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures which entries of a filesystem tree are walked.
type Options struct {
	// Include lists doublestar patterns a file's relative path (or base name)
	// must match. Empty means every file.
	Include []string
	// Exclude lists doublestar patterns that drop matching files.
	Exclude []string
	// ExcludeDirs is a list of directory names to skip entirely (e.g. ".git", "node_modules").
	ExcludeDirs []string
	// SkipHidden skips entries whose name starts with a dot.
	SkipHidden bool
	// MaxDepth limits descent (0 = unlimited, 1 = root's direct entries only).
	MaxDepth int
}

type filter struct {
	include     []string
	exclude     []string
	excludeDirs map[string]bool
	skipHidden  bool
	maxDepth    int
}

func newFilter(opts Options) (*filter, error) {
	for _, pattern := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
	}
	if opts.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must be >= 0, got %d", opts.MaxDepth)
	}

	excludeDirs := make(map[string]bool, len(opts.ExcludeDirs))
	for _, dir := range opts.ExcludeDirs {
		excludeDirs[dir] = true
	}

	return &filter{
		include:     opts.Include,
		exclude:     opts.Exclude,
		excludeDirs: excludeDirs,
		skipHidden:  opts.SkipHidden,
		maxDepth:    opts.MaxDepth,
	}, nil
}

func (f *filter) skipName(name string) bool {
	return f != nil && f.skipHidden && strings.HasPrefix(name, ".")
}

func (f *filter) excludeDir(name string) bool {
	return f != nil && f.excludeDirs[name]
}

func (f *filter) includeFile(rel string) bool {
	if f == nil {
		return true
	}
	if len(f.include) > 0 && !matchAnyGlob(rel, f.include) {
		return false
	}
	return !matchAnyGlob(rel, f.exclude)
}

// matchAnyGlob matches rel and its base name against every pattern.
func matchAnyGlob(rel string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, path.Base(rel)); ok {
			return true
		}
	}
	return false
}
