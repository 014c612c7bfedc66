// Package fsnode exposes a directory tree as walker nodes.
//
// Directories are containers and everything else, including symbolic links,
// is a leaf, so a walk never follows a link and never loops. Children are
// listed directories first, then files, each group in name order.
//
// Basic usage:
//
//	root, err := fsnode.New("./docs", fsnode.Options{
//	    Include:     []string{"**/*.md"},
//	    ExcludeDirs: []string{".git", "node_modules"},
//	})
//	if err != nil {
//	    return err
//	}
//	err = walker.Walk(ctx, root, visit, walker.Options{MaxDegreeOfParallelism: 8})
//
// Include and Exclude patterns use doublestar syntax and apply to files
// only. Each pattern is tried against the slash-separated path relative to
// the root and against the base name, so "*.md" matches at any depth.
//
// A directory that disappears or cannot be read while the walk is running is
// not fatal: Children returns whatever could be listed plus an error, which
// the walker records as an expand failure of that directory.
package fsnode
