package fsnode

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Entry is a file or directory in a walked filesystem tree.
type Entry struct {
	Path    string      // Absolute path on disk
	RelPath string      // Slash-separated path relative to the walk root ("." for the root)
	Dir     bool        // True for directories (symlinks are never directories)
	Size    int64       // Size in bytes for regular files
	Mode    fs.FileMode // Mode bits as reported by Lstat
	ModTime time.Time   // Last modification time
	Depth   int         // Distance from the walk root

	filter *filter
}

// New creates the root entry of a filesystem tree. The root must exist;
// a symlinked root is resolved, symlinks below it are not.
func New(root string, opts Options) (*Entry, error) {
	f, err := newFilter(opts)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to access root: %w", err)
	}

	return &Entry{
		Path:    abs,
		RelPath: ".",
		Dir:     info.IsDir(),
		Size:    sizeOf(info),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		filter:  f,
	}, nil
}

// IsContainer reports whether the entry is a directory that may be descended into.
func (e *Entry) IsContainer() bool {
	if !e.Dir {
		return false
	}
	return e.filter == nil || e.filter.maxDepth == 0 || e.Depth < e.filter.maxDepth
}

// Children lists the entries of a directory: subdirectories first, then
// files, each group sorted by name. Entries that vanish or cannot be
// inspected while listing are reported in the returned error alongside the
// entries that could be read.
func (e *Entry) Children() ([]*Entry, error) {
	dirents, readErr := os.ReadDir(e.Path)

	var (
		dirs  []*Entry
		files []*Entry
		errs  []error
	)
	if readErr != nil {
		errs = append(errs, fmt.Errorf("failed to read directory %s: %w", e.Path, readErr))
	}

	for _, d := range dirents {
		name := d.Name()
		if e.filter.skipName(name) {
			continue
		}

		info, err := d.Info()
		if err != nil {
			errs = append(errs, fmt.Errorf("error accessing %s: %w", filepath.Join(e.Path, name), err))
			continue
		}

		child := &Entry{
			Path:    filepath.Join(e.Path, name),
			RelPath: e.childRel(name),
			Dir:     info.IsDir(),
			Size:    sizeOf(info),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
			Depth:   e.Depth + 1,
			filter:  e.filter,
		}

		if child.Dir {
			if e.filter.excludeDir(name) {
				continue
			}
			dirs = append(dirs, child)
			continue
		}
		if !e.filter.includeFile(child.RelPath) {
			continue
		}
		files = append(files, child)
	}

	// os.ReadDir already sorts by name.
	return append(dirs, files...), errors.Join(errs...)
}

// String returns the relative path of the entry.
func (e *Entry) String() string {
	return e.RelPath
}

// Name returns the last element of the entry's path.
func (e *Entry) Name() string {
	return filepath.Base(e.Path)
}

// IsSymlink reports whether the entry is a symbolic link.
func (e *Entry) IsSymlink() bool {
	return e.Mode&fs.ModeSymlink != 0
}

func (e *Entry) childRel(name string) string {
	if e.RelPath == "." || e.RelPath == "" {
		return name
	}
	return path.Join(e.RelPath, name)
}

func sizeOf(info fs.FileInfo) int64 {
	if info.Mode().IsRegular() {
		return info.Size()
	}
	return 0
}
