package visitors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/treewalk/internal/filelock"
	"github.com/harrison/treewalk/internal/fsnode"
)

// ErrNoDestination is returned when the copy visitor is requested without a target.
var ErrNoDestination = errors.New("copy requires a destination directory")

// ErrDestinationInsideRoot is returned when the copy target lies in the walked tree.
// Every mirrored directory would otherwise become a new directory to walk.
var ErrDestinationInsideRoot = errors.New("copy destination must not be inside the walked tree")

// Copier mirrors a walked tree under a destination directory. A directory is
// created when it is visited, which the walker guarantees happens before any
// of its entries are visited.
type Copier struct {
	dest string
}

// NewCopier creates a Copier mirroring the tree at root below dest.
// dest may not be root itself or any path below it. An empty root skips that check.
func NewCopier(root, dest string) (*Copier, error) {
	if dest == "" {
		return nil, ErrNoDestination
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination %s: %w", dest, err)
	}
	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
		}
		if within(absRoot, abs) {
			return nil, fmt.Errorf("%w: %s is under %s", ErrDestinationInsideRoot, abs, absRoot)
		}
	}
	return &Copier{dest: abs}, nil
}

// within reports whether path is base or lies below it. Both must be absolute.
func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Target returns the destination path for e.
func (c *Copier) Target(e *fsnode.Entry) string {
	return filepath.Join(c.dest, filepath.FromSlash(e.RelPath))
}

// Visit copies a single entry.
func (c *Copier) Visit(ctx context.Context, e *fsnode.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := c.Target(e)
	switch {
	case e.Dir:
		if err := os.MkdirAll(target, e.Mode.Perm()|0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", target, err)
		}
		return nil

	case e.IsSymlink():
		link, err := os.Readlink(e.Path)
		if err != nil {
			return fmt.Errorf("failed to read link %s: %w", e.Path, err)
		}
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to replace %s: %w", target, err)
		}
		if err := os.Symlink(link, target); err != nil {
			return fmt.Errorf("failed to create link %s: %w", target, err)
		}
		return nil

	case e.Mode.IsRegular():
		src, err := os.Open(e.Path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", e.Path, err)
		}
		defer src.Close()
		return filelock.AtomicWriteFrom(target, src, e.Mode.Perm())

	default:
		// Devices, sockets and pipes are not copied.
		return nil
	}
}

func newCopy(p Params) (*Visitor, error) {
	c, err := NewCopier(p.Root, p.Dest)
	if err != nil {
		return nil, err
	}
	return &Visitor{Name: "copy", Visit: c.Visit}, nil
}
