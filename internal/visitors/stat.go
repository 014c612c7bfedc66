package visitors

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/harrison/treewalk/internal/fsnode"
)

// Stats tallies what a walk has seen.
type Stats struct {
	dirs     atomic.Int64
	files    atomic.Int64
	symlinks atomic.Int64
	bytes    atomic.Int64
}

// Add counts a single entry.
func (s *Stats) Add(e *fsnode.Entry) {
	switch {
	case e.Dir:
		s.dirs.Add(1)
	case e.IsSymlink():
		s.symlinks.Add(1)
	default:
		s.files.Add(1)
		s.bytes.Add(e.Size)
	}
}

// Dirs returns the number of directories counted.
func (s *Stats) Dirs() int64 { return s.dirs.Load() }

// Files returns the number of non-directory, non-symlink entries counted.
func (s *Stats) Files() int64 { return s.files.Load() }

// Symlinks returns the number of symbolic links counted.
func (s *Stats) Symlinks() int64 { return s.symlinks.Load() }

// Bytes returns the total size of counted files.
func (s *Stats) Bytes() int64 { return s.bytes.Load() }

// WriteTo prints a one-line summary.
func (s *Stats) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "directories: %d  files: %d  symlinks: %d  bytes: %d\n",
		s.Dirs(), s.Files(), s.Symlinks(), s.Bytes())
	return int64(n), err
}

func newStat(p Params) (*Visitor, error) {
	stats := &Stats{}
	return &Visitor{
		Name: "stat",
		Visit: func(ctx context.Context, e *fsnode.Entry) error {
			stats.Add(e)
			return nil
		},
		Finish: func() error {
			_, err := stats.WriteTo(p.Out)
			return err
		},
	}, nil
}
