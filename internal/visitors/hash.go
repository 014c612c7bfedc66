package visitors

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/harrison/treewalk/internal/fsnode"
)

// HashFile returns the xxhash64 digest of the file at path.
func HashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return h.Sum64(), nil
}

func newHash(p Params) (*Visitor, error) {
	out := &lockedWriter{w: p.Out}
	return &Visitor{
		Name: "hash",
		Visit: func(ctx context.Context, e *fsnode.Entry) error {
			if !e.Mode.IsRegular() {
				return nil
			}
			sum, err := HashFile(e.Path)
			if err != nil {
				return err
			}
			return out.printf("%016x  %s\n", sum, e.RelPath)
		},
	}, nil
}
