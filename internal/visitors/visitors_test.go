package visitors

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/treewalk/internal/docnode"
	"github.com/harrison/treewalk/internal/fsnode"
	"github.com/harrison/treewalk/internal/walker"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func runVisitor(t *testing.T, root, name string, p Params) {
	t.Helper()
	p.Root = root
	v, err := Lookup(name, p)
	require.NoError(t, err)

	entry, err := fsnode.New(root, fsnode.Options{})
	require.NoError(t, err)

	require.NoError(t, walker.Walk(context.Background(), entry, v.Visit, walker.Options{MaxDegreeOfParallelism: 4}))
	if v.Finish != nil {
		require.NoError(t, v.Finish())
	}
}

func sortedLines(s string) []string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	sort.Strings(lines)
	return lines
}

var sampleFiles = map[string]string{
	"a.txt":         "alpha",
	"docs/b.md":     "# bravo",
	"docs/deep/c.x": "charlie!",
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"copy", "hash", "list", "stat"}, Names())

	_, err := Lookup("shred", Params{})
	assert.ErrorContains(t, err, `unknown visitor "shred"`)

	_, err = Lookup("copy", Params{})
	assert.ErrorIs(t, err, ErrNoDestination)
}

func TestListVisitor(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, sampleFiles)

	var out bytes.Buffer
	runVisitor(t, root, "list", Params{Out: &out})

	assert.Equal(t, []string{".", "a.txt", "docs/", "docs/b.md", "docs/deep/", "docs/deep/c.x"}, sortedLines(out.String()))
}

func TestHashVisitor(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, sampleFiles)

	var out bytes.Buffer
	runVisitor(t, root, "hash", Params{Out: &out})

	lines := sortedLines(out.String())
	require.Len(t, lines, 3)

	want := map[string]uint64{}
	for rel, content := range sampleFiles {
		want[rel] = xxhash.Sum64String(content)
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 2, line)
		sum, ok := want[fields[1]]
		require.True(t, ok, "unexpected path %s", fields[1])
		assert.Len(t, fields[0], 16)
		assert.Equal(t, sum, mustParseHex(t, fields[0]))
	}
}

func mustParseHex(t *testing.T, s string) uint64 {
	t.Helper()
	v, err := strconv.ParseUint(s, 16, 64)
	require.NoError(t, err)
	return v
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStatVisitor(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, sampleFiles)

	var out bytes.Buffer
	runVisitor(t, root, "stat", Params{Out: &out})

	// Root, docs and docs/deep.
	assert.Equal(t, "directories: 3  files: 3  symlinks: 0  bytes: 20\n", out.String())
}

func TestCopyVisitor(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, sampleFiles)
	require.NoError(t, os.Chmod(filepath.Join(root, "a.txt"), 0600))
	require.NoError(t, os.Symlink("a.txt", filepath.Join(root, "link")))

	dest := filepath.Join(t.TempDir(), "mirror")
	runVisitor(t, root, "copy", Params{Dest: dest})

	for rel, content := range sampleFiles {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, content, string(got), rel)
	}

	info, err := os.Stat(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	link, err := os.Readlink(filepath.Join(dest, "link"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", link)

	// Copying again over an existing mirror succeeds.
	runVisitor(t, root, "copy", Params{Dest: dest})
}

func TestCopyVisitor_DestinationInsideRoot(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, sampleFiles)

	tests := []struct {
		name    string
		dest    string
		wantErr bool
	}{
		{name: "root itself", dest: root, wantErr: true},
		{name: "new directory under root", dest: filepath.Join(root, "mirror"), wantErr: true},
		{name: "existing subdirectory", dest: filepath.Join(root, "docs", "deep"), wantErr: true},
		{name: "unclean path under root", dest: root + "/docs/../mirror", wantErr: true},
		{name: "sibling sharing a prefix", dest: root + "-mirror"},
		{name: "name starting with dots", dest: filepath.Join(filepath.Dir(root), "..mirror")},
		{name: "parent of root", dest: filepath.Dir(root)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lookup("copy", Params{Root: root, Dest: tt.dest})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDestinationInsideRoot)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// Nothing was created below the root.
	_, err := os.Stat(filepath.Join(root, "mirror"))
	assert.True(t, os.IsNotExist(err))
}

func TestOutliner(t *testing.T) {
	doc, err := docnode.ParseYAML([]byte("a:\n  b: 1\n  c: [x, y]\nd: 2\n"))
	require.NoError(t, err)

	outline := NewOutliner[*docnode.YAMLNode]()
	require.NoError(t, walker.Walk(context.Background(), doc, outline.Visit, walker.Options{MaxDegreeOfParallelism: 3}))

	var out bytes.Buffer
	require.NoError(t, outline.Flush(&out))

	assert.Equal(t, strings.Join([]string{
		"$ (document)",
		"  $ (mapping)",
		"    $.a (mapping)",
		"      $.a.b = 1",
		"      $.a.c (sequence)",
		"        $.a.c[0] = x",
		"        $.a.c[1] = y",
		"    $.d = 2",
	}, "\n")+"\n", out.String())
}
