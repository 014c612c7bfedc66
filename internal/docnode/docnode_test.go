package docnode

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/treewalk/internal/walker"
)

const sampleMarkdown = `# Title

Intro paragraph with *emphasis*.

## Section

- first
- second
`

func TestParseMarkdown(t *testing.T) {
	doc := ParseMarkdown([]byte(sampleMarkdown))
	require.True(t, doc.IsContainer())
	assert.Equal(t, "Document", doc.String())
	assert.Equal(t, 0, doc.Depth())

	children, err := doc.Children()
	require.NoError(t, err)

	kinds := make([]string, 0, len(children))
	for _, c := range children {
		kinds = append(kinds, c.Kind())
	}
	assert.Equal(t, []string{"Heading", "Paragraph", "Heading", "List"}, kinds)

	assert.Equal(t, 1, children[0].HeadingLevel())
	assert.Equal(t, "Heading(1): Title", children[0].Label())
	assert.Equal(t, "Document/Heading[0]", children[0].String())
	assert.Equal(t, "Paragraph: Intro paragraph with emphasis.", children[1].Label())
	assert.Equal(t, 2, children[2].HeadingLevel())
	assert.Equal(t, []int{3}, children[3].Position())
	assert.Equal(t, 1, children[3].Depth())
}

func TestMarkdownWalk(t *testing.T) {
	doc := ParseMarkdown([]byte(sampleMarkdown))

	var (
		mu    sync.Mutex
		kinds = map[string]int{}
	)
	err := walker.Walk(context.Background(), doc, func(ctx context.Context, n *MarkdownNode) error {
		mu.Lock()
		defer mu.Unlock()
		kinds[n.Kind()]++
		return nil
	}, walker.Options{MaxDegreeOfParallelism: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, kinds["Document"])
	assert.Equal(t, 2, kinds["Heading"])
	assert.Equal(t, 2, kinds["ListItem"])
	assert.Equal(t, 1, kinds["Emphasis"])
}

func TestEmptyMarkdown(t *testing.T) {
	doc := ParseMarkdown(nil)
	assert.True(t, doc.IsContainer())

	children, err := doc.Children()
	require.NoError(t, err)
	assert.Empty(t, children)
}

const sampleYAML = `
server:
  host: localhost
  ports: [80, 443]
defaults: &defaults
  retries: 3
job:
  settings: *defaults
  "dotted.key": yes
`

func TestParseYAML(t *testing.T) {
	doc, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "document", doc.Kind())
	assert.True(t, doc.IsContainer())

	var (
		mu    sync.Mutex
		paths []string
		nodes = map[string]*YAMLNode{}
	)
	err = walker.Walk(context.Background(), doc, func(ctx context.Context, n *YAMLNode) error {
		mu.Lock()
		defer mu.Unlock()
		if n.Kind() != "document" {
			paths = append(paths, n.Path())
			nodes[n.Path()] = n
		}
		return nil
	}, walker.Options{})
	require.NoError(t, err)

	sort.Strings(paths)
	assert.Equal(t, []string{
		"$",
		"$.defaults",
		"$.defaults.retries",
		"$.job",
		`$.job."dotted.key"`,
		"$.job.settings",
		"$.server",
		"$.server.host",
		"$.server.ports",
		"$.server.ports[0]",
		"$.server.ports[1]",
	}, paths)

	alias := nodes["$.job.settings"]
	require.NotNil(t, alias)
	assert.Equal(t, "alias", alias.Kind())
	assert.False(t, alias.IsContainer())
	assert.Equal(t, "$.job.settings -> *defaults", alias.Label())

	port := nodes["$.server.ports[1]"]
	assert.Equal(t, "scalar", port.Kind())
	assert.Equal(t, "443", port.Value())
	assert.Equal(t, "$.server.ports[1] = 443", port.Label())
	assert.Equal(t, 4, port.Depth())
	assert.Equal(t, 4, port.Line())

	assert.Equal(t, "$.server (mapping)", nodes["$.server"].Label())
}

func TestParseYAMLErrors(t *testing.T) {
	_, err := ParseYAML([]byte("key: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse YAML")

	doc, err := ParseYAML(nil)
	require.NoError(t, err)
	assert.True(t, doc.IsContainer())
	children, err := doc.Children()
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "short", in: "héllo  wörld", want: "héllo wörld"},
		{name: "ascii", in: strings.Repeat("a", 60), want: strings.Repeat("a", 45) + "..."},
		{name: "cut inside rune", in: strings.Repeat("a", 44) + "ééééé", want: strings.Repeat("a", 44) + "..."},
		{name: "rune ends at cut", in: strings.Repeat("a", 43) + "ééééé", want: strings.Repeat("a", 43) + "é..."},
		{name: "four byte runes", in: strings.Repeat("🌲", 20), want: strings.Repeat("🌲", 11) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestYAMLLabelTruncatesValidUTF8(t *testing.T) {
	root, err := ParseYAML([]byte("title: " + strings.Repeat("ü", 40) + "\n"))
	require.NoError(t, err)

	mapping, err := root.Children()
	require.NoError(t, err)
	require.Len(t, mapping, 1)
	values, err := mapping[0].Children()
	require.NoError(t, err)
	require.Len(t, values, 1)

	label := values[0].Label()
	assert.True(t, utf8.ValidString(label), label)
	assert.True(t, strings.HasSuffix(label, "..."), label)
}
