package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/harrison/treewalk/internal/docnode"
	"github.com/harrison/treewalk/internal/fsnode"
	"github.com/harrison/treewalk/internal/models"
	"github.com/harrison/treewalk/internal/visitors"
	"github.com/harrison/treewalk/internal/walker"
)

// walkFileSystem walks the directory tree at root with the named visitor.
func walkFileSystem(ctx context.Context, root string, fsOpts fsnode.Options, visitorName string, params visitors.Params, opts walker.Options) (models.WalkSummary, error) {
	entry, err := fsnode.New(root, fsOpts)
	if err != nil {
		return models.WalkSummary{}, err
	}
	params.Root = root
	v, err := visitors.Lookup(visitorName, params)
	if err != nil {
		return models.WalkSummary{}, err
	}

	summary, walkErr := walker.Run(ctx, entry, v.Visit, opts)
	if v.Finish != nil {
		if err := v.Finish(); err != nil && walkErr == nil {
			return summary, fmt.Errorf("visitor %s: %w", v.Name, err)
		}
	}
	return summary, walkErr
}

// walkDocument parses a Markdown or YAML file and prints its outline to out.
func walkDocument(ctx context.Context, source, path string, out io.Writer, opts walker.Options) (models.WalkSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.WalkSummary{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch source {
	case sourceMarkdown:
		return outline(ctx, docnode.ParseMarkdown(data), out, opts)
	case sourceYAML:
		root, err := docnode.ParseYAML(data)
		if err != nil {
			return models.WalkSummary{}, fmt.Errorf("%s: %w", path, err)
		}
		return outline(ctx, root, out, opts)
	default:
		return models.WalkSummary{}, fmt.Errorf("invalid source %q", source)
	}
}

// outlineNode is a document node the walker can traverse and the outliner can print.
type outlineNode[N any] interface {
	walker.Node[N]
	visitors.OutlineNode
}

func outline[N outlineNode[N]](ctx context.Context, root N, out io.Writer, opts walker.Options) (models.WalkSummary, error) {
	o := visitors.NewOutliner[N]()
	summary, walkErr := walker.Run(ctx, root, o.Visit, opts)
	if err := o.Flush(out); err != nil && walkErr == nil {
		return summary, fmt.Errorf("failed to write outline: %w", err)
	}
	return summary, walkErr
}
