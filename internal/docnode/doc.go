// Package docnode exposes parsed Markdown and YAML documents as walker nodes.
package docnode
