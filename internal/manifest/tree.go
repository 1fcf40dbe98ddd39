package manifest

import (
	"strings"

	"github.com/dgallion1/docbuild/internal/doctree"
)

// Walk visits every node below root in pre-order: a node before its
// children, children in listed order. The root itself is not visited.
func Walk(root *doctree.ManifestNode, fn func(*doctree.ManifestNode)) {
	if root == nil {
		return
	}
	for _, child := range root.Children {
		fn(child)
		Walk(child, fn)
	}
}

// Count returns the number of nodes below root.
func Count(root *doctree.ManifestNode) int {
	n := 0
	Walk(root, func(*doctree.ManifestNode) { n++ })
	return n
}

// PagePaths returns the page paths referenced by the manifest in document
// order, without duplicates and without external links.
func PagePaths(root *doctree.ManifestNode) []string {
	seen := make(map[string]bool)
	var paths []string
	Walk(root, func(n *doctree.ManifestNode) {
		if n.IsSection() || n.External || seen[n.Path] {
			return
		}
		seen[n.Path] = true
		paths = append(paths, n.Path)
	})
	return paths
}

// Serialize writes the tree back out as a nested Markdown list with two
// spaces per level. Group nodes become "## Title" lines.
func Serialize(root *doctree.ManifestNode) string {
	var sb strings.Builder
	if root.Title != "" {
		sb.WriteString("# " + root.Title + "\n\n")
	}

	var walk func(n *doctree.ManifestNode, level int)
	walk = func(n *doctree.ManifestNode, level int) {
		sb.WriteString(strings.Repeat("  ", level))
		sb.WriteString("* ")
		sb.WriteString(itemText(n))
		sb.WriteString("\n")
		for _, c := range n.Children {
			walk(c, level+1)
		}
	}

	for _, child := range root.Children {
		if child.Group {
			sb.WriteString("\n## " + child.Title + "\n\n")
			for _, c := range child.Children {
				walk(c, 0)
			}
			continue
		}
		walk(child, 0)
	}
	return sb.String()
}

func itemText(n *doctree.ManifestNode) string {
	if n.IsSection() {
		return n.Title
	}
	target := n.Path
	if n.Anchor != "" {
		target += "#" + n.Anchor
	}
	if strings.ContainsAny(target, " ()") {
		target = "<" + target + ">"
	}
	if n.Mention {
		return "[" + n.Title + "](" + target + ` "mention")`
	}
	return "[" + n.Title + "](" + target + ")"
}
