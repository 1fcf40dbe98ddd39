// Package manifest parses SUMMARY.md-style table of contents files.
package manifest

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/dgallion1/docbuild/internal/doctree"
)

// DefaultPath is the manifest file name inside a documentation root.
const DefaultPath = "SUMMARY.md"

const tabWidth = 4

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	bulletRe  = regexp.MustCompile(`^[*+-](?:\s+(.*))?$`)
	linkRe    = regexp.MustCompile(`^\[(.*)\]\(\s*(<[^>]*>|[^)\s]*)(?:\s+"([^"]*)")?\s*\)\s*$`)
	schemeRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Parse parses manifest text using DefaultPath as the issue location.
func Parse(text string) (*doctree.ManifestNode, []doctree.Issue) {
	return ParseNamed(DefaultPath, text)
}

// ParseNamed parses a nested-list manifest into a tree rooted at an untitled
// node. Nesting depth in the list maps one-to-one to tree depth. Malformed
// lines are reported and recovered from; parsing never fails.
func ParseNamed(name, text string) (*doctree.ManifestNode, []doctree.Issue) {
	type stackEntry struct {
		node   *doctree.ManifestNode
		indent int
	}

	root := &doctree.ManifestNode{}
	stack := []stackEntry{{node: root, indent: -1}}
	var issues []doctree.Issue
	rejected := make(map[int]bool)

	offset := 0
	inComment := false
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		lineOffset := offset
		offset += len(line) + 1
		line = strings.TrimRight(line, "\r")

		indent, content := measureIndent(line)
		if content == "" {
			continue
		}
		if inComment || strings.HasPrefix(content, "<!--") {
			inComment = !strings.Contains(content, "-->")
			continue
		}
		if isRule(content) {
			continue
		}

		if indent < tabWidth {
			if m := headingRe.FindStringSubmatch(content); m != nil {
				if len(m[1]) == 1 {
					if root.Title == "" {
						root.Title = m[2]
					}
					stack = stack[:1]
					continue
				}
				group := &doctree.ManifestNode{Title: m[2], Group: true, Line: lineNo, Depth: 1}
				root.Children = append(root.Children, group)
				stack = []stackEntry{{node: root, indent: -1}, {node: group, indent: -1}}
				continue
			}
		}

		m := bulletRe.FindStringSubmatch(content)
		if m == nil {
			issues = append(issues, doctree.Warnf(name, lineOffset, lineNo, "unrecognized manifest line %q", content))
			continue
		}

		node, itemIssues := parseItem(name, strings.TrimSpace(m[1]), lineOffset, lineNo)
		if len(itemIssues) > 0 {
			issues = append(issues, itemIssues...)
			rejected[lineNo] = true
		}

		// Pop until the top of the stack is at or above this indentation.
		popped := false
		for len(stack) > 1 && stack[len(stack)-1].indent > indent {
			stack = stack[:len(stack)-1]
			popped = true
		}
		switch top := stack[len(stack)-1]; {
		case top.indent == indent:
			stack = stack[:len(stack)-1]
		case popped:
			// A deeper level was open, so this item sits between two levels.
			issues = append(issues, doctree.Errorf(name, lineOffset, lineNo,
				"misaligned list item %q: indentation %d does not match any parent level", node.Title, indent))
		}

		parent := stack[len(stack)-1].node
		node.Depth = parent.Depth + 1
		parent.Children = append(parent.Children, node)
		stack = append(stack, stackEntry{node: node, indent: indent})
	}

	Walk(root, func(n *doctree.ManifestNode) {
		// A rejected link already has its error.
		if n.IsSection() && len(n.Children) == 0 && !rejected[n.Line] {
			issues = append(issues, doctree.Warnf(name, 0, n.Line, "section %q has no entries", n.Title))
		}
	})

	return root, issues
}

func parseItem(name, text string, offset, line int) (*doctree.ManifestNode, []doctree.Issue) {
	node := &doctree.ManifestNode{Line: line}
	m := linkRe.FindStringSubmatch(text)
	if m == nil {
		node.Title = text
		return node, nil
	}

	node.Title = strings.TrimSpace(m[1])
	node.Mention = m[3] == "mention"

	target := strings.TrimSuffix(strings.TrimPrefix(m[2], "<"), ">")
	if target == "" {
		return node, []doctree.Issue{doctree.Errorf(name, offset, line, "manifest entry %q has an empty link target", node.Title)}
	}
	if schemeRe.MatchString(target) || strings.HasPrefix(target, "//") {
		node.Path = target
		node.External = true
		return node, nil
	}

	p, anchor, _ := strings.Cut(target, "#")
	node.Anchor = anchor
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	p = path.Clean(strings.TrimPrefix(p, "/"))
	node.Path = p

	if p == ".." || strings.HasPrefix(p, "../") {
		return node, []doctree.Issue{doctree.Errorf(name, offset, line, "manifest entry %q points outside the documentation root: %s", node.Title, target)}
	}
	return node, nil
}

func measureIndent(line string) (int, string) {
	width := 0
	for i, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += tabWidth - width%tabWidth
		default:
			return width, strings.TrimSpace(line[i:])
		}
	}
	return width, ""
}

func isRule(s string) bool {
	var marker rune
	count := 0
	for _, r := range s {
		switch r {
		case ' ', '\t':
			continue
		case '-', '*', '_':
			if marker != 0 && r != marker {
				return false
			}
			marker = r
			count++
		default:
			return false
		}
	}
	return count >= 3
}
