package chunker

import (
	"strings"

	"github.com/dgallion1/docbuild/internal/parser"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sizes suited to short page summaries.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    300,
		ChunkOverlap: 40,
		MinChunk:     1,
	}
}

// Section is a heading with the text under it and its subsections.
type Section struct {
	Title    string
	Anchor   string
	Level    int
	Text     string
	Children []*Section
}

// Chunk is a bounded piece of a section's text plus where it sits in the
// page.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Breadcrumb []string `json:"breadcrumb"`
	Anchor     string   `json:"anchor,omitempty"`
}

// Sections nests a page's blocks under their headings. Text before the
// first heading becomes an untitled leading section. Anchors are assigned
// the same way the page's heading anchors are.
func Sections(blocks []parser.Block) []*Section {
	type stackEntry struct {
		node  *Section
		level int
	}
	root := &Section{}
	stack := []stackEntry{{node: root, level: 0}}
	anchors := parser.NewAnchorSet()

	var currentText strings.Builder
	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" {
			top := stack[len(stack)-1].node
			if top.Text != "" {
				top.Text += "\n\n" + t
			} else {
				top.Text = t
			}
		}
		currentText.Reset()
	}

	for _, b := range blocks {
		if b.Level == 0 {
			if currentText.Len() > 0 {
				currentText.WriteString("\n\n")
			}
			currentText.WriteString(b.Text)
			continue
		}
		flushText()
		sec := &Section{Title: b.Text, Anchor: anchors.Add(b.Text), Level: b.Level}
		for len(stack) > 1 && stack[len(stack)-1].level >= b.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, sec)
		stack = append(stack, stackEntry{node: sec, level: b.Level})
	}
	flushText()

	if root.Text == "" {
		return root.Children
	}
	return append([]*Section{{Text: root.Text}}, root.Children...)
}

// ChunkSections walks a section tree and produces structure-aware chunks.
func ChunkSections(sections []*Section, cfg Config) []Chunk {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = def.MinChunk
	}

	var chunks []Chunk
	index := 0
	for _, sec := range sections {
		index = walkSection(sec, nil, cfg, &chunks, index)
	}
	return chunks
}

func walkSection(sec *Section, breadcrumb []string, cfg Config, chunks *[]Chunk, index int) int {
	var bc []string
	bc = append(bc, breadcrumb...)
	if sec.Title != "" {
		bc = append(bc, sec.Title)
	}

	if sec.Text != "" {
		parts := []string{sec.Text}
		if EstimateTokens(sec.Text) > cfg.ChunkSize {
			parts = splitText(sec.Text, cfg.ChunkSize, cfg.ChunkOverlap)
		}
		for _, part := range parts {
			if EstimateTokens(part) < cfg.MinChunk {
				continue
			}
			*chunks = append(*chunks, Chunk{
				Text:       part,
				Index:      index,
				Breadcrumb: copyBreadcrumb(bc),
				Anchor:     sec.Anchor,
			})
			index++
		}
	}

	for _, child := range sec.Children {
		index = walkSection(child, bc, cfg, chunks, index)
	}
	return index
}

// splitText breaks text into chunks of approximately targetTokens, with overlap.
func splitText(text string, targetTokens, overlapTokens int) []string {
	// Split by paragraphs first.
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		// If a single paragraph exceeds the target, split it further.
		if paraTokens > targetTokens {
			// Flush current buffer.
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			// Split the large paragraph by sentences.
			subParts := splitBySentences(para, targetTokens, overlapTokens)
			result = append(result, subParts...)
			continue
		}

		// Would adding this paragraph exceed the target?
		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())

			// Start next chunk with overlap from end of current.
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	// Approximate: 1.33 tokens per word.
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func copyBreadcrumb(bc []string) []string {
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
