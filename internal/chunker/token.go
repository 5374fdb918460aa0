package chunker

import (
	"strings"

	"github.com/nlpforge/raglab/internal/document"
)

// TokenSplitter cuts text into fixed-size token windows with token
// overlap. It gives precise control over chunk length at the cost of
// ignoring sentence boundaries.
type TokenSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

// NewTokenSplitter creates a token splitter with the given token budget
// and overlap.
func NewTokenSplitter(chunkSize, chunkOverlap int) *TokenSplitter {
	return &TokenSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separator:    defaultTokenSeparator,
	}
}

// Split implements Splitter.
func (t *TokenSplitter) Split(docs []document.Document) []Node {
	var nodes []Node
	for _, doc := range docs {
		for _, text := range t.splitText(doc.Text) {
			nodes = append(nodes, newNode(doc.ID, text))
		}
	}
	return nodes
}

func (t *TokenSplitter) splitText(text string) []string {
	tokens := t.tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	size := t.ChunkSize
	if size < 1 {
		size = 1
	}
	step := size - t.ChunkOverlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], t.Separator))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

func (t *TokenSplitter) tokenize(text string) []string {
	if t.Separator == "" || t.Separator == defaultTokenSeparator {
		return strings.Fields(text)
	}
	var tokens []string
	for _, tok := range strings.Split(text, t.Separator) {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
