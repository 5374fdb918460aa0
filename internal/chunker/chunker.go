/**
 * Chunk splitters for the benchmark harness
 *
 * A Splitter turns loaded documents into an ordered sequence of chunk
 * nodes, the unit that gets embedded and indexed. Three strategies are
 * provided: sentence packing, token windows, and sentence windows.
 */

package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nlpforge/raglab/internal/document"
)

// Metadata keys attached by the sentence-window splitter.
const (
	WindowMetadataKey     = "window"
	OriginalSentenceKey   = "original_sentence"
	SourceDocumentKey     = "document_id"
	defaultParagraphBreak = "\n\n"
	defaultTokenSeparator = " "
)

// Node is one chunk of a source document.
type Node struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
}

// Splitter splits documents into an ordered sequence of chunk nodes.
type Splitter interface {
	Split(docs []document.Document) []Node
}

func newNode(docID, text string) Node {
	return Node{
		ID:   uuid.New().String(),
		Text: text,
		Metadata: map[string]interface{}{
			SourceDocumentKey: docID,
		},
	}
}

// splitSentences breaks text into trimmed sentences. Paragraph breaks
// always terminate a sentence; within a paragraph, sentences end at
// ASCII or CJK terminal punctuation.
func splitSentences(text, paragraphSeparator string) []string {
	if paragraphSeparator == "" {
		paragraphSeparator = defaultParagraphBreak
	}

	var sentences []string
	for _, para := range strings.Split(text, paragraphSeparator) {
		var current strings.Builder
		for _, r := range para {
			current.WriteRune(r)
			if isSentenceTerminal(r) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isSentenceTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// runeLen counts characters, not bytes, so CJK text budgets correctly.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
