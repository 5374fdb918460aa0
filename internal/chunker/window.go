package chunker

import (
	"strings"

	"github.com/nlpforge/raglab/internal/document"
)

// SentenceWindowSplitter indexes individual sentences while keeping the
// surrounding sentences retrievable through node metadata. Retrieval
// matches against the single sentence; the query engine can then swap
// in the window for answer synthesis.
//
// Documents are first cut with a base sentence splitter so a document
// without terminal punctuation does not become one giant sentence.
type SentenceWindowSplitter struct {
	WindowSize   int
	BaseSplitter *SentenceSplitter
}

// NewSentenceWindowSplitter creates a window splitter keeping windowSize
// sentences on each side of the core sentence.
func NewSentenceWindowSplitter(windowSize int) *SentenceWindowSplitter {
	return &SentenceWindowSplitter{
		WindowSize:   windowSize,
		BaseSplitter: NewSentenceSplitter(512, 50),
	}
}

// Split implements Splitter.
func (w *SentenceWindowSplitter) Split(docs []document.Document) []Node {
	base := w.BaseSplitter.Split(docs)

	var nodes []Node
	for _, baseNode := range base {
		sentences := splitSentences(baseNode.Text, w.BaseSplitter.ParagraphSeparator)
		for i, sentence := range sentences {
			lo := i - w.WindowSize
			if lo < 0 {
				lo = 0
			}
			hi := i + w.WindowSize + 1
			if hi > len(sentences) {
				hi = len(sentences)
			}

			docID, _ := baseNode.Metadata[SourceDocumentKey].(string)
			node := newNode(docID, sentence)
			node.Metadata[WindowMetadataKey] = strings.Join(sentences[lo:hi], " ")
			node.Metadata[OriginalSentenceKey] = sentence
			nodes = append(nodes, node)
		}
	}
	return nodes
}
