package chunker

import (
	"strings"

	"github.com/nlpforge/raglab/internal/document"
)

// SentenceSplitter packs whole sentences into chunks up to ChunkSize
// characters, carrying trailing sentences of up to ChunkOverlap
// characters into the next chunk. Sentence boundaries are respected, so
// chunks keep semantic units intact.
type SentenceSplitter struct {
	ChunkSize          int
	ChunkOverlap       int
	ParagraphSeparator string
}

// NewSentenceSplitter creates a sentence splitter with the given
// character budget and overlap.
func NewSentenceSplitter(chunkSize, chunkOverlap int) *SentenceSplitter {
	return &SentenceSplitter{
		ChunkSize:          chunkSize,
		ChunkOverlap:       chunkOverlap,
		ParagraphSeparator: defaultParagraphBreak,
	}
}

// Split implements Splitter.
func (s *SentenceSplitter) Split(docs []document.Document) []Node {
	var nodes []Node
	for _, doc := range docs {
		for _, text := range s.splitText(doc.Text) {
			nodes = append(nodes, newNode(doc.ID, text))
		}
	}
	return nodes
}

func (s *SentenceSplitter) splitText(text string) []string {
	sentences := splitSentences(text, s.ParagraphSeparator)

	var chunks []string
	var buffer []string
	bufferLen := 0
	fresh := 0 // sentences in buffer not yet emitted in any chunk

	flush := func() {
		if len(buffer) == 0 || fresh == 0 {
			return
		}
		chunks = append(chunks, strings.Join(buffer, " "))

		// Carry trailing sentences into the next chunk as overlap.
		var carried []string
		carriedLen := 0
		for i := len(buffer) - 1; i >= 0; i-- {
			l := runeLen(buffer[i])
			if carriedLen+l > s.ChunkOverlap {
				break
			}
			carried = append([]string{buffer[i]}, carried...)
			carriedLen += l
		}
		buffer = carried
		bufferLen = carriedLen
		fresh = 0
	}

	for _, sentence := range sentences {
		l := runeLen(sentence)

		// A single sentence longer than the budget is hard-split so no
		// chunk exceeds ChunkSize.
		if s.ChunkSize > 0 && l > s.ChunkSize {
			flush()
			buffer = nil
			bufferLen = 0
			fresh = 0
			chunks = append(chunks, hardSplit(sentence, s.ChunkSize)...)
			continue
		}

		if bufferLen > 0 && bufferLen+l+1 > s.ChunkSize {
			flush()
		}
		if len(buffer) > 0 {
			bufferLen++ // joining space
		}
		buffer = append(buffer, sentence)
		bufferLen += l
		fresh++
	}

	flush()
	return chunks
}

// hardSplit cuts a string into rune-bounded pieces of at most size runes.
func hardSplit(s string, size int) []string {
	var pieces []string
	runes := []rune(s)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
