// Package chunker splits fetched documents into overlapping passages
// sized for embedding.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 600

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 80

// MinChunkLength is the minimum length of a useful chunk. Shorter
// fragments are navigation crumbs or cut-off sentences and are dropped.
const MinChunkLength = 100

// boilerplatePairs identify chunks that are browser-compatibility or
// bot-wall boilerplate rather than page content. A chunk containing
// both words of any pair is dropped.
var boilerplatePairs = [][2]string{
	{"enable", "javascript"},
	{"enable", "cookie"},
	{"verify", "human"},
}

// Splitter splits document text into overlapping chunks on paragraph
// and sentence boundaries.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a new splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave room for fresh content in every chunk.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Split splits a document into ordered, overlapping chunks. Documents
// that failed to fetch or carry no text yield an empty sequence.
func (s *Splitter) Split(doc domain.Document) []domain.Chunk {
	if !doc.OK() {
		return nil
	}

	units := splitUnits(doc.Text)
	if len(units) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	var current strings.Builder
	carry := ""

	flush := func() {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if !usableChunk(text) {
			carry = ""
			return
		}
		chunks = append(chunks, domain.Chunk{
			ID:          uuid.New().String(),
			DocumentURL: doc.URL,
			Ordinal:     len(chunks),
			Text:        text,
		})
		carry = tail(text, s.overlap)
	}

	for _, unit := range units {
		// Units longer than a whole chunk get fixed-window slices.
		if len(unit) > s.chunkSize {
			if current.Len() > 0 {
				flush()
			}
			for start := 0; start < len(unit); start += s.chunkSize - s.overlap {
				end := start + s.chunkSize
				if end > len(unit) {
					end = len(unit)
				}
				current.WriteString(unit[start:end])
				flush()
				if end == len(unit) {
					break
				}
			}
			continue
		}

		if current.Len()+len(unit)+1 > s.chunkSize && current.Len() > 0 {
			flush()
			if carry != "" {
				current.WriteString(carry)
				current.WriteByte(' ')
			}
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(unit)
	}
	if current.Len() > 0 {
		flush()
	}

	return chunks
}

// splitUnits breaks text into sentence-or-paragraph units, normalising
// whitespace on the way.
func splitUnits(text string) []string {
	var units []string
	for _, para := range strings.Split(text, "\n") {
		para = collapseSpaces(strings.TrimSpace(para))
		if para == "" {
			continue
		}
		units = append(units, splitSentences(para)...)
	}
	return units
}

// splitSentences splits a paragraph on common sentence terminators.
func splitSentences(para string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range para {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '。' || r == '！' || r == '？' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func collapseSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

// usableChunk reports whether a chunk is long enough to be worth
// embedding and is not boilerplate.
func usableChunk(text string) bool {
	if len(text) < MinChunkLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, pair := range boilerplatePairs {
		if strings.Contains(lower, pair[0]) && strings.Contains(lower, pair[1]) {
			return false
		}
	}
	return true
}

// tail returns the last n bytes of s, trimmed to a rune boundary.
func tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		if n <= 0 {
			return ""
		}
		return s
	}
	cut := s[len(s)-n:]
	// Do not split a multi-byte rune.
	for len(cut) > 0 && (cut[0]&0xC0) == 0x80 {
		cut = cut[1:]
	}
	return cut
}
