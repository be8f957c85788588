package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/ports"
)

// separators are tried in order; the first one present in the text wins,
// and oversized fragments recurse with the remaining ones.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts document bodies into overlapping character chunks along
// paragraph, line, and word boundaries. Discussions run about 2500
// characters, so the defaults of 1000/100 yield a handful of chunks each.
type Splitter struct {
	chunkSize int
	overlap   int
}

var _ ports.Chunker = (*Splitter)(nil)

// NewSplitter builds a splitter; non-positive arguments fall back to 1000/100.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split chunks the document body and records each chunk's start index.
func (s *Splitter) Split(doc domain.Document) []domain.Chunk {
	body := doc.Body
	pieces := s.splitText(body, separators)

	var chunks []domain.Chunk
	cursor := 0
	for _, piece := range pieces {
		content := strings.TrimSpace(piece)
		if content == "" {
			continue
		}

		start := strings.Index(body[cursor:], content)
		if start < 0 {
			// Overlapping regions are searched from the previous chunk start.
			start = strings.Index(body, content)
			if start < 0 {
				start = cursor
			}
		} else {
			start += cursor
		}

		chunks = append(chunks, domain.Chunk{
			ID:           uuid.NewString(),
			DocumentPath: doc.Path,
			Content:      content,
			StartIndex:   start,
		})
		cursor = start + 1
	}

	return chunks
}

func (s *Splitter) splitText(text string, seps []string) []string {
	sep := ""
	rest := []string{}
	for i, cand := range seps {
		if cand == "" || strings.Contains(text, cand) {
			sep = cand
			rest = seps[i+1:]
			break
		}
	}

	var splits []string
	if sep == "" {
		splits = splitEvery(text, s.chunkSize)
	} else {
		// SplitAfter keeps separators attached so chunks stay exact
		// substrings of the source and start indexes remain findable.
		splits = strings.SplitAfter(text, sep)
	}

	var out []string
	var small []string
	for _, piece := range splits {
		if piece == "" {
			continue
		}
		if len(piece) <= s.chunkSize {
			small = append(small, piece)
			continue
		}

		out = append(out, s.merge(small)...)
		small = nil

		if len(rest) > 0 {
			out = append(out, s.splitText(piece, rest)...)
		} else {
			out = append(out, piece)
		}
	}

	return append(out, s.merge(small)...)
}

// merge greedily joins small pieces up to the chunk size, carrying a tail of
// at most overlap characters into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var out []string
	var window []string
	length := 0

	for _, piece := range pieces {
		if length+len(piece) > s.chunkSize && length > 0 {
			out = append(out, strings.Join(window, ""))
			// Drain until the tail fits the overlap budget and leaves
			// room for the incoming piece.
			for len(window) > 0 && (length > s.overlap || length+len(piece) > s.chunkSize) {
				length -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		length += len(piece)
	}

	if length > 0 {
		out = append(out, strings.Join(window, ""))
	}
	return out
}

// splitEvery cuts separator-less text into pieces of at most size bytes,
// breaking only on rune boundaries.
func splitEvery(text string, size int) []string {
	if size <= 0 {
		return []string{text}
	}
	var out []string
	var b strings.Builder
	for _, r := range text {
		if b.Len()+utf8.RuneLen(r) > size && b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
