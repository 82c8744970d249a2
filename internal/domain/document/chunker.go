package document

import "strings"

// Chunker splits normalized text into overlapping windows, breaking on word
// boundaries so no chunk starts or ends mid-word.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker constructs a chunker. Overlap must be smaller than size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts content into chunk texts. Whitespace-only input yields nothing.
func (c *Chunker) Split(content string) []string {
	content = normalize(content)
	if len(content) == 0 {
		return nil
	}

	var out []string
	start := 0

	for start < len(content) {
		end := start + c.size
		if end > len(content) {
			end = len(content)
		}

		// Try to break at a word boundary
		if end < len(content) {
			lastSpace := strings.LastIndex(content[start:end], " ")
			if lastSpace > 0 {
				end = start + lastSpace
			}
		}

		chunk := strings.TrimSpace(content[start:end])
		if len(chunk) > 0 {
			out = append(out, chunk)
		}

		if end >= len(content) {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = end
		} else if content[next-1] != ' ' {
			// The overlap rewind may land mid-word; advance to the next
			// word start so no chunk begins with a fragment.
			if sp := strings.IndexByte(content[next:end], ' '); sp >= 0 {
				next += sp + 1
			} else {
				next = end
			}
		}
		start = next
	}

	return out
}

// normalize collapses line endings and trims the document edges.
func normalize(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\x00", "")
	return strings.TrimSpace(content)
}
