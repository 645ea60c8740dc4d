package lesson

import "strings"

// SplitParagraphs returns the trimmed, non-empty lines of text in order.
func SplitParagraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Chunk divides paragraphs into exactly n contiguous groups. Each group gets
// len/n paragraphs and the first len%n groups one more, so sizes differ by at
// most one. Groups may be empty when n exceeds the paragraph count. n < 1 is
// treated as 1.
func Chunk(paragraphs []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	size, extra := len(paragraphs)/n, len(paragraphs)%n

	chunks := make([][]string, n)
	start := 0
	for i := range chunks {
		end := start + size
		if i < extra {
			end++
		}
		chunks[i] = paragraphs[start:end:end]
		start = end
	}
	return chunks
}
