package utils

import "strings"

// SplitText splits a long string into chunks of approximately 'chunkSize'
// runes with 'overlap' runes carried over between neighbours. Chunk
// boundaries prefer a sentence end, then any whitespace, inside the second
// half of the window, so references read cleanly when injected into a
// prompt.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	totalLen := len(runes)

	for start := 0; start < totalLen; {
		end := start + chunkSize
		if end >= totalLen {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:totalLen])))
			break
		}

		cut := breakPoint(runes, start, end)
		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))

		next := cut - overlap
		if next <= start {
			next = cut // always make forward progress
		}
		start = next
	}

	return chunks
}

// breakPoint finds the best cut position in (start, end]: the last sentence
// terminator in the second half of the window, else the last whitespace,
// else the hard limit.
func breakPoint(runes []rune, start, end int) int {
	window := end - (end-start)/2
	lastSpace := -1
	for i := end - 1; i >= window; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		case ' ', '\t':
			if lastSpace < 0 {
				lastSpace = i
			}
		}
	}
	if lastSpace > 0 {
		return lastSpace + 1
	}
	return end
}
