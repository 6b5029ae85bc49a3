package document

import "strings"

// SplitText cuts content into overlapping chunks of at most size runes.
// Consecutive chunks share overlap runes so sentence fragments cut at a
// boundary still appear whole in one of the neighbours. Whitespace-only
// chunks are dropped.
func SplitText(content string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
