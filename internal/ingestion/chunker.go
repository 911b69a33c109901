package ingestion

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// SplitIntoChunks slices text into overlapping windows. Chunk size is
// clamped to a sane minimum so a bad config cannot produce thousands
// of tiny points. Windows are cut on rune boundaries; uploads are user
// text and a byte cut could split a multibyte character.
func SplitIntoChunks(text string, chunkSize int, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if chunkSize < 200 {
		chunkSize = 200
	}
	if overlap < 0 {
		overlap = 0
	}
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	out := []string{}
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		p := strings.TrimSpace(string(runes[start:end]))
		if p != "" {
			out = append(out, p)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
