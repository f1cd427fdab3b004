package extract

// Chunking bounds. Settlements occasionally run hundreds of pages; chunks
// overlap slightly so a term split across the boundary appears whole in at
// least one chunk.
const (
	defaultMaxChunkChars = 70_000
	defaultChunkOverlap  = 500
	boundaryWindow       = 5_000
)

// chunkText splits text into sequential chunks of at most maxChars,
// preferring to break on a paragraph, line, or sentence boundary within the
// last boundaryWindow characters of each chunk.
func chunkText(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = defaultMaxChunkChars
	}
	if overlap < 0 {
		overlap = defaultChunkOverlap
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + maxChars
		if end < len(text) {
			end = findBoundary(text, start, end)
		} else {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end >= len(text) {
			break
		}
		start = end - overlap
	}
	return chunks
}

func findBoundary(text string, start, end int) int {
	searchFrom := start + (end - start) - boundaryWindow
	if searchFrom < start {
		searchFrom = start
	}
	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if idx := lastIndexRange(text, sep, searchFrom, end); idx > start {
			return idx + len(sep)
		}
	}
	return end
}

func lastIndexRange(text, sep string, from, to int) int {
	if to > len(text) {
		to = len(text)
	}
	for i := to - len(sep); i >= from; i-- {
		if text[i:i+len(sep)] == sep {
			return i
		}
	}
	return -1
}
