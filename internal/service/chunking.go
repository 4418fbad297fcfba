package service

import (
	"strings"
	"unicode"
)

// ChunkConfig controls how source text is split for embedding.
type ChunkConfig struct {
	// MinParagraphChars drops trivial paragraphs (headings, stray lines).
	MinParagraphChars int
	// MaxChunkChars caps one chunk; longer paragraphs are re-split by sentence.
	MaxChunkChars int
	// MaxChunks bounds how many chunks a single document produces.
	MaxChunks int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MinParagraphChars: 80,
		MaxChunkChars:     1600,
		MaxChunks:         60,
	}
}

// ChunkText splits source text into embedding-sized chunks: blank-line
// paragraphs first, then sentence packing for paragraphs that exceed the
// chunk cap. Text with no usable paragraphs falls back to a single chunk.
func ChunkText(text string, cfg ChunkConfig) []string {
	if cfg.MaxChunkChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}

	paragraphs := splitParagraphs(clean, cfg.MinParagraphChars)
	if len(paragraphs) == 0 {
		paragraphs = []string{clean}
	}

	chunks := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if len([]rune(p)) <= cfg.MaxChunkChars {
			chunks = append(chunks, p)
		} else {
			chunks = append(chunks, packSentences(p, cfg.MaxChunkChars)...)
		}
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			chunks = chunks[:cfg.MaxChunks]
			break
		}
	}

	return chunks
}

func splitParagraphs(text string, minChars int) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []string
	for _, block := range strings.Split(normalized, "\n\n") {
		p := strings.TrimSpace(block)
		if p == "" || len([]rune(p)) < minChars {
			continue
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

// packSentences greedily packs sentences into chunks of at most maxChars.
// Text without sentence terminators comes back as a single chunk.
func packSentences(text string, maxChars int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return []string{text}
	}

	var chunks []string
	var b strings.Builder
	for _, s := range sentences {
		if b.Len() > 0 && len([]rune(b.String()))+len([]rune(s))+1 > maxChars {
			chunks = append(chunks, strings.TrimSpace(b.String()))
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	if b.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(b.String()))
	}
	return chunks
}

func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// Only split when the terminator ends the sentence, not "3.14".
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				continue
			}
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
