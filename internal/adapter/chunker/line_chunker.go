package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/domain"
)

// LineChunker splits a document on line boundaries into chunks of at most
// maxTokens, repeating roughly overlap tokens between neighbours.
type LineChunker struct {
	maxTokens int
	overlap   int
	tokenizer *analyzer.Tokenizer
}

func NewLineChunker(maxTokens, overlap int, tokenizer *analyzer.Tokenizer) *LineChunker {
	return &LineChunker{
		maxTokens: maxTokens,
		overlap:   overlap,
		tokenizer: tokenizer,
	}
}

func (c *LineChunker) Chunk(doc domain.Document, content string) ([]domain.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	lines := strings.Split(content, "\n")

	var chunks []domain.Chunk
	startLine := 0

	for startLine < len(lines) {
		endLine := startLine
		currentTokens := 0
		var chunkText strings.Builder

		for endLine < len(lines) {
			lineTokens := c.tokenizer.CountTokens(lines[endLine])
			if currentTokens > 0 && currentTokens+lineTokens > c.maxTokens {
				break
			}
			if endLine > startLine {
				chunkText.WriteString("\n")
			}
			chunkText.WriteString(lines[endLine])
			currentTokens += lineTokens
			endLine++
		}

		text := chunkText.String()
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, domain.Chunk{
				ID:        generateChunkID(doc.ID, startLine, endLine),
				DocID:     doc.ID,
				Source:    doc.Source,
				StartLine: startLine + 1,
				EndLine:   endLine,
				Text:      text,
			})
		}
		if endLine >= len(lines) {
			break
		}

		newStart := endLine - c.overlapLines(lines, startLine, endLine)
		if newStart <= startLine {
			newStart = startLine + 1
		}
		startLine = newStart
	}

	return chunks, nil
}

func (c *LineChunker) overlapLines(lines []string, start, end int) int {
	if c.overlap == 0 {
		return 0
	}

	n := 0
	tokens := 0
	for i := end - 1; i >= start && tokens < c.overlap; i-- {
		tokens += c.tokenizer.CountTokens(lines[i])
		n++
	}
	return n
}

func generateChunkID(docID string, startLine, endLine int) string {
	data := fmt.Sprintf("%s:%d-%d", docID, startLine, endLine)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
