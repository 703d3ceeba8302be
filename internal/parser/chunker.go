package parser

import (
	"strings"

	"github.com/rs/zerolog/log"

	"finrag/internal/models"
)

// window slices text into fixed-size rune windows where consecutive
// windows share exactly overlap runes. No break-point search: the split
// is a pure function of the input, and concatenating the windows minus
// the overlaps reproduces the input byte for byte.
func window(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	r := []rune(text)
	if len(r) == 0 {
		return nil
	}
	step := size - overlap
	var out []string
	for start := 0; start < len(r); start += step {
		end := start + size
		if end >= len(r) {
			out = append(out, string(r[start:]))
			break
		}
		out = append(out, string(r[start:end]))
	}
	return out
}

// SplitUnit cuts one classified unit into chunks using the window
// parameters of its section.
func SplitUnit(u models.Unit, section models.Section) []models.Chunk {
	p := models.ParamsFor(section)
	pieces := window(u.Text, p.Size, p.Overlap)
	chunks := make([]models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, models.Chunk{
			Content:    piece,
			Section:    section,
			PageNumber: u.PageNumber,
			ChunkID:    i + 1,
			SourceID:   u.SourceID,
		})
	}
	return chunks
}

// BuildChunks classifies each unit, drops legal/notice content and
// splits the rest. Markdown units are partitioned by headings first so
// a table under one heading is not split across section boundaries.
func BuildChunks(units []models.Unit, markdownAware bool) []models.Chunk {
	var chunks []models.Chunk
	for _, u := range units {
		if strings.TrimSpace(u.Text) == "" {
			continue
		}
		if markdownAware {
			// classification and the legal drop happen per heading partition
			chunks = append(chunks, SplitMarkdownUnit(u)...)
			continue
		}
		section := Classify(u.Text)
		if section == models.SectionLegal {
			log.Debug().Int("page", u.PageNumber).Msg("dropping legal/notice unit")
			continue
		}
		chunks = append(chunks, SplitUnit(u, section)...)
	}
	return chunks
}
