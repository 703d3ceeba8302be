package parser

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"finrag/internal/models"
)

// Headings at this level or above start a new partition; deeper
// headings stay inside the current one.
const headingSplitLevel = 3

type partition struct {
	heading string
	text    string
}

// partitionByHeadings walks the markdown AST and groups content under
// level 1-3 headings. Content before the first heading becomes an
// unnamed leading partition.
func partitionByHeadings(content []byte) []partition {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(content))

	var parts []partition
	var cur strings.Builder
	var heading string

	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			parts = append(parts, partition{heading: heading, text: t})
		}
		cur.Reset()
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if h, ok := n.(*ast.Heading); ok && h.Level <= headingSplitLevel {
				flush()
				heading = nodeText(h, content)
				cur.WriteString(heading + "\n\n")
				return ast.WalkSkipChildren, nil
			}
			if t, ok := n.(*ast.Text); ok {
				cur.Write(t.Segment.Value(content))
				if t.SoftLineBreak() || t.HardLineBreak() {
					cur.WriteString("\n")
				}
			}
		} else if _, ok := n.(*ast.Paragraph); ok {
			cur.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})
	flush()
	return parts
}

func nodeText(node ast.Node, source []byte) string {
	var buf strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

// SplitMarkdownUnit partitions a markdown unit by headings, classifies
// each partition on its own and windows it with its section's
// parameters. A markdown report is one unit, so section boundaries live
// at its headings; classifying per partition keeps a legal notice from
// riding into the index on the back of a financial heading.
func SplitMarkdownUnit(u models.Unit) []models.Chunk {
	parts := partitionByHeadings([]byte(u.Text))
	if len(parts) == 0 {
		return SplitUnit(u, Classify(u.Text))
	}
	var chunks []models.Chunk
	id := 0
	for _, part := range parts {
		section := Classify(part.text)
		if section == models.SectionLegal {
			log.Debug().Str("heading", part.heading).Msg("dropping legal/notice partition")
			continue
		}
		p := models.ParamsFor(section)
		for _, piece := range window(part.text, p.Size, p.Overlap) {
			id++
			chunks = append(chunks, models.Chunk{
				Content:    piece,
				Section:    section,
				PageNumber: u.PageNumber,
				ChunkID:    id,
				SourceID:   u.SourceID,
				Heading:    part.heading,
			})
		}
	}
	return chunks
}
