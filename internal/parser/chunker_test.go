package parser

import (
	"reflect"
	"strings"
	"testing"

	"finrag/internal/models"
)

func repeatText(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("net sales rose while operating costs stayed flat across segments. ")
	}
	return string([]rune(b.String())[:n])
}

func TestSplitUnitDeterministic(t *testing.T) {
	u := models.Unit{Text: repeatText(5000), PageNumber: 3, SourceID: "r.pdf"}
	a := SplitUnit(u, models.SectionOther)
	b := SplitUnit(u, models.SectionOther)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two splitting runs of the same input differ")
	}
}

func TestSplitUnitCoverage(t *testing.T) {
	for _, section := range []models.Section{models.SectionFinancials, models.SectionOther} {
		u := models.Unit{Text: repeatText(4321), PageNumber: 1, SourceID: "r.pdf"}
		p := models.ParamsFor(section)
		chunks := SplitUnit(u, section)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks for %d runes", len(u.Text))
		}
		var rebuilt strings.Builder
		rebuilt.WriteString(chunks[0].Content)
		for _, c := range chunks[1:] {
			rebuilt.WriteString(string([]rune(c.Content)[p.Overlap:]))
		}
		if rebuilt.String() != u.Text {
			t.Errorf("section %s: concatenating chunks minus overlaps does not reconstruct the unit", section)
		}
	}
}

func TestSplitUnitExactOverlap(t *testing.T) {
	u := models.Unit{Text: repeatText(6000), PageNumber: 2, SourceID: "r.pdf"}
	p := models.ParamsFor(models.SectionFinancials)
	if p.Size != 1800 || p.Overlap != 300 {
		t.Fatalf("unexpected financials params: %+v", p)
	}
	chunks := SplitUnit(u, models.SectionFinancials)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		cur := []rune(chunks[i].Content)
		tail := string(prev[len(prev)-p.Overlap:])
		head := string(cur[:p.Overlap])
		if tail != head {
			t.Fatalf("chunks %d and %d overlap by something other than %d runes", i-1, i, p.Overlap)
		}
	}
	// every non-final chunk is exactly the window size
	for i := 0; i < len(chunks)-1; i++ {
		if got := len([]rune(chunks[i].Content)); got != p.Size {
			t.Errorf("chunk %d has %d runes, want %d", i, got, p.Size)
		}
	}
}

func TestSplitUnitSectionParams(t *testing.T) {
	narrative := models.ParamsFor(models.SectionRisk)
	if narrative.Size != 1200 || narrative.Overlap != 150 {
		t.Fatalf("unexpected narrative params: %+v", narrative)
	}
	if notes := models.ParamsFor(models.SectionNotes); notes.Size != 1800 || notes.Overlap != 300 {
		t.Fatalf("unexpected notes params: %+v", notes)
	}
}

func TestSplitUnitShortText(t *testing.T) {
	u := models.Unit{Text: "Revenue was 100.", PageNumber: 5, SourceID: "r.pdf"}
	chunks := SplitUnit(u, models.SectionFinancials)
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Content != u.Text || c.PageNumber != 5 || c.ChunkID != 1 || c.Section != models.SectionFinancials {
		t.Errorf("unexpected chunk: %+v", c)
	}
}

func TestSplitUnitEmpty(t *testing.T) {
	if got := SplitUnit(models.Unit{Text: ""}, models.SectionOther); got != nil {
		t.Errorf("expected no chunks for empty text, got %d", len(got))
	}
}

func TestBuildChunksDropsLegal(t *testing.T) {
	units := []models.Unit{
		{Text: "Chairman's letter about strategy.", PageNumber: 1, SourceID: "r.pdf"},
		{Text: "AGM Notice: e-voting opens March 1", PageNumber: 2, SourceID: "r.pdf"},
		{Text: "Balance Sheet\nRevenue | 100 | 120", PageNumber: 3, SourceID: "r.pdf"},
	}
	chunks := BuildChunks(units, false)
	if len(chunks) == 0 {
		t.Fatal("expected chunks from non-legal pages")
	}
	for _, c := range chunks {
		if c.Section == models.SectionLegal {
			t.Fatalf("legal chunk reached the output: %+v", c)
		}
		if c.PageNumber == 2 || strings.Contains(c.Content, "e-voting") {
			t.Fatalf("content from the legal page leaked into chunks: %+v", c)
		}
	}
	pages := map[int]bool{}
	for _, c := range chunks {
		pages[c.PageNumber] = true
	}
	if !pages[1] || !pages[3] {
		t.Errorf("expected chunks from pages 1 and 3, got pages %v", pages)
	}
}
