package models

// Section is a coarse content category for a stretch of report text.
// Labels are best-effort keyword matches, not ground truth.
type Section string

const (
	SectionFinancials Section = "financials"
	SectionNotes      Section = "notes"
	SectionRisk       Section = "risk"
	SectionMDNA       Section = "mdna"
	SectionLegal      Section = "legal"
	SectionOther      Section = "other"
)

// ChunkParams holds the window size and overlap, in runes, used when
// splitting a unit of a given section.
type ChunkParams struct {
	Size    int
	Overlap int
}

// ParamsFor returns the chunking parameters for a section. Financial
// statements and their notes get larger windows so tables and figure
// groups stay together.
func ParamsFor(section Section) ChunkParams {
	switch section {
	case SectionFinancials, SectionNotes:
		return ChunkParams{Size: 1800, Overlap: 300}
	default:
		return ChunkParams{Size: 1200, Overlap: 150}
	}
}

// Unit is a segment of extracted document text, typically one PDF page.
type Unit struct {
	Text       string
	PageNumber int
	SourceID   string
}

// Chunk is a bounded text window cut from a classified unit.
type Chunk struct {
	Content    string
	Section    Section
	PageNumber int
	ChunkID    int
	SourceID   string
	Heading    string
}

// ChunkEmbedding pairs a chunk with its embedding vector.
type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

// ScoredChunk is a retrieval result: a chunk, its stored vector and its
// similarity to the query.
type ScoredChunk struct {
	Chunk
	Embedding []float32
	Score     float64
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one message in the session history.
type ChatTurn struct {
	Role    Role
	Content string
}

// Citation points the user at the place an answer was drawn from.
type Citation struct {
	Index   int
	Page    string
	Excerpt string
}
