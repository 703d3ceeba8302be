package models

const (
	// NoDocumentMessage is returned verbatim when a question arrives
	// before any report has been indexed. No backend call is made.
	NoDocumentMessage = "Please upload a document first to start the analysis."

	// FallbackAnswer is the sentence the model is instructed to use when
	// the retrieved context does not contain the answer.
	FallbackAnswer = "I don't have this information in the document."

	// ContextSeparator joins formatted chunks in the generation prompt.
	ContextSeparator = "\n\n---\n\n"

	// ExcerptRunes caps the length of a citation excerpt.
	ExcerptRunes = 300

	// UnknownPage is the citation page label for chunks without page metadata.
	UnknownPage = "Unknown"
)

const ContextualizePrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, formulate a standalone " +
	"question which can be understood without the chat history. Do NOT answer " +
	"the question, just reformulate it if needed and otherwise return it as is."

const AnalystSystemPrompt = `You are an expert Financial Analyst specializing in annual report analysis. Use the retrieved context to answer questions about financial performance, risks, and strategy. When analyzing tables, carefully examine rows and columns. Expand financial terminology: 'revenue' includes 'total income', 'net sales', 'turnover'. If the answer is not in the context, say '` + FallbackAnswer + `' Always be precise and cite specific figures when available.

Context:
%s`
