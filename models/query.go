package models

// QueryRequest is a single retrieve-and-generate request against a knowledge base.
type QueryRequest struct {
	// Text of the question.
	Text            string `json:"text"`
	KnowledgeBaseID string `json:"knowledgeBaseId"`
	// ModelReference is a model ID or a full model ARN.
	ModelReference string `json:"modelReference"`
	// ResultCount is the number of chunks returned by vector search.
	ResultCount int `json:"resultCount"`
	// UseQueryDecomposition asks the service to split the question into
	// sub-queries before retrieval.
	UseQueryDecomposition bool `json:"useQueryDecomposition"`
	// SessionID continues an existing conversation, if set.
	SessionID string `json:"sessionId,omitempty"`
}

type Location struct {
	// Type of the source, e.g. S3, WEB, CONFLUENCE.
	Type string `json:"type"`
	URI  string `json:"uri,omitempty"`
}

func (l Location) String() string {
	if l.URI == "" {
		return l.Type
	}
	return l.Type + " " + l.URI
}

// Citation is a chunk of retrieved content that the answer was based on.
type Citation struct {
	Text     string         `json:"text"`
	Location Location       `json:"location"`
	Metadata map[string]any `json:"metadata,omitempty"`
	// Score is only populated by retrieval-only calls.
	Score *float64 `json:"score,omitempty"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
	// Citations are in the order returned by the service.
	Citations []Citation `json:"citations"`
	SessionID string     `json:"sessionId,omitempty"`
}

// Comparison holds the responses to the same question with and without
// query decomposition.
type Comparison struct {
	Without QueryResponse `json:"without"`
	With    QueryResponse `json:"with"`
}
