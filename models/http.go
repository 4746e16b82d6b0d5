package models

type QueryPostRequest struct {
	// Text of the query.
	Text string `json:"text"`

	// UseQueryDecomposition overrides the server default when set.
	UseQueryDecomposition *bool `json:"useQueryDecomposition,omitempty"`

	// ResultCount overrides the server default when greater than zero.
	ResultCount int `json:"resultCount,omitempty"`

	SessionID string `json:"sessionId,omitempty"`
}

type QueryPostResponse = QueryResponse

type ComparePostRequest struct {
	Text        string `json:"text"`
	ResultCount int    `json:"resultCount,omitempty"`
}

type ComparePostResponse = Comparison

type ContextPostRequest struct {
	Text        string `json:"text"`
	ResultCount int    `json:"resultCount,omitempty"`
}

type ContextPostResponse struct {
	Results []Citation `json:"results"`
}

type StatusGetResponse struct {
	KnowledgeBaseID string         `json:"kbId"`
	Status          string         `json:"kbStatus"`
	IngestionJobs   []IngestionJob `json:"ingestionJobs"`
	DataSources     []DataSource   `json:"dataSources"`
}

type DataSource struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type IngestionJob struct {
	ID           string `json:"id"`
	DataSourceID string `json:"dataSourceId"`
	Status       string `json:"status"`
}

type DocumentsPostResponse struct {
	Message        string `json:"message"`
	FileName       string `json:"filename"`
	IngestionJobID string `json:"ingestionJobId"`
}
