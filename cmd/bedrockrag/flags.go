package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/a-h/bedrockrag/client"
	"github.com/a-h/bedrockrag/kb"
)

type KnowledgeBaseFlags struct {
	Region             string        `help:"The AWS region of the knowledge base. Defaults to the region of the AWS profile." env:"AWS_REGION" default:""`
	AccountID          string        `help:"The AWS account ID, used to build inference profile ARNs." env:"AWS_ACCOUNT_ID" default:""`
	KnowledgeBaseID    string        `help:"The ID of the knowledge base." env:"KNOWLEDGE_BASE_ID" default:""`
	ModelID            string        `help:"The ID or ARN of the model used to generate answers." env:"MODEL_ID" default:""`
	ResultCount        int           `help:"The number of chunks to retrieve." env:"RESULT_COUNT" default:"5"`
	QueryDecomposition bool          `help:"Split the query into sub-queries before retrieval." env:"QUERY_DECOMPOSITION" default:"false"`
	SearchType         string        `help:"Override the search type, HYBRID or SEMANTIC." env:"SEARCH_TYPE" default:""`
	MaxAttempts        int           `help:"The maximum number of attempts made by the AWS SDK for each call." env:"MAX_ATTEMPTS" default:"3"`
	Timeout            time.Duration `help:"The timeout for each AWS call." env:"TIMEOUT" default:"2m"`
}

func (f KnowledgeBaseFlags) Config() kb.Config {
	return kb.Config{
		Region:                f.Region,
		AccountID:             f.AccountID,
		KnowledgeBaseID:       f.KnowledgeBaseID,
		ModelReference:        f.ModelID,
		ResultCount:           f.ResultCount,
		UseQueryDecomposition: f.QueryDecomposition,
		SearchType:            f.SearchType,
		MaxAttempts:           f.MaxAttempts,
		Timeout:               f.Timeout,
	}
}

type ServerFlags struct {
	RAGServerURL    string `help:"The URL of a bedrockrag server. When set, requests go to the server instead of AWS." env:"RAG_SERVER_URL" default:""`
	RAGServerAPIKey string `help:"The API key for the server." env:"RAG_SERVER_API_KEY" default:""`
}

func (f ServerFlags) Client() (c client.Client, ok bool) {
	if f.RAGServerURL == "" {
		return c, false
	}
	return client.New(f.RAGServerURL, f.RAGServerAPIKey), true
}

type OutputFlags struct {
	JSON  bool `help:"Print JSON instead of text." default:"false"`
	Width int  `help:"Wrap text output at this width, 0 to disable." env:"WIDTH" default:"100"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
