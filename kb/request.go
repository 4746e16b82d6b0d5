package kb

import (
	"strings"

	"github.com/a-h/bedrockrag/models"
)

// BuildRequest creates a retrieve-and-generate request. It makes no network calls.
func BuildRequest(text, knowledgeBaseID, modelReference string, resultCount int, useQueryDecomposition bool) (req models.QueryRequest, err error) {
	req = models.QueryRequest{
		Text:                  text,
		KnowledgeBaseID:       knowledgeBaseID,
		ModelReference:        modelReference,
		ResultCount:           resultCount,
		UseQueryDecomposition: useQueryDecomposition,
	}
	if err = validateRequest(req); err != nil {
		return models.QueryRequest{}, err
	}
	return req, nil
}

func validateRequest(req models.QueryRequest) error {
	if err := validateRetrieval(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.ModelReference) == "" {
		return &ConfigurationError{Field: "modelReference", Reason: "is required"}
	}
	return nil
}

// validateRetrieval checks the fields needed by a retrieval-only call.
// Request fields are checked before configuration so that a bad request is
// always reported as one. Upper limits are left to the service.
func validateRetrieval(req models.QueryRequest) error {
	if req.Text == "" {
		return &RequestValidationError{Field: "text", Reason: "must not be empty"}
	}
	if req.ResultCount <= 0 {
		return &RequestValidationError{Field: "resultCount", Reason: "must be greater than zero"}
	}
	if strings.TrimSpace(req.KnowledgeBaseID) == "" {
		return &ConfigurationError{Field: "knowledgeBaseId", Reason: "is required"}
	}
	return nil
}
