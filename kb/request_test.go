package kb

import (
	"errors"
	"testing"

	"github.com/a-h/bedrockrag/models"
	"github.com/google/go-cmp/cmp"
)

const octankQuery = "What is octank tower and how does the whistleblower scandal hurt the company and its image?"

func TestBuildRequest(t *testing.T) {
	for _, useQueryDecomposition := range []bool{false, true} {
		req, err := BuildRequest(octankQuery, "KB12345678", "anthropic.claude-3-sonnet-20240229-v1:0", 5, useQueryDecomposition)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := models.QueryRequest{
			Text:                  octankQuery,
			KnowledgeBaseID:       "KB12345678",
			ModelReference:        "anthropic.claude-3-sonnet-20240229-v1:0",
			ResultCount:           5,
			UseQueryDecomposition: useQueryDecomposition,
		}
		if diff := cmp.Diff(expected, req); diff != "" {
			t.Error(diff)
		}
	}
}

func TestBuildRequestAcceptsAnyNonEmptyInput(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		resultCount int
	}{
		{
			name:        "whitespace text is sent as given",
			text:        " ",
			resultCount: 1,
		},
		{
			name:        "large result counts are left to the service",
			text:        "q",
			resultCount: 101,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.text, "kb", "model", tt.resultCount, true)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Text != tt.text || req.ResultCount != tt.resultCount || !req.UseQueryDecomposition {
				t.Errorf("unexpected request: %#v", req)
			}
		})
	}
}

func TestBuildRequestErrors(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		kbID          string
		model         string
		resultCount   int
		expectedField string
		isValidation  bool
	}{
		{
			name:          "empty text is rejected",
			text:          "",
			kbID:          "kb",
			model:         "model",
			resultCount:   5,
			expectedField: "text",
			isValidation:  true,
		},
		{
			name:          "zero result count is rejected",
			text:          "q",
			kbID:          "kb",
			model:         "model",
			resultCount:   0,
			expectedField: "resultCount",
			isValidation:  true,
		},
		{
			name:          "negative result count is rejected",
			text:          "q",
			kbID:          "kb",
			model:         "model",
			resultCount:   -3,
			expectedField: "resultCount",
			isValidation:  true,
		},
		{
			name:          "request errors are reported before configuration errors",
			text:          "",
			kbID:          "",
			model:         "",
			resultCount:   5,
			expectedField: "text",
			isValidation:  true,
		},
		{
			name:          "a bad result count is reported before a missing knowledge base",
			text:          "q",
			kbID:          "",
			model:         "model",
			resultCount:   0,
			expectedField: "resultCount",
			isValidation:  true,
		},
		{
			name:          "missing knowledge base is a configuration error",
			text:          "q",
			kbID:          "",
			model:         "model",
			resultCount:   5,
			expectedField: "knowledgeBaseId",
		},
		{
			name:          "missing model is a configuration error",
			text:          "q",
			kbID:          "kb",
			model:         "",
			resultCount:   5,
			expectedField: "modelReference",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.text, tt.kbID, tt.model, tt.resultCount, true)
			if err == nil {
				t.Fatalf("expected error, got request %#v", req)
			}
			if tt.isValidation {
				var rve *RequestValidationError
				if !errors.As(err, &rve) {
					t.Fatalf("expected RequestValidationError, got %T", err)
				}
				if rve.Field != tt.expectedField {
					t.Errorf("expected field %q, got %q", tt.expectedField, rve.Field)
				}
				return
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %T", err)
			}
			if ce.Field != tt.expectedField {
				t.Errorf("expected field %q, got %q", tt.expectedField, ce.Field)
			}
		})
	}
}
