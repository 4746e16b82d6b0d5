package kb

import (
	"context"
	"errors"
	"testing"

	"github.com/a-h/bedrockrag/models"
)

type recordingService struct {
	requests  []models.QueryRequest
	responses map[bool]models.QueryResponse
	errs      map[bool]error
}

func (s *recordingService) Query(ctx context.Context, req models.QueryRequest) (models.QueryResponse, error) {
	s.requests = append(s.requests, req)
	return s.responses[req.UseQueryDecomposition], s.errs[req.UseQueryDecomposition]
}

func TestCompare(t *testing.T) {
	svc := &recordingService{
		responses: map[bool]models.QueryResponse{
			false: {Answer: "without", Citations: []models.Citation{{Text: "a"}}},
			true:  {Answer: "with", Citations: []models.Citation{{Text: "a"}, {Text: "b"}}},
		},
	}
	req, err := BuildRequest(octankQuery, "kb", "model", 5, true)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.SessionID = "ignored"

	c, err := Compare(context.Background(), svc, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(svc.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(svc.requests))
	}
	if svc.requests[0].UseQueryDecomposition || !svc.requests[1].UseQueryDecomposition {
		t.Error("expected the call without decomposition to be made first")
	}
	for _, r := range svc.requests {
		if r.SessionID != "" {
			t.Errorf("expected no session ID, got %q", r.SessionID)
		}
	}
	if c.Without.Answer != "without" || c.With.Answer != "with" {
		t.Errorf("unexpected comparison: %#v", c)
	}
}

func TestCompareStopsOnError(t *testing.T) {
	expectedErr := errors.New("service unavailable")
	svc := &recordingService{
		errs: map[bool]error{false: expectedErr},
	}
	req, _ := BuildRequest(octankQuery, "kb", "model", 5, false)
	_, err := Compare(context.Background(), svc, req)
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}
	if len(svc.requests) != 1 {
		t.Errorf("expected the second call to be skipped, got %d calls", len(svc.requests))
	}
}
