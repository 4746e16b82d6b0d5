package kb

import (
	"context"
	"fmt"

	"github.com/a-h/bedrockrag/models"
)

// Compare runs the request without and then with query decomposition.
// The second call is only made once the first response has been received.
func Compare(ctx context.Context, svc RetrievalService, req models.QueryRequest) (c models.Comparison, err error) {
	req.SessionID = ""

	without := req
	without.UseQueryDecomposition = false
	if c.Without, err = svc.Query(ctx, without); err != nil {
		return c, fmt.Errorf("query without decomposition: %w", err)
	}

	with := req
	with.UseQueryDecomposition = true
	if c.With, err = svc.Query(ctx, with); err != nil {
		return c, fmt.Errorf("query with decomposition: %w", err)
	}
	return c, nil
}
