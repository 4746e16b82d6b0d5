package integration

import (
	"os"
	"testing"

	"github.com/a-h/bedrockrag/client"
)

// newClient returns a client for a server started with the serve command.
func newClient(t *testing.T) client.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("RAG_SERVER_URL")
	if url == "" {
		url = "http://localhost:9020"
	}
	return client.New(url, os.Getenv("RAG_SERVER_API_KEY"))
}
