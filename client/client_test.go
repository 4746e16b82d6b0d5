package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/bedrockrag/models"
	"github.com/a-h/jsonapi"
	"github.com/google/go-cmp/cmp"
)

func TestStatusGet(t *testing.T) {
	expected := models.StatusGetResponse{
		KnowledgeBaseID: "KB12345678",
		Status:          "ACTIVE",
		DataSources:     []models.DataSource{{ID: "ds-1", Name: "s3", Status: "AVAILABLE"}},
		IngestionJobs:   []models.IngestionJob{{ID: "job-1", DataSourceID: "ds-1", Status: "COMPLETE"}},
	}
	var authHeader string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		if r.Method != http.MethodGet || r.URL.Path != "/status" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(expected)
	}))
	defer s.Close()

	actual, err := New(s.URL, "api-key").StatusGet(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Error(diff)
	}
	if authHeader != "api-key" {
		t.Errorf("expected the API key to be sent, got %q", authHeader)
	}
}

func TestStatusGetError(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer s.Close()

	_, err := New(s.URL, "wrong").StatusGet(context.Background())
	var ise jsonapi.InvalidStatusError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStatusError, got %v", err)
	}
	if ise.Status != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, ise.Status)
	}
}

func TestDocumentsPost(t *testing.T) {
	var fileName, content, contentType, apiKey string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/documents" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		contentType, apiKey = r.Header.Get("Content-Type"), r.Header.Get("Authorization")
		f, h, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		fileName, content = h.Filename, string(b)
		_ = json.NewEncoder(w).Encode(models.DocumentsPostResponse{Message: "ok", FileName: h.Filename, IngestionJobID: "job-1"})
	}))
	defer s.Close()

	resp, err := New(s.URL, "api-key").DocumentsPost(context.Background(), "octank.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Errorf("expected a multipart content type, got %q", contentType)
	}
	if apiKey != "api-key" {
		t.Errorf("expected the API key to be sent, got %q", apiKey)
	}
	if fileName != "octank.pdf" || content != "%PDF-1.4" {
		t.Errorf("unexpected upload %q %q", fileName, content)
	}
	if resp.IngestionJobID != "job-1" {
		t.Errorf("unexpected response %#v", resp)
	}
}

func TestInvalidBaseURL(t *testing.T) {
	if _, err := New("", "api-key").QueryPost(context.Background(), models.QueryPostRequest{Text: "q"}); err == nil {
		t.Error("expected error for an empty base URL")
	}
	if _, err := New("/api", "api-key").StatusGet(context.Background()); err == nil {
		t.Error("expected error for a base URL without a scheme")
	}
}
