package post

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/bedrockrag/auth"
	"github.com/a-h/bedrockrag/handlers"
	"github.com/a-h/bedrockrag/kb"
	"github.com/a-h/bedrockrag/models"
	"github.com/a-h/respond"
)

type Retriever interface {
	Retrieve(ctx context.Context, req models.QueryRequest) ([]models.Citation, error)
}

func New(log *slog.Logger, retriever Retriever, cfg kb.Config) Handler {
	return Handler{
		log:       log,
		retriever: retriever,
		cfg:       cfg,
	}
}

type Handler struct {
	log       *slog.Logger
	retriever Retriever
	cfg       kb.Config
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r)
	if !ok {
		http.Error(w, "authentication not provided", http.StatusUnauthorized)
		return
	}

	var req models.ContextPostRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.log.Error("failed to decode body", slog.Any("error", err))
		respond.WithError(w, "failed to decode body", http.StatusBadRequest)
		return
	}

	resultCount := h.cfg.ResultCount
	if req.ResultCount > 0 {
		resultCount = req.ResultCount
	}
	citations, err := h.retriever.Retrieve(r.Context(), models.QueryRequest{
		Text:            req.Text,
		KnowledgeBaseID: h.cfg.KnowledgeBaseID,
		ResultCount:     resultCount,
	})
	if err != nil {
		handlers.WriteError(h.log, w, "failed to retrieve context", err)
		return
	}
	h.log.Info("retrieved context", slog.String("user", user), slog.Int("results", len(citations)))

	respond.WithJSON(w, models.ContextPostResponse{Results: citations}, http.StatusOK)
}
