package post

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/bedrockrag/auth"
	"github.com/a-h/bedrockrag/handlers"
	"github.com/a-h/bedrockrag/kb"
	"github.com/a-h/bedrockrag/models"
	"github.com/a-h/respond"
)

func New(log *slog.Logger, svc kb.RetrievalService, cfg kb.Config) Handler {
	return Handler{
		log: log,
		svc: svc,
		cfg: cfg,
	}
}

type Handler struct {
	log *slog.Logger
	svc kb.RetrievalService
	cfg kb.Config
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r)
	if !ok {
		http.Error(w, "authentication not provided", http.StatusUnauthorized)
		return
	}

	var req models.QueryPostRequest
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
	useQueryDecomposition := h.cfg.UseQueryDecomposition
	if req.UseQueryDecomposition != nil {
		useQueryDecomposition = *req.UseQueryDecomposition
	}
	qr, err := kb.BuildRequest(req.Text, h.cfg.KnowledgeBaseID, h.cfg.ModelReference, resultCount, useQueryDecomposition)
	if err != nil {
		handlers.WriteError(h.log, w, "invalid query", err)
		return
	}
	qr.SessionID = req.SessionID

	resp, err := h.svc.Query(r.Context(), qr)
	if err != nil {
		handlers.WriteError(h.log, w, "failed to query knowledge base", err)
		return
	}
	h.log.Info("query complete",
		slog.String("user", user),
		slog.Bool("queryDecomposition", useQueryDecomposition),
		slog.Int("citations", len(resp.Citations)))

	respond.WithJSON(w, resp, http.StatusOK)
}
