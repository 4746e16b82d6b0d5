package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/bedrockrag/auth"
	"github.com/a-h/bedrockrag/handlers"
	"github.com/a-h/bedrockrag/models"
	"github.com/a-h/respond"
)

type Statuser interface {
	Status(ctx context.Context) (models.StatusGetResponse, error)
}

func New(log *slog.Logger, statuser Statuser) Handler {
	return Handler{
		log:      log,
		statuser: statuser,
	}
}

type Handler struct {
	log      *slog.Logger
	statuser Statuser
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.GetUser(r); !ok {
		http.Error(w, "authentication not provided", http.StatusUnauthorized)
		return
	}

	status, err := h.statuser.Status(r.Context())
	if err != nil {
		handlers.WriteError(h.log, w, "failed to get status", err)
		return
	}
	respond.WithJSON(w, status, http.StatusOK)
}
