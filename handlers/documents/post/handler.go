package post

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/a-h/bedrockrag/auth"
	"github.com/a-h/bedrockrag/handlers"
	"github.com/a-h/bedrockrag/ingest"
	"github.com/a-h/bedrockrag/models"
	"github.com/a-h/respond"
)

type Uploader interface {
	Upload(ctx context.Context, fileName string, data []byte) (models.DocumentsPostResponse, error)
}

func New(log *slog.Logger, uploader Uploader) Handler {
	return Handler{
		log:      log,
		uploader: uploader,
	}
}

type Handler struct {
	log      *slog.Logger
	uploader Uploader
}

// Multipart overhead allowed on top of the file itself.
const formOverhead = 1 << 20

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.GetUser(r)
	if !ok {
		http.Error(w, "authentication not provided", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxFileSize+formOverhead)
	if err := r.ParseMultipartForm(ingest.MaxFileSize); err != nil {
		h.log.Warn("failed to parse form", slog.Any("error", err))
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respond.WithError(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		respond.WithError(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.WithError(w, "no file part", http.StatusBadRequest)
		return
	}
	defer file.Close()
	if header.Filename == "" {
		respond.WithError(w, "no selected file", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, ingest.MaxFileSize+1))
	if err != nil {
		h.log.Error("failed to read file", slog.Any("error", err))
		respond.WithError(w, "failed to read file", http.StatusBadRequest)
		return
	}

	resp, err := h.uploader.Upload(r.Context(), header.Filename, data)
	if err != nil {
		var ife *ingest.InvalidFileError
		if errors.As(err, &ife) {
			h.log.Warn("invalid file", slog.Any("error", err))
			respond.WithError(w, ife.Error(), http.StatusBadRequest)
			return
		}
		handlers.WriteError(h.log, w, "failed to upload file", err)
		return
	}
	h.log.Info("document uploaded", slog.String("user", user), slog.String("filename", resp.FileName), slog.String("ingestionJobId", resp.IngestionJobID))

	respond.WithJSON(w, resp, http.StatusOK)
}
