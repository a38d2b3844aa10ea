// Package handlers maps the arc HTTP routes onto archive operations.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "arc-go/internal/api/errors"
	"arc-go/internal/arc"
)

// Store is the archive surface the handlers need.
type Store interface {
	MaxPayloadSize() int64
	CreateFile(ctx context.Context, author, filename string, data []byte) (*arc.FileSummary, error)
	ListFiles(ctx context.Context, q arc.ListQuery) ([]*arc.FileSummary, error)
	DeleteFile(ctx context.Context, id int64) error
	ReplaceFile(ctx context.Context, oldID int64, filename string, data []byte) (*arc.ReplaceResult, error)
	DownloadFile(ctx context.Context, id int64) (*arc.Download, error)
	GetMetadata(ctx context.Context, id int64) (*arc.FileRecord, error)
	ReanimateCheck(ctx context.Context) ([]int64, error)
	EmptyTrash(ctx context.Context) (int64, error)
	ListTrash(ctx context.Context) ([]*arc.TrashRecord, error)
	ListHistory(ctx context.Context, filter arc.HistoryFilter) ([]*arc.HistoryEntry, error)
	ClearHistory(ctx context.Context) (int64, error)
}

var _ Store = (*arc.Archive)(nil)

// Options tunes request handling.
type Options struct {
	// SanitizeFilenames replaces every character outside [a-zA-Z0-9.-_]
	// in uploaded file names with '_'.
	SanitizeFilenames bool
}

// APIHandler serves the archive routes.
type APIHandler struct {
	store    Store
	health   *HealthHandler
	logger   *slog.Logger
	sanitize bool
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(store Store, health *HealthHandler, logger *slog.Logger, opts Options) *APIHandler {
	return &APIHandler{
		store:    store,
		health:   health,
		logger:   logger.With(slog.String("component", "api_handler")),
		sanitize: opts.SanitizeFilenames,
	}
}

// Mount registers every route on r.
func (h *APIHandler) Mount(r chi.Router) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Get("/files", h.ListFiles)
	r.Post("/upload", h.Upload)
	r.Delete("/delete/{id}", h.Delete)
	r.Post("/replace", h.Replace)
	r.Get("/download/{id}", h.Download)
	r.Get("/metadata/{id}", h.Metadata)
	r.Post("/check-files", h.CheckFiles)
	r.Get("/trash", h.ListTrash)
	r.Post("/empty-trash", h.EmptyTrash)

	r.Get("/history", h.History)
	r.Post("/clear-history", h.ClearHistory)
}

// fail writes the error response for err and logs server-side failures.
func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apierrors.FromError(w, err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg,
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// parseID parses a positive decimal record id.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// sanitizeFilename replaces each unsafe character, not byte, with '_'.
func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
