package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/rkuznets/vanish"
	"github.com/rkuznets/vanish/convert"
)

// Service is the lifecycle surface the HTTP handlers drive.
type Service interface {
	Submit(ctx context.Context, variantName, originalName, declaredType string, content io.Reader, size int64, opts convert.Options) (vanish.Record, error)
	Status(id string) (vanish.Record, error)
	Open(ctx context.Context, id string) (*vanish.Download, error)
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	// MaxUploadSize caps the request body of uploads; zero means no limit.
	MaxUploadSize int64
	CORS          CORSConfig
}

// Handler provides the HTTP handlers for the conversion lifecycle.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/health", h.handleHealth)
	r.With(MaxBytes(h.config.MaxUploadSize)).Post("/convert/{variant}", h.handleUpload)
	r.Get("/status/{id}", h.handleStatus)
	r.Get("/download/{id}", h.handleDownload)

	return r
}

// StatusResponse is the JSON body for upload and status responses.
type StatusResponse struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	DownloadURL string `json:"download_url,omitempty"`
}

func statusResponse(rec vanish.Record) StatusResponse {
	resp := StatusResponse{
		ID:    rec.ID,
		State: string(rec.State),
	}
	if rec.State == vanish.StateDone {
		resp.DownloadURL = "/download/" + rec.ID
	}
	return resp
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts a single multipart file field plus conversion
// parameters, and redirects to the status view for the new record. The
// declared content type of the file part decides acceptance; a mismatch is
// rejected before any storage write.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input",
			"Send the upload as multipart/form-data with a single \"file\" field")
		return
	}
	defer func() { _ = file.Close() }()

	declared := header.Header.Get("Content-Type")
	opts := convert.Options{
		Quality: r.FormValue("quality"),
	}

	rec, err := h.service.Submit(r.Context(), variant, header.Filename, declared, file, header.Size, opts)
	if err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Location", "/status/"+rec.ID)
	_ = WriteJSON(w, http.StatusSeeOther, statusResponse(rec))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.service.Status(id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, statusResponse(rec))
}

// handleDownload streams the converted bytes as an attachment. Any failure to
// resolve the id to retrievable bytes answers not found, regardless of the
// underlying cause.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dl, err := h.service.Open(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = dl.Close() }()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Content); err != nil {
		slog.Warn("download stream interrupted", "id", id, "err", err)
	}
}
