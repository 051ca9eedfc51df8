// Package annotationapi serves annotation files over HTTP and runs
// interpolation passes on saved files.
package annotationapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/codec"
	"github.com/osu-uwrt/data-collection-webapp/internal/interpolate"
	"github.com/osu-uwrt/data-collection-webapp/internal/store"
	"github.com/osu-uwrt/data-collection-webapp/internal/video"
)

const maxBodySize = 32 << 20 // 32MB

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func vars(r *http.Request) (string, annotation.Kind, error) {
	v := mux.Vars(r)
	kind, err := codec.ParseKind(v["kind"])
	return v["videoId"], kind, err
}

// Get handles GET /api/videos/{videoId}/annotations/{kind}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, kind, err := vars(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	data, err := h.service.Get(r.Context(), videoID, kind)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Put handles PUT /api/videos/{videoId}/annotations/{kind}. The body is a
// complete persisted file.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	videoID, kind, err := vars(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.service.Put(r.Context(), videoID, kind, data); err != nil {
		handleServiceError(w, err)
		return
	}
	slog.Info("annotations replaced", "video", videoID, "kind", kind, "bytes", len(data))
	w.WriteHeader(http.StatusNoContent)
}

// Interpolate handles POST /api/videos/{videoId}/interpolate/{kind}.
func (h *Handler) Interpolate(w http.ResponseWriter, r *http.Request) {
	videoID, kind, err := vars(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	report, err := h.service.Interpolate(r.Context(), videoID, kind)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	slog.Info("interpolation complete", "video", videoID, "kind", kind, "keyframes", report.Keyframes, "synthesized", report.Synthesized)
	writeJSON(w, http.StatusOK, report)
}

// History handles GET /api/videos/{videoId}/annotations/{kind}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	videoID, kind, err := vars(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	versions, err := h.service.History(r.Context(), videoID, kind)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if versions == nil {
		versions = []store.Version{}
	}
	writeJSON(w, http.StatusOK, versions)
}

func handleServiceError(w http.ResponseWriter, err error) {
	var verr *interpolate.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": verr.Error(), "frames": verr.Frames})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, video.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, codec.ErrUnknownKind), errors.Is(err, store.ErrUnknownKind):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown shape kind"})
	case errors.Is(err, store.ErrBadVideoID), errors.Is(err, video.ErrBadName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid video id"})
	case errors.Is(err, ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNoHistory):
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrRoomLive), errors.Is(err, interpolate.ErrAlreadyRunning):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
