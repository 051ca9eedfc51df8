package video

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
)

const maxUploadSize = 2 << 30 // 2GB

// Handler serves video upload, listing and frame retrieval endpoints.
type Handler struct {
	lib       *Library
	uploadDir string
}

// NewHandler creates a handler that keeps uploaded videos in uploadDir.
func NewHandler(lib *Library, uploadDir string) *Handler {
	// Ensure directories exist
	for _, dir := range []string{lib.Dir(), uploadDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("create video dir", "error", err, "dir", dir)
		}
	}
	return &Handler{lib: lib, uploadDir: uploadDir}
}

// Upload handles POST /videos (multipart form with a "video" field). The
// video is stored and split into frames.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("video")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing video field"})
		return
	}
	defer file.Close()

	videoID := SanitizeName(header.Filename)
	if !ValidName(videoID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file name"})
		return
	}
	if _, err := h.lib.Info(videoID); err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "video already exists"})
		return
	}

	dst := filepath.Join(h.uploadDir, videoID+filepath.Ext(header.Filename))
	if err := copyFile(dst, file); err != nil {
		slog.Error("save upload", "error", err, "video", videoID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save video"})
		return
	}

	slog.Info("frame extraction started", "video", videoID)
	info, err := h.lib.Extract(r.Context(), dst, videoID)
	if err != nil {
		slog.Error("extract frames", "error", err, "video", videoID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "frame extraction failed"})
		return
	}
	slog.Info("frame extraction complete", "video", videoID, "frames", info.TotalFrames)

	writeJSON(w, http.StatusCreated, info)
}

// List handles GET /api/videos.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.lib.List()
	if err != nil {
		slog.Error("list videos", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// Get handles GET /api/videos/{videoId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.lib.Info(mux.Vars(r)["videoId"])
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrBadName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid video id"})
	case err != nil:
		slog.Error("video info", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		writeJSON(w, http.StatusOK, info)
	}
}

// Serve returns an http.Handler that serves frame images under
// /data/frames/. Annotation files in the same directories are not exposed.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.lib.Dir()))
	return http.StripPrefix("/data/frames/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if filepath.Ext(r.URL.Path) != ".jpg" {
			http.NotFound(w, r)
			return
		}
		// Frames never change once extracted
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// copyFile copies src reader to a file at dst path.
func copyFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
