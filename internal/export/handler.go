// Package export packages a video's annotations as a YOLO label set.
package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/osu-uwrt/data-collection-webapp/internal/codec"
	"github.com/osu-uwrt/data-collection-webapp/internal/store"
	"github.com/osu-uwrt/data-collection-webapp/internal/video"
)

// FileSource yields the persisted annotation files of a video.
type FileSource interface {
	Files(ctx context.Context, videoID string) (codec.BoxesFile, codec.PolygonsFile, error)
}

type Handler struct {
	files FileSource
}

func NewHandler(files FileSource) *Handler {
	return &Handler{files: files}
}

// ExportYOLO handles GET /api/videos/{videoId}/export/yolo. The response is
// a zip of classes.txt and one labels/frame<N>.txt per frame.
func (h *Handler) ExportYOLO(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["videoId"]
	if !video.ValidName(videoID) {
		http.Error(w, "invalid video id", http.StatusBadRequest)
		return
	}

	boxes, polygons, err := h.files.Files(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, video.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		slog.Error("load annotation files", "error", err, "video", videoID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	classes := codec.ClassNames(boxes, polygons)
	frames, err := codec.YOLOLabels(boxes, polygons, classes)
	if err != nil {
		slog.Error("build labels", "error", err, "video", videoID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-yolo.zip"`, videoID))
	if err := WriteArchive(w, classes, frames); err != nil {
		// Headers are gone; the client sees a truncated archive.
		slog.Error("write archive", "error", err, "video", videoID)
		return
	}
	slog.Info("export complete", "video", videoID, "frames", len(frames), "classes", len(classes))
}

// WriteArchive writes the zip form of a label set.
func WriteArchive(w io.Writer, classes []string, frames [][]codec.Label) error {
	zw := zip.NewWriter(w)

	cw, err := zw.Create("classes.txt")
	if err != nil {
		return err
	}
	if _, err := io.WriteString(cw, strings.Join(classes, "\n")+"\n"); err != nil {
		return err
	}

	for n, labels := range frames {
		fw, err := zw.Create(fmt.Sprintf("labels/frame%d.txt", n))
		if err != nil {
			return err
		}
		if err := codec.WriteLabels(fw, labels); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
	}
	return zw.Close()
}
