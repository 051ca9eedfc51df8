// yoloexport writes the YOLO label set of one annotated video to disk, either
// as a directory tree or as the same zip the server hands out.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/akamensky/argparse"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/codec"
	"github.com/osu-uwrt/data-collection-webapp/internal/db"
	"github.com/osu-uwrt/data-collection-webapp/internal/export"
	"github.com/osu-uwrt/data-collection-webapp/internal/store"
)

func check(err error) {
	if err != nil {
		slog.Error("yoloexport failed", "error", err)
		os.Exit(1)
	}
}

func main() {
	parser := argparse.NewParser("yoloexport", "Export the annotations of a video as YOLO label files")
	videoID := parser.String("v", "video", &argparse.Options{Help: "Video ID (directory name under the data dir)", Required: true})
	dataDir := parser.String("d", "data", &argparse.Options{Help: "Frame data directory", Default: "./data/frames"})
	dbURL := parser.String("", "database", &argparse.Options{Help: "PostgreSQL URL; annotations are read from the database instead of the data dir", Default: os.Getenv("DATABASE_URL")})
	outPath := parser.String("o", "out", &argparse.Options{Help: "Output directory, or .zip file"})
	classFile := parser.String("c", "classes", &argparse.Options{Help: "File with one class name per line, fixing the class index order"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(1)
	}

	ctx := context.Background()

	var src store.Store = store.NewFileStore(*dataDir)
	if *dbURL != "" {
		pool, err := db.NewPool(ctx, *dbURL)
		check(err)
		defer pool.Close()
		src = store.NewPostgres(pool)
	}

	boxes, polygons, err := loadFiles(ctx, src, *videoID)
	check(err)

	classes := codec.ClassNames(boxes, polygons)
	if *classFile != "" {
		classes, err = readClasses(*classFile)
		check(err)
	}
	frames, err := codec.YOLOLabels(boxes, polygons, classes)
	check(err)

	out := *outPath
	if out == "" {
		out = *videoID + "-yolo"
	}
	if strings.HasSuffix(out, ".zip") {
		check(writeZip(out, classes, frames))
	} else {
		check(writeDir(out, classes, frames))
	}
	slog.Info("export complete", "video", *videoID, "out", out, "frames", len(frames), "classes", len(classes))
}

// loadFiles reads both layers in normalised form. A missing layer counts as
// empty; a video with neither is an error.
func loadFiles(ctx context.Context, src store.Store, videoID string) (codec.BoxesFile, codec.PolygonsFile, error) {
	var boxes codec.BoxesFile
	var polygons codec.PolygonsFile
	found := false
	for _, kind := range []annotation.Kind{annotation.KindBox, annotation.KindPolygon} {
		data, err := src.Load(ctx, videoID, kind)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return boxes, polygons, err
		}
		found = true
		layer, err := codec.Unmarshal(kind, data, codec.Identity())
		if err != nil {
			return boxes, polygons, fmt.Errorf("%s: %w", codec.FileName(kind), err)
		}
		if kind == annotation.KindBox {
			boxes = codec.EncodeBoxes(layer, codec.Identity())
		} else {
			polygons = codec.EncodePolygons(layer, codec.Identity())
		}
	}
	if !found {
		return boxes, polygons, fmt.Errorf("video %q: %w", videoID, store.ErrNotFound)
	}
	return boxes, polygons, nil
}

func readClasses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var classes []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			classes = append(classes, name)
		}
	}
	return classes, sc.Err()
}

func writeZip(path string, classes []string, frames [][]codec.Label) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteArchive(f, classes, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeDir(dir string, classes []string, frames [][]codec.Label) error {
	labelDir := filepath.Join(dir, "labels")
	if err := os.MkdirAll(labelDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "classes.txt"), []byte(strings.Join(classes, "\n")+"\n"), 0o644); err != nil {
		return err
	}
	for n, labels := range frames {
		f, err := os.Create(filepath.Join(labelDir, fmt.Sprintf("frame%d.txt", n)))
		if err != nil {
			return err
		}
		if err := codec.WriteLabels(f, labels); err != nil {
			f.Close()
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
