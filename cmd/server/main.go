package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotationapi"
	"github.com/osu-uwrt/data-collection-webapp/internal/collab"
	"github.com/osu-uwrt/data-collection-webapp/internal/config"
	"github.com/osu-uwrt/data-collection-webapp/internal/db"
	"github.com/osu-uwrt/data-collection-webapp/internal/export"
	mw "github.com/osu-uwrt/data-collection-webapp/internal/middleware"
	"github.com/osu-uwrt/data-collection-webapp/internal/store"
	"github.com/osu-uwrt/data-collection-webapp/internal/video"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Annotation files go to PostgreSQL when configured, otherwise next to
	// the frames.
	var annotations store.Store = store.NewFileStore(cfg.DataDir)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		annotations = store.NewPostgres(pool)
		slog.Info("using postgres annotation store")
	} else {
		slog.Info("using file annotation store", "dir", cfg.DataDir)
	}

	library := video.NewLibrary(cfg.DataDir, cfg.FfmpegPath)
	videoHandler := video.NewHandler(library, cfg.UploadDir)

	annotationService := annotationapi.NewService(annotations, library, cfg.MaxCanvasWidth, cfg.MaxCanvasHeight)
	annotationHandler := annotationapi.NewHandler(annotationService)
	exportHandler := export.NewHandler(annotationService)

	hub := collab.NewHub(annotationService.LoadWorkspace, annotationService.SaveSet, cfg.EditorOptions())
	annotationService.AttachRooms(hub)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Frames
	r.PathPrefix("/data/frames/").Handler(videoHandler.Serve()).Methods("GET")
	r.HandleFunc("/videos", videoHandler.Upload).Methods("POST", "OPTIONS")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos", videoHandler.List).Methods("GET")
	api.HandleFunc("/videos/{videoId}", videoHandler.Get).Methods("GET")
	api.HandleFunc("/videos/{videoId}/annotations/{kind}", annotationHandler.Get).Methods("GET")
	api.HandleFunc("/videos/{videoId}/annotations/{kind}", annotationHandler.Put).Methods("PUT")
	api.HandleFunc("/videos/{videoId}/annotations/{kind}/history", annotationHandler.History).Methods("GET")
	api.HandleFunc("/videos/{videoId}/interpolate/{kind}", annotationHandler.Interpolate).Methods("POST")
	api.HandleFunc("/videos/{videoId}/export/yolo", exportHandler.ExportYOLO).Methods("GET")

	// WebSocket endpoint
	originPatterns := cfg.OriginPatterns()
	r.HandleFunc("/ws/video/{videoId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, library, originPatterns)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all changed annotation sets
		slog.Info("saving all annotations...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, library *video.Library, originPatterns []string) {
	videoID := mux.Vars(r)["videoId"]
	if _, err := library.Info(videoID); err != nil {
		http.Error(w, "video not found", http.StatusNotFound)
		return
	}

	// Labelers are anonymous; the name is only shown to other editors.
	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Anonymous"
	}
	userID := "anon-" + uuid.New().String()[:8]

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, videoID, clientID)

	if err := hub.Register(client); err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
