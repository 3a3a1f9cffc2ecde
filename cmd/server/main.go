package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/vecnote/vecnote/internal/asset"
	"github.com/vecnote/vecnote/internal/config"
	"github.com/vecnote/vecnote/internal/export"
	"github.com/vecnote/vecnote/internal/library"
	mw "github.com/vecnote/vecnote/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := library.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	queries := library.NewQueries(pool)
	if err := queries.Migrate(ctx); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	previews := asset.NewStore(cfg.PreviewDir)
	libraryService := library.NewService(queries, previews, cfg.PreviewWidth, cfg.PreviewHeight)
	libraryHandler := library.NewHandler(libraryService, cfg.MaxDocumentBytes)
	exportHandler := export.NewHandler(cfg.MaxDocumentBytes, cfg.ExportWidth, cfg.ExportHeight)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(mw.ParseOrigins(cfg.AllowedOrigins)))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, `{"status":"database unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/export/json", exportHandler.JSON).Methods("POST", "OPTIONS")
	r.HandleFunc("/export/png", exportHandler.PNG).Methods("POST", "OPTIONS")

	libraryHandler.Mount(r.PathPrefix("/api").Subrouter())

	r.PathPrefix("/previews/").Handler(previews.Serve("/previews/")).Methods("GET")

	// The editor frontend and its wasm bundle
	if cfg.WebDir != "" {
		r.PathPrefix("/").Handler(staticFiles(cfg.WebDir)).Methods("GET")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

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

// staticFiles serves dir, with the wasm MIME type set for the editor core.
func staticFiles(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".wasm") {
			w.Header().Set("Content-Type", "application/wasm")
		}
		files.ServeHTTP(w, r)
	})
}
