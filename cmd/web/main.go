package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"matchlab/internal/config"
	"matchlab/internal/handlers"
	"matchlab/internal/matching"
	"matchlab/internal/records"
	"matchlab/internal/records/sqlite"
)

func main() {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var scoper records.Scoper
	if cfg.MemoryRecords {
		scoper = records.NewMemoryKV()
		log.Printf("records in memory")
	} else {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		scoper = db
		log.Printf("records db=%s", cfg.DBPath)
	}

	store := matching.NewStore(matching.StoreOptions{
		Records: scoper,
		Tuning:  cfg.Tuning(),
	})
	go store.RunSweeper(context.Background(), cfg.SweepEvery, cfg.DeskIdle)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		log.Fatal(err)
	}

	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))

	homeHandler := handlers.NewHomeHandler(store)
	gameHandler := handlers.NewGameHandler(store, cfg.Tuning())

	homeHandler.RegisterRoutes(r)
	gameHandler.RegisterRoutes(r)

	addr := cfg.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// No WriteTimeout: the event stream stays open; other routes carry
		// their own timeout middleware.
		IdleTimeout: 60 * time.Second,
	}

	log.Printf("listening on http://localhost%s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

//go:embed static/*
var embeddedStatic embed.FS
