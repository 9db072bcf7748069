package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jfilter/timetiles-sub012/internal/analysis"
	"github.com/jfilter/timetiles-sub012/internal/api"
	"github.com/jfilter/timetiles-sub012/internal/catalog"
	"github.com/jfilter/timetiles-sub012/internal/config"
	"github.com/jfilter/timetiles-sub012/internal/service"
)

func main() {
	cfg := config.Load()

	analysisSvc := analysis.NewService(service.DefaultDetectorConfig())

	var cat catalog.Source
	if cfg.CatalogConfigured() {
		pg, err := catalog.NewPostgres(catalog.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			DBName:   cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSLMode,
		})
		if err != nil {
			log.Fatalf("Catalog database unavailable: %v", err)
		}
		defer pg.Close()
		cat = pg
		log.Printf("Catalog database connected at %s", cfg.PostgresHost)
	} else {
		log.Printf("No catalog database configured, similarity requests must carry candidates")
	}

	handler := api.NewHandler(analysisSvc, cat, cfg.DefaultLanguage)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.RegisterRoutes(r)

	log.Printf("Starting mapping engine on http://localhost:%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
