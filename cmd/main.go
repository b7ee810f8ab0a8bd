package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vovarama1992/odoo-query-bridge/internal/ai"
	"github.com/Vovarama1992/odoo-query-bridge/internal/chat"
	"github.com/Vovarama1992/odoo-query-bridge/internal/config"
	"github.com/Vovarama1992/odoo-query-bridge/internal/engine"
	"github.com/Vovarama1992/odoo-query-bridge/internal/observability"
	"github.com/Vovarama1992/odoo-query-bridge/internal/odoo"
	"github.com/Vovarama1992/odoo-query-bridge/internal/orchestrator"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if cfg.Database.DSN == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	// --- DB ---
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}

	chatRepo := chat.NewRepo(db)
	if err := chatRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("db schema error: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(observability.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// --- Query pipeline wiring ---
	aiClient, err := ai.NewOpenAIClient(cfg.AI)
	if err != nil {
		log.Fatalf("ai client error: %v", err)
	}
	orch := orchestrator.NewService(
		aiClient,
		orchestrator.OdooGateways(odoo.Credentials{}),
		engine.New(),
	)

	chatService := chat.NewService(chatRepo, orch)
	chatHandler := chat.NewHandler(chatService)

	chat.RegisterRoutes(r, chatHandler)

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	log.Printf("listening on :%s", cfg.HTTP.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
