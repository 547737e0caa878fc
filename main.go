package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/folioview/backend/src/config"
	"github.com/username/folioview/backend/src/database"
	"github.com/username/folioview/backend/src/handlers"
	"github.com/username/folioview/backend/src/logger"
	"github.com/username/folioview/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("FolioView backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	sessionCache := cache.New(config.Cfg.PreviewSessionTTL, 2*config.Cfg.PreviewSessionTTL)

	analyticsService := services.NewAnalyticsService()
	importService := services.NewImportService(sessionCache, config.Cfg.PreviewSampleRowCount)

	portfolioHandler := handlers.NewPortfolioHandler(analyticsService)
	importHandler := handlers.NewImportHandler(importService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "FolioView Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/portfolios", portfolioHandler.ListPortfolios)
		r.Post("/portfolios", portfolioHandler.CreatePortfolio)
		r.Get("/portfolios/{id}", portfolioHandler.GetPortfolio)
		r.Delete("/portfolios/{id}", portfolioHandler.DeletePortfolio)
		r.Get("/portfolios/{id}/records", portfolioHandler.HandleGetRecords)
		r.Get("/portfolios/{id}/history", portfolioHandler.HandleGetImportHistory)
		r.Get("/portfolios/{id}/nav", portfolioHandler.HandleGetNAV)
		r.Get("/portfolios/{id}/indicators", portfolioHandler.HandleGetIndicators)

		r.Post("/import/preview", importHandler.HandlePreview)
		r.Post("/import/{sessionID}/schema", importHandler.HandleSetSchema)
		r.Post("/import/{sessionID}/mapping", importHandler.HandleOverrideMapping)
		r.Post("/import/{sessionID}/commit", importHandler.HandleCommit)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
