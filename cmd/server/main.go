package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"piuma/internal/auth"
	"piuma/internal/config"
	"piuma/internal/handler"
	"piuma/internal/middleware"
	"piuma/internal/names"
	"piuma/internal/repository"
	"piuma/internal/service"
	authsvc "piuma/internal/service/auth"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	out, closeLog, err := config.OpenLogOutput(cfg, "server")
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	logger := config.NewLogger(cfg, out)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store", cfg.StoreDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	// Localized default names
	catalog, err := names.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load name catalog: %v", err)
	}
	namer := catalog.Namer(cfg.Locale)
	logger.Info("name catalog loaded", "locales", catalog.Locales(), "locale", namer.Locale())

	workspace := service.NewWorkspaceService(
		st.Repo,
		st.TxManager,
		authsvc.NewOwnerBasedAuthorizer(),
		service.WorkspaceConfig{
			Namer:      namer,
			UndoLevels: cfg.UndoLevels,
			Autosave:   cfg.Autosave,
		},
		logger,
	)

	logger.Info("services initialized", "undo_levels", cfg.UndoLevels, "autosave", cfg.Autosave)

	// Create HTTP router
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux,
		handler.NewMetaHandler(catalog, namer),
		handler.NewDocumentHandler(workspace, logger),
		handler.NewNodeHandler(workspace, logger),
	)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLogger → Auth → Routes
	if cfg.AuthJWKSURL != "" {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		h = middleware.Auth(jwtVerifier, logger)(h)
	} else {
		logger.Warn("AUTH_JWKS_URL not set, documents are shared by all clients")
	}
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	// Save documents edited since their last save
	if err := workspace.Flush(shutdownCtx); err != nil {
		logger.Error("failed to flush documents", "error", err)
	}
	logger.Info("server stopped")
}
