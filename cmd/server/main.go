// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/iyunix/go-docchat/internal/config"
	"github.com/iyunix/go-docchat/internal/domain"
	"github.com/iyunix/go-docchat/internal/handlers"
	"github.com/iyunix/go-docchat/internal/middleware"
	"github.com/iyunix/go-docchat/internal/ratelimit"
	chatrepo "github.com/iyunix/go-docchat/internal/repository/chat"
	messagerepo "github.com/iyunix/go-docchat/internal/repository/message"
	userrepo "github.com/iyunix/go-docchat/internal/repository/user"
	"github.com/iyunix/go-docchat/internal/services"
	"github.com/iyunix/go-docchat/internal/services/assistant"
	"github.com/iyunix/go-docchat/internal/services/user_services"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg := config.Load()

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.Chat{}, &domain.Message{}); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	userRepo := userrepo.NewGormUserRepository(db)
	chatRepo := chatrepo.NewChatRepository(db)
	messageRepo := messagerepo.NewMessageRepository(db)

	// --- Services ---
	providerConfig := assistant.DefaultConfig()
	providerConfig.APIKey = cfg.OpenAIAPIKey
	providerConfig.BaseURL = cfg.OpenAIBaseURL
	providerConfig.AssistantID = cfg.AssistantID
	providerConfig.VectorStoreID = cfg.VectorStoreID

	provider, err := assistant.NewOpenAIProvider(providerConfig)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize assistant provider: %v", err)
	}

	authService := user_services.NewAuthService(userRepo, cfg.JWTSecretKey, services.NewLogger("auth"))

	chatService, err := services.NewChatService(chatRepo, messageRepo, provider, services.NewLogger("chat"))
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize chat service: %v", err)
	}

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)
	uploadHandler := handlers.NewUploadHandler(chatService, cfg.MaxUploadBytes, cfg.AllowedExtensions)

	// --- Rate Limiters ---
	authLimiter := ratelimit.New(ratelimit.AuthConfig())
	defer authLimiter.Close()
	relayLimiter := ratelimit.New(ratelimit.RelayConfig())
	defer relayLimiter.Close()

	// --- Router Setup ---
	r := mux.NewRouter()
	authMiddleware := middleware.NewJWTMiddleware(authService)

	r.Use(corsMiddleware)
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.RequestID)
	r.Use(middleware.LoggingMiddleware)

	// --- Public Routes ---
	r.HandleFunc("/health", chatHandler.Health).Methods("GET")
	r.HandleFunc("/api/log", handlers.LogClientEvent).Methods("POST")

	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	authRoutes.Use(middleware.RateLimitMiddleware(authLimiter, "auth"))
	authRoutes.Use(middleware.AuthSuccessMiddleware(authLimiter, "auth"))
	authRoutes.HandleFunc("/register", authHandler.Register).Methods("POST")
	authRoutes.HandleFunc("/login", authHandler.Login).Methods("POST")

	// --- Protected Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)
	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	api.HandleFunc("/chats", chatHandler.GetUserChats).Methods("GET")
	api.HandleFunc("/chats", chatHandler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/{id:[0-9]+}/messages", chatHandler.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id:[0-9]+}/title", chatHandler.RenameChat).Methods("PUT")
	api.HandleFunc("/chats/{id:[0-9]+}", chatHandler.DeleteChat).Methods("DELETE")
	api.HandleFunc("/thread", chatHandler.CreateThread).Methods("POST")
	api.HandleFunc("/upload", uploadHandler.Upload).Methods("POST")

	relay := api.PathPrefix("/chat").Subrouter()
	relay.Use(middleware.RateLimitMiddleware(relayLimiter, "relay"))
	relay.HandleFunc("", chatHandler.SendMessage).Methods("POST")

	// --- Server Configuration ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("DocChat server starting on port %s (env: %s)", cfg.ServerPort, cfg.Environment)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped.")
}
