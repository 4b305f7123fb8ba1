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

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/flowgrid/flowgrid/internal/auth"
	"github.com/flowgrid/flowgrid/internal/collab"
	"github.com/flowgrid/flowgrid/internal/config"
	"github.com/flowgrid/flowgrid/internal/db"
	"github.com/flowgrid/flowgrid/internal/diagram"
	"github.com/flowgrid/flowgrid/internal/export"
	mw "github.com/flowgrid/flowgrid/internal/middleware"
	"github.com/flowgrid/flowgrid/internal/typeid"
)

// playgroundDiagramID is the shared diagram anonymous users may join.
const playgroundDiagramID = "diag_playground"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	defaults, err := cfg.EditorDefaults()
	if err != nil {
		slog.Error("load editor defaults", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	queries := db.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	diagramService := diagram.NewService(queries)
	diagramHandler := diagram.NewHandler(diagramService)

	hub := collab.NewHub(diagram.NewSnapshotStore(queries), defaults)
	go hub.Run()

	exportHandler := export.NewHandler(hub, diagramService)

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/diagrams", diagramHandler.List).Methods("GET")
	api.HandleFunc("/diagrams", diagramHandler.Create).Methods("POST")
	api.HandleFunc("/diagrams/{diagramId}", diagramHandler.Get).Methods("GET")
	api.HandleFunc("/diagrams/{diagramId}", diagramHandler.Delete).Methods("DELETE")
	api.HandleFunc("/diagrams/{diagramId}/invite", diagramHandler.Invite).Methods("POST")
	api.HandleFunc("/diagrams/{diagramId}/members", diagramHandler.ListMembers).Methods("GET")
	api.HandleFunc("/diagrams/{diagramId}/members/{userId}", diagramHandler.RemoveMember).Methods("DELETE")
	api.HandleFunc("/diagrams/{diagramId}/snapshots/latest", diagramHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/diagrams/{diagramId}/export", exportHandler.ExportJSON).Methods("GET")

	r.HandleFunc("/ws/diagram/{diagramId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, queries, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty documents
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

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, queries *db.Queries, allowedOrigins string) {
	vars := mux.Vars(r)
	diagramID := vars["diagramId"]

	var userID string
	var displayName string

	if diagramID == playgroundDiagramID {
		// Anonymous access for the shared playground diagram
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		// Auth via query param for real diagrams
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if _, err := queries.GetMember(r.Context(), diagramID, userID); err != nil {
			http.Error(w, "not a diagram member", http.StatusForbidden)
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(allowedOrigins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := typeid.NewClientID()
	client := collab.NewClient(hub, conn, userID, displayName, diagramID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns turns configured origins into the host patterns the
// websocket accept check expects.
func originPatterns(origins string) []string {
	var patterns []string
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		if o != "" {
			patterns = append(patterns, o)
		}
	}
	return patterns
}
