package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/placefinder/internal/history"
	"github.com/sells-group/placefinder/internal/search"
)

var servePort int

// searcher is the service surface the HTTP handlers depend on.
type searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// runLister serves the history endpoint; nil disables it.
type runLister interface {
	List(ctx context.Context, limit int) ([]history.Run, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP search API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initSearch(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var lister runLister
		if env.History != nil {
			lister = env.History
		}
		router := newAPIRouter(env.Service, lister, cfg.Server.AllowedOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newAPIRouter builds the HTTP API. lister may be nil, which disables the
// history endpoint.
func newAPIRouter(svc searcher, lister runLister, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/search", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Query      string `json:"query"`
			MaxResults int    `json:"maxResults"`
			Intensity  string `json:"searchIntensity"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Search(req.Context(), search.Request{
			Query:      body.Query,
			MaxResults: body.MaxResults,
			Intensity:  body.Intensity,
		})
		if err != nil {
			switch {
			case eris.Is(err, search.ErrMissingQuery):
				writeError(w, http.StatusBadRequest, "query is required")
			case eris.Is(err, search.ErrMissingCredential):
				writeError(w, http.StatusInternalServerError, "server is not configured for search")
			default:
				zap.L().Error("search request failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "search failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/api/history", func(w http.ResponseWriter, req *http.Request) {
		if lister == nil {
			writeError(w, http.StatusNotFound, "history is not enabled")
			return
		}

		limit := 0
		if s := req.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		runs, err := lister.List(req.Context(), limit)
		if err != nil {
			zap.L().Error("history list failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "history lookup failed")
			return
		}
		if runs == nil {
			runs = []history.Run{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
