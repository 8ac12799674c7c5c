package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/internal/scan"
	"github.com/sells-group/rankgrid/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scan API server",
	Long: `Exposes grid scans over HTTP for downstream consumers (report generators,
heatmap renderers). Outcomes are returned in grid order so renderers can
zip them back to coordinates positionally.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scanner := scan.NewScanner(newPlacesClient())

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(scanner, st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the scan API routes.
func newRouter(scanner *scan.Scanner, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/scans", func(w http.ResponseWriter, r *http.Request) {
		var req model.ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Keyword == "" || req.Target == "" {
			writeError(w, http.StatusBadRequest, "keyword and target are required")
			return
		}

		run, err := st.CreateScan(r.Context(), req)
		if err != nil {
			zap.L().Error("create scan failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "create scan failed")
			return
		}

		outcomes, err := scanner.Scan(r.Context(), req)
		if err != nil {
			// Scan-level failures are invalid input; point failures are
			// recorded on the outcomes instead.
			_ = st.FailScan(r.Context(), run.ID, err.Error())
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		summary := scan.Summarize(outcomes)
		if err := st.CompleteScan(r.Context(), run.ID, outcomes, summary); err != nil {
			zap.L().Warn("persist scan failed", zap.String("scan_id", run.ID), zap.Error(err))
		}

		run.Outcomes = outcomes
		run.Summary = summary
		run.Status = model.ScanStatusComplete
		writeJSON(w, http.StatusOK, run)
	})

	r.Get("/scans", func(w http.ResponseWriter, r *http.Request) {
		runs, err := st.ListScans(r.Context(), store.ScanFilter{
			Status: model.ScanStatus(r.URL.Query().Get("status")),
		})
		if err != nil {
			zap.L().Error("list scans failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list scans failed")
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/scans/{id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetScan(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			var nf *store.NotFoundError
			if errors.As(err, &nf) {
				writeError(w, http.StatusNotFound, nf.Error())
				return
			}
			zap.L().Error("get scan failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get scan failed")
			return
		}
		writeJSON(w, http.StatusOK, run)
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
