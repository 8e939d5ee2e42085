package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/metric"
	"github.com/huangsam/ecgscope/internal/publish"
	"github.com/huangsam/ecgscope/schema"
)

const shutdownTimeout = 5 * time.Second

// Server exposes previews, traces and pipeline metrics over HTTP.
// Every published result is also broadcast to websocket clients on /ws.
type Server struct {
	cfg      *contract.Config
	mgr      contract.StoreManager
	registry *metric.Registry
	hub      *publish.Hub
	board    *publish.PreviewBoard
}

// NewServer creates a server with its own metrics registry, hub and preview board.
func NewServer(cfg *contract.Config, mgr contract.StoreManager) *Server {
	return &Server{
		cfg:      cfg,
		mgr:      mgr,
		registry: metric.NewRegistry(),
		hub:      publish.NewHub(),
		board:    publish.NewPreviewBoard(),
	}
}

// Board returns the preview board the server publishes into.
func (s *Server) Board() *publish.PreviewBoard { return s.board }

// Hub returns the websocket hub.
func (s *Server) Hub() *publish.Hub { return s.hub }

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.Handle("GET /metrics", s.registry.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /previews", s.handleGetPreviews)
	mux.HandleFunc("POST /previews", s.handleRefreshPreviews)
	mux.HandleFunc("GET /trace/{id}", s.handleTrace)
	return mux
}

// RefreshPreviews reruns previews for every resolved recording.
func (s *Server) RefreshPreviews(ctx context.Context) ([]schema.RunOutcome, error) {
	outcomes, _, err := getPreviewResults(WithSuppressHeader(ctx), s.cfg, s.mgr, s.registry.Metrics, s.board, s.hub)
	return outcomes, err
}

// Trace runs the full-trace profile for one recording.
func (s *Server) Trace(ctx context.Context, recordingID string) (schema.PipelineResult, error) {
	cfg := s.cfg.Clone()
	cfg.RecordingIDs = []string{recordingID}
	result, _, err := getTraceResult(WithSuppressHeader(ctx), cfg, s.mgr, s.registry.Metrics, s.hub)
	return result, err
}

func (s *Server) handleGetPreviews(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, s.board.Snapshot())
}

func (s *Server) handleRefreshPreviews(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.RefreshPreviews(r.Context())
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	type refreshed struct {
		RecordingID string `json:"recording_id"`
		Label       string `json:"label"`
		Samples     int    `json:"samples"`
		Error       string `json:"error,omitempty"`
	}
	out := make([]refreshed, len(outcomes))
	for i, o := range outcomes {
		out[i] = refreshed{
			RecordingID: o.Recording.ID,
			Label:       contract.GetOutcomeLabel(o, false),
			Samples:     len(o.Result.Series),
		}
		if o.Failed() {
			out[i].Error = o.Err.Error()
		}
	}
	writeJSONResponse(w, http.StatusOK, out)
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	result, err := s.Trace(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, schema.EnrichResults([]schema.PipelineResult{result})[0])
}

// statusFor maps a pipeline error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoRecordings), errors.Is(err, contract.ErrUnknownSource):
		return http.StatusNotFound
	case contract.IsNoData(err):
		return http.StatusUnprocessableEntity
	case contract.Classify(err) == contract.ErrorTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeErrorResponse(w http.ResponseWriter, err error) {
	writeJSONResponse(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSONResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		contract.LogWarn("Failed to encode response", err)
	}
}

// ExecuteServe starts the HTTP server, computes an initial set of previews and
// serves until ctx is done.
func ExecuteServe(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	s := NewServer(cfg, mgr)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		outcomes, err := s.RefreshPreviews(ctx)
		if err != nil {
			contract.LogWarn("Initial previews failed", err)
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "Published %d previews\n", s.board.Len())
		for _, o := range outcomes {
			if o.Failed() {
				contract.LogWarn("Preview failed for "+o.Recording.ID, o.Err)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		_, _ = fmt.Fprintf(os.Stderr, "Serving on %s (websocket /ws, metrics /metrics)\n", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stderr, "Server stopped")
	return nil
}
