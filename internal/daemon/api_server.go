package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/logging"
)

const maxRequestBody = 64 << 10

type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	queueSvc *api.QueueService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:     bind,
		logger:   logger,
		daemon:   d,
		queueSvc: api.NewQueueService(d.store),
	}
	srv.server = &http.Server{
		Handler:           srv.routes(strings.TrimSpace(cfg.Paths.APIToken)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/queue", s.handleQueueList)
	mux.HandleFunc("POST /api/queue", authMiddleware(token, s.handleEnqueue))
	mux.HandleFunc("GET /api/queue/{id}", authMiddleware(token, s.handleQueueEntry))
	mux.HandleFunc("DELETE /api/queue/{id}", authMiddleware(token, s.handleQueueRemove))
	mux.HandleFunc("POST /api/queue/{id}/skip", authMiddleware(token, s.handleQueueSkip))
	mux.HandleFunc("GET /api/files/{id}", authMiddleware(token, s.handleFile))
	mux.HandleFunc("GET /api/status", authMiddleware(token, s.handleStatus))
	mux.HandleFunc("GET /api/logs", authMiddleware(token, s.handleLogs))
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.log(), "api server error", "api_server_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// StartAPI serves the HTTP API on paths.api_bind until ctx ends or StopAPI is called.
// An empty bind address disables the API.
func (d *Daemon) StartAPI(ctx context.Context) error {
	srv := newAPIServer(d.cfg, d, logging.NewComponentLogger(d.root, "api-server"))
	if srv == nil {
		return nil
	}
	if err := srv.start(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	d.api = srv
	d.mu.Unlock()
	return nil
}

// StopAPI shuts the HTTP API down.
func (d *Daemon) StopAPI() {
	d.mu.Lock()
	srv := d.api
	d.api = nil
	d.mu.Unlock()
	srv.stop()
}

// APIAddr returns the bound HTTP address, or "" when the API is not serving.
func (d *Daemon) APIAddr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.api.addr()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, status.Payload())
}

// Payload converts the status to its wire representation.
func (status Status) Payload() api.DaemonStatus {
	return api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		StorageDir:   status.StorageDir,
		Manager:      api.FromStatusSummary(status.Manager, status.QueueStats),
		Storage:      api.FromDiskUsage(status.Storage),
		Dependencies: api.FromDependencyStatuses(status.Dependencies),
	}
}

func (s *apiServer) handleQueueList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.queueSvc.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []api.QueueEntry{}
	}
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Entries: entries})
}

func (s *apiServer) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req api.EnqueueRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	entry, err := s.daemon.Enqueue(r.Context(), req.ID, req.AuthorID, req.Title)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.QueueEntryResponse{Entry: api.FromEntry(entry)})
}

func (s *apiServer) handleQueueEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.queueSvc.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entry == nil {
		s.writeError(w, http.StatusNotFound, "queue entry not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueEntryResponse{Entry: *entry})
}

func (s *apiServer) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	result, err := api.RemoveEntriesByID(r.Context(), s.daemon, []string{r.PathValue("id")})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result.RemovedCount == 0 {
		s.writeError(w, http.StatusNotFound, "queue entry not found")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleQueueSkip(w http.ResponseWriter, r *http.Request) {
	result, err := api.ToggleSkipByID(r.Context(), s.daemon, []string{r.PathValue("id")})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result.UpdatedCount == 0 || result.Entries[0].Entry == nil {
		s.writeError(w, http.StatusNotFound, "queue entry not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueEntryResponse{Entry: *result.Entries[0].Entry})
}

func (s *apiServer) handleFile(w http.ResponseWriter, r *http.Request) {
	record, err := s.queueSvc.File(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.FileRecordResponse{File: *record})
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	resp, err := s.daemon.ReadLogs(r.Context(), LogQuery{
		Since:     since,
		Limit:     limit,
		Follow:    queryFlag(query.Get("follow")),
		Tail:      queryFlag(query.Get("tail")),
		ItemID:    query.Get("item"),
		Component: query.Get("component"),
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func queryFlag(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}
