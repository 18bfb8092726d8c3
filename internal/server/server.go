// Package server hosts typing sessions for browsers over websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/verte-zerg/klava/internal/engine"
	"github.com/verte-zerg/klava/internal/generator"
	"github.com/verte-zerg/klava/internal/model"
	"github.com/verte-zerg/klava/internal/store"
)

// Options configures a Server.
type Options struct {
	Words  []string
	Lang   string
	Store  *store.Store
	Logger *slog.Logger
	// TickInterval is the countdown step; one second unless overridden.
	TickInterval time.Duration
	Validate     *validator.Validate
}

// Server routes HTTP requests and runs one engine per websocket.
type Server struct {
	opts     Options
	router   *mux.Router
	upgrader websocket.Upgrader
	validate *validator.Validate
	logger   *slog.Logger
}

type sessionQuery struct {
	Mode string `validate:"required,oneof=words time"`
	Goal int    `validate:"gt=0,lte=3600"`
}

type sessionDTO struct {
	ID         int64      `json:"id"`
	EndedAt    time.Time  `json:"endedAt"`
	Mode       model.Mode `json:"mode"`
	Goal       int        `json:"goal"`
	WPM        int        `json:"wpm"`
	Accuracy   int        `json:"accuracy"`
	DurationMs int64      `json:"durationMs"`
}

type presetsDTO struct {
	Words    []int              `json:"words"`
	Time     []int              `json:"time"`
	Defaults map[model.Mode]int `json:"defaults"`
}

// New builds a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Validate == nil {
		opts.Validate = validator.New(validator.WithRequiredStructEnabled())
	}
	s := &Server{
		opts:     opts,
		validate: opts.Validate,
		logger:   opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			// Best-effort health response.
			_ = err
		}
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/presets", s.handlePresets).Methods(http.MethodGet)
	v1.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)

	r.HandleFunc("/ws/session", s.handleSession).Methods(http.MethodGet)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, presetsDTO{
		Words: model.Presets(model.ModeWords),
		Time:  model.Presets(model.ModeTime),
		Defaults: map[model.Mode]int{
			model.ModeWords: model.DefaultGoal(model.ModeWords),
			model.ModeTime:  model.DefaultGoal(model.ModeTime),
		},
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		s.writeJSON(w, http.StatusOK, []sessionDTO{})
		return
	}
	cfg := model.StatsConfig{Lang: s.opts.Lang}
	q := r.URL.Query()
	if raw := q.Get("mode"); raw != "" {
		mode, ok := model.ParseMode(raw)
		if !ok {
			http.Error(w, "invalid mode", http.StatusBadRequest)
			return
		}
		cfg.Mode = mode
	}
	if raw := q.Get("last"); raw != "" {
		last, err := strconv.Atoi(raw)
		if err != nil || last < 0 {
			http.Error(w, "invalid last", http.StatusBadRequest)
			return
		}
		cfg.Last = last
	}

	sessions, err := s.opts.Store.ListSessions(r.Context(), cfg)
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	out := make([]sessionDTO, len(sessions))
	for i, sess := range sessions {
		out[i] = sessionDTO{
			ID:         sess.SessionID,
			EndedAt:    sess.EndedAt,
			Mode:       sess.Mode,
			Goal:       sess.Goal,
			WPM:        sess.WPM,
			Accuracy:   sess.Accuracy,
			DurationMs: sess.DurationMs,
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	query, err := s.parseSessionQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	eng, err := engine.New(generator.New(), s.opts.Words, model.Mode(query.Mode), query.Goal)
	if err != nil {
		s.logger.Error("failed to create session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)
	logger := s.logger.With("conn", uuid.NewString())
	logger.Info("session connected", "mode", query.Mode, "goal", query.Goal)

	in := make(chan inbound, 16)
	go readLoop(conn, s.validate, in, logger)

	sess := &session{
		conn:     conn,
		eng:      eng,
		srv:      s,
		logger:   logger,
		interval: s.opts.TickInterval,
	}
	sess.run(r.Context(), in)

	if err := conn.Close(); err != nil {
		// Best-effort close; the peer may already be gone.
		_ = err
	}
	for range in {
	}
	logger.Info("session disconnected")
}

func (s *Server) parseSessionQuery(r *http.Request) (sessionQuery, error) {
	q := r.URL.Query()
	query := sessionQuery{Mode: q.Get("mode")}
	if query.Mode == "" {
		query.Mode = string(model.ModeWords)
	}
	if raw := q.Get("goal"); raw != "" {
		goal, err := strconv.Atoi(raw)
		if err != nil {
			return sessionQuery{}, fmt.Errorf("invalid goal %q", raw)
		}
		query.Goal = goal
	} else {
		query.Goal = model.DefaultGoal(model.Mode(query.Mode))
	}
	if err := s.validate.Struct(query); err != nil {
		return sessionQuery{}, fmt.Errorf("invalid session query: %w", err)
	}
	return query, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		// Best-effort response write.
		_ = err
	}
}
