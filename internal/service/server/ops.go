package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"login_gateway/internal/model"
	"login_gateway/internal/utils/log"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type (
	SessionLookup interface {
		Get(ctx context.Context, name string) (*model.Session, error)
	}

	// HealthCheck reports whether one backend is reachable.
	HealthCheck struct {
		Name  string
		Check func(ctx context.Context) error
	}

	// OpsServer is the operator HTTP surface: health, sessions, and the live
	// event stream.
	OpsServer struct {
		registry *Registry
		sessions SessionLookup
		hub      *Hub
		checks   []HealthCheck
	}

	SessionView struct {
		Online  bool           `json:"online"`
		Since   *time.Time     `json:"since,omitempty"`
		Session *model.Session `json:"session,omitempty"`
	}
)

func NewOpsServer(registry *Registry, sessions SessionLookup, hub *Hub, checks ...HealthCheck) *OpsServer {
	return &OpsServer{
		registry: registry,
		sessions: sessions,
		hub:      hub,
		checks:   checks,
	}
}

func (s *OpsServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.HandleHealth()).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.HandleOnlineCount()).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{name}", s.HandleSession()).Methods(http.MethodGet)
	r.HandleFunc("/events", s.hub.ServeWS).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *OpsServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ops server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *OpsServer) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := make(map[string]string, len(s.checks))
		status := http.StatusOK
		for _, c := range s.checks {
			if err := c.Check(ctx); err != nil {
				log.Warn("health check failed", zap.String("check", c.Name), zap.Error(err))
				report[c.Name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			report[c.Name] = "ok"
		}
		writeJSON(w, status, report)
	}
}

func (s *OpsServer) HandleOnlineCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{
			"online":      s.registry.Count(),
			"subscribers": s.hub.Subscribers(),
		})
	}
}

func (s *OpsServer) HandleSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.ToLower(mux.Vars(r)["name"])

		var view SessionView
		if live, ok := s.registry.Online(name); ok {
			view.Online = true
			since := live.Since
			view.Since = &since
		}

		session, err := s.sessions.Get(r.Context(), name)
		if err != nil {
			log.Error("get session failed", zap.String("name", name), zap.Error(err))
			http.Error(w, "get session failed", http.StatusInternalServerError)
			return
		}
		view.Session = session

		if session == nil && !view.Online {
			http.Error(w, "no session for "+name, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("marshal response failed", zap.Error(err))
		http.Error(w, "marshal response failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
