// Package http exposes the orchestrator over a JSON REST API, plus health
// probes and prometheus metrics.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/groundctl/groundctl/internal/orchestrator"
	"github.com/groundctl/groundctl/pkg/log"
	"github.com/groundctl/groundctl/pkg/options"
)

type Server struct {
	server *http.Server
	orch   *orchestrator.Orchestrator
	logger log.Logger
}

func NewServer(opts *options.HttpOptions, orch *orchestrator.Orchestrator) *Server {
	s := &Server{
		orch:   orch,
		logger: log.Std().WithName("http"),
	}

	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/vehicles", s.handleRegisterVehicle).Methods(http.MethodPost)
	api.HandleFunc("/vehicles", s.handleListVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", s.handleGetVehicle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", s.handleUpdateVehicle).Methods(http.MethodPatch)

	api.HandleFunc("/missions", s.handleCreateMission).Methods(http.MethodPost)
	api.HandleFunc("/missions", s.handleListMissions).Methods(http.MethodGet)
	api.HandleFunc("/missions/{id}", s.handleGetMission).Methods(http.MethodGet)
	api.HandleFunc("/missions/{id}/validate", s.handleValidateMission).Methods(http.MethodPost)
	api.HandleFunc("/missions/{id}/execute", s.handleExecuteMission).Methods(http.MethodPost)
	api.HandleFunc("/missions/{id}/abort", s.handleAbortMission).Methods(http.MethodPost)

	api.HandleFunc("/geofences", s.handleCreateGeofence).Methods(http.MethodPost)
	api.HandleFunc("/geofences", s.handleListGeofences).Methods(http.MethodGet)
	api.HandleFunc("/geofences/{name}", s.handleGetGeofence).Methods(http.MethodGet)
	api.HandleFunc("/geofences/{name}/active", s.handleSetGeofenceActive).Methods(http.MethodPut)

	api.HandleFunc("/workflows", s.handleCreateWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/workflows", s.handleListWorkflows).Methods(http.MethodGet)
	api.HandleFunc("/workflows/{id}", s.handleGetWorkflow).Methods(http.MethodGet)

	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/fleet", s.handleFleet).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
