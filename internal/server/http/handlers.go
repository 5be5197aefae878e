package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/groundctl/groundctl/internal/orchestrator/core"
	"github.com/groundctl/groundctl/internal/orchestrator/core/model"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Kind   core.ErrorKind `json:"kind"`
		Entity string         `json:"entity,omitempty"`
		ID     string         `json:"id,omitempty"`
		Reason string         `json:"reason"`
	} `json:"error"`
}

func statusFor(kind core.ErrorKind) int {
	switch kind {
	case core.ErrorKindDuplicate, core.ErrorKindInvalidState:
		return http.StatusConflict
	case core.ErrorKindNotFound:
		return http.StatusNotFound
	case core.ErrorKindValidation, core.ErrorKindPlanning:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var body errorBody
	status := http.StatusInternalServerError

	var ce *core.Error
	if errors.As(err, &ce) {
		status = statusFor(ce.Kind)
		body.Error.Kind = ce.Kind
		body.Error.Entity = ce.Entity
		body.Error.ID = ce.ID
		body.Error.Reason = ce.Reason
	} else {
		body.Error.Reason = err.Error()
	}

	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "response encode failed")
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, core.NewValidation("request", "", "malformed JSON body: "+err.Error()))
		return false
	}
	return true
}

func (s *Server) handleRegisterVehicle(w http.ResponseWriter, r *http.Request) {
	var v model.Vehicle
	if !s.decode(w, r, &v) {
		return
	}
	created, err := s.orch.RegisterVehicle(&v)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListVehicles(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.ListVehicles())
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := s.orch.GetVehicle(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var patch model.VehiclePatch
	if !s.decode(w, r, &patch) {
		return
	}
	v, err := s.orch.UpdateVehicle(mux.Vars(r)["id"], &patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

type createMissionRequest struct {
	Name   string              `json:"name"`
	Type   model.MissionType   `json:"type"`
	Params model.MissionParams `json:"params"`
}

func (s *Server) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	var req createMissionRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.orch.CreateMission(req.Name, req.Type, req.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMissions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.ListMissions())
}

func (s *Server) handleGetMission(w http.ResponseWriter, r *http.Request) {
	m, err := s.orch.GetMission(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

type vehicleRef struct {
	VehicleID string `json:"vehicleID"`
}

func (s *Server) handleValidateMission(w http.ResponseWriter, r *http.Request) {
	var req vehicleRef
	if !s.decode(w, r, &req) {
		return
	}
	verdict, err := s.orch.ValidateMission(r.Context(), mux.Vars(r)["id"], req.VehicleID)
	if err != nil && verdict.Violation == nil {
		s.writeError(w, err)
		return
	}
	// A hard geofence violation is a useful answer, not a transport error:
	// the verdict body carries the offending zone.
	s.writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleExecuteMission(w http.ResponseWriter, r *http.Request) {
	var req vehicleRef
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.orch.ExecuteMission(r.Context(), mux.Vars(r)["id"], req.VehicleID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleAbortMission(w http.ResponseWriter, r *http.Request) {
	m, err := s.orch.AbortMission(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateGeofence(w http.ResponseWriter, r *http.Request) {
	var z model.Geofence
	if !s.decode(w, r, &z) {
		return
	}
	created, err := s.orch.CreateGeofence(&z)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListGeofences(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.ListGeofences())
}

func (s *Server) handleGetGeofence(w http.ResponseWriter, r *http.Request) {
	z, err := s.orch.GetGeofence(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, z)
}

func (s *Server) handleSetGeofenceActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	z, err := s.orch.SetGeofenceActive(mux.Vars(r)["name"], req.Active)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, z)
}

type createWorkflowRequest struct {
	Name       string   `json:"name"`
	MissionIDs []string `json:"missionIDs"`
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req createWorkflowRequest
	if !s.decode(w, r, &req) {
		return
	}
	wf, err := s.orch.CreateWorkflow(req.Name, req.MissionIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, wf)
}

// workflowView augments the stored workflow with its derived status.
type workflowView struct {
	*model.Workflow
	Status model.WorkflowStatus `json:"status"`
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, _ *http.Request) {
	workflows := s.orch.ListWorkflows()
	views := make([]workflowView, 0, len(workflows))
	for _, wf := range workflows {
		_, status, err := s.orch.GetWorkflow(wf.ID)
		if err != nil {
			continue
		}
		views = append(views, workflowView{Workflow: wf, Status: status})
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, status, err := s.orch.GetWorkflow(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, workflowView{Workflow: wf, Status: status})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.Status())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, core.NewValidation("request", "", "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	s.writeJSON(w, http.StatusOK, s.orch.RecentEvents(limit))
}

func (s *Server) handleFleet(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.Metrics())
}
