// Package v1 provides the status and trigger endpoints of keysync.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/keysync/internal/api/common"
	"github.com/stacklok/keysync/internal/sync/coordinator"
	"github.com/stacklok/keysync/internal/sync/state"
	"github.com/stacklok/keysync/internal/tasks"
	"github.com/stacklok/keysync/internal/versions"
)

// maxRequestBody bounds request bodies of the trigger endpoints
const maxRequestBody = 1 << 10

// Routes handles the v1 endpoints
type Routes struct {
	coordinator coordinator.Coordinator
	state       state.StateService
	scheduler   tasks.Scheduler
}

// NewRoutes creates the v1 handlers
func NewRoutes(coord coordinator.Coordinator, stateSvc state.StateService, scheduler tasks.Scheduler) *Routes {
	return &Routes{
		coordinator: coord,
		state:       stateSvc,
		scheduler:   scheduler,
	}
}

// Router creates a router for the v1 API
func Router(coord coordinator.Coordinator, stateSvc state.StateService, scheduler tasks.Scheduler) http.Handler {
	routes := NewRoutes(coord, stateSvc, scheduler)

	r := chi.NewRouter()
	r.Get("/status", routes.getStatus)
	r.Post("/detection", routes.triggerDetection)
	r.Post("/capability", routes.setCapability)
	return r
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(stateSvc state.StateService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(stateSvc))
	r.Get("/version", versionHandler)

	return r
}

// getStatus handles status requests
//
// @Summary		Service status
// @Description	Detection policy state, per region sync status and background tasks
// @Tags			status
// @Produce		json
// @Success		200	{object}	StatusResponse
// @Failure		500	{object}	common.ErrorResponse
// @Router			/v1/status [get]
func (rr *Routes) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshot, err := rr.coordinator.DetectionSnapshot(ctx)
	if err != nil {
		common.WriteErrorResponse(w, "failed to evaluate detection state: "+err.Error(), http.StatusInternalServerError)
		return
	}
	detectionStatus, err := rr.state.GetDetectionStatus(ctx)
	if err != nil {
		common.WriteErrorResponse(w, "failed to read detection status: "+err.Error(), http.StatusInternalServerError)
		return
	}
	regions, err := rr.state.ListSyncStatuses(ctx)
	if err != nil {
		common.WriteErrorResponse(w, "failed to read sync status: "+err.Error(), http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, StatusResponse{
		Detection: DetectionState{
			Snapshot:      snapshot,
			LastAttempt:   detectionStatus.LastAttempt,
			LastSummary:   detectionStatus.LastSummary,
			LastError:     detectionStatus.LastError,
			LastErrorKind: detectionStatus.LastErrorKind,
		},
		Regions: regions,
		Tasks:   rr.scheduler.Status(),
		Version: versions.GetVersionInfo(),
	}, http.StatusOK)
}

// triggerDetection handles manual detection requests
//
// @Summary		Run exposure detection
// @Description	Syncs every region and runs detection now. In manual mode the policy must allow it.
// @Tags			detection
// @Produce		json
// @Success		200	{object}	status.DetectionStatus
// @Failure		409	{object}	DetectionConflictResponse
// @Failure		500	{object}	status.DetectionStatus
// @Router			/v1/detection [post]
func (rr *Routes) triggerDetection(w http.ResponseWriter, r *http.Request) {
	// a client disconnect must not abort a run halfway through committing packages
	ctx := context.WithoutCancel(r.Context())

	detectionStatus, err := rr.coordinator.RunDetection(ctx, true)
	switch {
	case errors.Is(err, coordinator.ErrNotDue):
		resp := DetectionConflictResponse{Error: err.Error()}
		if snapshot, snapErr := rr.coordinator.DetectionSnapshot(ctx); snapErr == nil {
			resp.ManualState = snapshot.ManualState
			resp.NextDueAt = &snapshot.NextDueAt
		}
		common.WriteJSONResponse(w, resp, http.StatusConflict)
	case errors.Is(err, coordinator.ErrAlreadyRunning):
		common.WriteJSONResponse(w, DetectionConflictResponse{Error: err.Error()}, http.StatusConflict)
	case err != nil && detectionStatus != nil:
		slog.Warn("Manual detection failed", "error", err)
		common.WriteJSONResponse(w, detectionStatus, http.StatusInternalServerError)
	case err != nil:
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
	default:
		common.WriteJSONResponse(w, detectionStatus, http.StatusOK)
	}
}

// setCapability handles background capability changes
//
// @Summary		Set background capability
// @Description	Schedules every task when usable, cancels every task otherwise
// @Tags			tasks
// @Accept			json
// @Produce		json
// @Param			request	body		CapabilityRequest	true	"Capability"
// @Success		200		{object}	CapabilityResponse
// @Failure		400		{object}	common.ErrorResponse
// @Router			/v1/capability [post]
func (rr *Routes) setCapability(w http.ResponseWriter, r *http.Request) {
	var req CapabilityRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		common.WriteErrorResponse(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Usable == nil {
		common.WriteErrorResponse(w, "usable is required", http.StatusBadRequest)
		return
	}

	slog.Info("Background capability changed", "usable", *req.Usable)
	rr.scheduler.OnCapabilityChanged(*req.Usable)

	common.WriteJSONResponse(w, CapabilityResponse{
		Usable: *req.Usable,
		Tasks:  rr.scheduler.Status(),
	}, http.StatusOK)
}

// healthHandler handles health check requests
//
// @Summary		Health check
// @Tags			system
// @Produce		json
// @Success		200	{object}	HealthResponse
// @Router			/health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once the region statuses are loaded
//
// @Summary		Readiness check
// @Tags			system
// @Produce		json
// @Success		200	{object}	ReadinessResponse
// @Failure		503	{object}	common.ErrorResponse
// @Router			/readiness [get]
func readinessHandler(stateSvc state.StateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := stateSvc.ListSyncStatuses(r.Context())
		if err != nil {
			common.WriteErrorResponse(w, "state not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		if len(statuses) == 0 {
			common.WriteErrorResponse(w, "state not ready: regions not initialized", http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
//
// @Summary		Version information
// @Tags			system
// @Produce		json
// @Success		200	{object}	versions.VersionInfo
// @Router			/version [get]
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
