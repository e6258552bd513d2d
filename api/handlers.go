/*
handlers.go - HTTP API handlers for the scenario compute service

PURPOSE:
  Exposes the scenario engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Scenarios:
    GET    /api/scenarios                     List scenarios
    POST   /api/scenarios                     Create scenario
    GET    /api/scenarios/{id}                Get scenario details
    DELETE /api/scenarios/{id}                Soft-delete scenario
    GET    /api/scenarios/{id}/actions        List actions
    POST   /api/scenarios/{id}/actions        Append action
    DELETE /api/scenarios/{id}/actions/{aid}  Remove action
    POST   /api/scenarios/{id}/compute        Compute and persist result
    GET    /api/scenarios/{id}/result         Latest persisted result

  Portfolio:
    GET    /api/projects                      List baseline projects

  Demos:
    GET    /api/demos                         List demo portfolios
    POST   /api/demos/load                    Load a demo portfolio
    POST   /api/reset                         Database reset (dev only)

TENANCY:
  Every request carries its organization in the X-Org-ID header. Handlers
  never trust ids in the body; the header scopes all reads and writes.
  A missing header is a 400.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, missing org header
  - 404: Scenario or result not found (including cross-tenant reads)
  - 500: Internal errors

SECURITY NOTE:
  The org header is trusted as-is; there is no authentication layer here.
  Put this service behind a gateway that authenticates and injects it.

SEE ALSO:
  - dto.go: Request/response data structures
  - demos.go: Demo portfolio loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/scenario-engine/engine"
	"github.com/warp/scenario-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *engine.Engine
	Logger *zap.Logger

	// Track currently loaded demo
	currentDemo string
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, eng *engine.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, Engine: eng, Logger: logger}
}

// orgID extracts the tenant from the X-Org-ID header. Writes a 400 and
// returns false when the header is missing.
func orgID(w http.ResponseWriter, r *http.Request) (engine.OrganizationID, bool) {
	org := r.Header.Get("X-Org-ID")
	if org == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Org-ID header", nil)
		return "", false
	}
	return engine.OrganizationID(org), true
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all live scenarios for the organization.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}

	plans, err := h.Store.ListScenarios(r.Context(), org)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scenarios", err)
		return
	}

	writeJSON(w, http.StatusOK, toScenarioDTOs(plans))
}

// CreateScenario creates a new scenario plan.
func (h *Handler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}

	var req CreateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Scenario name is required", nil)
		return
	}
	scope := engine.ScopeType(req.ScopeType)
	if scope != engine.ScopeProject && scope != engine.ScopePortfolio {
		writeError(w, http.StatusBadRequest, "scope_type must be project or portfolio", nil)
		return
	}
	if req.ScopeID == "" {
		writeError(w, http.StatusBadRequest, "scope_id is required", nil)
		return
	}

	status := engine.ScenarioStatus(req.Status)
	if status == "" {
		status = engine.StatusDraft
	}

	now := time.Now().UTC()
	plan := &engine.ScenarioPlan{
		ID:             engine.ScenarioID(uuid.NewString()),
		OrganizationID: org,
		Name:           req.Name,
		Description:    req.Description,
		ScopeType:      scope,
		ScopeID:        req.ScopeID,
		Status:         status,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.Store.SaveScenario(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create scenario", err)
		return
	}

	writeJSON(w, http.StatusCreated, toScenarioDTO(plan))
}

// GetScenario returns a single scenario.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}
	id := engine.ScenarioID(chi.URLParam(r, "id"))

	plan, err := h.Store.GetScenario(r.Context(), id, org)
	if errors.Is(err, engine.ErrScenarioNotFound) {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, toScenarioDTO(plan))
}

// DeleteScenario soft-deletes a scenario. The result row stays in place.
func (h *Handler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}
	id := engine.ScenarioID(chi.URLParam(r, "id"))

	err := h.Store.SoftDeleteScenario(r.Context(), id, org)
	if errors.Is(err, engine.ErrScenarioNotFound) {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete scenario", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ACTION HANDLERS
// =============================================================================

// ListActions returns a scenario's actions in application order.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}
	id := engine.ScenarioID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetScenario(r.Context(), id, org); err != nil {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	actions, err := h.Store.ListActions(r.Context(), id, org)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions", err)
		return
	}

	dtos := make([]ActionDTO, len(actions))
	for i, a := range actions {
		dtos[i] = toActionDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddAction appends one action to a scenario. Payload validity is NOT
// checked here: a malformed payload surfaces as a compute warning, and
// rejecting it at write time would diverge the two code paths.
func (h *Handler) AddAction(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}
	id := engine.ScenarioID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetScenario(r.Context(), id, org); err != nil {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	var req AddActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "Action type is required", nil)
		return
	}

	action := engine.ScenarioAction{
		ID:             uuid.NewString(),
		OrganizationID: org,
		ScenarioID:     id,
		Type:           engine.ActionType(req.Type),
		Payload:        []byte(req.Payload),
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.Store.AddAction(r.Context(), action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add action", err)
		return
	}

	writeJSON(w, http.StatusCreated, toActionDTO(action))
}

// RemoveAction deletes one action from a scenario.
func (h *Handler) RemoveAction(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}
	id := engine.ScenarioID(chi.URLParam(r, "id"))
	actionID := chi.URLParam(r, "actionId")

	if _, err := h.Store.GetScenario(r.Context(), id, org); err != nil {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	if err := h.Store.RemoveAction(r.Context(), actionID, id, org); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove action", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COMPUTE AND RESULT HANDLERS
// =============================================================================

// ComputeScenario runs a compute and returns the fresh summary. The result
// is persisted before this returns; a subsequent GET result sees it.
func (h *Handler) ComputeScenario(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}
	id := engine.ScenarioID(chi.URLParam(r, "id"))

	summary, warnings, err := h.Engine.Compute(r.Context(), id, org)
	if errors.Is(err, engine.ErrScenarioNotFound) {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, ComputeResponseDTO{
		ScenarioID: string(id),
		Summary:    *summary,
		Warnings:   warnings,
	})
}

// GetResult returns the most recently persisted result for a scenario.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}
	id := engine.ScenarioID(chi.URLParam(r, "id"))

	result, err := h.Store.GetResult(r.Context(), id, org)
	if errors.Is(err, engine.ErrResultNotFound) {
		writeError(w, http.StatusNotFound, "No result computed yet", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get result", err)
		return
	}

	writeJSON(w, http.StatusOK, ResultDTO{
		ID:         result.ID,
		ScenarioID: string(result.ScenarioID),
		ComputedAt: result.ComputedAt.Format(time.RFC3339),
		Summary:    result.Summary,
		Warnings:   result.Warnings,
	})
}

// =============================================================================
// PORTFOLIO HANDLERS
// =============================================================================

// ListProjects returns baseline projects, filtered by portfolio when the
// portfolio_id query parameter is present.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}

	filter := engine.ProjectFilter{
		OrganizationID: org,
		PortfolioID:    r.URL.Query().Get("portfolio_id"),
	}
	if filter.PortfolioID == "" {
		writeError(w, http.StatusBadRequest, "portfolio_id query parameter is required", nil)
		return
	}

	projects, err := h.Store.FindProjects(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
