/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Scenario:
    ScenarioDTO, CreateScenarioRequest

  Action:
    ActionDTO, AddActionRequest

  Result:
    ResultDTO (wraps engine.ScenarioSummary verbatim)

  Portfolio:
    ProjectDTO, TaskDTO

  Demos:
    DemoDTO, LoadDemoRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: The domain model these map from
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/scenario-engine/engine"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ScenarioDTO represents a scenario plan in API responses.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ScopeType   string `json:"scope_type"`
	ScopeID     string `json:"scope_id"`
	Status      string `json:"status"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// CreateScenarioRequest is the request to create a scenario.
type CreateScenarioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ScopeType   string `json:"scope_type"`
	ScopeID     string `json:"scope_id"`
	Status      string `json:"status,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// ActionDTO represents one scenario action.
type ActionDTO struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// AddActionRequest is the request to append an action to a scenario.
type AddActionRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ComputeResponseDTO is the response of a compute call.
type ComputeResponseDTO struct {
	ScenarioID string                 `json:"scenario_id"`
	Summary    engine.ScenarioSummary `json:"summary"`
	Warnings   []string               `json:"warnings"`
}

// ResultDTO is the persisted result of the most recent compute.
type ResultDTO struct {
	ID         string                 `json:"id"`
	ScenarioID string                 `json:"scenario_id"`
	ComputedAt string                 `json:"computed_at"`
	Summary    engine.ScenarioSummary `json:"summary"`
	Warnings   []string               `json:"warnings"`
}

// ProjectDTO represents a baseline project.
type ProjectDTO struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	PortfolioID      string  `json:"portfolio_id,omitempty"`
	Budget           float64 `json:"budget"`
	WaterfallEnabled bool    `json:"waterfall_enabled"`
	StartsAt         *string `json:"starts_at,omitempty"`
	EndsAt           *string `json:"ends_at,omitempty"`
}

// DemoDTO represents a loadable demo portfolio.
type DemoDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadDemoRequest is the request to load a demo portfolio.
type LoadDemoRequest struct {
	DemoID string `json:"demo_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toScenarioDTO(plan *engine.ScenarioPlan) ScenarioDTO {
	return ScenarioDTO{
		ID:          string(plan.ID),
		Name:        plan.Name,
		Description: plan.Description,
		ScopeType:   string(plan.ScopeType),
		ScopeID:     plan.ScopeID,
		Status:      string(plan.Status),
		CreatedBy:   plan.CreatedBy,
		CreatedAt:   plan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   plan.UpdatedAt.Format(time.RFC3339),
	}
}

func toScenarioDTOs(plans []*engine.ScenarioPlan) []ScenarioDTO {
	dtos := make([]ScenarioDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toScenarioDTO(p)
	}
	return dtos
}

func toActionDTO(a engine.ScenarioAction) ActionDTO {
	return ActionDTO{
		ID:        a.ID,
		Type:      string(a.Type),
		Payload:   json.RawMessage(a.Payload),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func toProjectDTO(p *engine.Project) ProjectDTO {
	budget, _ := p.Budget.Float64()
	dto := ProjectDTO{
		ID:               string(p.ID),
		Name:             p.Name,
		PortfolioID:      p.PortfolioID,
		Budget:           budget,
		WaterfallEnabled: p.WaterfallEnabled,
	}
	if p.StartsAt != nil {
		s := engine.FormatDate(*p.StartsAt)
		dto.StartsAt = &s
	}
	if p.EndsAt != nil {
		s := engine.FormatDate(*p.EndsAt)
		dto.EndsAt = &s
	}
	return dto
}
