// Package store provides in-memory implementations of the engine's
// repository interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/scenario-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory ScenarioStore + PortfolioStore + AuditLog
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	scenarios    map[engine.ScenarioID]*engine.ScenarioPlan
	actions      map[engine.ScenarioID][]engine.ScenarioAction
	results      map[engine.ScenarioID]*engine.ScenarioResult
	projects     map[engine.ProjectID]*engine.Project
	tasks        map[engine.TaskID]*engine.WorkTask
	dependencies []engine.WorkTaskDependency
	earnedValue  map[engine.ProjectID][]engine.EarnedValueSnapshot
	audit        []engine.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		scenarios:   make(map[engine.ScenarioID]*engine.ScenarioPlan),
		actions:     make(map[engine.ScenarioID][]engine.ScenarioAction),
		results:     make(map[engine.ScenarioID]*engine.ScenarioResult),
		projects:    make(map[engine.ProjectID]*engine.Project),
		tasks:       make(map[engine.TaskID]*engine.WorkTask),
		earnedValue: make(map[engine.ProjectID][]engine.EarnedValueSnapshot),
	}
}

// =============================================================================
// SEEDING - Write side used by tests and demo fixtures
// =============================================================================

func (m *Memory) SaveScenario(plan *engine.ScenarioPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[plan.ID] = plan
}

// AddAction appends in call order; ListActions preserves it.
func (m *Memory) AddAction(a engine.ScenarioAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[a.ScenarioID] = append(m.actions[a.ScenarioID], a)
}

func (m *Memory) SaveProject(p *engine.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
}

func (m *Memory) SaveTask(t *engine.WorkTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
}

func (m *Memory) AddDependency(d engine.WorkTaskDependency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependencies = append(m.dependencies, d)
}

func (m *Memory) AddEarnedValue(s engine.EarnedValueSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.earnedValue[s.ProjectID] = append(m.earnedValue[s.ProjectID], s)
}

// GetResult exposes the persisted result for assertions.
func (m *Memory) GetResult(id engine.ScenarioID) *engine.ScenarioResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.results[id]
}

// AuditEntries exposes the appended audit trail for assertions.
func (m *Memory) AuditEntries() []engine.AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.AuditEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

// =============================================================================
// SCENARIO STORE
// =============================================================================

func (m *Memory) GetScenario(_ context.Context, id engine.ScenarioID, org engine.OrganizationID) (*engine.ScenarioPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan, ok := m.scenarios[id]
	if !ok || plan.DeletedAt != nil || plan.OrganizationID != org {
		return nil, engine.ErrScenarioNotFound
	}
	return plan, nil
}

func (m *Memory) ListActions(_ context.Context, id engine.ScenarioID, org engine.OrganizationID) ([]engine.ScenarioAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.ScenarioAction
	for _, a := range m.actions[id] {
		if a.OrganizationID == org {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) UpsertResult(_ context.Context, result engine.ScenarioResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.results[result.ScenarioID]; ok {
		result.ID = existing.ID
	}
	if result.ID == "" {
		result.ID = "result-" + string(result.ScenarioID)
	}
	m.results[result.ScenarioID] = &result
	return nil
}

// =============================================================================
// PORTFOLIO STORE
// =============================================================================

func (m *Memory) FindProjects(_ context.Context, f engine.ProjectFilter) ([]*engine.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*engine.Project
	for _, p := range m.projects {
		if p.OrganizationID != f.OrganizationID {
			continue
		}
		if f.PortfolioID != "" {
			if p.PortfolioID == f.PortfolioID {
				out = append(out, p)
			}
			continue
		}
		for _, id := range f.IDs {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) FindTasks(_ context.Context, f engine.TaskFilter) ([]*engine.WorkTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[engine.ProjectID]bool, len(f.ProjectIDs))
	for _, id := range f.ProjectIDs {
		wanted[id] = true
	}

	var out []*engine.WorkTask
	for _, t := range m.tasks {
		if wanted[t.ProjectID] {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) FindDependencies(_ context.Context, f engine.DependencyFilter) ([]engine.WorkTaskDependency, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[engine.ProjectID]bool, len(f.ProjectIDs))
	for _, id := range f.ProjectIDs {
		wanted[id] = true
	}

	var out []engine.WorkTaskDependency
	for _, d := range m.dependencies {
		if wanted[d.ProjectID] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) LatestEarnedValue(_ context.Context, projectID engine.ProjectID, _ engine.OrganizationID) (*engine.EarnedValueSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snaps := m.earnedValue[projectID]
	if len(snaps) == 0 {
		return nil, nil
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	return &latest, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (m *Memory) Append(_ context.Context, entry engine.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}
