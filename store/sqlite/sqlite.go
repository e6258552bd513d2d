/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (engine.ScenarioStore,
  engine.PortfolioStore, engine.AuditLog) plus the write side used by the
  HTTP layer, using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  engine.ScenarioStore:  Plan reads, ordered actions, result upsert
  engine.PortfolioStore: Baseline reads (projects, tasks, deps, EV)
  engine.AuditLog:       Append-only audit trail

RESULT UPSERT:
  scenario_results carries a UNIQUE constraint on scenario_id; UpsertResult
  uses INSERT ... ON CONFLICT(scenario_id) DO UPDATE so exactly one row
  exists per scenario at all times. The row id is assigned once and kept
  across recomputes.

KEY TABLES:
  scenario_plans:         What-if exercises (soft-deleted via deleted_at)
  scenario_actions:       Immutable, ordered by created_at
  scenario_results:       One row per scenario, fully replaced on compute
  projects:               Baseline projects
  work_tasks:             Baseline tasks (soft-deleted via deleted_at)
  task_dependencies:      Dependency edges
  earned_value_snapshots: EVM readings, latest per project wins
  audit_log:              Append-only compute audit

DECIMALS:
  Hour, budget, and EVM figures are stored as TEXT in decimal string form
  and parsed back with shopspring/decimal. REAL columns would reintroduce
  float drift into a deterministic pipeline.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/scenarios.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := engine.NewEngine(store, store, engine.NewWorkweekCalendar())

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/scenario-engine/engine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Scenario plans (soft-deleted, never hard-deleted)
	CREATE TABLE IF NOT EXISTS scenario_plans (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		workspace_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		scope_type TEXT NOT NULL,
		scope_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_plans_org
		ON scenario_plans(organization_id) WHERE deleted_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_plans_status
		ON scenario_plans(status) WHERE deleted_at IS NULL;

	-- Scenario actions (immutable; applied in created_at order)
	CREATE TABLE IF NOT EXISTS scenario_actions (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		scenario_id TEXT NOT NULL,
		type TEXT NOT NULL,
		payload_json TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_scenario
		ON scenario_actions(scenario_id, created_at);

	-- Scenario results: exactly one row per scenario (hot path for reads)
	CREATE TABLE IF NOT EXISTS scenario_results (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		scenario_id TEXT NOT NULL UNIQUE,
		computed_at TEXT NOT NULL,
		summary_json TEXT NOT NULL,
		warnings_json TEXT NOT NULL DEFAULT '[]'
	);

	-- Baseline projects
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		portfolio_id TEXT NOT NULL DEFAULT '',
		budget TEXT NOT NULL DEFAULT '0',
		waterfall_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		starts_at TEXT,
		ends_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_projects_org
		ON projects(organization_id);
	CREATE INDEX IF NOT EXISTS idx_projects_portfolio
		ON projects(organization_id, portfolio_id);

	-- Baseline tasks (soft-deleted via deleted_at; hour columns nullable,
	-- null means "not set" which the demand model treats differently from 0)
	CREATE TABLE IF NOT EXISTS work_tasks (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		assignee_user_id TEXT,
		is_milestone BOOLEAN NOT NULL DEFAULT FALSE,
		planned_start_at TEXT,
		planned_end_at TEXT,
		estimate_hours TEXT,
		remaining_hours TEXT,
		percent_complete TEXT NOT NULL DEFAULT '0',
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project
		ON work_tasks(project_id) WHERE deleted_at IS NULL;

	-- Dependency edges
	CREATE TABLE IF NOT EXISTS task_dependencies (
		project_id TEXT NOT NULL,
		predecessor_id TEXT NOT NULL,
		successor_id TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'finish_to_start',
		lag_minutes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (predecessor_id, successor_id)
	);

	CREATE INDEX IF NOT EXISTS idx_deps_project
		ON task_dependencies(project_id);

	-- EVM snapshots; LatestEarnedValue picks the newest created_at per project
	CREATE TABLE IF NOT EXISTS earned_value_snapshots (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		bac TEXT NOT NULL DEFAULT '0',
		ev TEXT NOT NULL DEFAULT '0',
		ac TEXT NOT NULL DEFAULT '0',
		pv TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ev_project
		ON earned_value_snapshots(project_id, created_at DESC);

	-- Audit log (append-only; no update or delete path)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		scenario_id TEXT NOT NULL,
		actor_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		detail_json TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_scenario
		ON audit_log(scenario_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SCENARIO STORE (engine.ScenarioStore interface)
// =============================================================================

// GetScenario returns the plan, or engine.ErrScenarioNotFound when the plan
// is missing, soft-deleted, or belongs to a different organization.
func (s *Store) GetScenario(ctx context.Context, id engine.ScenarioID, org engine.OrganizationID) (*engine.ScenarioPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, workspace_id, name, description, scope_type,
		       scope_id, status, created_by, created_at, updated_at, deleted_at
		FROM scenario_plans
		WHERE id = ? AND organization_id = ? AND deleted_at IS NULL
	`

	row := s.db.QueryRowContext(ctx, query, id, org)
	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	return plan, nil
}

// ListActions returns the scenario's actions ordered by creation time.
func (s *Store) ListActions(ctx context.Context, id engine.ScenarioID, org engine.OrganizationID) ([]engine.ScenarioAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, scenario_id, type, payload_json, created_at
		FROM scenario_actions
		WHERE scenario_id = ? AND organization_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, id, org)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	var actions []engine.ScenarioAction
	for rows.Next() {
		var a engine.ScenarioAction
		var payload, createdAt string
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.ScenarioID, &a.Type, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		a.Payload = []byte(payload)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// UpsertResult creates or fully replaces the single result row for the
// scenario. The row id is assigned on first insert and kept afterwards.
func (s *Store) UpsertResult(ctx context.Context, result engine.ScenarioResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := `
		INSERT INTO scenario_results (id, organization_id, scenario_id, computed_at, summary_json, warnings_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scenario_id) DO UPDATE SET
			computed_at = excluded.computed_at,
			summary_json = excluded.summary_json,
			warnings_json = excluded.warnings_json
	`

	id := result.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = s.db.ExecContext(ctx, query,
		id,
		result.OrganizationID,
		result.ScenarioID,
		result.ComputedAt.UTC().Format(time.RFC3339),
		string(summaryJSON),
		string(warningsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert result: %w", err)
	}
	return nil
}

// GetResult returns the persisted result for a scenario, or
// engine.ErrResultNotFound when no compute has run yet.
func (s *Store) GetResult(ctx context.Context, id engine.ScenarioID, org engine.OrganizationID) (*engine.ScenarioResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, scenario_id, computed_at, summary_json, warnings_json
		FROM scenario_results
		WHERE scenario_id = ? AND organization_id = ?
	`

	var r engine.ScenarioResult
	var computedAt, summaryJSON, warningsJSON string
	err := s.db.QueryRowContext(ctx, query, id, org).Scan(
		&r.ID, &r.OrganizationID, &r.ScenarioID, &computedAt, &summaryJSON, &warningsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, engine.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	r.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
	if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &r.Warnings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
	}
	return &r, nil
}

// =============================================================================
// SCENARIO WRITE SIDE (used by the HTTP layer)
// =============================================================================

// SaveScenario inserts or updates a plan.
func (s *Store) SaveScenario(ctx context.Context, plan *engine.ScenarioPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO scenario_plans
		(id, organization_id, workspace_id, name, description, scope_type, scope_id,
		 status, created_by, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			scope_type = excluded.scope_type,
			scope_id = excluded.scope_id,
			status = excluded.status,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		plan.ID, plan.OrganizationID, plan.WorkspaceID, plan.Name, plan.Description,
		plan.ScopeType, plan.ScopeID, plan.Status, plan.CreatedBy,
		plan.CreatedAt.UTC().Format(time.RFC3339),
		plan.UpdatedAt.UTC().Format(time.RFC3339),
		nullTime(plan.DeletedAt),
	)
	return err
}

// SoftDeleteScenario marks a plan as deleted. The row, its actions, and its
// result stay in place; reads filter on deleted_at.
func (s *Store) SoftDeleteScenario(ctx context.Context, id engine.ScenarioID, org engine.OrganizationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE scenario_plans SET deleted_at = ?, updated_at = ?
		 WHERE id = ? AND organization_id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		id, org,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return engine.ErrScenarioNotFound
	}
	return nil
}

// ListScenarios returns all live plans for an organization, newest first.
func (s *Store) ListScenarios(ctx context.Context, org engine.OrganizationID) ([]*engine.ScenarioPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, workspace_id, name, description, scope_type,
		       scope_id, status, created_by, created_at, updated_at, deleted_at
		FROM scenario_plans
		WHERE organization_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	return s.queryPlans(ctx, query, org)
}

// ListActiveScenarios returns every live active plan across organizations.
// Used by the recompute scheduler.
func (s *Store) ListActiveScenarios(ctx context.Context) ([]*engine.ScenarioPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, workspace_id, name, description, scope_type,
		       scope_id, status, created_by, created_at, updated_at, deleted_at
		FROM scenario_plans
		WHERE status = ? AND deleted_at IS NULL
		ORDER BY id ASC
	`

	return s.queryPlans(ctx, query, engine.StatusActive)
}

func (s *Store) queryPlans(ctx context.Context, query string, args ...any) ([]*engine.ScenarioPlan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var plans []*engine.ScenarioPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// AddAction appends one immutable action to a scenario.
func (s *Store) AddAction(ctx context.Context, a engine.ScenarioAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := string(a.Payload)
	if payload == "" {
		payload = "{}"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scenario_actions (id, organization_id, scenario_id, type, payload_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.OrganizationID, a.ScenarioID, a.Type, payload,
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// RemoveAction deletes one action from a scenario.
func (s *Store) RemoveAction(ctx context.Context, actionID string, scenarioID engine.ScenarioID, org engine.OrganizationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM scenario_actions WHERE id = ? AND scenario_id = ? AND organization_id = ?`,
		actionID, scenarioID, org,
	)
	return err
}

// =============================================================================
// PORTFOLIO STORE (engine.PortfolioStore interface)
// =============================================================================

// FindProjects returns matching projects ordered by id.
func (s *Store) FindProjects(ctx context.Context, f engine.ProjectFilter) ([]*engine.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, name, portfolio_id, budget, waterfall_enabled, starts_at, ends_at
		FROM projects
		WHERE organization_id = ?
	`
	args := []any{f.OrganizationID}

	switch {
	case f.PortfolioID != "":
		query += " AND portfolio_id = ?"
		args = append(args, f.PortfolioID)
	case len(f.IDs) > 0:
		query += " AND id IN (" + placeholders(len(f.IDs)) + ")"
		for _, id := range f.IDs {
			args = append(args, id)
		}
	default:
		return nil, nil
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*engine.Project
	for rows.Next() {
		var p engine.Project
		var budget string
		var startsAt, endsAt sql.NullString
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.PortfolioID,
			&budget, &p.WaterfallEnabled, &startsAt, &endsAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Budget = mustDecimal(budget)
		p.StartsAt = parseNullTime(startsAt)
		p.EndsAt = parseNullTime(endsAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// FindTasks returns tasks for the given projects, excluding soft-deleted
// rows, ordered by id.
func (s *Store) FindTasks(ctx context.Context, f engine.TaskFilter) ([]*engine.WorkTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(f.ProjectIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, project_id, name, assignee_user_id, is_milestone,
		       planned_start_at, planned_end_at, estimate_hours, remaining_hours, percent_complete
		FROM work_tasks
		WHERE organization_id = ? AND deleted_at IS NULL
		  AND project_id IN (` + placeholders(len(f.ProjectIDs)) + `)
		ORDER BY id ASC
	`
	args := []any{f.OrganizationID}
	for _, id := range f.ProjectIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*engine.WorkTask
	for rows.Next() {
		var t engine.WorkTask
		var assignee, startAt, endAt, estimate, remaining sql.NullString
		var percent string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &assignee, &t.IsMilestone,
			&startAt, &endAt, &estimate, &remaining, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if assignee.Valid && assignee.String != "" {
			u := engine.UserID(assignee.String)
			t.AssigneeUserID = &u
		}
		t.PlannedStartAt = parseNullTime(startAt)
		t.PlannedEndAt = parseNullTime(endAt)
		t.EstimateHours = parseNullDecimal(estimate)
		t.RemainingHours = parseNullDecimal(remaining)
		t.PercentComplete = mustDecimal(percent)
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// FindDependencies returns dependency edges for the given projects.
func (s *Store) FindDependencies(ctx context.Context, f engine.DependencyFilter) ([]engine.WorkTaskDependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(f.ProjectIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT project_id, predecessor_id, successor_id, type, lag_minutes
		FROM task_dependencies
		WHERE project_id IN (` + placeholders(len(f.ProjectIDs)) + `)
		ORDER BY predecessor_id ASC, successor_id ASC
	`
	args := make([]any, len(f.ProjectIDs))
	for i, id := range f.ProjectIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	var deps []engine.WorkTaskDependency
	for rows.Next() {
		var d engine.WorkTaskDependency
		if err := rows.Scan(&d.ProjectID, &d.PredecessorID, &d.SuccessorID, &d.Type, &d.LagMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// LatestEarnedValue returns the most recent snapshot for a project, or nil
// when the project has none.
func (s *Store) LatestEarnedValue(ctx context.Context, projectID engine.ProjectID, org engine.OrganizationID) (*engine.EarnedValueSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT project_id, bac, ev, ac, pv, created_at
		FROM earned_value_snapshots
		WHERE project_id = ? AND organization_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var snap engine.EarnedValueSnapshot
	var bac, ev, ac, pv, createdAt string
	err := s.db.QueryRowContext(ctx, query, projectID, org).Scan(
		&snap.ProjectID, &bac, &ev, &ac, &pv, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load earned value: %w", err)
	}

	snap.BAC = mustDecimal(bac)
	snap.EV = mustDecimal(ev)
	snap.AC = mustDecimal(ac)
	snap.PV = mustDecimal(pv)
	snap.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &snap, nil
}

// =============================================================================
// PORTFOLIO WRITE SIDE (seeding; demo loaders and fixtures)
// =============================================================================

// SaveProject inserts or updates a baseline project.
func (s *Store) SaveProject(ctx context.Context, p *engine.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO projects (id, organization_id, name, portfolio_id, budget, waterfall_enabled, starts_at, ends_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			portfolio_id = excluded.portfolio_id,
			budget = excluded.budget,
			waterfall_enabled = excluded.waterfall_enabled,
			starts_at = excluded.starts_at,
			ends_at = excluded.ends_at
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.OrganizationID, p.Name, p.PortfolioID,
		p.Budget.String(), p.WaterfallEnabled,
		nullTime(p.StartsAt), nullTime(p.EndsAt),
	)
	return err
}

// SaveTask inserts or updates a baseline task.
func (s *Store) SaveTask(ctx context.Context, org engine.OrganizationID, t *engine.WorkTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO work_tasks
		(id, organization_id, project_id, name, assignee_user_id, is_milestone,
		 planned_start_at, planned_end_at, estimate_hours, remaining_hours, percent_complete, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			assignee_user_id = excluded.assignee_user_id,
			is_milestone = excluded.is_milestone,
			planned_start_at = excluded.planned_start_at,
			planned_end_at = excluded.planned_end_at,
			estimate_hours = excluded.estimate_hours,
			remaining_hours = excluded.remaining_hours,
			percent_complete = excluded.percent_complete
	`

	var assignee any
	if t.AssigneeUserID != nil {
		assignee = string(*t.AssigneeUserID)
	}

	_, err := s.db.ExecContext(ctx, query,
		t.ID, org, t.ProjectID, t.Name, assignee, t.IsMilestone,
		nullTime(t.PlannedStartAt), nullTime(t.PlannedEndAt),
		nullDecimal(t.EstimateHours), nullDecimal(t.RemainingHours),
		t.PercentComplete.String(),
	)
	return err
}

// AddDependency inserts one dependency edge.
func (s *Store) AddDependency(ctx context.Context, d engine.WorkTaskDependency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO task_dependencies (project_id, predecessor_id, successor_id, type, lag_minutes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(predecessor_id, successor_id) DO UPDATE SET
			type = excluded.type,
			lag_minutes = excluded.lag_minutes
	`

	_, err := s.db.ExecContext(ctx, query,
		d.ProjectID, d.PredecessorID, d.SuccessorID, d.Type, d.LagMinutes,
	)
	return err
}

// SaveEarnedValue appends one EVM snapshot.
func (s *Store) SaveEarnedValue(ctx context.Context, org engine.OrganizationID, snap engine.EarnedValueSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO earned_value_snapshots (id, organization_id, project_id, bac, ev, ac, pv, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), org, snap.ProjectID,
		snap.BAC.String(), snap.EV.String(), snap.AC.String(), snap.PV.String(),
		snap.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// AUDIT LOG (engine.AuditLog interface)
// =============================================================================

// Append writes one audit entry. Append-only; there is no update path.
func (s *Store) Append(ctx context.Context, entry engine.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	detailJSON, _ := json.Marshal(entry.Detail)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, organization_id, scenario_id, actor_id, action, detail_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OrganizationID, entry.ScenarioID, entry.ActorID,
		entry.Action, string(detailJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// AuditTrail returns a scenario's audit entries, oldest first.
func (s *Store) AuditTrail(ctx context.Context, id engine.ScenarioID, org engine.OrganizationID) ([]engine.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, organization_id, scenario_id, actor_id, action, detail_json
		FROM audit_log
		WHERE scenario_id = ? AND organization_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, id, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []engine.AuditEntry
	for rows.Next() {
		var e engine.AuditEntry
		var detailJSON string
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.ScenarioID, &e.ActorID, &e.Action, &detailJSON); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(detailJSON), &e.Detail)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"scenario_results", "scenario_actions", "scenario_plans",
		"earned_value_snapshots", "task_dependencies", "work_tasks",
		"projects", "audit_log",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*engine.ScenarioPlan, error) {
	var plan engine.ScenarioPlan
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(
		&plan.ID, &plan.OrganizationID, &plan.WorkspaceID, &plan.Name, &plan.Description,
		&plan.ScopeType, &plan.ScopeID, &plan.Status, &plan.CreatedBy,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	plan.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	plan.DeletedAt = parseNullTime(deletedAt)
	return &plan, nil
}

// Helper functions

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNullDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
