package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		cfg: cfg,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	// Open database with SQLite-specific connection parameters
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Create migration source from embedded FS
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	// Create database driver
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	// Create migration instance
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// CreateStack inserts a new stack record
func (s *SQLiteStore) CreateStack(ctx context.Context, stack *Stack) error {
	query := `
		INSERT INTO stacks (
			id, account_id, name, status, status_reason, template_body,
			template_format, parameters, outputs, tags, disable_rollback,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		stack.ID,
		stack.AccountID,
		stack.Name,
		stack.Status,
		stack.StatusReason,
		stack.TemplateBody,
		stack.TemplateFormat,
		stack.Parameters,
		stack.Outputs,
		stack.Tags,
		stack.DisableRollback,
		stack.CreatedAt,
		stack.UpdatedAt,
		stack.DeletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create stack: %w", err)
	}

	return nil
}

const stackColumns = `id, account_id, name, status, status_reason, template_body,
		template_format, parameters, outputs, tags, disable_rollback,
		created_at, updated_at, deleted_at`

func scanStack(row interface{ Scan(...interface{}) error }) (*Stack, error) {
	stack := &Stack{}
	err := row.Scan(
		&stack.ID,
		&stack.AccountID,
		&stack.Name,
		&stack.Status,
		&stack.StatusReason,
		&stack.TemplateBody,
		&stack.TemplateFormat,
		&stack.Parameters,
		&stack.Outputs,
		&stack.Tags,
		&stack.DisableRollback,
		&stack.CreatedAt,
		&stack.UpdatedAt,
		&stack.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return stack, nil
}

// GetStack retrieves the most recent stack with the given name in an
// account. Deleted stacks are excluded so that a name can be reused.
func (s *SQLiteStore) GetStack(ctx context.Context, accountID, name string) (*Stack, error) {
	query := `
		SELECT ` + stackColumns + `
		FROM stacks
		WHERE account_id = ? AND name = ? AND status != ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	stack, err := scanStack(s.db.QueryRowContext(ctx, query, accountID, name, StackStatusDeleted))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stack %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stack: %w", err)
	}

	return stack, nil
}

// GetStackByID retrieves a stack by its identifier
func (s *SQLiteStore) GetStackByID(ctx context.Context, id string) (*Stack, error) {
	query := `
		SELECT ` + stackColumns + `
		FROM stacks
		WHERE id = ?
	`

	stack, err := scanStack(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stack %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stack: %w", err)
	}

	return stack, nil
}

// ListStacks lists non-deleted stacks for an account, newest first
func (s *SQLiteStore) ListStacks(ctx context.Context, accountID string) ([]*Stack, error) {
	query := `
		SELECT ` + stackColumns + `
		FROM stacks
		WHERE account_id = ? AND status != ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, accountID, StackStatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list stacks: %w", err)
	}
	defer rows.Close()

	stacks := []*Stack{}
	for rows.Next() {
		stack, err := scanStack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stack: %w", err)
		}
		stacks = append(stacks, stack)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stacks: %w", err)
	}

	return stacks, nil
}

// UpdateStackStatus updates the status of a stack
func (s *SQLiteStore) UpdateStackStatus(ctx context.Context, id string, status StackStatus, reason *string) error {
	query := `
		UPDATE stacks
		SET status = ?, status_reason = ?, updated_at = ?,
			deleted_at = CASE WHEN ? = 'DELETED' THEN ? ELSE deleted_at END
		WHERE id = ?
	`

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query, status, reason, now, status, now, id)
	if err != nil {
		return fmt.Errorf("failed to update stack status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("stack %s: %w", id, ErrNotFound)
	}

	return nil
}

// SetStackOutputs stores the resolved outputs JSON for a stack
func (s *SQLiteStore) SetStackOutputs(ctx context.Context, id string, outputs string) error {
	query := `UPDATE stacks SET outputs = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, outputs, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set stack outputs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("stack %s: %w", id, ErrNotFound)
	}

	return nil
}

// CreateStackResource inserts a new stack resource record
func (s *SQLiteStore) CreateStackResource(ctx context.Context, res *StackResource) error {
	query := `
		INSERT INTO stack_resources (
			id, stack_id, logical_id, kind, status, status_reason,
			physical_id, properties, seq, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		res.ID,
		res.StackID,
		res.LogicalID,
		res.Kind,
		res.Status,
		res.StatusReason,
		res.PhysicalID,
		res.Properties,
		res.Seq,
		res.CreatedAt,
		res.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create stack resource: %w", err)
	}

	return nil
}

// UpdateStackResource updates the status, physical identifier and
// status reason of a stack resource
func (s *SQLiteStore) UpdateStackResource(ctx context.Context, id string, status ResourceStatus, physicalID, reason *string) error {
	query := `
		UPDATE stack_resources
		SET status = ?, physical_id = COALESCE(?, physical_id),
			status_reason = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, status, physicalID, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update stack resource: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("stack resource %s: %w", id, ErrNotFound)
	}

	return nil
}

// SetStackResourceProperties replaces a resource's stored properties,
// used once references are resolved against created resources.
func (s *SQLiteStore) SetStackResourceProperties(ctx context.Context, id string, properties string) error {
	query := `
		UPDATE stack_resources
		SET properties = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, properties, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update stack resource properties: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("stack resource %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListStackResources lists the resources of a stack in plan order
func (s *SQLiteStore) ListStackResources(ctx context.Context, stackID string) ([]*StackResource, error) {
	query := `
		SELECT id, stack_id, logical_id, kind, status, status_reason,
			   physical_id, properties, seq, created_at, updated_at
		FROM stack_resources
		WHERE stack_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, stackID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stack resources: %w", err)
	}
	defer rows.Close()

	resources := []*StackResource{}
	for rows.Next() {
		res := &StackResource{}
		err := rows.Scan(
			&res.ID,
			&res.StackID,
			&res.LogicalID,
			&res.Kind,
			&res.Status,
			&res.StatusReason,
			&res.PhysicalID,
			&res.Properties,
			&res.Seq,
			&res.CreatedAt,
			&res.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stack resource: %w", err)
		}
		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stack resources: %w", err)
	}

	return resources, nil
}

// AppendEvent appends a new event to the log
func (s *SQLiteStore) AppendEvent(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (stack_id, logical_id, level, message, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		event.StackID,
		event.LogicalID,
		event.Level,
		event.Message,
		event.Details,
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	// Get the auto-generated ID
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event ID: %w", err)
	}

	event.ID = id
	return nil
}

// GetEvents retrieves events with an optional stack filter and pagination
func (s *SQLiteStore) GetEvents(ctx context.Context, stackID *string, limit, offset int) ([]*Event, error) {
	query := `
		SELECT id, stack_id, logical_id, level, message, details, timestamp
		FROM events
		WHERE (? IS NULL OR stack_id = ?)
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, stackID, stackID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		err := rows.Scan(
			&event.ID,
			&event.StackID,
			&event.LogicalID,
			&event.Level,
			&event.Message,
			&event.Details,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
