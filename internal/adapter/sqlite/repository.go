package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/modreg/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// ModuleRepository implements domain.ModuleRepository using SQLite.
type ModuleRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*ModuleRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*ModuleRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &ModuleRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *ModuleRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *ModuleRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

const moduleColumns = `key, display_name, description, is_core, is_enabled, status,
	 dependencies, menu_order, show_in_menu, url_pattern,
	 created_at, updated_at, created_by, updated_by`

func (r *ModuleRepository) Create(ctx context.Context, m domain.Module) error {
	deps, err := encodeDeps(m.Dependencies)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO modules (`+moduleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Key, m.DisplayName, m.Description, m.IsCore, m.IsEnabled, string(m.Status),
		deps, m.MenuOrder, m.ShowInMenu, m.URLPattern,
		m.CreatedAt.Format(timeFormat),
		m.UpdatedAt.Format(timeFormat),
		m.CreatedBy, m.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateKeyError{Key: m.Key}
		}
		return fmt.Errorf("inserting module: %w", err)
	}
	return nil
}

func (r *ModuleRepository) GetByKey(ctx context.Context, key string) (domain.Module, error) {
	return r.scanModule(r.db.QueryRowContext(ctx,
		`SELECT `+moduleColumns+` FROM modules WHERE key = ?`, key,
	))
}

func (r *ModuleRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Module, error) {
	query := `SELECT ` + moduleColumns + ` FROM modules`
	var conds []string
	var args []any

	if filter.Enabled != nil {
		conds = append(conds, `is_enabled = ?`)
		args = append(args, *filter.Enabled)
	}
	if filter.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.ShowInMenu != nil {
		conds = append(conds, `show_in_menu = ?`)
		args = append(args, *filter.ShowInMenu)
	}

	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY menu_order, key`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	defer rows.Close()

	var modules []domain.Module
	for rows.Next() {
		m, err := r.scanModuleFromRows(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	return modules, rows.Err()
}

func (r *ModuleRepository) Update(ctx context.Context, m domain.Module) error {
	deps, err := encodeDeps(m.Dependencies)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE modules SET display_name = ?, description = ?, is_core = ?, is_enabled = ?,
		 status = ?, dependencies = ?, menu_order = ?, show_in_menu = ?, url_pattern = ?,
		 updated_at = ?, updated_by = ?
		 WHERE key = ?`,
		m.DisplayName, m.Description, m.IsCore, m.IsEnabled,
		string(m.Status), deps, m.MenuOrder, m.ShowInMenu, m.URLPattern,
		time.Now().UTC().Format(timeFormat), m.UpdatedBy, m.Key,
	)
	if err != nil {
		return fmt.Errorf("updating module: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrModuleNotFound
	}

	return nil
}

func (r *ModuleRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting module: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrModuleNotFound
	}

	return nil
}

// scanModule scans a single row from QueryRow into a domain.Module.
func (r *ModuleRepository) scanModule(row *sql.Row) (domain.Module, error) {
	var m domain.Module
	var status, deps, createdAt, updatedAt string

	err := row.Scan(&m.Key, &m.DisplayName, &m.Description, &m.IsCore, &m.IsEnabled, &status,
		&deps, &m.MenuOrder, &m.ShowInMenu, &m.URLPattern,
		&createdAt, &updatedAt, &m.CreatedBy, &m.UpdatedBy)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Module{}, domain.ErrModuleNotFound
		}
		return domain.Module{}, fmt.Errorf("scanning module: %w", err)
	}

	return r.finishScan(m, status, deps, createdAt, updatedAt)
}

// scanModuleFromRows scans a single row from Rows (used in List).
func (r *ModuleRepository) scanModuleFromRows(rows *sql.Rows) (domain.Module, error) {
	var m domain.Module
	var status, deps, createdAt, updatedAt string

	err := rows.Scan(&m.Key, &m.DisplayName, &m.Description, &m.IsCore, &m.IsEnabled, &status,
		&deps, &m.MenuOrder, &m.ShowInMenu, &m.URLPattern,
		&createdAt, &updatedAt, &m.CreatedBy, &m.UpdatedBy)
	if err != nil {
		return domain.Module{}, fmt.Errorf("scanning module row: %w", err)
	}

	return r.finishScan(m, status, deps, createdAt, updatedAt)
}

func (r *ModuleRepository) finishScan(m domain.Module, status, deps, createdAt, updatedAt string) (domain.Module, error) {
	m.Status = domain.Status(status)
	if err := json.Unmarshal([]byte(deps), &m.Dependencies); err != nil {
		return domain.Module{}, fmt.Errorf("decoding dependencies for %q: %w", m.Key, err)
	}
	if len(m.Dependencies) == 0 {
		m.Dependencies = nil
	}
	m.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	m.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return m, nil
}

// encodeDeps serializes the dependency list as a JSON string array.
// A nil list is stored as the empty array, never as SQL NULL.
func encodeDeps(deps []string) (string, error) {
	if len(deps) == 0 {
		return "[]", nil
	}
	out, err := json.Marshal(deps)
	if err != nil {
		return "", fmt.Errorf("encoding dependencies: %w", err)
	}
	return string(out), nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
