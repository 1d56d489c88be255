package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/berkebzlk/API-SOLUTION/internal/core/validation"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store errors
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

// ValidationError carries the per-field error map produced by a failed
// rule-chain validation. It wraps ErrValidation so callers can match the
// class with errors.Is while still reaching the field details.
type ValidationError struct {
	Fields validation.ErrorMap
}

func (e *ValidationError) Error() string {
	return "validation failed:\n" + e.Fields.String()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Store provides generic CRUD operations for all resources defined in the schema.
type Store struct {
	db      *sqlx.DB
	schema  map[string]*Resource
	ordered []Resource // ordered list for migrations and route registration
}

// NewStore creates a new generic store over an open database.
func NewStore(db *sqlx.DB, resources []Resource) (*Store, error) {
	schema := make(map[string]*Resource, len(resources))
	ordered := make([]Resource, len(resources))
	for i := range resources {
		r := resources[i]
		schema[r.Name] = &r
		ordered[i] = r
	}
	return &Store{
		db:      db,
		schema:  schema,
		ordered: ordered,
	}, nil
}

// DB returns the underlying sqlx.DB.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Resource returns the resource definition by name.
func (s *Store) Resource(name string) *Resource {
	return s.schema[name]
}

// Resources returns all resource definitions in declaration order.
func (s *Store) Resources() []Resource {
	return s.ordered
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// Pagination
// =============================================================================

type Page struct {
	Limit  int
	Offset int
}

func DefaultPage() Page {
	return Page{Limit: 100, Offset: 0}
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 1000 {
		p.Limit = 1000
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// =============================================================================
// Filters
// =============================================================================

type Filter struct {
	Field string
	Value any
}

// =============================================================================
// CRUD Operations
// =============================================================================

// Create validates the incoming record against the resource's rule chains
// and inserts the post-validation row. Defaults written in by the rules
// ("default:NEW") and computed fields end up in the stored row and in the
// returned map. A data-level failure returns *ValidationError; a broken
// rule table surfaces as a plain error.
func (s *Store) Create(ctx context.Context, resource string, data map[string]any) (map[string]any, error) {
	res, ok := s.schema[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource: %s", resource)
	}

	// Validate. The validator copies the record, so the mutated version
	// has to be read back from it.
	v := validation.New(validation.Record(data), res.RuleSet())
	passed, err := v.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", resource, err)
	}
	if !passed {
		return nil, &ValidationError{Fields: v.Errors()}
	}
	data = map[string]any(v.Data())

	// Generate reference_id
	refID := res.RefPrefix + uuid.New().String()[:8]
	if res.RefPrefix == "" {
		refID = uuid.New().String()
	}
	data["reference_id"] = refID

	// Apply computed fields after validation so they see the defaults.
	for _, f := range res.Fields {
		if f.Computed != nil {
			if val := f.Computed(data); val != nil {
				data[f.Name] = val
			}
		}
	}

	// Set timestamps
	now := time.Now().UTC().Format(time.RFC3339)
	data["created_at"] = now
	data["updated_at"] = now

	// Build INSERT
	cols := []string{"reference_id"}
	placeholders := []string{":reference_id"}
	for _, f := range res.Fields {
		if _, exists := data[f.Name]; exists {
			cols = append(cols, f.Name)
			placeholders = append(placeholders, ":"+f.Name)
		}
	}
	cols = append(cols, "created_at", "updated_at")
	placeholders = append(placeholders, ":created_at", ":updated_at")

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		resource, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	result, err := s.db.NamedExecContext(ctx, query, data)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", resource, err)
	}

	id, _ := result.LastInsertId()
	data["id"] = id

	return data, nil
}

// Get retrieves a single row by reference_id.
func (s *Store) Get(ctx context.Context, resource string, refID string) (map[string]any, error) {
	res, ok := s.schema[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource: %s", resource)
	}

	cols := s.selectColumns(res)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE reference_id = ?", cols, resource)

	row := s.db.QueryRowxContext(ctx, query, refID)
	result := make(map[string]any)
	if err := row.MapScan(result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", resource, refID, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", resource, err)
	}

	s.decodeRow(res, result)
	return result, nil
}

// List retrieves rows with optional filters and pagination.
func (s *Store) List(ctx context.Context, resource string, filters []Filter, page Page) ([]map[string]any, error) {
	res, ok := s.schema[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource: %s", resource)
	}

	page = page.Normalize()
	cols := s.selectColumns(res)

	var where []string
	var args []any
	for _, f := range filters {
		where = append(where, fmt.Sprintf("%s = ?", f.Field))
		args = append(args, f.Value)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", cols, resource)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", page.Limit, page.Offset)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	defer rows.Close()

	var results []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", resource, err)
		}
		s.decodeRow(res, row)
		results = append(results, row)
	}

	return results, rows.Err()
}

// Update merges the patch over the stored row, re-validates the merged
// record against the full rule table, and persists it. Merging before
// validation keeps cross-field rules ("after:start_date") honest even
// when only one side of the comparison is being changed.
func (s *Store) Update(ctx context.Context, resource string, refID string, patch map[string]any) (map[string]any, error) {
	res, ok := s.schema[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource: %s", resource)
	}

	// Don't allow updating reference_id, id, created_at
	delete(patch, "reference_id")
	delete(patch, "id")
	delete(patch, "created_at")
	delete(patch, "updated_at")

	existing, err := s.Get(ctx, resource, refID)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(res.Fields))
	for _, f := range res.Fields {
		if v, ok := existing[f.Name]; ok && v != nil {
			merged[f.Name] = v
		}
	}
	for key, val := range patch {
		if res.FieldByName(key) != nil {
			merged[key] = val
		}
	}

	v := validation.New(validation.Record(merged), res.RuleSet())
	passed, err := v.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", resource, err)
	}
	if !passed {
		return nil, &ValidationError{Fields: v.Errors()}
	}
	merged = map[string]any(v.Data())

	// Recompute derived fields on the merged row.
	for _, f := range res.Fields {
		if f.Computed != nil {
			if val := f.Computed(merged); val != nil {
				merged[f.Name] = val
			}
		}
	}

	merged["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	// Build SET clause
	var setClauses []string
	var args []any
	for key, val := range merged {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", key))
		args = append(args, val)
	}

	args = append(args, refID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE reference_id = ?",
		resource, strings.Join(setClauses, ", "))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", resource, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, fmt.Errorf("%s %s: %w", resource, refID, ErrNotFound)
	}

	return s.Get(ctx, resource, refID)
}

// Delete removes a row by reference_id.
func (s *Store) Delete(ctx context.Context, resource string, refID string) error {
	if _, ok := s.schema[resource]; !ok {
		return fmt.Errorf("unknown resource: %s", resource)
	}

	result, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE reference_id = ?", resource), refID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", resource, err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", resource, refID, ErrNotFound)
	}

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// selectColumns returns the SELECT column list for a resource.
func (s *Store) selectColumns(res *Resource) string {
	cols := []string{"id", "reference_id"}
	for _, f := range res.Fields {
		cols = append(cols, f.Name)
	}
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

// decodeRow converts SQLite types to Go types ([]byte → string, bool
// coercion, timestamp parsing).
func (s *Store) decodeRow(res *Resource, row map[string]any) {
	// Convert []byte to string for all text columns
	for key, val := range row {
		if b, ok := val.([]byte); ok {
			row[key] = string(b)
		}
	}

	// Coerce bool fields from SQLite integer (0/1) to Go bool
	for _, f := range res.Fields {
		if f.Type == TypeBool {
			if v, ok := row[f.Name]; ok {
				switch val := v.(type) {
				case int64:
					row[f.Name] = val != 0
				case int:
					row[f.Name] = val != 0
				case float64:
					row[f.Name] = val != 0
				}
			}
		}
	}

	// Parse timestamps
	for _, name := range []string{"created_at", "updated_at"} {
		if v, ok := row[name]; ok {
			if str, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339, str); err == nil {
					row[name] = t
				} else if t, err := time.Parse("2006-01-02 15:04:05", str); err == nil {
					row[name] = t
				}
			}
		}
	}
}
