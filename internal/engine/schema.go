// Package engine provides a schema-driven CRUD engine.
// Resources are defined as data (schema), and the engine interprets them
// to provide an auto-CRUD store, REST API, validation, and migrations.
package engine

import (
	"fmt"
	"strings"

	"github.com/berkebzlk/API-SOLUTION/internal/core/validation"
)

// FieldType represents the SQL/Go type of a field.
type FieldType int

const (
	TypeString    FieldType = iota // TEXT
	TypeText                       // TEXT (large)
	TypeInt                        // INTEGER
	TypeFloat                      // REAL
	TypeBool                       // INTEGER (0/1)
	TypeTimestamp                  // DATETIME
)

// Field defines a single column in a resource.
type Field struct {
	Name string
	Type FieldType

	// Rules is the field's validation rule chain, pipe-separated,
	// e.g. "required|string|max:255". Empty means no validation.
	Rules string

	// Computed derives the field's value from the rest of the row after
	// validation. A nil return leaves the stored value untouched.
	Computed func(row map[string]interface{}) interface{}
}

// Resource defines a complete entity.
type Resource struct {
	Name      string // table name, e.g., "stages"
	RefPrefix string // prefix for reference_id, e.g., "stg_"
	Fields    []Field
}

// FieldByName returns a field by name, or nil if not found.
func (r *Resource) FieldByName(name string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i]
		}
	}
	return nil
}

// RuleSet builds the ordered validation rule table for this resource.
// Fields validate in declaration order, which keeps rule evaluation
// deterministic across requests.
func (r *Resource) RuleSet() validation.RuleSet {
	rs := validation.RuleSet{}
	for _, f := range r.Fields {
		if f.Rules != "" {
			rs = rs.With(f.Name, f.Rules)
		}
	}
	return rs
}

// =============================================================================
// Field builder helpers
// =============================================================================

func StringField(name string) Field {
	return Field{Name: name, Type: TypeString}
}

func TextField(name string) Field {
	return Field{Name: name, Type: TypeText}
}

func IntField(name string) Field {
	return Field{Name: name, Type: TypeInt}
}

func FloatField(name string) Field {
	return Field{Name: name, Type: TypeFloat}
}

func BoolField(name string) Field {
	return Field{Name: name, Type: TypeBool}
}

func TimestampField(name string) Field {
	return Field{Name: name, Type: TypeTimestamp}
}

// WithRules returns a copy of the field with its validation chain set.
func (f Field) WithRules(spec string) Field { f.Rules = spec; return f }

// WithComputed returns a copy of the field with a computed function.
func (f Field) WithComputed(fn func(row map[string]interface{}) interface{}) Field {
	f.Computed = fn
	return f
}

// =============================================================================
// SQL type helpers
// =============================================================================

// SQLType returns the SQLite column type for this field type.
func (ft FieldType) SQLType() string {
	switch ft {
	case TypeString, TypeText:
		return "TEXT"
	case TypeInt, TypeBool:
		return "INTEGER"
	case TypeFloat:
		return "REAL"
	case TypeTimestamp:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// =============================================================================
// Migration generation
// =============================================================================

// GenerateCreateSQL generates a CREATE TABLE statement for this resource.
// Column constraints stay loose on purpose: rows are validated by the rule
// chains before they ever reach the database.
func (r *Resource) GenerateCreateSQL() string {
	var cols []string

	// Standard columns
	cols = append(cols, "id INTEGER PRIMARY KEY AUTOINCREMENT")
	cols = append(cols, "reference_id TEXT UNIQUE NOT NULL")

	for _, f := range r.Fields {
		cols = append(cols, fmt.Sprintf("%s %s", f.Name, f.Type.SQLType()))
	}

	// Standard timestamps
	cols = append(cols, "created_at DATETIME NOT NULL DEFAULT (datetime('now'))")
	cols = append(cols, "updated_at DATETIME NOT NULL DEFAULT (datetime('now'))")

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", r.Name, strings.Join(cols, ",\n  "))
}
