// Package engine implements the shared data-access layer every entity module
// composes: pagination, multi-key sorting, free-text search, typed filtering,
// identifier validation policies, role-gated field projection, and CRUD with
// bulk and transactional mutation on top of GORM.
package engine

import "slices"

// Descriptor declares how the generic repository exposes one entity: its
// columns, which of them are searchable, sortable, and filterable, the audit
// columns it carries, which fields hold identifiers, and the per-role field
// allow-lists. Descriptors are built once per module at startup and treated
// as immutable afterwards.
type Descriptor struct {
	// Name identifies the entity in log output.
	Name string

	// PrimaryKey is the identifier column. Defaults to "id".
	PrimaryKey string

	// Fields lists every exposed field. Field names double as column names
	// (snake_case) and as the JSON names the transport layer accepts.
	Fields []string

	// Searchable lists the columns free-text search matches against.
	Searchable []string

	// Sortable lists the columns a sort expression may reference. Unknown
	// sort fields fall back to the primary key instead of failing.
	Sortable []string

	// DefaultSortColumn orders list results when no sort expression is
	// given. Defaults to the created-at column when the entity has one,
	// otherwise to the primary key. Always descending.
	DefaultSortColumn string

	Filters    FilterSpec
	Identifier IdentifierFields
	Audit      AuditConfig

	// RoleFields maps a caller role to the output fields that role may
	// request. Supplied as configuration by the host; roles with no entry
	// (or a nil entry) are unrestricted, while an explicitly empty list
	// denies every specific field request.
	RoleFields map[string][]string
}

// IdentifierFields declares which fields hold identifier-typed values.
type IdentifierFields struct {
	// Fields are always validated, regardless of naming.
	Fields []string

	// Exempt excludes fields from the id/_id suffix heuristic. Use for
	// fields that merely look like identifiers (e.g. external codes).
	Exempt []string
}

// AuditConfig declares which audit columns an entity carries. When
// HasUpdatedBy is set, a mutation must supply an actor identity or the
// column is left untouched, never silently defaulted.
type AuditConfig struct {
	HasCreatedAt bool
	HasUpdatedAt bool
	HasCreatedBy bool
	HasUpdatedBy bool

	// Column overrides; empty values take the conventional names
	// created_at, updated_at, created_by, updated_by.
	CreatedAtColumn string
	UpdatedAtColumn string
	CreatedByColumn string
	UpdatedByColumn string
}

// DefaultAudit is the audit configuration shared by the standard audited
// entities: all four audit columns under their conventional names.
func DefaultAudit() AuditConfig {
	return AuditConfig{
		HasCreatedAt: true,
		HasUpdatedAt: true,
		HasCreatedBy: true,
		HasUpdatedBy: true,
	}
}

// normalized returns a copy with defaults applied.
func (d Descriptor) normalized() Descriptor {
	if d.PrimaryKey == "" {
		d.PrimaryKey = "id"
	}
	if d.Audit.CreatedAtColumn == "" {
		d.Audit.CreatedAtColumn = "created_at"
	}
	if d.Audit.UpdatedAtColumn == "" {
		d.Audit.UpdatedAtColumn = "updated_at"
	}
	if d.Audit.CreatedByColumn == "" {
		d.Audit.CreatedByColumn = "created_by"
	}
	if d.Audit.UpdatedByColumn == "" {
		d.Audit.UpdatedByColumn = "updated_by"
	}
	if d.DefaultSortColumn == "" {
		if d.Audit.HasCreatedAt {
			d.DefaultSortColumn = d.Audit.CreatedAtColumn
		} else {
			d.DefaultSortColumn = d.PrimaryKey
		}
	}
	return d
}

// HasField reports whether name is one of the entity's exposed fields.
func (d *Descriptor) HasField(name string) bool {
	return slices.Contains(d.Fields, name)
}

// auditColumn reports whether name is one of the configured audit columns.
// Audit columns are injected by the repository, never taken from a DTO.
func (d *Descriptor) auditColumn(name string) bool {
	switch name {
	case d.Audit.CreatedAtColumn, d.Audit.UpdatedAtColumn,
		d.Audit.CreatedByColumn, d.Audit.UpdatedByColumn:
		return true
	}
	return false
}

// ProjectionColumns filters the requested field names down to known columns
// whose names pass the strict identifier-character pattern. The primary key
// survives projection checks implicitly by being listed in Fields.
func (d *Descriptor) ProjectionColumns(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if !validFieldName.MatchString(f) {
			continue
		}
		if !d.HasField(f) {
			continue
		}
		cols = append(cols, f)
	}
	return cols
}
