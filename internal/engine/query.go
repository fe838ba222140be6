package engine

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
)

// validFieldName matches only alphanumeric characters and underscores.
// Every name interpolated into SQL must pass it.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Search returns a GORM scope that OR-combines case-insensitive partial
// matches of term across the given columns. An empty term or column list is
// a no-op.
func Search(term string, columns []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}

		pattern := "%" + strings.ToLower(term) + "%"
		var conds []string
		var args []any
		for _, col := range columns {
			if !validFieldName.MatchString(col) {
				continue
			}
			conds = append(conds, "LOWER("+col+") LIKE ?")
			args = append(args, pattern)
		}
		if len(conds) == 0 {
			return db
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}

// ApplyFilters returns a GORM scope that applies typed filters as WHERE
// conditions. Field names are validated again here as a last line of
// defense; filters with unusable operands are skipped.
func ApplyFilters(filters []Filter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, f := range filters {
			if !validFieldName.MatchString(f.Field) {
				continue
			}
			switch f.Kind {
			case FilterEquals:
				db = db.Where(f.Field+" = ?", f.Value)
			case FilterRange:
				if f.Min != "" {
					db = db.Where(f.Field+" >= ?", f.Min)
				}
				if f.Max != "" {
					db = db.Where(f.Field+" <= ?", f.Max)
				}
			case FilterSet:
				if len(f.Values) == 0 {
					continue
				}
				if f.Negate {
					db = db.Where(f.Field+" NOT IN ?", f.Values)
				} else {
					db = db.Where(f.Field+" IN ?", f.Values)
				}
			case FilterDateExact:
				day, err := time.Parse("2006-01-02", f.Value)
				if err != nil {
					continue
				}
				db = db.Where(f.Field+" >= ? AND "+f.Field+" < ?",
					day, day.Add(24*time.Hour))
			}
		}
		return db
	}
}

// Sort returns a GORM scope that applies ORDER BY from a sort expression: a
// comma-separated list of field[:asc|desc] pairs applied in order. A missing
// direction defaults to descending. Unknown or malformed field names resolve
// to the primary key instead of failing, so bad sort input never aborts a
// list request. An empty expression orders by defaultColumn descending.
//
// The engine adds no primary-key tie-breaker of its own: callers that need
// deterministic pagination across ties must include the primary key as a
// trailing sort term.
func Sort(expr string, sortable []string, primaryKey, defaultColumn string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			return db.Order(defaultColumn + " desc")
		}

		for _, part := range strings.Split(expr, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			field := part
			direction := "desc"
			if f, d, ok := strings.Cut(part, ":"); ok {
				field = strings.TrimSpace(f)
				if d = strings.TrimSpace(strings.ToLower(d)); d == "asc" {
					direction = "asc"
				}
			}

			if !validFieldName.MatchString(field) || !slices.Contains(sortable, field) {
				field = primaryKey
			}
			db = db.Order(field + " " + direction)
		}
		return db
	}
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET for the given
// page (1-based) and limit.
func Paginate(page, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset := (page - 1) * limit
		return db.Offset(offset).Limit(limit)
	}
}
