package engine

import (
	"encoding/json"

	"github.com/prasit-dev/pharmadmin/internal/domain"
)

// Mapper converts between raw storage rows and domain entities. It must be
// referentially pure: no side effects, safe to call speculatively during
// query planning.
type Mapper[T any] interface {
	// ToEntity converts a storage row to an entity. A nil row is a mapping
	// error, never a synthetic empty entity.
	ToEntity(row map[string]any) (*T, error)

	// ToStorage converts a DTO to a partial row containing only the keys
	// explicitly present in the DTO. Absence means "do not touch this
	// column", not "clear it". Audit columns are excluded; the repository
	// injects those itself.
	ToStorage(dto map[string]any) map[string]any
}

// fieldMapper is the default Mapper, derived from the entity descriptor's
// field table. Field names double as column and JSON names, so ToEntity can
// round-trip the row through the entity's JSON shape.
type fieldMapper[T any] struct {
	desc *Descriptor
}

// NewMapper returns the default descriptor-derived mapper for an entity.
func NewMapper[T any](desc *Descriptor) Mapper[T] {
	d := desc.normalized()
	return &fieldMapper[T]{desc: &d}
}

func (m *fieldMapper[T]) ToEntity(row map[string]any) (*T, error) {
	if row == nil {
		return nil, domain.NewAppError(domain.CodeMapping,
			"nil storage row for "+m.desc.Name, nil)
	}

	raw, err := json.Marshal(row)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeMapping,
			"unmappable storage row for "+m.desc.Name, err)
	}

	var entity T
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, domain.NewAppError(domain.CodeMapping,
			"storage row does not match entity "+m.desc.Name, err)
	}
	return &entity, nil
}

func (m *fieldMapper[T]) ToStorage(dto map[string]any) map[string]any {
	row := make(map[string]any, len(dto))
	for _, field := range m.desc.Fields {
		if m.desc.auditColumn(field) {
			continue
		}
		if value, ok := dto[field]; ok {
			row[field] = value
		}
	}
	return row
}
