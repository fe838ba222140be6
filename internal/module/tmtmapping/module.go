package tmtmapping

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasit-dev/pharmadmin/internal/crud"
	"github.com/prasit-dev/pharmadmin/internal/domain"
	"github.com/prasit-dev/pharmadmin/internal/engine"
)

// Descriptor declares the TMT mapping entity for the generic engine.
// tmt_code looks identifier-ish to humans but is a terminology code, not a
// UUID; it carries no _id suffix so the heuristic leaves it alone.
func Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name: "tmt_mapping",
		Fields: []string{
			"id", "article_id", "tmt_code", "level",
			"created_at", "updated_at", "created_by", "updated_by",
		},
		Searchable: []string{"tmt_code"},
		Sortable:   []string{"id", "tmt_code", "level", "created_at"},
		Filters: engine.FilterSpec{
			Equals: []string{"article_id", "tmt_code", "level"},
			Sets:   []string{"article_id", "tmt_code", "level"},
		},
		Identifier: engine.IdentifierFields{
			Fields: []string{"article_id"},
		},
		Audit: engine.DefaultAudit(),
	}
}

// TmtMappingModule implements the app.Module interface for the TMT mapping
// domain.
type TmtMappingModule struct {
	handler *crud.Handler[domain.TmtMapping]
}

// NewModule creates the TMT mapping module over the given database handle.
func NewModule(db *gorm.DB, log *slog.Logger, policy engine.IdentifierPolicy) *TmtMappingModule {
	repo := engine.NewRepository[domain.TmtMapping](db, Descriptor(),
		engine.WithIdentifierPolicy[domain.TmtMapping](policy),
		engine.WithLogger[domain.TmtMapping](log),
	)
	return &TmtMappingModule{handler: crud.NewHandler(repo)}
}

// RegisterRoutes registers TMT mapping API routes.
func (m *TmtMappingModule) RegisterRoutes(api *gin.RouterGroup) {
	m.handler.Register(api, "tmt-mappings")
}
