package article

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasit-dev/pharmadmin/internal/crud"
	"github.com/prasit-dev/pharmadmin/internal/domain"
	"github.com/prasit-dev/pharmadmin/internal/engine"
)

// roleFields is the static per-role output field allow-list. Roles without
// an entry see every field.
var roleFields = map[string][]string{
	domain.RoleClerk: {"id", "code", "name", "unit", "active", "created_at"},
}

// Descriptor declares the article entity for the generic engine.
func Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name: "article",
		Fields: []string{
			"id", "code", "name", "unit", "price", "active",
			"created_at", "updated_at", "created_by", "updated_by",
		},
		Searchable: []string{"code", "name"},
		Sortable:   []string{"id", "code", "name", "price", "created_at", "updated_at"},
		Filters: engine.FilterSpec{
			Equals: []string{"code", "unit", "active"},
			Ranges: []string{"price"},
			Sets:   []string{"code", "unit"},
		},
		Audit:      engine.DefaultAudit(),
		RoleFields: roleFields,
	}
}

// ArticleModule implements the app.Module interface for the article domain.
type ArticleModule struct {
	handler *crud.Handler[domain.Article]
}

// NewModule creates the article module over the given database handle.
func NewModule(db *gorm.DB, log *slog.Logger, policy engine.IdentifierPolicy) *ArticleModule {
	repo := engine.NewRepository[domain.Article](db, Descriptor(),
		engine.WithIdentifierPolicy[domain.Article](policy),
		engine.WithLogger[domain.Article](log),
	)
	return &ArticleModule{handler: crud.NewHandler(repo)}
}

// RegisterRoutes registers article API routes.
func (m *ArticleModule) RegisterRoutes(api *gin.RouterGroup) {
	m.handler.Register(api, "articles")
}
