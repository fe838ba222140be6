package returnreason

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasit-dev/pharmadmin/internal/crud"
	"github.com/prasit-dev/pharmadmin/internal/domain"
	"github.com/prasit-dev/pharmadmin/internal/engine"
)

// Descriptor declares the return reason entity for the generic engine.
// Every role may see every field, so no allow-lists are configured.
func Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name: "return_reason",
		Fields: []string{
			"id", "code", "label", "requires_approval",
			"created_at", "updated_at", "created_by", "updated_by",
		},
		Searchable: []string{"code", "label"},
		Sortable:   []string{"id", "code", "label", "created_at"},
		Filters: engine.FilterSpec{
			Equals: []string{"code", "requires_approval"},
			Sets:   []string{"code"},
		},
		Audit: engine.DefaultAudit(),
	}
}

// ReturnReasonModule implements the app.Module interface for the return
// reason domain.
type ReturnReasonModule struct {
	handler *crud.Handler[domain.ReturnReason]
}

// NewModule creates the return reason module over the given database handle.
func NewModule(db *gorm.DB, log *slog.Logger, policy engine.IdentifierPolicy) *ReturnReasonModule {
	repo := engine.NewRepository[domain.ReturnReason](db, Descriptor(),
		engine.WithIdentifierPolicy[domain.ReturnReason](policy),
		engine.WithLogger[domain.ReturnReason](log),
	)
	return &ReturnReasonModule{handler: crud.NewHandler(repo)}
}

// RegisterRoutes registers return reason API routes.
func (m *ReturnReasonModule) RegisterRoutes(api *gin.RouterGroup) {
	m.handler.Register(api, "return-reasons")
}
