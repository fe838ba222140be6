package druglot

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasit-dev/pharmadmin/internal/crud"
	"github.com/prasit-dev/pharmadmin/internal/domain"
	"github.com/prasit-dev/pharmadmin/internal/engine"
)

var roleFields = map[string][]string{
	domain.RoleClerk: {"id", "article_id", "lot_number", "quantity", "expiry_date"},
}

// Descriptor declares the drug lot entity for the generic engine. The
// article reference is an identifier-typed column: a malformed UUID filter
// value would be rejected at the protocol level by a native UUID column, so
// it is declared for guard validation explicitly rather than relying on the
// suffix heuristic alone.
func Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name: "drug_lot",
		Fields: []string{
			"id", "article_id", "lot_number", "quantity", "expiry_date", "received_date",
			"created_at", "updated_at", "created_by", "updated_by",
		},
		Searchable: []string{"lot_number"},
		Sortable:   []string{"id", "lot_number", "quantity", "expiry_date", "received_date", "created_at"},
		Filters: engine.FilterSpec{
			Equals:    []string{"article_id", "lot_number"},
			Ranges:    []string{"quantity"},
			Sets:      []string{"article_id", "lot_number"},
			DateExact: []string{"expiry_date", "received_date"},
		},
		Identifier: engine.IdentifierFields{
			Fields: []string{"article_id"},
		},
		Audit:      engine.DefaultAudit(),
		RoleFields: roleFields,
	}
}

// DrugLotModule implements the app.Module interface for the drug lot domain.
type DrugLotModule struct {
	handler *crud.Handler[domain.DrugLot]
}

// NewModule creates the drug lot module over the given database handle.
func NewModule(db *gorm.DB, log *slog.Logger, policy engine.IdentifierPolicy) *DrugLotModule {
	repo := engine.NewRepository[domain.DrugLot](db, Descriptor(),
		engine.WithIdentifierPolicy[domain.DrugLot](policy),
		engine.WithLogger[domain.DrugLot](log),
	)
	return &DrugLotModule{handler: crud.NewHandler(repo)}
}

// RegisterRoutes registers drug lot API routes.
func (m *DrugLotModule) RegisterRoutes(api *gin.RouterGroup) {
	m.handler.Register(api, "drug-lots")
}
