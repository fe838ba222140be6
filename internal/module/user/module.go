package user

import (
	"github.com/gin-gonic/gin"

	"github.com/prasit-dev/pharmadmin/internal/crud"
	"github.com/prasit-dev/pharmadmin/internal/domain"
)

// UserModule implements the app.Module interface for the user domain.
// Account creation goes through the auth module (it owns password hashing),
// so the generic create and bulk routes are not registered here.
type UserModule struct {
	handler *crud.Handler[domain.User]
}

// NewModule creates a new UserModule over the given repository.
// Panics if repo is nil.
func NewModule(repo *Repository) *UserModule {
	if repo == nil {
		panic("user.NewModule: repository must not be nil")
	}
	return &UserModule{handler: crud.NewHandler(repo.Repository)}
}

// RegisterRoutes registers user API routes.
func (m *UserModule) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/users", m.handler.List)
	api.GET("/users/:id", m.handler.Get)
	api.PUT("/users/:id", m.handler.Update)
	api.DELETE("/users/:id", m.handler.Delete)
}
