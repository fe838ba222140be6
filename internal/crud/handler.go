// Package crud provides the single generic HTTP handler set shared by every
// entity module. Modules supply an entity descriptor and get the full
// CRUD + list + bulk surface without hand-written controllers.
package crud

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasit-dev/pharmadmin/internal/domain"
	"github.com/prasit-dev/pharmadmin/internal/engine"
	"github.com/prasit-dev/pharmadmin/internal/pkg"
)

// Handler serves the REST surface of one entity over its generic repository.
type Handler[T any] struct {
	repo *engine.Repository[T]
}

// NewHandler creates a Handler over the given repository.
func NewHandler[T any](repo *engine.Repository[T]) *Handler[T] {
	return &Handler[T]{repo: repo}
}

// Register wires the standard routes for the entity under the given path
// segment, e.g. "articles".
func (h *Handler[T]) Register(api *gin.RouterGroup, path string) {
	g := api.Group("/" + path)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/bulk", h.CreateMany)
	g.PATCH("/bulk", h.UpdateMany)
	g.DELETE("/bulk", h.DeleteMany)
}

// Create handles POST /<entity>.
func (h *Handler[T]) Create(c *gin.Context) {
	var dto map[string]any
	if err := c.ShouldBindJSON(&dto); err != nil {
		pkg.ValidationError(c, err)
		return
	}
	if len(dto) == 0 {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "empty request body", nil))
		return
	}

	entity, err := h.repo.Create(c.Request.Context(), dto, actor(c))
	if err != nil {
		pkg.Error(c, mapStorageError(err))
		return
	}
	pkg.Created(c, entity)
}

// Get handles GET /<entity>/:id.
func (h *Handler[T]) Get(c *gin.Context) {
	entity, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, mapStorageError(err))
		return
	}
	if entity == nil {
		pkg.NotFound(c)
		return
	}
	pkg.Success(c, entity)
}

// List handles GET /<entity>.
func (h *Handler[T]) List(c *gin.Context) {
	result, err := h.repo.List(c.Request.Context(), pkg.ParseListQuery(c))
	if err != nil {
		pkg.Error(c, mapStorageError(err))
		return
	}
	pkg.List(c, result.Data, result.Pagination)
}

// Update handles PUT /<entity>/:id.
func (h *Handler[T]) Update(c *gin.Context) {
	var dto map[string]any
	if err := c.ShouldBindJSON(&dto); err != nil {
		pkg.ValidationError(c, err)
		return
	}

	entity, err := h.repo.Update(c.Request.Context(), c.Param("id"), dto, actor(c))
	if err != nil {
		pkg.Error(c, mapStorageError(err))
		return
	}
	if entity == nil {
		pkg.NotFound(c)
		return
	}
	pkg.Success(c, entity)
}

// Delete handles DELETE /<entity>/:id.
func (h *Handler[T]) Delete(c *gin.Context) {
	deleted, err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, mapStorageError(err))
		return
	}
	if !deleted {
		pkg.NotFound(c)
		return
	}
	pkg.Success(c, nil)
}

// bulkCreateRequest is the body of POST /<entity>/bulk.
type bulkCreateRequest struct {
	Items []map[string]any `json:"items" binding:"required,min=1"`
}

// CreateMany handles POST /<entity>/bulk. All-or-nothing: a failing row
// rolls back the whole batch.
func (h *Handler[T]) CreateMany(c *gin.Context) {
	var req bulkCreateRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	entities, err := h.repo.CreateMany(c.Request.Context(), req.Items, actor(c))
	if err != nil {
		pkg.Error(c, mapStorageError(err))
		return
	}
	pkg.Created(c, entities)
}

// bulkUpdateRequest is the body of PATCH /<entity>/bulk.
type bulkUpdateRequest struct {
	IDs  []string       `json:"ids" binding:"required,min=1"`
	Data map[string]any `json:"data" binding:"required"`
}

// UpdateMany handles PATCH /<entity>/bulk, returning the count affected.
func (h *Handler[T]) UpdateMany(c *gin.Context) {
	var req bulkUpdateRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	affected, err := h.repo.UpdateMany(c.Request.Context(), req.IDs, req.Data, actor(c))
	if err != nil {
		pkg.Error(c, mapStorageError(err))
		return
	}
	pkg.Count(c, affected)
}

// bulkDeleteRequest is the body of DELETE /<entity>/bulk.
type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// DeleteMany handles DELETE /<entity>/bulk, returning the count removed.
func (h *Handler[T]) DeleteMany(c *gin.Context) {
	var req bulkDeleteRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	affected, err := h.repo.DeleteMany(c.Request.Context(), req.IDs)
	if err != nil {
		pkg.Error(c, mapStorageError(err))
		return
	}
	pkg.Count(c, affected)
}

// actor returns the authenticated caller id, empty when unauthenticated.
func actor(c *gin.Context) string {
	return c.GetString(pkg.ContextUserIDKey)
}

// mapStorageError classifies backing-store failures the engine passes
// through unwrapped. Only well-known client-facing cases are translated;
// everything else stays an internal error.
func mapStorageError(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. This is needed because not all GORM dialectors translate
// driver-level errors to gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
