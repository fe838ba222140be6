package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/prasit-dev/pharmadmin/internal/domain"
	"github.com/prasit-dev/pharmadmin/internal/engine"
)

// roleFields hides audit timestamps from non-admin operators browsing the
// user list. password_hash is not an exposed field at all.
var roleFields = map[string][]string{
	domain.RolePharmacist: {"id", "name", "email", "role", "created_at"},
	domain.RoleClerk:      {"id", "name", "email", "role"},
}

// Descriptor declares the user entity for the generic engine.
func Descriptor() engine.Descriptor {
	return engine.Descriptor{
		Name: "user",
		Fields: []string{
			"id", "name", "email", "role", "created_at", "updated_at",
		},
		Searchable: []string{"name", "email"},
		Sortable:   []string{"id", "name", "email", "role", "created_at", "updated_at"},
		Filters: engine.FilterSpec{
			Equals: []string{"name", "email", "role"},
			Sets:   []string{"role"},
		},
		Audit: engine.AuditConfig{
			HasCreatedAt: true,
			HasUpdatedAt: true,
		},
		RoleFields: roleFields,
	}
}

// Repository is the engine repository for users plus the lookups the auth
// module needs on top of it.
type Repository struct {
	*engine.Repository[domain.User]
	db *gorm.DB
}

// NewRepository creates a user Repository backed by the given GORM database.
func NewRepository(db *gorm.DB, log *slog.Logger, policy engine.IdentifierPolicy) *Repository {
	return &Repository{
		Repository: engine.NewRepository[domain.User](db, Descriptor(),
			engine.WithIdentifierPolicy[domain.User](policy),
			engine.WithLogger[domain.User](log),
		),
		db: db,
	}
}

// Create inserts a new user. Used by auth registration, which carries the
// password hash the generic DTO path never touches.
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// GetByID retrieves a user by primary key, reporting not-found as an error
// for the auth module's benefit. Like Create and GetByEmail it reads the
// record directly: the engine path hydrates through the entity's exposed
// fields and would drop the password hash.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
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
