package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prasit-dev/pharmadmin/internal/domain"
)

// Repository is the generic data-access unit every entity module composes.
// It orchestrates the entity mapper, identifier guard, projection guard, and
// query builder into the CRUD + list + bulk + transaction API.
//
// The repository holds no mutable shared state beyond the identifier config
// (read-mostly, set at construction). Each operation is a request-scoped
// unit of work against the pooled connection handed in at construction;
// storage-level failures propagate unwrapped, and the repository never
// retries a write.
type Repository[T any] struct {
	db         *gorm.DB
	desc       *Descriptor
	mapper     Mapper[T]
	guard      *IdentifierGuard
	projection *ProjectionGuard
	log        *slog.Logger
	policy     IdentifierPolicy
}

// Option configures a Repository at construction.
type Option[T any] func(*Repository[T])

// WithMapper overrides the default descriptor-derived mapper.
func WithMapper[T any](m Mapper[T]) Option[T] {
	return func(r *Repository[T]) { r.mapper = m }
}

// WithLogger sets the logger used for guard observations.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(r *Repository[T]) { r.log = log }
}

// WithIdentifierPolicy sets the identifier validation policy. The default
// is graceful.
func WithIdentifierPolicy[T any](p IdentifierPolicy) Option[T] {
	return func(r *Repository[T]) { r.policy = p }
}

// NewRepository creates a repository for entity T described by desc, backed
// by the given GORM database handle.
func NewRepository[T any](db *gorm.DB, desc Descriptor, opts ...Option[T]) *Repository[T] {
	d := desc.normalized()
	r := &Repository[T]{
		db:     db,
		desc:   &d,
		log:    slog.Default(),
		policy: PolicyGraceful,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.mapper == nil {
		r.mapper = &fieldMapper[T]{desc: &d}
	}
	r.guard = NewIdentifierGuard(IdentifierConfig{
		Policy: r.policy,
		Fields: d.Identifier,
	}, r.log)
	r.projection = NewProjectionGuard(d.RoleFields, r.log)
	return r
}

// Descriptor returns the entity descriptor the repository was built with.
func (r *Repository[T]) Descriptor() *Descriptor {
	return r.desc
}

// Mapper returns the entity mapper in use.
func (r *Repository[T]) Mapper() Mapper[T] {
	return r.mapper
}

// IdentifierConfig returns the active identifier validation config.
func (r *Repository[T]) IdentifierConfig() IdentifierConfig {
	return r.guard.Config()
}

// SetIdentifierConfig replaces the identifier validation config at runtime.
// Not safe to race with in-flight queries.
func (r *Repository[T]) SetIdentifierConfig(cfg IdentifierConfig) {
	r.guard.SetConfig(cfg)
}

// withDB returns a shallow copy bound to another database handle, used for
// transactional scopes.
func (r *Repository[T]) withDB(db *gorm.DB) *Repository[T] {
	clone := *r
	clone.db = db
	return &clone
}

// FindByID returns the entity with the given id, or nil when no row matches.
// A malformed id fails with an invalid-identifier error only under the
// strict policy; graceful short-circuits to nil without a storage call, and
// warn lets storage decide.
func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	ok, err := r.guard.CheckID(r.desc.PrimaryKey, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return r.fetch(ctx, r.db, id)
}

// fetch loads an entity by primary key, bypassing the identifier guard. The
// scanned record is routed through the entity mapper like every other read.
func (r *Repository[T]) fetch(ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var record T
	err := db.WithContext(ctx).Where(r.desc.PrimaryKey+" = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.toEntity(&record)
}

// toEntity hands a scanned record to the entity mapper, so per-module mappers
// observe every read. The record is rendered to its row shape first; the
// default mapper round-trips it unchanged.
func (r *Repository[T]) toEntity(record *T) (*T, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeMapping,
			"unmappable record for "+r.desc.Name, err)
	}
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, domain.NewAppError(domain.CodeMapping,
			"unmappable record for "+r.desc.Name, err)
	}
	return r.mapper.ToEntity(row)
}

// toEntities maps every scanned record in place, preserving order.
func (r *Repository[T]) toEntities(records []T) ([]T, error) {
	out := make([]T, 0, len(records))
	for i := range records {
		entity, err := r.toEntity(&records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *entity)
	}
	return out, nil
}

// Create maps the DTO to a partial row, injects the created-by audit column
// when configured and an actor is supplied, and inserts it. The created-at
// column is never fabricated here; it defaults at the storage layer. Returns
// the freshly persisted entity.
func (r *Repository[T]) Create(ctx context.Context, dto map[string]any, actorID string) (*T, error) {
	row, id := r.buildInsertRow(dto, actorID)
	if err := r.db.WithContext(ctx).Model(new(T)).Create(row).Error; err != nil {
		return nil, err
	}
	return r.fetch(ctx, r.db, id)
}

// buildInsertRow maps a DTO to an insertable row with a generated primary
// key and the created-by audit column.
func (r *Repository[T]) buildInsertRow(dto map[string]any, actorID string) (map[string]any, string) {
	row := r.mapper.ToStorage(dto)
	id, _ := row[r.desc.PrimaryKey].(string)
	if id == "" {
		id = uuid.NewString()
		row[r.desc.PrimaryKey] = id
	}
	if r.desc.Audit.HasCreatedBy && actorID != "" {
		row[r.desc.Audit.CreatedByColumn] = actorID
	}
	return row, id
}

// Update applies the DTO's present keys to the row with the given id,
// injecting updated-at (wall clock) and updated-by when configured. Returns
// nil when no row matched; "not found" is never an error here.
func (r *Repository[T]) Update(ctx context.Context, id string, dto map[string]any, actorID string) (*T, error) {
	ok, err := r.guard.CheckID(r.desc.PrimaryKey, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	row := r.buildUpdateRow(dto, actorID)
	if len(row) == 0 {
		return r.fetch(ctx, r.db, id)
	}

	res := r.db.WithContext(ctx).Model(new(T)).Where(r.desc.PrimaryKey+" = ?", id).Updates(row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.fetch(ctx, r.db, id)
}

// buildUpdateRow maps a DTO to an update row with audit columns injected.
// The primary key is immutable: a DTO-supplied id never rewrites it, and an
// id-only DTO degrades to an empty update.
func (r *Repository[T]) buildUpdateRow(dto map[string]any, actorID string) map[string]any {
	row := r.mapper.ToStorage(dto)
	delete(row, r.desc.PrimaryKey)
	if len(row) == 0 {
		return row
	}
	if r.desc.Audit.HasUpdatedAt {
		row[r.desc.Audit.UpdatedAtColumn] = time.Now().UTC()
	}
	if r.desc.Audit.HasUpdatedBy && actorID != "" {
		row[r.desc.Audit.UpdatedByColumn] = actorID
	}
	return row
}

// Delete removes the row with the given id and reports whether a row was
// actually removed. Deleting an already-deleted id returns false, not an
// error.
func (r *Repository[T]) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.guard.CheckID(r.desc.PrimaryKey, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	res := r.db.WithContext(ctx).Where(r.desc.PrimaryKey+" = ?", id).Delete(new(T))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List executes a paginated, sorted, searched, and filtered query and
// returns one page plus its pagination envelope. The count and the data page
// observe the same filter state but run as two storage calls; under
// concurrent writes the total may be based on a slightly different snapshot,
// an accepted staleness window for a read-mostly workload.
func (r *Repository[T]) List(ctx context.Context, q ListQuery) (*PageResult[T], error) {
	q = q.Normalized()

	filters, err := r.guard.FilterList(r.desc.ParseFilters(q.Filters))
	if err != nil {
		return nil, err
	}
	cols := r.desc.ProjectionColumns(r.projection.Allowed(q.Role, q.Actor, q.Fields))

	base := r.db.WithContext(ctx).Model(new(T)).Scopes(
		Search(q.Search, r.desc.Searchable),
		ApplyFilters(filters),
	)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	data := base.Scopes(
		Sort(q.Sort, r.desc.Sortable, r.desc.PrimaryKey, r.desc.DefaultSortColumn),
		Paginate(q.Page, q.Limit),
	)
	if len(cols) > 0 {
		data = data.Select(cols)
	}

	var records []T
	if err := data.Find(&records).Error; err != nil {
		return nil, err
	}
	items, err := r.toEntities(records)
	if err != nil {
		return nil, err
	}

	return NewPageResult(items, total, q.Page, q.Limit), nil
}

// CreateMany inserts all DTOs in one transaction (all-or-nothing) with the
// same audit injection as Create, and returns the persisted entities in
// input order.
func (r *Repository[T]) CreateMany(ctx context.Context, dtos []map[string]any, actorID string) ([]T, error) {
	if len(dtos) == 0 {
		return []T{}, nil
	}

	rows := make([]map[string]any, 0, len(dtos))
	ids := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		row, id := r.buildInsertRow(dto, actorID)
		rows = append(rows, row)
		ids = append(ids, id)
	}

	err := WithTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		return tx.Model(new(T)).Create(rows).Error
	})
	if err != nil {
		return nil, err
	}

	var items []T
	if err := r.db.WithContext(ctx).
		Where(r.desc.PrimaryKey+" IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, err
	}

	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}
	sort.SliceStable(items, func(a, b int) bool {
		return position[entityID(&items[a])] < position[entityID(&items[b])]
	})
	return r.toEntities(items)
}

// UpdateMany applies the DTO to every row in the id set and returns the
// number of rows affected, not the rows themselves.
func (r *Repository[T]) UpdateMany(ctx context.Context, ids []string, dto map[string]any, actorID string) (int64, error) {
	ids, err := r.guard.CheckIDs(r.desc.PrimaryKey, ids)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	row := r.buildUpdateRow(dto, actorID)
	if len(row) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Model(new(T)).Where(r.desc.PrimaryKey+" IN ?", ids).Updates(row)
	return res.RowsAffected, res.Error
}

// DeleteMany removes every row in the id set and returns the number of rows
// removed.
func (r *Repository[T]) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ids, err := r.guard.CheckIDs(r.desc.PrimaryKey, ids)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Where(r.desc.PrimaryKey+" IN ?", ids).Delete(new(T))
	return res.RowsAffected, res.Error
}

// WithTransaction runs fn against a repository bound to one transactional
// session. The transaction is committed when fn returns nil and rolled back
// on error or panic; every exit path releases it. Operations on the
// transactional repository must be serialized by the caller; two separate
// WithTransaction invocations are independent and may run concurrently.
func (r *Repository[T]) WithTransaction(ctx context.Context, fn func(tx *Repository[T]) error) error {
	return WithTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		return fn(r.withDB(tx))
	})
}

// entityID extracts the primary key from an entity embedding the base model.
func entityID[T any](entity *T) string {
	if g, ok := any(entity).(interface{ GetID() string }); ok {
		return g.GetID()
	}
	return ""
}
