package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/prasit-dev/pharmadmin/internal/domain"
)

func newStockRepo(t *testing.T, db *gorm.DB, opts ...Option[stockItem]) *Repository[stockItem] {
	t.Helper()
	return NewRepository[stockItem](db, stockItemDescriptor(), opts...)
}

func mustCreateStock(t *testing.T, r *Repository[stockItem], dto map[string]any, actor string) *stockItem {
	t.Helper()
	entity, err := r.Create(context.Background(), dto, actor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entity == nil {
		t.Fatal("Create returned nil entity")
	}
	return entity
}

func stockCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&stockItem{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestRepositoryCreate_GeneratesIDAndInjectsAudit(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	entity := mustCreateStock(t, repo, map[string]any{
		"name":  "Aspirin",
		"code":  "ASP500",
		"price": 4.25,
	}, validUUID)

	if !ValidIdentifier(entity.ID) {
		t.Errorf("generated id %q is not a valid identifier", entity.ID)
	}
	if entity.Name != "Aspirin" || entity.Price != 4.25 {
		t.Errorf("fields = (%q, %v)", entity.Name, entity.Price)
	}
	if entity.CreatedBy == nil || *entity.CreatedBy != validUUID {
		t.Errorf("CreatedBy = %v, want actor id", entity.CreatedBy)
	}
	if entity.CreatedAt.IsZero() {
		t.Error("CreatedAt not set by the storage default")
	}

	// Without an actor the audit column stays null.
	anonymous, err := repo.Create(ctx, map[string]any{"name": "Paracetamol"}, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if anonymous.CreatedBy != nil {
		t.Errorf("CreatedBy = %v, want nil without an actor", anonymous.CreatedBy)
	}
}

func TestRepositoryCreate_DTOCannotForgeAuditColumns(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)

	entity := mustCreateStock(t, repo, map[string]any{
		"name":       "Aspirin",
		"created_by": validUUID2,
	}, "")

	if entity.CreatedBy != nil {
		t.Errorf("CreatedBy = %v, want DTO-supplied audit value dropped", entity.CreatedBy)
	}
}

func TestRepositoryFindByID(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	created := mustCreateStock(t, repo, map[string]any{"name": "Aspirin"}, "")

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Name != "Aspirin" {
		t.Errorf("found = %+v", found)
	}

	missing, err := repo.FindByID(ctx, validUUID2)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for an unknown id, got %+v", missing)
	}
}

func TestRepositoryFindByID_PolicyDecidesBeforeStorage(t *testing.T) {
	// No table is migrated here: any storage call would fail with a missing
	// table error, so a clean policy outcome proves the guard short-circuited.
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	ctx := context.Background()

	t.Run("strict_rejects_without_storage_call", func(t *testing.T) {
		repo := newStockRepo(t, db, WithIdentifierPolicy[stockItem](PolicyStrict))
		entity, err := repo.FindByID(ctx, invalidUUID)
		if entity != nil {
			t.Errorf("entity = %+v, want nil", entity)
		}
		if !domain.IsInvalidIdentifier(err) {
			t.Errorf("err = %v, want invalid-identifier", err)
		}
	})

	t.Run("graceful_short_circuits_to_not_found", func(t *testing.T) {
		repo := newStockRepo(t, db, WithIdentifierPolicy[stockItem](PolicyGraceful))
		entity, err := repo.FindByID(ctx, invalidUUID)
		if entity != nil || err != nil {
			t.Errorf("FindByID = (%+v, %v), want (nil, nil)", entity, err)
		}
	})

	t.Run("warn_lets_storage_decide", func(t *testing.T) {
		log, h := newCapturedLogger()
		repo := newStockRepo(t, db,
			WithIdentifierPolicy[stockItem](PolicyWarn),
			WithLogger[stockItem](log))
		_, err := repo.FindByID(ctx, invalidUUID)
		if err == nil || domain.IsInvalidIdentifier(err) {
			t.Errorf("err = %v, want the storage error to surface", err)
		}
		if h.count() != 1 {
			t.Errorf("expected one warning record, got %d", h.count())
		}
	})
}

func TestRepositoryUpdate(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	created := mustCreateStock(t, repo, map[string]any{"name": "Aspirin", "price": 1.0}, validUUID)

	updated, err := repo.Update(ctx, created.ID, map[string]any{"price": 2.5}, validUUID2)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated == nil {
		t.Fatal("Update returned nil for an existing row")
	}
	if updated.Price != 2.5 || updated.Name != "Aspirin" {
		t.Errorf("fields = (%q, %v), want only price changed", updated.Name, updated.Price)
	}
	if updated.UpdatedBy == nil || *updated.UpdatedBy != validUUID2 {
		t.Errorf("UpdatedBy = %v, want the updating actor", updated.UpdatedBy)
	}
	if updated.CreatedBy == nil || *updated.CreatedBy != validUUID {
		t.Errorf("CreatedBy = %v, want the original actor preserved", updated.CreatedBy)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Errorf("UpdatedAt %v precedes CreatedAt %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestRepositoryUpdate_DTOCannotRewritePrimaryKey(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	created := mustCreateStock(t, repo, map[string]any{"name": "Aspirin"}, "")

	updated, err := repo.Update(ctx, created.ID, map[string]any{
		"id":   validUUID2,
		"name": "Renamed",
	}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated == nil || updated.ID != created.ID {
		t.Fatalf("id = %v, want the original %q kept", updated, created.ID)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q, want the rest of the DTO applied", updated.Name)
	}

	moved, err := repo.FindByID(ctx, validUUID2)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if moved != nil {
		t.Errorf("row reachable under the DTO-supplied id: %+v", moved)
	}

	// An id-only DTO is an empty update and must not touch audit columns.
	same, err := repo.Update(ctx, created.ID, map[string]any{"id": validUUID2}, validUUID)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if same == nil || same.UpdatedBy != nil {
		t.Errorf("UpdatedBy = %v, want untouched for an id-only DTO", same.UpdatedBy)
	}
}

// markingMapper decorates the default mapper, marking every entity it builds
// so tests can tell the read path goes through ToEntity.
type markingMapper struct {
	Mapper[stockItem]
	reads int
}

func (m *markingMapper) ToEntity(row map[string]any) (*stockItem, error) {
	m.reads++
	entity, err := m.Mapper.ToEntity(row)
	if err != nil {
		return nil, err
	}
	entity.Name = strings.ToUpper(entity.Name)
	return entity, nil
}

func TestRepositoryReads_GoThroughMapper(t *testing.T) {
	db := openEngineDB(t)
	desc := stockItemDescriptor()
	m := &markingMapper{Mapper: NewMapper[stockItem](&desc)}
	repo := newStockRepo(t, db, WithMapper[stockItem](m))
	ctx := context.Background()

	created := mustCreateStock(t, repo, map[string]any{"name": "aspirin"}, "")
	if created.Name != "ASPIRIN" {
		t.Errorf("Create returned %q, want the custom mapper applied", created.Name)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Name != "ASPIRIN" {
		t.Errorf("FindByID = %+v, want the custom mapper applied", found)
	}

	page, err := repo.List(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Name != "ASPIRIN" {
		t.Errorf("List data = %+v, want the custom mapper applied", page.Data)
	}

	// The stored row keeps the original value; only read hydration changes.
	var raw stockItem
	if err := db.First(&raw).Error; err != nil {
		t.Fatalf("raw read: %v", err)
	}
	if raw.Name != "aspirin" {
		t.Errorf("stored name = %q, want the DTO value untouched", raw.Name)
	}

	if m.reads < 3 {
		t.Errorf("ToEntity invoked %d times, want every read routed through it", m.reads)
	}
}

func TestRepositoryUpdate_NoActorLeavesUpdatedByUntouched(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)

	created := mustCreateStock(t, repo, map[string]any{"name": "Aspirin"}, "")
	updated, err := repo.Update(context.Background(), created.ID, map[string]any{"price": 3.0}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.UpdatedBy != nil {
		t.Errorf("UpdatedBy = %v, want nil when no actor is supplied", updated.UpdatedBy)
	}
}

func TestRepositoryUpdate_UnknownIDIsNotFoundNotError(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)

	entity, err := repo.Update(context.Background(), validUUID2, map[string]any{"price": 1.0}, "")
	if entity != nil || err != nil {
		t.Errorf("Update = (%+v, %v), want (nil, nil)", entity, err)
	}
}

func TestRepositoryUpdate_EmptyDTOReturnsCurrentState(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	created := mustCreateStock(t, repo, map[string]any{"name": "Aspirin"}, "")

	entity, err := repo.Update(ctx, created.ID, map[string]any{}, validUUID)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if entity == nil || entity.Name != "Aspirin" {
		t.Errorf("entity = %+v, want the unmodified row", entity)
	}
	if entity.UpdatedBy != nil {
		t.Errorf("UpdatedBy = %v, want untouched for an empty DTO", entity.UpdatedBy)
	}
}

func TestRepositoryDelete_Idempotent(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	created := mustCreateStock(t, repo, map[string]any{"name": "Aspirin"}, "")

	removed, err := repo.Delete(ctx, created.ID)
	if err != nil || !removed {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", removed, err)
	}

	removed, err = repo.Delete(ctx, created.ID)
	if err != nil || removed {
		t.Errorf("second Delete = (%v, %v), want (false, nil)", removed, err)
	}

	removed, err = repo.Delete(ctx, invalidUUID)
	if err != nil || removed {
		t.Errorf("Delete(malformed, graceful) = (%v, %v), want (false, nil)", removed, err)
	}
}

func seedInventory(t *testing.T, repo *Repository[stockItem], n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		mustCreateStock(t, repo, map[string]any{
			"name":  fmt.Sprintf("item-%02d", i),
			"code":  fmt.Sprintf("C%02d", i),
			"unit":  "box",
			"price": float64(i),
		}, "")
	}
}

func TestRepositoryList_Pagination(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	seedInventory(t, repo, 25)

	page, err := repo.List(context.Background(), ListQuery{
		Page:  2,
		Limit: 10,
		Sort:  "name:asc",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	p := page.Pagination
	if p.Total != 25 || p.TotalPages != 3 || !p.HasNext || !p.HasPrev {
		t.Errorf("pagination = %+v", p)
	}
	if len(page.Data) != 10 {
		t.Fatalf("expected 10 items, got %d", len(page.Data))
	}
	if page.Data[0].Name != "item-10" || page.Data[9].Name != "item-19" {
		t.Errorf("page window = [%s .. %s], want [item-10 .. item-19]",
			page.Data[0].Name, page.Data[9].Name)
	}
}

func TestRepositoryList_Search(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	seedInventory(t, repo, 25)

	page, err := repo.List(context.Background(), ListQuery{Search: "ITEM-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Pagination.Total != 10 {
		t.Errorf("total = %d, want the 10 item-1x rows", page.Pagination.Total)
	}
}

func TestRepositoryList_RangeFilter(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	seedInventory(t, repo, 25)

	page, err := repo.List(context.Background(), ListQuery{
		Limit:   100,
		Sort:    "name:asc",
		Filters: map[string]string{"price_min": "3", "price_max": "5"},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Pagination.Total != 3 {
		t.Errorf("total = %d, want 3", page.Pagination.Total)
	}
	for _, item := range page.Data {
		if item.Price < 3 || item.Price > 5 {
			t.Errorf("item %s price %v outside the range", item.Name, item.Price)
		}
	}
}

func TestRepositoryList_IdentifierFilterPolicies(t *testing.T) {
	db := openEngineDB(t)
	seedInventory(t, newStockRepo(t, db), 5)
	malformed := map[string]string{"owner_id_in": invalidUUID}

	t.Run("graceful_ignores_malformed_filter", func(t *testing.T) {
		repo := newStockRepo(t, db)
		page, err := repo.List(context.Background(), ListQuery{Filters: malformed})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if page.Pagination.Total != 5 {
			t.Errorf("total = %d, want the filter dropped whole", page.Pagination.Total)
		}
	})

	t.Run("strict_rejects", func(t *testing.T) {
		repo := newStockRepo(t, db, WithIdentifierPolicy[stockItem](PolicyStrict))
		_, err := repo.List(context.Background(), ListQuery{Filters: malformed})
		if !domain.IsInvalidIdentifier(err) {
			t.Errorf("err = %v, want invalid-identifier", err)
		}
	})
}

func TestRepositoryList_RoleProjection(t *testing.T) {
	db := openEngineDB(t)
	log, h := newCapturedLogger()
	repo := newStockRepo(t, db, WithLogger[stockItem](log))
	mustCreateStock(t, repo, map[string]any{"name": "Aspirin", "price": 4.25}, "")

	page, err := repo.List(context.Background(), ListQuery{
		Role:   "clerk",
		Actor:  validUUID,
		Fields: []string{"name", "price"},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Data))
	}
	item := page.Data[0]
	if item.Name != "Aspirin" {
		t.Errorf("name = %q, want the allowed column populated", item.Name)
	}
	if item.Price != 0 {
		t.Errorf("price = %v, want the restricted column left unselected", item.Price)
	}
	if h.count() != 1 {
		t.Errorf("expected one restricted-fields record, got %d", h.count())
	}
}

func TestRepositoryCreateMany(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	// Explicit ids chosen out of storage order to check the result follows
	// input order.
	items, err := repo.CreateMany(ctx, []map[string]any{
		{"id": validUUID2, "name": "second-id-first"},
		{"id": validUUID, "name": "first-id-second"},
		{"name": "generated"},
	}, validUUID)
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != validUUID2 || items[1].ID != validUUID {
		t.Errorf("order = [%s %s], want input order preserved", items[0].ID, items[1].ID)
	}
	if !ValidIdentifier(items[2].ID) {
		t.Errorf("generated id %q invalid", items[2].ID)
	}
	for _, item := range items {
		if item.CreatedBy == nil || *item.CreatedBy != validUUID {
			t.Errorf("item %s CreatedBy = %v, want the actor", item.Name, item.CreatedBy)
		}
	}
}

func TestRepositoryCreateMany_AllOrNothing(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)

	_, err := repo.CreateMany(context.Background(), []map[string]any{
		{"id": validUUID, "name": "kept?"},
		{"id": validUUID, "name": "duplicate key"},
	}, "")
	if err == nil {
		t.Fatal("expected a duplicate key error")
	}
	if n := stockCount(t, db); n != 0 {
		t.Errorf("row count = %d, want 0 after rollback", n)
	}
}

func TestRepositoryCreateMany_EmptyInput(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)

	items, err := repo.CreateMany(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %v, want empty non-nil slice", items)
	}
}

func TestRepositoryUpdateMany(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	a := mustCreateStock(t, repo, map[string]any{"name": "a", "unit": "box"}, "")
	b := mustCreateStock(t, repo, map[string]any{"name": "b", "unit": "box"}, "")

	affected, err := repo.UpdateMany(ctx, []string{a.ID, invalidUUID, b.ID},
		map[string]any{"unit": "blister"}, validUUID)
	if err != nil {
		t.Fatalf("UpdateMany: %v", err)
	}
	if affected != 2 {
		t.Errorf("affected = %d, want 2 with the malformed id dropped", affected)
	}

	reloaded, err := repo.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if reloaded.Unit != "blister" {
		t.Errorf("unit = %q, want blister", reloaded.Unit)
	}
	if reloaded.UpdatedBy == nil || *reloaded.UpdatedBy != validUUID {
		t.Errorf("UpdatedBy = %v, want the actor", reloaded.UpdatedBy)
	}

	affected, err = repo.UpdateMany(ctx, []string{invalidUUID}, map[string]any{"unit": "x"}, "")
	if err != nil || affected != 0 {
		t.Errorf("UpdateMany(all malformed) = (%d, %v), want (0, nil)", affected, err)
	}

	affected, err = repo.UpdateMany(ctx, []string{a.ID}, map[string]any{}, "")
	if err != nil || affected != 0 {
		t.Errorf("UpdateMany(empty DTO) = (%d, %v), want (0, nil)", affected, err)
	}
}

func TestRepositoryDeleteMany(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	a := mustCreateStock(t, repo, map[string]any{"name": "a"}, "")
	b := mustCreateStock(t, repo, map[string]any{"name": "b"}, "")
	keep := mustCreateStock(t, repo, map[string]any{"name": "keep"}, "")

	removed, err := repo.DeleteMany(ctx, []string{a.ID, b.ID, invalidUUID, validUUID2})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if n := stockCount(t, db); n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}

	survivor, err := repo.FindByID(ctx, keep.ID)
	if err != nil || survivor == nil {
		t.Errorf("survivor lookup = (%+v, %v)", survivor, err)
	}
}

func TestRepositoryWithTransaction_Commit(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(tx *Repository[stockItem]) error {
		if _, err := tx.Create(ctx, map[string]any{"name": "a"}, ""); err != nil {
			return err
		}
		_, err := tx.Create(ctx, map[string]any{"name": "b"}, "")
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
	if n := stockCount(t, db); n != 2 {
		t.Errorf("row count = %d, want 2 after commit", n)
	}
}

func TestRepositoryWithTransaction_RollbackOnError(t *testing.T) {
	db := openEngineDB(t)
	repo := newStockRepo(t, db)
	ctx := context.Background()

	sentinel := fmt.Errorf("lot recount mismatch")
	err := repo.WithTransaction(ctx, func(tx *Repository[stockItem]) error {
		if _, err := tx.Create(ctx, map[string]any{"name": "doomed"}, ""); err != nil {
			return err
		}
		return sentinel
	})
	if err == nil || !strings.Contains(err.Error(), "lot recount mismatch") {
		t.Fatalf("err = %v, want the callback error", err)
	}
	if n := stockCount(t, db); n != 0 {
		t.Errorf("row count = %d, want 0 after rollback", n)
	}
}
