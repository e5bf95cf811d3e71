package entries

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time {
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *movableClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:mydiary_entries_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clock := &movableClock{now: time.Unix(1700000000, 0).UTC()}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    clock.Now,
	})
	if err != nil {
		t.Fatalf("failed to construct entry service: %v", err)
	}

	return service, db, clock
}

func mustCreate(t *testing.T, service *Service, userID int64, title, content string, favorite bool) Entry {
	t.Helper()
	entry, err := service.Create(context.Background(), userID, title, content, favorite)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	return entry
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	service, _, _ := newTestService(t)

	created := mustCreate(t, service, 1, "First day", "Dear diary", false)
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if created.CreatedOn != 1700000000 || created.UpdatedOn != 1700000000 {
		t.Fatalf("unexpected timestamps: %d/%d", created.CreatedOn, created.UpdatedOn)
	}

	fetched, err := service.Get(context.Background(), 1, created.ID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if fetched != created {
		t.Fatalf("get should return the created entry, got %+v want %+v", fetched, created)
	}
}

func TestGetIsolatesOwnership(t *testing.T) {
	service, _, _ := newTestService(t)

	created := mustCreate(t, service, 1, "First day", "Dear diary", false)

	if _, err := service.Get(context.Background(), 2, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("another user's entry must be not found, got %v", err)
	}
}

func TestListPaginatesWithStoreCount(t *testing.T) {
	service, _, clock := newTestService(t)

	first := mustCreate(t, service, 1, "One", "Content one", false)
	clock.Advance(time.Minute)
	second := mustCreate(t, service, 1, "Two", "Content two", true)
	mustCreate(t, service, 2, "Other user", "Hidden", false)

	page, err := service.List(context.Background(), 1, 1, 1, false)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(page.Entries) != 1 {
		t.Fatalf("expected exactly one entry on the page, got %d", len(page.Entries))
	}
	if page.Entries[0].ID != second.ID {
		t.Fatalf("expected second entry on page 1, got %d", page.Entries[0].ID)
	}
	if page.Count != 2 {
		t.Fatalf("expected total count 2, got %d", page.Count)
	}

	firstPage, err := service.List(context.Background(), 1, 1, 0, false)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(firstPage.Entries) != 1 || firstPage.Entries[0].ID != first.ID {
		t.Fatalf("expected first entry on page 0")
	}
}

func TestListDefaultsAndFavoritesFilter(t *testing.T) {
	service, _, _ := newTestService(t)

	mustCreate(t, service, 1, "Plain", "Content", false)
	favorite := mustCreate(t, service, 1, "Starred", "Content", true)

	page, err := service.List(context.Background(), 1, 0, -3, true)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if page.Limit != DefaultLimit || page.Page != 0 {
		t.Fatalf("expected defaulted pagination, got limit=%d page=%d", page.Limit, page.Page)
	}
	if page.Count != 1 || len(page.Entries) != 1 {
		t.Fatalf("expected only the favorite entry, got count=%d len=%d", page.Count, len(page.Entries))
	}
	if page.Entries[0].ID != favorite.ID {
		t.Fatalf("unexpected entry: %d", page.Entries[0].ID)
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	service, _, clock := newTestService(t)

	created := mustCreate(t, service, 1, "Draft", "Original content", false)
	clock.Advance(time.Hour)

	title := "Final"
	updated, err := service.Update(context.Background(), 1, created.ID, Partial{Title: &title})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if updated.Title != "Final" {
		t.Fatalf("title not applied: %s", updated.Title)
	}
	if updated.Content != "Original content" {
		t.Fatalf("absent field must retain prior value, got %s", updated.Content)
	}
	if updated.IsFavorite {
		t.Fatalf("absent favorite flag must retain prior value")
	}
	if updated.UpdatedOn != clock.Now().Unix() {
		t.Fatalf("updated_on not refreshed: %d", updated.UpdatedOn)
	}
	if updated.CreatedOn != created.CreatedOn {
		t.Fatalf("created_on must not change")
	}
}

func TestUpdateEmptyPartialIsNoOp(t *testing.T) {
	service, _, clock := newTestService(t)

	created := mustCreate(t, service, 1, "Draft", "Original content", true)
	clock.Advance(time.Hour)

	updated, err := service.Update(context.Background(), 1, created.ID, Partial{})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if updated != created {
		t.Fatalf("empty partial must return the unchanged entry, got %+v want %+v", updated, created)
	}
}

func TestUpdateRejectsOutsideEditWindow(t *testing.T) {
	service, _, clock := newTestService(t)

	created := mustCreate(t, service, 1, "Draft", "Original content", false)
	clock.Advance(EditWindow + time.Second)

	title := "Too late"
	if _, err := service.Update(context.Background(), 1, created.ID, Partial{Title: &title}); !errors.Is(err, ErrEditWindowExpired) {
		t.Fatalf("expected edit window error, got %v", err)
	}

	favorite := true
	if _, err := service.Update(context.Background(), 1, created.ID, Partial{IsFavorite: &favorite}); !errors.Is(err, ErrEditWindowExpired) {
		t.Fatalf("expected edit window error for favorite toggle, got %v", err)
	}

	current, err := service.Get(context.Background(), 1, created.ID)
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if current != created {
		t.Fatalf("rejected update must not modify the entry")
	}
}

func TestUpdateExactlyAtWindowBoundary(t *testing.T) {
	service, _, clock := newTestService(t)

	created := mustCreate(t, service, 1, "Draft", "Original content", false)
	clock.Advance(EditWindow)

	title := "Just in time"
	if _, err := service.Update(context.Background(), 1, created.ID, Partial{Title: &title}); err != nil {
		t.Fatalf("update at exactly the window boundary should succeed, got %v", err)
	}
}

func TestUpdateUnknownEntry(t *testing.T) {
	service, _, _ := newTestService(t)

	title := "Anything"
	if _, err := service.Update(context.Background(), 1, 42, Partial{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDeleteRemovesOwnedEntryOnly(t *testing.T) {
	service, db, _ := newTestService(t)

	created := mustCreate(t, service, 1, "Draft", "Content", false)

	if err := service.Delete(context.Background(), 2, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("another user must not delete the entry, got %v", err)
	}

	if err := service.Delete(context.Background(), 1, created.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	var count int64
	if err := db.Model(&Entry{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("entry should be removed, %d remain", count)
	}

	if err := service.Delete(context.Background(), 1, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleting twice must be not found, got %v", err)
	}
}

func TestCountsForUser(t *testing.T) {
	service, _, _ := newTestService(t)

	mustCreate(t, service, 1, "One", "Content", false)
	mustCreate(t, service, 1, "Two", "Content", true)
	mustCreate(t, service, 1, "Three", "Content", true)
	mustCreate(t, service, 2, "Other", "Content", true)

	counts, err := service.CountsForUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected counts error: %v", err)
	}
	if counts.Total != 3 {
		t.Fatalf("expected 3 total entries, got %d", counts.Total)
	}
	if counts.Favorites != 2 {
		t.Fatalf("expected 2 favorites, got %d", counts.Favorites)
	}
}
