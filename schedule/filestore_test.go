package schedule

import (
	"path/filepath"
	"testing"

	"github.com/hassnap/einkscreen/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	return NewFileStore(filepath.Join(dir, "schedules.json"))
}

func TestFileStore_ListEmptyOnMissingFile(t *testing.T) {
	fs := newTestStore(t)
	all, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty list, got %d", len(all))
	}
}

func TestFileStore_CreateAssignsIDAndTimestamps(t *testing.T) {
	fs := newTestStore(t)
	s, err := fs.Create(&Schedule{Name: "morning", Cron: "0 7 * * *"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == "" {
		t.Error("expected non-empty ID")
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("expected CreatedAt/UpdatedAt to be stamped")
	}
}

func TestFileStore_CreateThenListRoundTrips(t *testing.T) {
	fs := newTestStore(t)
	created, err := fs.Create(&Schedule{Name: "morning", Cron: "0 7 * * *"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 || all[0].ID != created.ID {
		t.Fatalf("List = %+v, want single entry matching %q", all, created.ID)
	}
}

func TestFileStore_GetMissingReturnsNilNil(t *testing.T) {
	fs := newTestStore(t)
	s, err := fs.Get("does-not-exist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil for missing id, got %+v", s)
	}
}

func TestFileStore_UpdatePreservesCreatedAtAndID(t *testing.T) {
	fs := newTestStore(t)
	created, err := fs.Create(&Schedule{Name: "morning", Cron: "0 7 * * *"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := fs.Update(created.ID, &Schedule{Name: "evening", Cron: "0 19 * * *", Enabled: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated == nil {
		t.Fatal("expected non-nil updated record")
	}
	if updated.ID != created.ID {
		t.Errorf("Update changed ID: got %q, want %q", updated.ID, created.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("Update should preserve CreatedAt")
	}
	if updated.Name != "evening" || !updated.Enabled {
		t.Errorf("Update did not apply patch fields: %+v", updated)
	}
}

func TestFileStore_UpdateMissingReturnsNilNil(t *testing.T) {
	fs := newTestStore(t)
	updated, err := fs.Update("missing", &Schedule{Name: "x"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated != nil {
		t.Errorf("expected nil for missing id, got %+v", updated)
	}
}

func TestFileStore_DeleteRemovesAndReportsFound(t *testing.T) {
	fs := newTestStore(t)
	created, err := fs.Create(&Schedule{Name: "morning"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := fs.Delete(created.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !found {
		t.Error("expected Delete to report found=true")
	}

	all, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(all))
	}
}

func TestFileStore_DeleteMissingReportsNotFound(t *testing.T) {
	fs := newTestStore(t)
	found, err := fs.Delete("missing")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if found {
		t.Error("expected Delete to report found=false for missing id")
	}
}

func TestFileStore_MultipleSchedulesPersistIndependently(t *testing.T) {
	fs := newTestStore(t)
	a, err := fs.Create(&Schedule{Name: "a", Viewport: models.Viewport{Width: 800, Height: 600}})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	b, err := fs.Create(&Schedule{Name: "b"})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}

	if _, err := fs.Delete(a.ID); err != nil {
		t.Fatalf("Delete a: %v", err)
	}

	remaining, err := fs.Get(b.ID)
	if err != nil {
		t.Fatalf("Get b: %v", err)
	}
	if remaining == nil || remaining.Name != "b" {
		t.Errorf("expected b to survive a's deletion, got %+v", remaining)
	}
}
