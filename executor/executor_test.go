package executor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hassnap/einkscreen/config"
	"github.com/hassnap/einkscreen/models"
	"github.com/hassnap/einkscreen/schedule"
	"github.com/hassnap/einkscreen/serializer"
)

type fakeSerializer struct {
	bytes []byte
	err   error
	calls int
}

func (f *fakeSerializer) Execute(ctx context.Context, req *models.ScreenshotRequest) (*serializer.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &serializer.Result{Bytes: f.bytes, ContentType: "image/png"}, nil
}

func testExecutor(t *testing.T, ser Serializer) (*Executor, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.SchedulerConfig{OutputDir: dir, RetentionMultiplier: 2}
	ex, err := New(cfg, ser, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ex, dir
}

func TestExecutor_RunSavesFileWithSanitizedName(t *testing.T) {
	ser := &fakeSerializer{bytes: []byte("pngdata")}
	ex, dir := testExecutor(t, ser)

	s := &schedule.Schedule{Name: "morning view!", Format: models.FormatPNG}
	if err := ex.Run(context.Background(), s, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file, got %d", len(entries))
	}
	name := entries[0].Name()
	if name[:13] != "morning_view_" {
		t.Errorf("filename = %q, want sanitized prefix morning_view_", name)
	}
	if filepath.Ext(name) != ".png" {
		t.Errorf("filename = %q, want .png extension", name)
	}
}

func TestExecutor_RunPropagatesSerializerError(t *testing.T) {
	ser := &fakeSerializer{err: models.New(models.KindCannotOpenPage, "boom", nil)}
	ex, _ := testExecutor(t, ser)

	s := &schedule.Schedule{Name: "x"}
	err := ex.Run(context.Background(), s, 1)
	if !models.Is(err, models.KindCannotOpenPage) {
		t.Errorf("expected CannotOpenPage to propagate, got %v", err)
	}
}

func TestExecutor_RunSwallowsWebhookFailure(t *testing.T) {
	ser := &fakeSerializer{bytes: []byte("x")}
	ex, _ := testExecutor(t, ser)

	s := &schedule.Schedule{Name: "x", WebhookURL: "http://127.0.0.1:1/unreachable"}
	if err := ex.Run(context.Background(), s, 1); err != nil {
		t.Errorf("expected webhook failure to be swallowed, got %v", err)
	}
}

func TestExecutor_PruneDeletesOldestBeyondRetentionLimit(t *testing.T) {
	ser := &fakeSerializer{bytes: []byte("x")}
	ex, dir := testExecutor(t, ser)

	// enabledCount=1, multiplier=2 => limit of 2 files retained.
	for i := 0; i < 4; i++ {
		path := filepath.Join(dir, "old_"+string(rune('a'+i))+".png")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	if err := ex.prune(1); err != nil {
		t.Fatalf("prune: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 files retained, got %d", len(entries))
	}
}

func TestExecutor_PruneIsNoOpOnSecondRunWithoutNewWrites(t *testing.T) {
	ser := &fakeSerializer{bytes: []byte("x")}
	ex, dir := testExecutor(t, ser)

	for i := 0; i < 2; i++ {
		path := filepath.Join(dir, "f"+string(rune('a'+i))+".png")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	if err := ex.prune(1); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if err := ex.prune(1); err != nil {
		t.Fatalf("prune (second run): %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 files retained after repeated prune, got %d", len(entries))
	}
}

func TestExecutor_NewFailsWhenOutputDirUncreatable(t *testing.T) {
	ser := &fakeSerializer{}
	cfg := config.SchedulerConfig{OutputDir: "/root-cannot-create/\x00bad"}
	_, err := New(cfg, ser, nil)
	if err == nil {
		t.Fatal("expected error for invalid output directory")
	}
	if !models.Is(err, models.KindStorageError) {
		t.Errorf("expected StorageError, got %v", err)
	}
}
