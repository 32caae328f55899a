package store

import (
	"testing"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/database"
	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

func setupBackupTestDB(t *testing.T) *BackupStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBackupStore(db)
}

func TestBackupLifecycle(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, err := bs.Create("gympro-20260831.db.enc", "backups/gympro-20260831.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want pending", b.Status)
	}

	if err := bs.UpdateStatus(b.ID, model.BackupStatusUploading, ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := bs.UpdateCompleted(b.ID, 4096); err != nil {
		t.Fatalf("update completed: %v", err)
	}

	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if got.Status != model.BackupStatusCompleted || got.SizeBytes != 4096 {
		t.Errorf("completed backup = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest == nil || latest.ID != b.ID {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestBackupFailureKeepsMessage(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, err := bs.Create("gympro-bad.db.enc", "backups/gympro-bad.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if err := bs.UpdateStatus(b.ID, model.BackupStatusFailed, "upload timed out"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if got.Status != model.BackupStatusFailed || got.ErrorMessage != "upload timed out" {
		t.Errorf("failed backup = %+v", got)
	}

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest != nil {
		t.Errorf("failed backup counted as completed: %+v", latest)
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, err := bs.Create("gympro-old.db.enc", "backups/gympro-old.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}

	keys, err := bs.DeleteOlderThan(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 1 || keys[0] != "backups/gympro-old.db.enc" {
		t.Fatalf("deleted keys = %v", keys)
	}
	got, err := bs.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("backup row still present")
	}
}
