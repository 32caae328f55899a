package store

import (
	"testing"

	"github.com/TomiRonco/gym-pro-sub000/internal/database"
)

func setupSettingsTestDB(t *testing.T) *SettingsStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSettingsStore(db)
}

func TestSettingsSetGet(t *testing.T) {
	ss := setupSettingsTestDB(t)

	if err := ss.Set("gym_name", "Gimnasio Central"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := ss.Get("gym_name")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "Gimnasio Central" {
		t.Errorf("value = %q", got)
	}

	// Set on an existing key overwrites.
	if err := ss.Set("gym_name", "Gimnasio Norte"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = ss.Get("gym_name")
	if got != "Gimnasio Norte" {
		t.Errorf("overwritten value = %q", got)
	}

	if _, err := ss.Get("missing_key"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestProfileSettings(t *testing.T) {
	ss := setupSettingsTestDB(t)

	if err := ss.Set("gym_name", "Gimnasio Central"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := ss.Set("currency", "ARS"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := ss.Set("expiry_reminder_days", "7"); err != nil {
		t.Fatalf("set: %v", err)
	}

	profile, err := ss.GetProfileSettings()
	if err != nil {
		t.Fatalf("profile settings: %v", err)
	}
	if profile["gym_name"] != "Gimnasio Central" || profile["currency"] != "ARS" {
		t.Errorf("profile = %v", profile)
	}
	if _, ok := profile["expiry_reminder_days"]; ok {
		t.Error("notification key leaked into profile group")
	}

	notif, err := ss.GetNotificationSettings()
	if err != nil {
		t.Fatalf("notification settings: %v", err)
	}
	if notif["expiry_reminder_days"] != "7" {
		t.Errorf("notification = %v", notif)
	}
}
