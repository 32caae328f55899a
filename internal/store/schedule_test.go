package store

import (
	"testing"

	"github.com/TomiRonco/gym-pro-sub000/internal/database"
)

func setupScheduleTestDB(t *testing.T) *ScheduleStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewScheduleStore(db)
}

func TestScheduleSeedData(t *testing.T) {
	ss := setupScheduleTestDB(t)

	schedules, err := ss.List()
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(schedules) != 7 {
		t.Fatalf("expected 7 seed days, got %d", len(schedules))
	}
	for i, sc := range schedules {
		if sc.DayOfWeek != i {
			t.Errorf("schedule[%d].DayOfWeek = %d", i, sc.DayOfWeek)
		}
	}
	// Sunday is seeded closed.
	if schedules[6].IsOpen {
		t.Error("sunday should be seeded closed")
	}
}

func TestScheduleUpdate(t *testing.T) {
	ss := setupScheduleTestDB(t)

	schedules, err := ss.List()
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	sunday := schedules[6]

	updated, err := ss.Update(sunday.ID, ScheduleParams{
		Name:        "Horario reducido",
		OpeningTime: "10:00",
		ClosingTime: "14:00",
		IsOpen:      true,
	})
	if err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if !updated.IsOpen || updated.OpeningTime != "10:00" || updated.ClosingTime != "14:00" {
		t.Errorf("update did not stick: %+v", updated)
	}
	if updated.DayOfWeek != 6 {
		t.Errorf("day changed to %d", updated.DayOfWeek)
	}
}
