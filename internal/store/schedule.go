package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

const scheduleCols = `id, day_of_week, name, opening_time, closing_time, is_open, notes, created_at, updated_at`

func scanSchedule(scanner interface{ Scan(...any) error }) (*model.Schedule, error) {
	var sc model.Schedule
	err := scanner.Scan(&sc.ID, &sc.DayOfWeek, &sc.Name, &sc.OpeningTime, &sc.ClosingTime,
		&sc.IsOpen, &sc.Notes, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *ScheduleStore) GetByID(id int64) (*model.Schedule, error) {
	row := s.db.QueryRow(`SELECT `+scheduleCols+` FROM schedules WHERE id = ?`, id)
	sc, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return sc, nil
}

func (s *ScheduleStore) List() ([]model.Schedule, error) {
	rows, err := s.db.Query(`SELECT ` + scheduleCols + ` FROM schedules ORDER BY day_of_week ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sc)
	}
	return schedules, rows.Err()
}

type ScheduleParams struct {
	Name        string
	OpeningTime string
	ClosingTime string
	IsOpen      bool
	Notes       string
}

// Update edits the hours for one day. The day itself is fixed at seed time.
func (s *ScheduleStore) Update(id int64, p ScheduleParams) (*model.Schedule, error) {
	_, err := s.db.Exec(
		`UPDATE schedules SET name = ?, opening_time = ?, closing_time = ?, is_open = ?,
		 notes = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.OpeningTime, p.ClosingTime, p.IsOpen, p.Notes, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return s.GetByID(id)
}
