package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

// ErrAlreadyCheckedIn is returned when a member has an open visit and tries
// to check in again.
var ErrAlreadyCheckedIn = errors.New("member already checked in")

type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

const attendanceCols = `id, member_id, check_in_time, check_out_time, duration_minutes, notes, created_at`

func scanAttendance(scanner interface{ Scan(...any) error }) (*model.Attendance, error) {
	var a model.Attendance
	var checkOut sql.NullTime
	var duration sql.NullInt64
	err := scanner.Scan(&a.ID, &a.MemberID, &a.CheckInTime, &checkOut, &duration, &a.Notes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if checkOut.Valid {
		a.CheckOutTime = &checkOut.Time
	}
	if duration.Valid {
		d := int(duration.Int64)
		a.DurationMinutes = &d
	}
	return &a, nil
}

// CheckIn opens a visit for the member. A member with an open visit cannot
// check in again until it is closed.
func (s *AttendanceStore) CheckIn(memberID int64, notes string) (*model.Attendance, error) {
	open, err := s.OpenVisit(memberID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyCheckedIn
	}

	result, err := s.db.Exec(
		`INSERT INTO attendance (member_id, check_in_time, notes) VALUES (?, ?, ?)`,
		memberID, time.Now().UTC(), notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// CheckOut closes the member's open visit and records its duration.
func (s *AttendanceStore) CheckOut(memberID int64) (*model.Attendance, error) {
	open, err := s.OpenVisit(memberID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	minutes := int(now.Sub(open.CheckInTime).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	_, err = s.db.Exec(
		`UPDATE attendance SET check_out_time = ?, duration_minutes = ? WHERE id = ?`,
		now, minutes, open.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update attendance: %w", err)
	}
	return s.GetByID(open.ID)
}

// OpenVisit returns the member's visit without a check-out, or nil.
func (s *AttendanceStore) OpenVisit(memberID int64) (*model.Attendance, error) {
	row := s.db.QueryRow(
		`SELECT `+attendanceCols+` FROM attendance
		 WHERE member_id = ? AND check_out_time IS NULL
		 ORDER BY check_in_time DESC LIMIT 1`,
		memberID,
	)
	a, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open visit: %w", err)
	}
	return a, nil
}

func (s *AttendanceStore) GetByID(id int64) (*model.Attendance, error) {
	row := s.db.QueryRow(`SELECT `+attendanceCols+` FROM attendance WHERE id = ?`, id)
	a, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return a, nil
}

// ListByMember returns the member's visits, newest first.
func (s *AttendanceStore) ListByMember(memberID int64, limit int) ([]model.Attendance, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+attendanceCols+` FROM attendance WHERE member_id = ?
		 ORDER BY check_in_time DESC LIMIT ?`,
		memberID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()
	return collectAttendance(rows)
}

// ListDay returns every visit whose check-in falls on the given calendar day.
func (s *AttendanceStore) ListDay(day time.Time) ([]model.Attendance, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows, err := s.db.Query(
		`SELECT `+attendanceCols+` FROM attendance
		 WHERE check_in_time >= ? AND check_in_time < ?
		 ORDER BY check_in_time DESC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func collectAttendance(rows *sql.Rows) ([]model.Attendance, error) {
	var visits []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		visits = append(visits, *a)
	}
	return visits, rows.Err()
}
