package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

const planCols = `id, name, description, price, days_per_week, is_active, features, created_at, updated_at`

func scanPlan(scanner interface{ Scan(...any) error }) (*model.MembershipPlan, error) {
	var p model.MembershipPlan
	err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DaysPerWeek,
		&p.IsActive, &p.Features, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type PlanParams struct {
	Name        string
	Description string
	Price       float64
	DaysPerWeek int
	Features    string
}

func (s *PlanStore) Create(p PlanParams) (*model.MembershipPlan, error) {
	result, err := s.db.Exec(
		`INSERT INTO membership_plans (name, description, price, days_per_week, features)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Price, p.DaysPerWeek, p.Features,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) GetByID(id int64) (*model.MembershipPlan, error) {
	row := s.db.QueryRow(`SELECT `+planCols+` FROM membership_plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// List returns plans, active ones only unless includeInactive is set.
func (s *PlanStore) List(includeInactive bool) ([]model.MembershipPlan, error) {
	query := `SELECT ` + planCols + ` FROM membership_plans`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY price ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []model.MembershipPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (s *PlanStore) Update(id int64, p PlanParams) (*model.MembershipPlan, error) {
	_, err := s.db.Exec(
		`UPDATE membership_plans SET name = ?, description = ?, price = ?, days_per_week = ?,
		 features = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.Price, p.DaysPerWeek, p.Features, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return s.GetByID(id)
}

// SetActive retires or restores a plan without losing its history.
func (s *PlanStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(
		`UPDATE membership_plans SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set plan active: %w", err)
	}
	return nil
}
