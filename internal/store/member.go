package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

const memberCols = `id, membership_number, first_name, last_name, dni, email, phone, address,
	membership_type, membership_start_date, membership_end_date, is_active, trainer_id, notes,
	created_at, updated_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var endDate sql.NullTime
	var trainerID sql.NullInt64
	err := scanner.Scan(&m.ID, &m.MembershipNumber, &m.FirstName, &m.LastName, &m.DNI, &m.Email,
		&m.Phone, &m.Address, &m.MembershipType, &m.MembershipStartDate, &endDate, &m.IsActive,
		&trainerID, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		m.MembershipEndDate = &endDate.Time
	}
	if trainerID.Valid {
		m.TrainerID = &trainerID.Int64
	}
	return &m, nil
}

// NextMembershipNumber generates the next "GYM<year><seq>" number, with a
// four-digit sequence restarting each year.
func (s *MemberStore) NextMembershipNumber(year int) (string, error) {
	prefix := fmt.Sprintf("GYM%d", year)
	var last sql.NullString
	err := s.db.QueryRow(
		`SELECT membership_number FROM members WHERE membership_number LIKE ? ORDER BY membership_number DESC LIMIT 1`,
		prefix+"%",
	).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("query last membership number: %w", err)
	}

	next := 1
	if last.Valid {
		if n, err := strconv.Atoi(strings.TrimPrefix(last.String, prefix)); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

type MemberParams struct {
	MembershipNumber    string
	FirstName           string
	LastName            string
	DNI                 string
	Email               string
	Phone               string
	Address             string
	MembershipType      string
	MembershipStartDate time.Time
	MembershipEndDate   *time.Time
	TrainerID           *int64
	Notes               string
}

func (s *MemberStore) Create(p MemberParams) (*model.Member, error) {
	result, err := s.db.Exec(
		`INSERT INTO members (membership_number, first_name, last_name, dni, email, phone, address,
			membership_type, membership_start_date, membership_end_date, trainer_id, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.MembershipNumber, p.FirstName, p.LastName, p.DNI, p.Email, p.Phone, p.Address,
		p.MembershipType, p.MembershipStartDate, p.MembershipEndDate, p.TrainerID, p.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByDNI(dni string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE dni = ?`, dni)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by dni: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByEmail(email string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE email = ?`, email)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	IsActive *bool
	Search   string // matches name, dni, or membership number
}

func (s *MemberStore) List(filter ListFilter) ([]model.Member, error) {
	query := `SELECT ` + memberCols + ` FROM members`
	var conds []string
	var args []any

	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conds = append(conds, "(first_name LIKE ? OR last_name LIKE ? OR dni LIKE ? OR membership_number LIKE ?)")
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like, like)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY last_name, first_name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(id int64, p MemberParams) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET first_name = ?, last_name = ?, dni = ?, email = ?, phone = ?, address = ?,
			membership_type = ?, membership_start_date = ?, membership_end_date = ?, trainer_id = ?,
			notes = ?, updated_at = ?
		 WHERE id = ?`,
		p.FirstName, p.LastName, p.DNI, p.Email, p.Phone, p.Address,
		p.MembershipType, p.MembershipStartDate, p.MembershipEndDate, p.TrainerID,
		p.Notes, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

// SetEndDate updates only the membership end date, the renewal path.
func (s *MemberStore) SetEndDate(id int64, end time.Time) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET membership_end_date = ?, updated_at = ? WHERE id = ?`,
		end, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set member end date: %w", err)
	}
	return s.GetByID(id)
}

// SetActive flips the stored activity flag. Deactivation is the soft
// delete used by the admin screens; rows are only hard-deleted by Delete.
func (s *MemberStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(
		`UPDATE members SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set member active: %w", err)
	}
	return nil
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
