package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

// ErrVerified is returned when deleting a verified payment; it has to be
// unverified first.
var ErrVerified = errors.New("payment is verified")

type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

const paymentCols = `id, member_id, amount, payment_date, payment_method, payment_concept,
	description, invoice_number, is_verified, verified_by, verified_at, created_at`

func scanPayment(scanner interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	var verifiedBy sql.NullInt64
	var verifiedAt sql.NullTime
	err := scanner.Scan(&p.ID, &p.MemberID, &p.Amount, &p.PaymentDate, &p.PaymentMethod,
		&p.PaymentConcept, &p.Description, &p.InvoiceNumber, &p.IsVerified, &verifiedBy,
		&verifiedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if verifiedBy.Valid {
		p.VerifiedBy = &verifiedBy.Int64
	}
	if verifiedAt.Valid {
		p.VerifiedAt = &verifiedAt.Time
	}
	return &p, nil
}

type PaymentParams struct {
	MemberID       int64
	Amount         float64
	PaymentDate    time.Time
	PaymentMethod  string
	PaymentConcept string
	Description    string
}

func (s *PaymentStore) Create(p PaymentParams) (*model.Payment, error) {
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now().UTC()
	}
	invoice := fmt.Sprintf("INV-%s-%s", p.PaymentDate.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))

	result, err := s.db.Exec(
		`INSERT INTO payments (member_id, amount, payment_date, payment_method, payment_concept, description, invoice_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.MemberID, p.Amount, p.PaymentDate, p.PaymentMethod, p.PaymentConcept, p.Description, invoice,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PaymentStore) GetByID(id int64) (*model.Payment, error) {
	row := s.db.QueryRow(`SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// PaymentFilter narrows List results. Nil and zero values mean "no filter".
type PaymentFilter struct {
	MemberID   int64
	IsVerified *bool
	Method     string
	From       time.Time
	To         time.Time
}

func (s *PaymentStore) List(filter PaymentFilter) ([]model.Payment, error) {
	query := `SELECT ` + paymentCols + ` FROM payments`
	var conds []string
	var args []any

	if filter.MemberID != 0 {
		conds = append(conds, "member_id = ?")
		args = append(args, filter.MemberID)
	}
	if filter.IsVerified != nil {
		conds = append(conds, "is_verified = ?")
		args = append(args, *filter.IsVerified)
	}
	if filter.Method != "" {
		conds = append(conds, "payment_method = ?")
		args = append(args, filter.Method)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "payment_date >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conds = append(conds, "payment_date <= ?")
		args = append(args, filter.To)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY payment_date DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (s *PaymentStore) Verify(id, userID int64) (*model.Payment, error) {
	_, err := s.db.Exec(
		`UPDATE payments SET is_verified = 1, verified_by = ?, verified_at = ? WHERE id = ?`,
		userID, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	return s.GetByID(id)
}

// VerifySystem marks a payment verified without a verifying user. Used for
// payments confirmed by the payment processor rather than by staff.
func (s *PaymentStore) VerifySystem(id int64) (*model.Payment, error) {
	_, err := s.db.Exec(
		`UPDATE payments SET is_verified = 1, verified_by = NULL, verified_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	return s.GetByID(id)
}

func (s *PaymentStore) Unverify(id int64) (*model.Payment, error) {
	_, err := s.db.Exec(
		`UPDATE payments SET is_verified = 0, verified_by = NULL, verified_at = NULL WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("unverify payment: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes an unverified payment. Verified payments are part of the
// books; they return ErrVerified.
func (s *PaymentStore) Delete(id int64) error {
	p, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	if p.IsVerified {
		return ErrVerified
	}
	if _, err := s.db.Exec(`DELETE FROM payments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// MonthTotal sums verified payment amounts in the given calendar month.
// Unverified payments stay out of the stats until staff confirms them.
func (s *PaymentStore) MonthTotal(month time.Month, year int) (float64, int, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var total sql.NullFloat64
	var count int
	err := s.db.QueryRow(
		`SELECT SUM(amount), COUNT(*) FROM payments
		 WHERE is_verified = 1 AND payment_date >= ? AND payment_date < ?`,
		start, end,
	).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("month total: %w", err)
	}
	return total.Float64, count, nil
}
