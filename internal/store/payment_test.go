package store

import (
	"strings"
	"testing"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/database"
)

func setupPaymentTestDB(t *testing.T) (*PaymentStore, *MemberStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPaymentStore(db), NewMemberStore(db)
}

func TestPaymentCreate(t *testing.T) {
	ps, ms := setupPaymentTestDB(t)

	m, err := ms.Create(testMemberParams("30111222"))
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	p, err := ps.Create(PaymentParams{
		MemberID:       m.ID,
		Amount:         22000,
		PaymentDate:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		PaymentMethod:  "cash",
		PaymentConcept: "Pago de membresía",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if p.Amount.Float64() != 22000 {
		t.Errorf("amount = %v, want 22000", p.Amount)
	}
	if !strings.HasPrefix(p.InvoiceNumber, "INV-20260310-") {
		t.Errorf("invoice number = %q, want INV-20260310- prefix", p.InvoiceNumber)
	}
	if p.IsVerified {
		t.Error("new payment should not be verified")
	}
}

func TestPaymentListFilters(t *testing.T) {
	ps, ms := setupPaymentTestDB(t)

	m1, err := ms.Create(testMemberParams("30111222"))
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	m2, err := ms.Create(testMemberParams("30333444"))
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	mk := func(memberID int64, method string, day int) {
		t.Helper()
		_, err := ps.Create(PaymentParams{
			MemberID:      memberID,
			Amount:        15000,
			PaymentDate:   time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
			PaymentMethod: method,
		})
		if err != nil {
			t.Fatalf("create payment: %v", err)
		}
	}
	mk(m1.ID, "cash", 5)
	mk(m1.ID, "transfer", 15)
	mk(m2.ID, "cash", 20)

	got, err := ps.List(PaymentFilter{MemberID: m1.ID})
	if err != nil {
		t.Fatalf("list by member: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("member filter: got %d payments, want 2", len(got))
	}
	// Newest first.
	if !got[0].PaymentDate.After(got[1].PaymentDate) {
		t.Error("payments not ordered newest first")
	}

	got, err = ps.List(PaymentFilter{Method: "cash"})
	if err != nil {
		t.Fatalf("list by method: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("method filter: got %d payments, want 2", len(got))
	}

	got, err = ps.List(PaymentFilter{
		From: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(got) != 1 || got[0].PaymentDate.Day() != 15 {
		t.Fatalf("range filter: got %d payments", len(got))
	}
}

func TestPaymentVerifyFlow(t *testing.T) {
	ps, ms := setupPaymentTestDB(t)

	m, err := ms.Create(testMemberParams("30111222"))
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	p, err := ps.Create(PaymentParams{MemberID: m.ID, Amount: 22000, PaymentMethod: "transfer"})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	verified, err := ps.Verify(p.ID, 7)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.IsVerified || verified.VerifiedBy == nil || *verified.VerifiedBy != 7 {
		t.Errorf("verify did not stick: %+v", verified)
	}
	if verified.VerifiedAt == nil {
		t.Error("verified_at not set")
	}

	// A verified payment cannot be deleted.
	if err := ps.Delete(p.ID); err != ErrVerified {
		t.Fatalf("delete verified: err = %v, want ErrVerified", err)
	}

	unverified, err := ps.Unverify(p.ID)
	if err != nil {
		t.Fatalf("unverify: %v", err)
	}
	if unverified.IsVerified || unverified.VerifiedBy != nil || unverified.VerifiedAt != nil {
		t.Errorf("unverify did not clear fields: %+v", unverified)
	}

	if err := ps.Delete(p.ID); err != nil {
		t.Fatalf("delete unverified: %v", err)
	}
	got, err := ps.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("payment still present after delete")
	}
}

func TestPaymentMonthTotal(t *testing.T) {
	ps, ms := setupPaymentTestDB(t)

	m, err := ms.Create(testMemberParams("30111222"))
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	dates := []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), // next month, excluded
	}
	for _, d := range dates {
		p, err := ps.Create(PaymentParams{MemberID: m.ID, Amount: 10000, PaymentDate: d, PaymentMethod: "cash"})
		if err != nil {
			t.Fatalf("create payment: %v", err)
		}
		if _, err := ps.VerifySystem(p.ID); err != nil {
			t.Fatalf("verify payment: %v", err)
		}
	}

	// Unverified payments stay out of the monthly stats.
	if _, err := ps.Create(PaymentParams{
		MemberID: m.ID, Amount: 99999, PaymentMethod: "cash",
		PaymentDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create unverified payment: %v", err)
	}

	total, count, err := ps.MonthTotal(time.March, 2026)
	if err != nil {
		t.Fatalf("month total: %v", err)
	}
	if total != 20000 {
		t.Errorf("total = %v, want 20000", total)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	total, count, err = ps.MonthTotal(time.May, 2026)
	if err != nil {
		t.Fatalf("empty month total: %v", err)
	}
	if total != 0 || count != 0 {
		t.Errorf("empty month = (%v, %d), want (0, 0)", total, count)
	}
}
