package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestHasPaidNoPayments(t *testing.T) {
	m := model.Member{ID: 1}
	if HasPaid(m, nil, time.March, 2025) {
		t.Error("member with no payments should not count as paid")
	}
}

func TestHasPaidMatchingPeriod(t *testing.T) {
	m := model.Member{ID: 1}
	payments := []model.Payment{
		{ID: 10, MemberID: 1, Amount: 15000, PaymentDate: date(2025, time.March, 5)},
	}

	if !HasPaid(m, payments, time.March, 2025) {
		t.Error("payment on 2025-03-05 should cover March 2025")
	}
	if HasPaid(m, payments, time.February, 2025) {
		t.Error("payment on 2025-03-05 should not cover February 2025")
	}
	if HasPaid(m, payments, time.March, 2024) {
		t.Error("period match must compare year, not just month")
	}
}

func TestHasPaidOtherMember(t *testing.T) {
	m := model.Member{ID: 2}
	payments := []model.Payment{
		{ID: 10, MemberID: 1, PaymentDate: date(2025, time.March, 5)},
	}
	if HasPaid(m, payments, time.March, 2025) {
		t.Error("another member's payment should not count")
	}
}

func TestPaidMemberIDsDeduplicates(t *testing.T) {
	payments := []model.Payment{
		{ID: 1, MemberID: 7, PaymentDate: date(2025, time.June, 1)},
		{ID: 2, MemberID: 7, PaymentDate: date(2025, time.June, 20)},
		{ID: 3, MemberID: 8, PaymentDate: date(2025, time.June, 3)},
	}
	paid := PaidMemberIDs(payments, time.June, 2025)
	if len(paid) != 2 {
		t.Errorf("distinct payers = %d, want 2", len(paid))
	}
}

func TestPaidMemberIDsZeroDateExcluded(t *testing.T) {
	payments := []model.Payment{
		{ID: 1, MemberID: 7}, // missing payment date
	}
	for year := 1; year <= 2030; year += 1000 {
		if len(PaidMemberIDs(payments, time.January, year)) != 0 {
			t.Errorf("zero payment date matched period %d", year)
		}
	}
}

func TestPendingMembersPartition(t *testing.T) {
	now := date(2025, time.May, 14)
	members := []model.Member{{ID: 1}, {ID: 2}, {ID: 3}}
	payments := []model.Payment{
		{ID: 1, MemberID: 2, PaymentDate: date(2025, time.May, 2)},
		{ID: 2, MemberID: 3, PaymentDate: date(2025, time.April, 28)}, // previous month
	}

	pending := PendingMembers(members, payments, now)
	paid := PaidMemberIDs(payments, now.Month(), now.Year())

	if len(pending)+len(paid) != len(members) {
		t.Fatalf("pending (%d) + paid (%d) != members (%d)", len(pending), len(paid), len(members))
	}
	for _, m := range pending {
		if paid[m.ID] {
			t.Errorf("member %d is in both pending and paid sets", m.ID)
		}
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d members, want 2 (ids 1 and 3)", len(pending))
	}
}

func TestPendingMembersAllPaid(t *testing.T) {
	now := date(2025, time.May, 14)
	members := []model.Member{{ID: 1}}
	payments := []model.Payment{{ID: 1, MemberID: 1, PaymentDate: now}}
	if got := PendingMembers(members, payments, now); len(got) != 0 {
		t.Errorf("pending = %d, want 0", len(got))
	}
}

func TestMonthlyAggregate(t *testing.T) {
	members := []model.Member{
		{ID: 1, IsActive: true},
		{ID: 2, IsActive: true},
		{ID: 3, IsActive: false},
	}
	payments := []model.Payment{
		{ID: 1, MemberID: 1, Amount: 15000, PaymentDate: date(2025, time.July, 1)},
		{ID: 2, MemberID: 1, Amount: 500, PaymentDate: date(2025, time.July, 15)},
		{ID: 3, MemberID: 2, Amount: 22000, PaymentDate: date(2025, time.June, 30)}, // out of period
	}

	agg := MonthlyAggregate(payments, members, time.July, 2025)
	if agg.TotalCollected != 15500 {
		t.Errorf("TotalCollected = %v, want 15500", agg.TotalCollected)
	}
	if agg.PaymentCount != 2 {
		t.Errorf("PaymentCount = %d, want 2", agg.PaymentCount)
	}
	// 2 active members, 1 distinct payer in July
	if agg.PendingCount != 1 {
		t.Errorf("PendingCount = %d, want 1", agg.PendingCount)
	}
}

func TestMonthlyAggregateIgnoresIrrelevantPayments(t *testing.T) {
	members := []model.Member{{ID: 1, IsActive: true}}
	payments := []model.Payment{
		{ID: 1, MemberID: 1, Amount: 100, PaymentDate: date(2025, time.July, 1)},
	}
	before := MonthlyAggregate(payments, members, time.July, 2025)

	payments = append(payments, model.Payment{ID: 2, MemberID: 1, Amount: 9999, PaymentDate: date(2025, time.August, 1)})
	after := MonthlyAggregate(payments, members, time.July, 2025)

	if before != after {
		t.Errorf("adding an out-of-period payment changed the aggregate: %+v -> %+v", before, after)
	}
}

func TestMonthlyAggregateNegativePending(t *testing.T) {
	// An inactive member who paid anyway drives pending below zero; the
	// value is reported as computed.
	members := []model.Member{{ID: 1, IsActive: false}}
	payments := []model.Payment{
		{ID: 1, MemberID: 1, Amount: 100, PaymentDate: date(2025, time.July, 1)},
	}
	agg := MonthlyAggregate(payments, members, time.July, 2025)
	if agg.PendingCount != -1 {
		t.Errorf("PendingCount = %d, want -1 (unclamped)", agg.PendingCount)
	}
}

func TestMonthlyAggregateMalformedAmount(t *testing.T) {
	var p model.Payment
	if err := json.Unmarshal([]byte(`{"id":1,"member_id":1,"amount":"not-a-number","payment_date":"2025-07-01T00:00:00Z"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	members := []model.Member{{ID: 1, IsActive: true}}
	agg := MonthlyAggregate([]model.Payment{p}, members, time.July, 2025)
	if agg.TotalCollected != 0 {
		t.Errorf("TotalCollected = %v, want 0 for malformed amount", agg.TotalCollected)
	}
	if agg.PaymentCount != 1 {
		t.Errorf("PaymentCount = %d, want 1 (record kept, amount zeroed)", agg.PaymentCount)
	}
}

func TestAmountDecodeVariants(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`15000`, 15000},
		{`15000.50`, 15000.50},
		{`"15000.50"`, 15000.50},
		{`"garbage"`, 0},
		{`null`, 0},
		{`""`, 0},
	}
	for _, tt := range tests {
		var a model.Amount
		if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
			t.Errorf("unmarshal %s: %v", tt.in, err)
			continue
		}
		if a.Float64() != tt.want {
			t.Errorf("amount %s = %v, want %v", tt.in, a.Float64(), tt.want)
		}
	}
}

func TestRenewEndDate(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid-month", date(2025, time.January, 15), date(2025, time.February, 15)},
		{"year rollover", date(2025, time.December, 15), date(2026, time.January, 15)},
		{"jan 31 rolls into march", date(2025, time.January, 31), date(2025, time.March, 3)},
		{"jan 31 leap year", date(2024, time.January, 31), date(2024, time.March, 2)},
		{"oct 31 rolls into december", date(2025, time.October, 31), date(2025, time.December, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenewEndDate(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("RenewEndDate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestUpcomingExpirations(t *testing.T) {
	now := date(2025, time.September, 1)

	members := []model.Member{
		{ID: 1, FirstName: "A", IsActive: true, MembershipEndDate: datePtr(2025, time.September, 6)},  // 5 days out
		{ID: 2, FirstName: "B", IsActive: true, MembershipEndDate: datePtr(2025, time.September, 11)}, // 10 days out
		{ID: 3, FirstName: "C", IsActive: false, MembershipEndDate: datePtr(2025, time.September, 4)}, // inactive
		{ID: 4, FirstName: "D", IsActive: true, MembershipEndDate: datePtr(2025, time.August, 30)},    // already expired
		{ID: 5, FirstName: "E", IsActive: true},                                                       // no end date
		{ID: 6, FirstName: "F", IsActive: true, MembershipEndDate: datePtr(2025, time.September, 3)},  // 2 days out
	}

	got := UpcomingExpirations(members, now, 7*24*time.Hour)
	if len(got) != 2 {
		t.Fatalf("upcoming = %d members, want 2", len(got))
	}
	if got[0].ID != 6 || got[1].ID != 1 {
		t.Errorf("order = [%d %d], want [6 1] (soonest first)", got[0].ID, got[1].ID)
	}
}

func TestUpcomingExpirationsBoundary(t *testing.T) {
	now := date(2025, time.September, 1)
	exactly := now.Add(7 * 24 * time.Hour)
	members := []model.Member{
		{ID: 1, IsActive: true, MembershipEndDate: &exactly},
		{ID: 2, IsActive: true, MembershipEndDate: &now}, // not strictly after now
	}
	got := UpcomingExpirations(members, now, 7*24*time.Hour)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("window boundary handling wrong: got %v", got)
	}
}
