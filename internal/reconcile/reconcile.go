// Package reconcile answers the monthly membership bookkeeping questions:
// who has paid for the current period, who still owes, and what a month's
// collections look like. All functions are pure and tolerate malformed
// records by excluding them rather than failing.
package reconcile

import (
	"sort"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
)

// Aggregate summarizes one calendar month of payments.
type Aggregate struct {
	TotalCollected float64
	PaymentCount   int
	// PendingCount is active members minus distinct payers. It is reported
	// as computed and not clamped: a payment recorded for a member who was
	// later deactivated can drive it negative.
	PendingCount int
}

// inPeriod reports whether t falls in the given calendar month, by local
// calendar rather than a rolling 30-day window. The zero time never
// matches, so records with missing or unparseable dates drop out here.
func inPeriod(t time.Time, month time.Month, year int) bool {
	return !t.IsZero() && t.Year() == year && t.Month() == month
}

// PaidMemberIDs returns the set of member ids with at least one payment in
// the given calendar month. Multiple payments by the same member count once.
func PaidMemberIDs(payments []model.Payment, month time.Month, year int) map[int64]bool {
	paid := make(map[int64]bool)
	for _, p := range payments {
		if inPeriod(p.PaymentDate, month, year) {
			paid[p.MemberID] = true
		}
	}
	return paid
}

// HasPaid reports whether the member has any payment in the given calendar
// month. A member with no payments at all returns false.
func HasPaid(m model.Member, payments []model.Payment, month time.Month, year int) bool {
	return PaidMemberIDs(payments, month, year)[m.ID]
}

// PendingMembers returns the members without a payment in the current
// real-world month, regardless of any reporting period selected elsewhere.
// Together with the paid set it partitions the member list. The front desk
// uses it to populate the "register payment" member picker; an empty result
// disables the action.
func PendingMembers(members []model.Member, payments []model.Payment, now time.Time) []model.Member {
	paid := PaidMemberIDs(payments, now.Month(), now.Year())
	var pending []model.Member
	for _, m := range members {
		if !paid[m.ID] {
			pending = append(pending, m)
		}
	}
	return pending
}

// MonthlyAggregate computes the month's collections. Amounts are already
// parsed defensively at decode time, so a malformed amount contributes zero
// to the total while its payment still counts.
func MonthlyAggregate(payments []model.Payment, members []model.Member, month time.Month, year int) Aggregate {
	var agg Aggregate
	for _, p := range payments {
		if !inPeriod(p.PaymentDate, month, year) {
			continue
		}
		agg.TotalCollected += p.Amount.Float64()
		agg.PaymentCount++
	}

	active := 0
	for _, m := range members {
		if m.IsActive {
			active++
		}
	}
	agg.PendingCount = active - len(PaidMemberIDs(payments, month, year))
	return agg
}

// RenewEndDate extends a membership end date by one calendar month. Plain
// month increment with time.Date normalization: Jan 31 rolls over into
// early March in short months. That mirrors how renewals have always been
// recorded here; the rollover is deliberate, not clamped to month end.
func RenewEndDate(end time.Time) time.Time {
	return time.Date(end.Year(), end.Month()+1, end.Day(),
		end.Hour(), end.Minute(), end.Second(), end.Nanosecond(), end.Location())
}

// UpcomingExpirations returns active members whose membership end date is
// strictly after now and at most window ahead, soonest first. Members
// flagged inactive are excluded even when their end date is close.
func UpcomingExpirations(members []model.Member, now time.Time, window time.Duration) []model.Member {
	var upcoming []model.Member
	cutoff := now.Add(window)
	for _, m := range members {
		if !m.IsActive || m.MembershipEndDate == nil {
			continue
		}
		end := *m.MembershipEndDate
		if end.After(now) && !end.After(cutoff) {
			upcoming = append(upcoming, m)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].MembershipEndDate.Before(*upcoming[j].MembershipEndDate)
	})
	return upcoming
}
