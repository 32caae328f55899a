// Package activity keeps a small in-memory feed of recent front-desk
// events for the dashboard panel. It is never persisted and never loaded
// from the backend; a restart starts it empty.
package activity

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates activity entries. Keep the switches in Icon and Label
// exhaustive when adding a kind.
type Kind int

const (
	KindNewMember Kind = iota
	KindPayment
	KindCheckIn
)

// Icon returns the emoji shown next to the entry.
func (k Kind) Icon() string {
	switch k {
	case KindNewMember:
		return "🆕"
	case KindPayment:
		return "💵"
	case KindCheckIn:
		return "🏋️"
	}
	return "•"
}

// Label returns the short tag for the entry type.
func (k Kind) Label() string {
	switch k {
	case KindNewMember:
		return "nuevo socio"
	case KindPayment:
		return "pago"
	case KindCheckIn:
		return "check-in"
	}
	return "actividad"
}

// Record is one feed entry. Amount is only meaningful for KindPayment.
type Record struct {
	ID          string
	Kind        Kind
	Subject     string
	Description string
	Amount      float64
	Timestamp   time.Time
}

const capacity = 20

// Feed is a bounded most-recent-first activity list. Safe for concurrent
// use; appends are O(1) with truncation past the capacity of 20.
type Feed struct {
	mu      sync.Mutex
	entries []Record
	seq     uint64
	now     func() time.Time
}

func NewFeed() *Feed {
	return &Feed{now: time.Now}
}

// Add prepends a record and drops anything past the capacity. The generated
// id stays unique across same-millisecond appends: a per-feed sequence
// plus a random tiebreaker.
func (f *Feed) Add(kind Kind, subject, description string, amount float64) Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	rec := Record{
		ID:          fmt.Sprintf("%d-%s", f.seq, uuid.NewString()[:8]),
		Kind:        kind,
		Subject:     subject,
		Description: description,
		Amount:      amount,
		Timestamp:   f.now(),
	}

	f.entries = append([]Record{rec}, f.entries...)
	if len(f.entries) > capacity {
		f.entries = f.entries[:capacity]
	}
	return rec
}

// AddNewMember records a member registration.
func (f *Feed) AddNewMember(memberName string) Record {
	return f.Add(KindNewMember, memberName, "Nuevo socio registrado", 0)
}

// AddPayment records a membership payment.
func (f *Feed) AddPayment(memberName string, amount float64) Record {
	return f.Add(KindPayment, memberName, fmt.Sprintf("Pago de membresía - $%.2f", amount), amount)
}

// AddCheckIn records a gym check-in.
func (f *Feed) AddCheckIn(memberName string) Record {
	return f.Add(KindCheckIn, memberName, "Check-in en el gimnasio", 0)
}

// Recent returns up to n entries, most recent first.
func (f *Feed) Recent(n int) []Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n > len(f.entries) {
		n = len(f.entries)
	}
	out := make([]Record, n)
	copy(out, f.entries[:n])
	return out
}

// Len returns the number of retained entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Clear empties the feed, e.g. on logout.
func (f *Feed) Clear() {
	f.mu.Lock()
	f.entries = nil
	f.mu.Unlock()
}

// TimeAgo formats the age of a record for display: minutes under an hour,
// whole hours otherwise.
func TimeAgo(now, t time.Time) string {
	mins := int(now.Sub(t).Minutes())
	if mins < 1 {
		mins = 0
	}
	if mins < 60 {
		return fmt.Sprintf("hace %d min", mins)
	}
	return fmt.Sprintf("hace %d h", mins/60)
}
