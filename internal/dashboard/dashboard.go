// Package dashboard turns member and payment snapshots into the numbers the
// overview screen shows, refreshing them on a timer and whenever a payment
// just happened.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/reconcile"
)

const (
	expirationWindow = 7 * 24 * time.Hour
	upcomingShown    = 5

	activityPollInterval = 10 * time.Second
	monthCheckInterval   = time.Minute
	fullRefreshInterval  = 5 * time.Minute
)

// Stats is the display-ready dashboard snapshot. Derived, never persisted.
type Stats struct {
	TotalMembers    int            `json:"total_members"`
	ActiveMembers   int            `json:"active_members"`
	InactiveMembers int            `json:"inactive_members"`
	MonthLabel      string         `json:"month_label"`
	MonthlyRevenue  float64        `json:"monthly_revenue"`
	Upcoming        []model.Member `json:"upcoming_expirations"`
	// UpcomingOverflow counts expirations beyond the first five shown.
	UpcomingOverflow int `json:"upcoming_overflow"`
	// PendingPayment counts members without a payment this month; zero
	// means the payment picker has nobody to offer.
	PendingPayment int `json:"pending_payment"`
}

var spanishMonths = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthLabel formats a month/year heading the way the overview screen
// displays it.
func MonthLabel(month time.Month, year int) string {
	return spanishMonths[month-1] + " " + time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}

// Compute builds Stats from full member and payment snapshots. Member
// activity partitioning uses the stored IsActive flag; revenue covers the
// current real-world month.
func Compute(members []model.Member, payments []model.Payment, now time.Time) Stats {
	stats := Stats{
		TotalMembers: len(members),
		MonthLabel:   MonthLabel(now.Month(), now.Year()),
	}

	for _, m := range members {
		if m.IsActive {
			stats.ActiveMembers++
		} else {
			stats.InactiveMembers++
		}
	}

	agg := reconcile.MonthlyAggregate(payments, members, now.Month(), now.Year())
	stats.MonthlyRevenue = agg.TotalCollected
	stats.PendingPayment = len(reconcile.PendingMembers(members, payments, now))

	upcoming := reconcile.UpcomingExpirations(members, now, expirationWindow)
	if len(upcoming) > upcomingShown {
		stats.UpcomingOverflow = len(upcoming) - upcomingShown
		upcoming = upcoming[:upcomingShown]
	}
	stats.Upcoming = upcoming

	return stats
}

// Source lists the snapshots the aggregator works from. The remote data
// gateway satisfies it.
type Source interface {
	ListMembers(ctx context.Context) ([]model.Member, error)
	ListPayments(ctx context.Context) ([]model.Payment, error)
}

// Aggregator keeps Stats current. Refresh triggers: startup, a payment
// activity record less than ten seconds old, calendar month rollover
// (checked each minute), and a five-minute full refresh. Refreshes can
// overlap when the backend is slow; each one carries a generation token and
// only the latest issued generation commits, so a stale in-flight response
// is discarded instead of clobbering newer data.
type Aggregator struct {
	source Source
	feed   *activity.Feed
	logger *slog.Logger
	now    func() time.Time

	gen atomic.Uint64

	mu            sync.Mutex
	stats         Stats
	lastMonth     time.Month
	lastYear      int
	lastPaymentID string

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an aggregator over the given source. The feed may be nil when
// no activity panel is wired in.
func New(source Source, feed *activity.Feed, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		feed:   feed,
		logger: logger,
		now:    time.Now,
	}
}

// Stats returns the latest committed snapshot.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Refresh fetches fresh snapshots and commits them if no newer refresh has
// been issued meanwhile. A listing failure commits zeroed stats rather than
// leaving stale numbers up; the error is logged, not returned, so the
// dashboard stays usable.
func (a *Aggregator) Refresh(ctx context.Context) {
	gen := a.gen.Add(1)
	now := a.now()

	members, err := a.source.ListMembers(ctx)
	if err != nil {
		a.logger.Warn("dashboard refresh: list members", "error", err)
		a.commit(gen, Stats{MonthLabel: MonthLabel(now.Month(), now.Year())}, now)
		return
	}
	payments, err := a.source.ListPayments(ctx)
	if err != nil {
		a.logger.Warn("dashboard refresh: list payments", "error", err)
		a.commit(gen, Stats{MonthLabel: MonthLabel(now.Month(), now.Year())}, now)
		return
	}

	a.commit(gen, Compute(members, payments, now), now)
}

func (a *Aggregator) commit(gen uint64, stats Stats, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen.Load() {
		// A newer refresh was issued while this one was in flight.
		return
	}
	a.stats = stats
	a.lastMonth = now.Month()
	a.lastYear = now.Year()
}

// Start performs the initial refresh and launches the timer loop. Stop must
// be called on teardown so no tick fires against a dead view.
func (a *Aggregator) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})

	a.Refresh(ctx)

	go func() {
		defer close(a.done)

		activityTicker := time.NewTicker(activityPollInterval)
		monthTicker := time.NewTicker(monthCheckInterval)
		fullTicker := time.NewTicker(fullRefreshInterval)
		defer activityTicker.Stop()
		defer monthTicker.Stop()
		defer fullTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-activityTicker.C:
				if a.recentPayment() {
					go a.Refresh(ctx)
				}
			case <-monthTicker.C:
				if a.monthRolledOver() {
					go a.Refresh(ctx)
				}
			case <-fullTicker.C:
				go a.Refresh(ctx)
			}
		}
	}()
}

// Stop cancels the timer loop and waits for it to exit.
func (a *Aggregator) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.done != nil {
		<-a.done
	}
}

// recentPayment reports whether a payment activity record landed within the
// poll window and has not triggered a refresh yet. A cheap poll, not a push
// mechanism.
func (a *Aggregator) recentPayment() bool {
	if a.feed == nil {
		return false
	}
	now := a.now()
	for _, rec := range a.feed.Recent(5) {
		if rec.Kind != activity.KindPayment {
			continue
		}
		if now.Sub(rec.Timestamp) > activityPollInterval {
			continue
		}
		a.mu.Lock()
		fresh := rec.ID != a.lastPaymentID
		if fresh {
			a.lastPaymentID = rec.ID
		}
		a.mu.Unlock()
		return fresh
	}
	return false
}

// monthRolledOver compares the wall-clock month against the last committed
// one; crossing a month boundary forces a reload so "this month" numbers
// reset.
func (a *Aggregator) monthRolledOver() bool {
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastYear != 0 && (now.Month() != a.lastMonth || now.Year() != a.lastYear)
}
