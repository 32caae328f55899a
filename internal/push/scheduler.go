package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/email"
	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/reconcile"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
)

const defaultReminderDays = 7

// Scheduler periodically checks for memberships about to expire and notifies
// subscribed staff devices. Each member/end-date pair is notified once; the
// sent log survives restarts.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	email    *email.Client
	push     *store.PushStore
	members  *store.MemberStore
	settings *store.SettingsStore
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a notification scheduler.
func NewScheduler(svc *Service, emailClient *email.Client, pushStore *store.PushStore, memberStore *store.MemberStore, settingsStore *store.SettingsStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		email:    emailClient,
		push:     pushStore,
		members:  memberStore,
		settings: settingsStore,
		logger:   logger,
		interval: time.Hour,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	if !s.remindersEnabled() {
		return
	}
	s.checkExpiringMemberships()
}

func (s *Scheduler) remindersEnabled() bool {
	notif, err := s.settings.GetNotificationSettings()
	if err != nil {
		s.logger.Error("push scheduler: notification settings", "error", err)
		return false
	}
	return notif["expiry_reminder_enabled"] != "false"
}

func (s *Scheduler) reminderWindow() time.Duration {
	notif, err := s.settings.GetNotificationSettings()
	if err != nil {
		return defaultReminderDays * 24 * time.Hour
	}
	days, err := strconv.Atoi(notif["expiry_reminder_days"])
	if err != nil || days < 1 {
		days = defaultReminderDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func (s *Scheduler) checkExpiringMemberships() {
	now := time.Now().UTC()

	members, err := s.members.List(store.ListFilter{})
	if err != nil {
		s.logger.Error("push scheduler: list members", "error", err)
		return
	}

	expiring := reconcile.UpcomingExpirations(members, now, s.reminderWindow())
	if len(expiring) == 0 {
		return
	}

	subs, err := s.push.ListAll()
	if err != nil {
		s.logger.Error("push scheduler: list subscriptions", "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	for _, m := range expiring {
		refID := fmt.Sprintf("member-%d-%s", m.ID, m.MembershipEndDate.Format("2006-01-02"))
		sent, err := s.push.WasSent(model.NotifTypeExpiringMembership, refID)
		if err != nil {
			s.logger.Error("push scheduler: check sent", "error", err)
			continue
		}
		if sent {
			continue
		}

		days := int(m.MembershipEndDate.Sub(now).Hours() / 24)
		body := fmt.Sprintf("La membresía de %s vence en %d días", m.FullName(), days)
		if days <= 1 {
			body = fmt.Sprintf("La membresía de %s vence mañana", m.FullName())
		}
		payload := Payload{
			Title: "Membresía por vencer",
			Body:  body,
			URL:   fmt.Sprintf("/members/%d", m.ID),
			Tag:   refID,
		}

		for _, sub := range subs {
			if err := s.service.Send(&sub, payload); err != nil {
				if errors.Is(err, ErrExpired) {
					s.push.DeleteByEndpoint(sub.Endpoint)
				} else {
					s.logger.Error("push scheduler: send reminder", "error", err)
				}
			}
		}

		if s.email != nil && s.email.Configured() && m.Email != "" {
			if err := s.email.SendExpiryNotice(m.Email, m.FullName(), *m.MembershipEndDate, days); err != nil {
				s.logger.Error("push scheduler: expiry email", "error", err, "member_id", m.ID)
			}
		}

		if err := s.push.RecordSent(model.NotifTypeExpiringMembership, refID); err != nil {
			s.logger.Error("push scheduler: record sent", "error", err)
		}
	}
}

// SendPaymentNotification notifies subscribed devices that a payment was
// recorded. Called from the payment handler, not from the scheduler.
func (s *Scheduler) SendPaymentNotification(memberName string, amount float64) {
	subs, err := s.push.ListAll()
	if err != nil {
		s.logger.Error("push: payment notification list subs", "error", err)
		return
	}

	payload := Payload{
		Title: "Pago registrado",
		Body:  fmt.Sprintf("%s pagó $%.2f", memberName, amount),
		URL:   "/payments",
		Tag:   "payment-received",
	}

	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				s.logger.Error("push: send payment notification", "error", err)
			}
		}
	}
}
