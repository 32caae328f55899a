package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/database"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
	"github.com/TomiRonco/gym-pro-sub000/internal/websocket"
)

// testEnv bundles the stores and handlers under test, all sharing one
// in-memory database.
type testEnv struct {
	db          *sql.DB
	members     *store.MemberStore
	payments    *store.PaymentStore
	attendance  *store.AttendanceStore
	users       *store.UserStore
	feed        *activity.Feed
	memberH     *MemberHandler
	paymentH    *PaymentHandler
	attendanceH *AttendanceHandler
	dashboardH  *DashboardHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := websocket.NewHub(logger)
	feed := activity.NewFeed()

	env := &testEnv{
		db:         db,
		members:    store.NewMemberStore(db),
		payments:   store.NewPaymentStore(db),
		attendance: store.NewAttendanceStore(db),
		users:      store.NewUserStore(db),
		feed:       feed,
	}
	env.memberH = NewMemberHandler(env.members, feed, hub, logger)
	env.paymentH = NewPaymentHandler(env.payments, env.members, feed, hub, logger)
	env.attendanceH = NewAttendanceHandler(env.attendance, env.members, feed, hub, logger)
	env.dashboardH = NewDashboardHandler(env.members, env.payments, feed, logger)
	return env
}

// seedMember inserts a member directly through the store, active through the
// given end date.
func (env *testEnv) seedMember(t *testing.T, dni string, end time.Time) int64 {
	t.Helper()
	m, err := env.members.Create(store.MemberParams{
		MembershipNumber:    "GYM2026" + dni[len(dni)-4:],
		FirstName:           "Marta",
		LastName:            "Pereyra",
		DNI:                 dni,
		Email:               dni + "@example.com",
		MembershipType:      "Completo",
		MembershipStartDate: time.Now().UTC().AddDate(0, -1, 0),
		MembershipEndDate:   &end,
	})
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return m.ID
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
