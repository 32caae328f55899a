package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	active := env.seedMember(t, "28333444", time.Now().UTC().AddDate(0, 1, 0))
	inactive := env.seedMember(t, "30111222", time.Now().UTC().AddDate(0, 1, 0))
	if err := env.members.SetActive(inactive, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// One payment this month
	payRec := httptest.NewRecorder()
	env.paymentH.Create(payRec, jsonRequest("POST", "/api/payments", map[string]any{
		"member_id":      active,
		"amount":         15000,
		"payment_method": "cash",
	}))
	if payRec.Code != http.StatusCreated {
		t.Fatalf("create payment: %s", payRec.Body.String())
	}

	rec := httptest.NewRecorder()
	env.dashboardH.Stats(rec, httptest.NewRequest("GET", "/api/dashboard/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var stats struct {
		TotalMembers    int     `json:"total_members"`
		ActiveMembers   int     `json:"active_members"`
		InactiveMembers int     `json:"inactive_members"`
		MonthlyRevenue  float64 `json:"monthly_revenue"`
	}
	decodeBody(t, rec, &stats)
	if stats.TotalMembers != 2 || stats.ActiveMembers != 1 || stats.InactiveMembers != 1 {
		t.Errorf("member counts = %+v, want 2/1/1", stats)
	}
	if stats.MonthlyRevenue != 15000 {
		t.Errorf("monthly revenue = %v, want 15000", stats.MonthlyRevenue)
	}
}

func TestRecentActivity(t *testing.T) {
	env := newTestEnv(t)
	env.feed.AddNewMember("Lucía Fernández")
	env.feed.AddPayment("Lucía Fernández", 15000)

	rec := httptest.NewRecorder()
	env.dashboardH.RecentActivity(rec, httptest.NewRequest("GET", "/api/dashboard/recent-activity?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var entries []activityEntry
	decodeBody(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Amount != 15000 {
		t.Errorf("most recent entry = %+v, want the payment", entries[0])
	}
	if entries[0].TimeAgo == "" {
		t.Error("time_ago missing")
	}
}
