// gymwatch is a front-desk console: it logs into a running gym server,
// keeps dashboard stats refreshed, and mirrors live events from the
// websocket feed.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/dashboard"
	"github.com/TomiRonco/gym-pro-sub000/internal/gateway"
	"github.com/TomiRonco/gym-pro-sub000/internal/logging"
)

func main() {
	serverURL := os.Getenv("GYMPRO_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	username := os.Getenv("GYMPRO_USERNAME")
	password := os.Getenv("GYMPRO_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("GYMPRO_USERNAME and GYMPRO_PASSWORD are required")
	}

	logger := logging.Setup(os.Getenv("GYMPRO_LOG_LEVEL"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw := gateway.New(serverURL)
	if err := gw.Login(ctx, username, password); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	feed := activity.NewFeed()
	agg := dashboard.New(gw, feed, logger.With("component", "dashboard"))
	agg.Start(ctx)
	defer agg.Stop()

	go followEvents(ctx, serverURL, gw.Token(), feed, logger)

	printStats(agg, feed)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			printStats(agg, feed)
		case <-quit:
			fmt.Println("\nBye")
			return
		}
	}
}

// event mirrors the hub's broadcast message shape.
type event struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id"`
	Extra  map[string]any `json:"extra"`
}

// followEvents keeps a websocket connection to the server, feeding live
// events into the activity log. It reconnects with a flat delay.
func followEvents(ctx context.Context, serverURL, token string, feed *activity.Feed, logger *slog.Logger) {
	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws"
	header := http.Header{"Authorization": {"Bearer " + token}}

	for ctx.Err() == nil {
		conn, _, err := ws.Dial(ctx, wsURL, &ws.DialOptions{
			HTTPHeader: header,
		})
		if err != nil {
			logger.Warn("websocket dial failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for {
			var ev event
			if err := wsjson.Read(ctx, conn, &ev); err != nil {
				conn.Close(ws.StatusNormalClosure, "")
				break
			}
			apply(feed, ev)
		}
	}
}

func apply(feed *activity.Feed, ev event) {
	name, _ := ev.Extra["member_name"].(string)
	if name == "" {
		name = fmt.Sprintf("socio #%v", ev.Extra["member_id"])
	}
	switch {
	case ev.Entity == "member" && ev.Action == "created":
		feed.AddNewMember(name)
	case ev.Entity == "payment" && ev.Action == "created":
		amount, _ := ev.Extra["amount"].(float64)
		feed.AddPayment(name, amount)
	case ev.Entity == "attendance" && ev.Action == "checked_in":
		feed.AddCheckIn(name)
	}
}

func printStats(agg *dashboard.Aggregator, feed *activity.Feed) {
	s := agg.Stats()
	fmt.Printf("\n== %s ==\n", s.MonthLabel)
	fmt.Printf("Socios: %d (%d activos, %d inactivos)\n", s.TotalMembers, s.ActiveMembers, s.InactiveMembers)
	fmt.Printf("Recaudado en el mes: $%.2f\n", s.MonthlyRevenue)
	if s.PendingPayment > 0 {
		fmt.Printf("Socios sin pagar este mes: %d\n", s.PendingPayment)
	} else {
		fmt.Println("Pagos al día, nadie pendiente este mes")
	}
	if len(s.Upcoming) > 0 {
		fmt.Printf("Vencimientos próximos (%d):\n", len(s.Upcoming)+s.UpcomingOverflow)
		for _, m := range s.Upcoming {
			fmt.Printf("  - %s (%s)\n", m.FullName(), m.MembershipEndDate.Format("02/01"))
		}
		if s.UpcomingOverflow > 0 {
			fmt.Printf("  … y %d más\n", s.UpcomingOverflow)
		}
	}

	now := time.Now()
	for _, rec := range feed.Recent(5) {
		fmt.Printf("%s %s %s (%s)\n", rec.Kind.Icon(), rec.Subject, rec.Description, activity.TimeAgo(now, rec.Timestamp))
	}
}
