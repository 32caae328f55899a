package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/backup"
	"github.com/TomiRonco/gym-pro-sub000/internal/database"
	"github.com/TomiRonco/gym-pro-sub000/internal/email"
	"github.com/TomiRonco/gym-pro-sub000/internal/logging"
	"github.com/TomiRonco/gym-pro-sub000/internal/push"
	"github.com/TomiRonco/gym-pro-sub000/internal/server"
	"github.com/TomiRonco/gym-pro-sub000/internal/stripe"
)

func main() {
	port := os.Getenv("GYMPRO_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("GYMPRO_DB_PATH")
	if dbPath == "" {
		dbPath = "gympro.db"
	}

	jwtSecret := os.Getenv("GYMPRO_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("GYMPRO_JWT_SECRET is required")
	}

	logger := logging.Setup(os.Getenv("GYMPRO_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		JWTSecret: jwtSecret,
		Backup: backup.Config{
			DBPath: dbPath,
			S3: backup.S3Config{
				Endpoint:  os.Getenv("GYMPRO_S3_ENDPOINT"),
				Bucket:    os.Getenv("GYMPRO_S3_BUCKET"),
				Region:    os.Getenv("GYMPRO_S3_REGION"),
				AccessKey: os.Getenv("GYMPRO_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("GYMPRO_S3_SECRET_KEY"),
			},
		},
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("GYMPRO_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("GYMPRO_VAPID_PRIVATE_KEY"),
		},
		Stripe: stripe.Config{
			SecretKey:     os.Getenv("GYMPRO_STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("GYMPRO_STRIPE_WEBHOOK_SECRET"),
			Currency:      os.Getenv("GYMPRO_STRIPE_CURRENCY"),
			SuccessURL:    os.Getenv("GYMPRO_STRIPE_SUCCESS_URL"),
			CancelURL:     os.Getenv("GYMPRO_STRIPE_CANCEL_URL"),
		},
	}

	emailClient := email.NewClient(
		os.Getenv("GYMPRO_POSTMARK_TOKEN"),
		os.Getenv("GYMPRO_EMAIL_FROM"),
		os.Getenv("GYMPRO_GYM_NAME"),
	)

	srv := server.New(db, cfg, emailClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
	}

	// Drop stale rate limiter buckets every few minutes
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Gym Pro running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	cancel()
	srv.BackupManager().Stop()
	if sched := srv.PushScheduler(); sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
