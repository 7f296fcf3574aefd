package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"bioplus/api/internal/ai"
	"bioplus/api/internal/auth"
	"bioplus/api/internal/config"
	"bioplus/api/internal/db"
	"bioplus/api/internal/httpapi"
	"bioplus/api/internal/jobs"
	"bioplus/api/internal/mail"
	"bioplus/api/internal/ratelimit"
	"bioplus/api/internal/repository"
	"bioplus/api/internal/service"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("db migration failed: %v", err)
	}
	store := repository.NewStore(pool)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
	}
	limiter := ratelimit.New(redisClient, "auth:", cfg.AuthRateLimit, cfg.AuthRateWindow)

	var mailer service.Mailer
	if cfg.SMTPHost != "" {
		m, err := mail.New(mail.Config{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUser,
			Password:   cfg.SMTPPassword,
			From:       cfg.MailFrom,
			AppBaseURL: cfg.AppBaseURL,
		})
		if err != nil {
			log.Fatalf("mailer init failed: %v", err)
		}
		mailer = m
	} else {
		log.Printf("smtp not configured; account emails disabled")
	}

	issuer := auth.Issuer{
		Secret:        cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		Issuer:        cfg.JWTIssuer,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}
	aiClient := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAITimeout)
	if !aiClient.Available() {
		log.Printf("openai key not configured; ai endpoints disabled")
	}

	authSvc := service.NewAuthService(store, mailer, issuer)
	adminSvc := service.NewAdminService(store)
	testSvc := service.NewTestService(store)

	jobs.StartTokenPurgeJob(ctx, cfg, store)

	server := httpapi.NewServer(cfg, store, authSvc, adminSvc, testSvc, issuer, aiClient, limiter)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("bioplus api listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
