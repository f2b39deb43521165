package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	authgate "github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/filestore"
	"github.com/MrEthical07/authgate/httpapi"
	"github.com/MrEthical07/authgate/mail"
	"github.com/MrEthical07/authgate/store/gormstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("authgate: %v", err)
	}
}

func run() error {
	// Missing .env is fine in containerized deployments where the
	// environment is injected directly.
	_ = godotenv.Load()

	cfg := authgate.DefaultConfig()
	cfg.JWT.AccessSecret = []byte(mustEnv("JWT_ACCESS_SECRET"))
	cfg.JWT.RefreshSecret = []byte(mustEnv("JWT_REFRESH_SECRET"))
	cfg.Security.ProductionMode = os.Getenv("APP_ENV") == "production"
	cfg.Cookie.Secure = cfg.Security.ProductionMode
	cfg.Mail.VerificationURLBase = mustEnv("VERIFICATION_URL_BASE")
	cfg.Mail.SSORedirectURLBase = os.Getenv("SSO_REDIRECT_URL_BASE")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer redisClient.Close()

	db, err := gorm.Open(mysql.Open(mustEnv("MYSQL_DSN")), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}

	store, err := gormstore.New(db)
	if err != nil {
		return err
	}

	var mailer authgate.Mailer
	if host := os.Getenv("SMTP_HOST"); host != "" {
		mailer, err = mail.NewSMTPMailer(mail.Config{
			Host:     host,
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     mustEnv("SMTP_FROM"),
			AppName:  envOr("APP_NAME", "authgate"),
		})
		if err != nil {
			return err
		}
	} else {
		log.Print("authgate: SMTP_HOST not set, outbound mail will be logged only")
		mailer = mail.LogMailer{}
	}

	var files authgate.FileStore
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		files, err = filestore.NewS3Store(context.Background(), filestore.S3Config{
			Region:        envOr("S3_REGION", "us-east-1"),
			Bucket:        bucket,
			AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("S3_SECRET_KEY"),
			BaseEndpoint:  os.Getenv("S3_ENDPOINT"),
			PublicURLBase: os.Getenv("S3_PUBLIC_URL_BASE"),
		})
	} else {
		files, err = filestore.NewDiskStore(envOr("AVATAR_DIR", "./data/avatars"), envOr("AVATAR_URL_BASE", "/static/avatars"))
	}
	if err != nil {
		return err
	}

	engine, err := authgate.NewBuilder().
		WithConfig(cfg).
		WithRedis(redisClient).
		WithAccountStore(store).
		WithMailer(mailer).
		WithFileStore(files).
		WithAuditSink(authgate.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	handler := httpapi.New(engine, httpapi.Config{
		Cookie:             cfg.Cookie,
		AccessTTL:          cfg.JWT.AccessTTL,
		RefreshTTL:         cfg.JWT.RefreshTTL,
		SSORedirectURLBase: cfg.Mail.SSORedirectURLBase,
		Google: httpapi.GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
	})

	server := &http.Server{
		Addr:              envOr("HTTP_ADDR", ":8080"),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("authgate: listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stop:
		log.Print("authgate: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("authgate: %s is required", key)
	}
	return value
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("authgate: %s must be an integer", key)
	}
	return parsed
}
