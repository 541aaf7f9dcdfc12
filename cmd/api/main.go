package main

import (
	"flag"
	"log"
	"time"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/api"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/auth"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/config"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/database"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/i18n"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/mail"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/registration"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/storage"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/store"
)

const version = "1.0.0"

func initializeAPI(configPath string) (*api.Api, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := i18n.Load("strings", cfg.Locale); err != nil {
		log.Printf("Warning: %v, responses will carry message keys", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	dataStore := store.New(db, cfg.Database.Driver, time.Duration(cfg.Activation.TTL)*time.Second)

	blocklist := auth.NewBlocklist()
	tokens := auth.NewTokenManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTTL)*time.Second,
		time.Duration(cfg.JWT.RefreshTTL)*time.Second,
		cfg.JWT.AdminUserID,
		blocklist,
		cfg.JWT.BlocklistAccess,
		cfg.JWT.BlocklistRefresh,
	)
	authService := auth.NewService(dataStore, tokens)

	mailer, err := mail.NewMailgun(
		cfg.Mailgun.Domain,
		cfg.Mailgun.APIKey,
		cfg.Mailgun.FromTitle,
		cfg.Mailgun.FromEmail,
		time.Duration(cfg.Mailgun.Timeout)*time.Second,
	)
	if err != nil {
		return nil, err
	}
	workflow := registration.New(dataStore, mailer, cfg.PublicURL)

	images, err := storage.NewImageStore(
		cfg.Storage.Endpoint,
		cfg.Storage.Region,
		cfg.Storage.Bucket,
		cfg.Storage.AccessKeyID,
		cfg.Storage.SecretAccessKey,
	)
	if err != nil {
		return nil, err
	}

	return api.NewApi(*cfg, dataStore, authService, tokens, workflow, images)
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting Stores REST API v%s with config: %s", version, *configPath)

	api, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	api.Serve()
}
