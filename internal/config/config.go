// Package config loads service settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify/email"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify/event"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/password"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/phone"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

const DefaultHTTPAddr = "0.0.0.0:8431"

type JWT struct {
	Secret           string
	TTL              time.Duration
	Issuer           string
	AllowShortSecret bool
}

type Config struct {
	HTTPAddr      string
	Log           utilities.Config
	Database      database.Config
	JWT           JWT
	BcryptCost    int
	PhoneRegion   string
	SMTP          email.Config
	RedisURL      string
	EventChannel  string
	Dispatch      notify.Options
	RequireActive bool
	SnowflakeNode int64
}

// Load reads .env when present, then the process environment. Every
// malformed value is reported, not just the first. On error the returned
// Config still holds the defaults so callers can set up logging.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		HTTPAddr: getenvDefault("HTTP_ADDR", DefaultHTTPAddr),
		Log:      utilities.ConfigFromEnv(),
		Database: database.ConfigFromEnv(),
		JWT: JWT{
			Secret:           os.Getenv("JWT_SECRET"),
			TTL:              p.duration("JWT_TTL", token.DefaultTTL),
			Issuer:           os.Getenv("JWT_ISSUER"),
			AllowShortSecret: p.bool("JWT_ALLOW_SHORT_SECRET", false),
		},
		BcryptCost:  p.int("BCRYPT_COST", password.DefaultCost),
		PhoneRegion: strings.ToUpper(getenvDefault("PHONE_REGION", phone.DefaultRegion)),
		SMTP: email.Config{
			Host:           os.Getenv("SMTP_HOST"),
			Port:           p.int("SMTP_PORT", 587),
			Username:       os.Getenv("SMTP_USERNAME"),
			Password:       os.Getenv("SMTP_PASSWORD"),
			From:           os.Getenv("SMTP_FROM"),
			ActivationLink: os.Getenv("ACTIVATION_LINK"),
		},
		RedisURL:     os.Getenv("REDIS_URL"),
		EventChannel: getenvDefault("EVENT_CHANNEL", event.DefaultChannel),
		Dispatch: notify.Options{
			Workers:   p.int("DISPATCH_WORKERS", notify.DefaultWorkers),
			QueueSize: p.int("DISPATCH_QUEUE", notify.DefaultQueueSize),
			Timeout:   p.duration("DISPATCH_TIMEOUT", notify.DefaultTimeout),
		},
		RequireActive: p.bool("AUTH_REQUIRE_ACTIVE", false),
		SnowflakeNode: utilities.NodeIDFromEnv(),
	}
	if cfg.JWT.Secret == "" {
		p.errs = append(p.errs, errors.New("JWT_SECRET is required"))
	}
	if err := errors.Join(p.errs...); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// parser collects conversion errors so Load can report them together.
type parser struct {
	errs []error
}

func (p *parser) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
