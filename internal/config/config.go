package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/GregMSThompson/ledger-backend/internal/ledger"
)

type Config struct {
	ProjectID       string
	Region          string
	LogLevel        string
	Port            string
	StorageBucket   string
	LedgerMode      string
	PageSize        int
	SessionTTL      time.Duration
	SessionMax      int
	CleanupInterval time.Duration
	TimeZone        string
	MaxReceiptBytes int64
	AllowedOrigins  []string
}

// New reads the environment, after loading a .env file when one is present.
func New() *Config {
	_ = godotenv.Load()

	return &Config{
		ProjectID:       os.Getenv("PROJECTID"),
		Region:          os.Getenv("REGION"),
		LogLevel:        os.Getenv("LOGLEVEL"),
		Port:            getEnv("PORT", "8080"),
		StorageBucket:   os.Getenv("STORAGEBUCKET"),
		LedgerMode:      getEnv("LEDGERMODE", "confirmed"),
		PageSize:        getEnvInt("PAGESIZE", ledger.DefaultPageSize),
		SessionTTL:      getEnvDuration("SESSIONTTL", 30*time.Minute),
		SessionMax:      getEnvInt("SESSIONMAX", 1000),
		CleanupInterval: getEnvDuration("CLEANUPINTERVAL", time.Minute),
		TimeZone:        getEnv("TIMEZONE", "America/Sao_Paulo"),
		MaxReceiptBytes: int64(getEnvInt("MAXRECEIPTBYTES", 10<<20)),
		AllowedOrigins:  splitList(os.Getenv("ALLOWEDORIGINS")),
	}
}

func (c *Config) Validate() error {
	var problems []string

	if c.ProjectID == "" {
		problems = append(problems, "PROJECTID is required")
	}
	if c.StorageBucket == "" {
		problems = append(problems, "STORAGEBUCKET is required")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %q", c.Port))
	}
	if _, err := ledger.ParseMode(c.LedgerMode); err != nil {
		problems = append(problems, err.Error())
	}
	if c.PageSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid page size %d", c.PageSize))
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSIONTTL must be positive")
	}
	if c.SessionMax < 1 {
		problems = append(problems, "SESSIONMAX must be positive")
	}
	if c.CleanupInterval <= 0 {
		problems = append(problems, "CLEANUPINTERVAL must be positive")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid time zone %q", c.TimeZone))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Mode is only meaningful after Validate.
func (c *Config) Mode() ledger.Mode {
	mode, _ := ledger.ParseMode(c.LedgerMode)
	return mode
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ---- Helpers ----

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
