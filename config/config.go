package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds application configuration
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Auth         AuthConfig
	SLA          SLAConfig
	Notification NotificationConfig
	Log          LogConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DatabaseURL string // DATABASE_URL - takes precedence over individual vars
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// AuthConfig holds staff token settings
type AuthConfig struct {
	JWTSecret  string
	AdminToken string
}

// SLAConfig controls the periodic SLA sweep
type SLAConfig struct {
	WorkerEnabled         bool // SLA_WORKER_ENABLED
	WorkerIntervalSeconds int  // SLA_WORKER_INTERVAL_SECONDS (default 3600)
	AutoEscalate          bool // SLA_AUTO_ESCALATE: escalate breached complaints after each sweep
	NotifyOnBreach        bool // SLA_NOTIFY_ON_BREACH
}

// NotificationConfig holds email settings
type NotificationConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	Mode           string // EMAIL_MODE: "live" or "shadow"
	ShadowAddress  string // EMAIL_SHADOW_ADDRESS: every email goes here in shadow mode
	FrontendURL    string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Pretty bool
}

const defaultWorkerIntervalSeconds = 3600

// LoadConfig loads configuration from environment variables.
// Supports DATABASE_URL or individual DB_* variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getEnv("DB_HOST", "127.0.0.1"),
			Port:        getEnv("DB_PORT", "3306"),
			User:        os.Getenv("DB_USER"),
			Password:    os.Getenv("DB_PASSWORD"),
			DBName:      os.Getenv("DB_NAME"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("PORT", getEnv("SERVER_PORT", "8080")),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			AdminToken: os.Getenv("ADMIN_TOKEN"),
		},
		SLA: SLAConfig{
			WorkerEnabled:         getEnvBool("SLA_WORKER_ENABLED", true),
			WorkerIntervalSeconds: getEnvInt("SLA_WORKER_INTERVAL_SECONDS", defaultWorkerIntervalSeconds),
			AutoEscalate:          getEnvBool("SLA_AUTO_ESCALATE", true),
			NotifyOnBreach:        getEnvBool("SLA_NOTIFY_ON_BREACH", false),
		},
		Notification: NotificationConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			FromEmail:      getEnv("SENDGRID_FROM_EMAIL", "noreply@complaintdesk.local"),
			FromName:       getEnv("SENDGRID_FROM_NAME", "Complaint Desk"),
			Mode:           getEnv("EMAIL_MODE", "shadow"),
			ShadowAddress:  os.Getenv("EMAIL_SHADOW_ADDRESS"),
			FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
	}
}

// DSN returns the MySQL DSN. Timestamps are parsed and kept in UTC.
func (d DatabaseConfig) DSN() (string, error) {
	if d.DatabaseURL != "" {
		raw := strings.TrimPrefix(d.DatabaseURL, "mysql://")
		cfg, err := mysql.ParseDSN(raw)
		if err != nil {
			return "", fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		applyDefaults(cfg)
		return cfg.FormatDSN(), nil
	}
	if d.User == "" || d.DBName == "" {
		return "", fmt.Errorf("DB_USER and DB_NAME are required when DATABASE_URL is not set")
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, d.Port)
	cfg.DBName = d.DBName
	applyDefaults(cfg)
	return cfg.FormatDSN(), nil
}

func applyDefaults(cfg *mysql.Config) {
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
}

// WorkerInterval returns the sweep interval, falling back to one hour.
func (s SLAConfig) WorkerInterval() time.Duration {
	if s.WorkerIntervalSeconds <= 0 {
		return defaultWorkerIntervalSeconds * time.Second
	}
	return time.Duration(s.WorkerIntervalSeconds) * time.Second
}

// ShadowMode reports whether outgoing email is redirected to the shadow address.
func (n NotificationConfig) ShadowMode() bool {
	return !strings.EqualFold(n.Mode, "live")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
