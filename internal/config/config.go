package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type AlertsConfig struct {
	DailyAt   string
	Recipient string
	Subject   string
	LockTTL   time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type Config struct {
	Environment string
	Timezone    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Alerts      AlertsConfig
	Redis       RedisConfig
	SMTP        SMTPConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		Timezone:    v.GetString("APP_TIMEZONE"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Alerts: AlertsConfig{
			DailyAt:   v.GetString("ALERTS_DAILY_AT"),
			Recipient: v.GetString("ALERTS_RECIPIENT"),
			Subject:   v.GetString("ALERTS_SUBJECT"),
			LockTTL:   v.GetDuration("ALERTS_LOCK_TTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.Alerts.DailyAt == "" {
		cfg.Alerts.DailyAt = "07:00"
	}
	if cfg.Alerts.Recipient == "" {
		cfg.Alerts.Recipient = "fleet-maintenance@localhost"
	}
	if cfg.Alerts.Subject == "" {
		cfg.Alerts.Subject = "Preventive maintenance alerts"
	}
	if cfg.Alerts.LockTTL <= 0 {
		cfg.Alerts.LockTTL = 10 * time.Minute
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location returns the time zone used for calendar dates and the daily trigger.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DailyAt returns the configured trigger time as an offset from midnight.
func (c *Config) DailyAt() time.Duration {
	offset, _ := ParseClock(c.Alerts.DailyAt)
	return offset
}

// ParseClock parses an "HH:MM" time of day into an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if _, err := ParseClock(cfg.Alerts.DailyAt); err != nil {
		return fmt.Errorf("ALERTS_DAILY_AT: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.From == "" {
		return fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	return nil
}
