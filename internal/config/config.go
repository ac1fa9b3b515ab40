package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins string

	Database DatabaseConfig
	Payments PaymentsConfig
	Email    EmailConfig
	Queue    QueueConfig
	Leads    LeadsConfig
	Bank     domain.BankInstructions
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type PaymentsConfig struct {
	Gateway           string
	StripeSecretKey   string
	WebhookSecret     string
	MockFailureRate   float64
	Currency          string
	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
	AbandonAfter      time.Duration
}

type EmailConfig struct {
	SendGridAPIKey string
	From           string
	FromName       string
	AdminEmail     string
	RatePerSecond  float64
	Workers        int
	QueueSize      int
}

type QueueConfig struct {
	RabbitMQURL string
	Exchange    string
	Queue       string
}

type LeadsConfig struct {
	DataDir string
}

// DevelopmentLeadsDir is where leads land in development when neither a
// database nor LEADS_DATA_DIR is configured.
const DevelopmentLeadsDir = "./data"

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("app_env", "development")
	v.SetDefault("allowed_origins", "*")

	v.SetDefault("database_url", "")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)

	v.SetDefault("payment_gateway", "stripe")
	v.SetDefault("stripe_secret_key", "")
	v.SetDefault("stripe_webhook_secret", "")
	v.SetDefault("mock_payment_failure_rate", 0.0)
	v.SetDefault("currency", "usd")
	v.SetDefault("reconcile_interval", "0s")
	v.SetDefault("reconcile_after", "1h")
	v.SetDefault("reconcile_abandon_after", "24h")

	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("email_from", "")
	v.SetDefault("email_from_name", "Baho Coffee")
	v.SetDefault("admin_email", "")
	v.SetDefault("email_rate_per_second", 5.0)
	v.SetDefault("email_workers", 2)
	v.SetDefault("email_queue_size", 100)

	v.SetDefault("rabbitmq_url", "")
	v.SetDefault("rabbitmq_exchange", "storefront_events")
	v.SetDefault("rabbitmq_queue", "storefront_notifications")

	v.SetDefault("leads_data_dir", "")

	v.SetDefault("bank_name", "")
	v.SetDefault("bank_account_name", "")
	v.SetDefault("bank_account_number", "")
	v.SetDefault("bank_swift", "")
	v.SetDefault("bank_address", "")
}

// Load reads defaults, then the optional YAML file, then the environment.
// Keys in the file are the lower-case environment names.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file read error: %w", err)
		}
		log.Printf("Config loaded from %s", v.ConfigFileUsed())
	}

	cfg := &Config{
		Port:           v.GetString("port"),
		Environment:    v.GetString("app_env"),
		AllowedOrigins: v.GetString("allowed_origins"),
		Database: DatabaseConfig{
			URL:          v.GetString("database_url"),
			MaxOpenConns: v.GetInt("db_max_open_conns"),
			MaxIdleConns: v.GetInt("db_max_idle_conns"),
		},
		Payments: PaymentsConfig{
			Gateway:           strings.ToLower(v.GetString("payment_gateway")),
			StripeSecretKey:   v.GetString("stripe_secret_key"),
			WebhookSecret:     v.GetString("stripe_webhook_secret"),
			MockFailureRate:   v.GetFloat64("mock_payment_failure_rate"),
			Currency:          strings.ToLower(v.GetString("currency")),
			ReconcileInterval: v.GetDuration("reconcile_interval"),
			ReconcileAfter:    v.GetDuration("reconcile_after"),
			AbandonAfter:      v.GetDuration("reconcile_abandon_after"),
		},
		Email: EmailConfig{
			SendGridAPIKey: v.GetString("sendgrid_api_key"),
			From:           v.GetString("email_from"),
			FromName:       v.GetString("email_from_name"),
			AdminEmail:     v.GetString("admin_email"),
			RatePerSecond:  v.GetFloat64("email_rate_per_second"),
			Workers:        v.GetInt("email_workers"),
			QueueSize:      v.GetInt("email_queue_size"),
		},
		Queue: QueueConfig{
			RabbitMQURL: v.GetString("rabbitmq_url"),
			Exchange:    v.GetString("rabbitmq_exchange"),
			Queue:       v.GetString("rabbitmq_queue"),
		},
		Leads: LeadsConfig{
			DataDir: v.GetString("leads_data_dir"),
		},
		Bank: domain.BankInstructions{
			BankName:      v.GetString("bank_name"),
			AccountName:   v.GetString("bank_account_name"),
			AccountNumber: v.GetString("bank_account_number"),
			SwiftCode:     v.GetString("bank_swift"),
			BankAddress:   v.GetString("bank_address"),
		},
	}

	if cfg.Leads.DataDir == "" && cfg.Database.URL == "" && cfg.Environment == "development" {
		cfg.Leads.DataDir = DevelopmentLeadsDir
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Payments.Gateway {
	case "stripe", "mock":
	default:
		return fmt.Errorf("PAYMENT_GATEWAY must be stripe or mock, got %q", c.Payments.Gateway)
	}

	if c.Payments.MockFailureRate < 0 || c.Payments.MockFailureRate > 1 {
		return fmt.Errorf("MOCK_PAYMENT_FAILURE_RATE must be between 0 and 1")
	}

	if c.Payments.ReconcileInterval < 0 || c.Payments.ReconcileAfter < 0 || c.Payments.AbandonAfter < 0 {
		return fmt.Errorf("RECONCILE_INTERVAL, RECONCILE_AFTER and RECONCILE_ABANDON_AFTER must not be negative")
	}

	if c.IsProduction() && c.Payments.Gateway == "mock" {
		return fmt.Errorf("mock payment gateway is not allowed in production")
	}

	return nil
}

// LogMissing reports every unset credential at startup. The service still
// starts; the affected features answer with configuration errors.
func (c *Config) LogMissing() {
	missing := map[string]bool{
		"DATABASE_URL":          c.Database.URL == "",
		"STRIPE_SECRET_KEY":     c.Payments.Gateway == "stripe" && c.Payments.StripeSecretKey == "",
		"STRIPE_WEBHOOK_SECRET": c.Payments.WebhookSecret == "",
		"SENDGRID_API_KEY":      c.Email.SendGridAPIKey == "",
		"EMAIL_FROM":            c.Email.From == "",
		"ADMIN_EMAIL":           c.Email.AdminEmail == "",
		"BANK_ACCOUNT_NUMBER":   c.Bank.AccountNumber == "",
	}

	for _, key := range []string{
		"DATABASE_URL", "STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
		"SENDGRID_API_KEY", "EMAIL_FROM", "ADMIN_EMAIL", "BANK_ACCOUNT_NUMBER",
	} {
		if missing[key] {
			log.Printf("CONFIGURATION WARNING: %s is not set", key)
		}
	}
}
