package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// Config é carregada uma vez no boot e repassada explicitamente.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	AppURL       string `env:"APP_URL" envDefault:"http://localhost:3000"`
	PublicAPIURL string `env:"PUBLIC_API_URL"`

	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	MailProvider string `env:"MAIL_PROVIDER" envDefault:"resend"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM"`
	MailHost     string `env:"MAIL_HOST"`
	MailPort     int    `env:"MAIL_PORT" envDefault:"587"`
	MailUser     string `env:"MAIL_USER"`
	MailPass     string `env:"MAIL_PASS"`

	CronSecret         string `env:"CRON_SECRET"`
	NextAuthSecret     string `env:"NEXTAUTH_SECRET"`
	NextAuthURL        string `env:"NEXTAUTH_URL"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	AdminEmailsRaw  string `env:"ADMIN_EMAILS"`
	AdminEmail      string `env:"ADMIN_EMAIL"`
	AdminEmailsFile string `env:"ADMIN_EMAILS_FILE"`

	ConfirmationTTL   time.Duration `env:"CONFIRMATION_TTL" envDefault:"24h"`
	ReminderAfter     time.Duration `env:"REMINDER_AFTER" envDefault:"6h"`
	CleanupBatchSize  int           `env:"CLEANUP_BATCH_SIZE" envDefault:"1000"`
	ReminderBatchSize int           `env:"REMINDER_BATCH_SIZE" envDefault:"100"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	RabbitMQURL   string `env:"RABBITMQ_URL"`
	KommoAPIToken string `env:"KOMMO_API_TOKEN"`
	KommoBaseURL  string `env:"KOMMO_BASE_URL" envDefault:"https://atomiccrm.kommo.com/api/v4"`

	// AdminEmails é a allow-list final (env + arquivo), preenchida no Load.
	AdminEmails []string
}

type adminFile struct {
	Admins []string `yaml:"admins"`
}

// Load lê o .env (se existir) e as variáveis do processo.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFromMap parses a fixed environment instead of the process one.
func LoadFromMap(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.PublicAPIURL == "" {
		cfg.PublicAPIURL = cfg.AppURL
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	cfg.PublicAPIURL = strings.TrimRight(cfg.PublicAPIURL, "/")
	cfg.MailProvider = strings.ToLower(strings.TrimSpace(cfg.MailProvider))

	admins := splitEmails(cfg.AdminEmailsRaw, cfg.AdminEmail)
	if cfg.AdminEmailsFile != "" {
		fromFile, err := loadAdminFile(cfg.AdminEmailsFile)
		if err != nil {
			return nil, err
		}
		admins = append(admins, fromFile...)
	}
	cfg.AdminEmails = admins

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.EmailFrom == "" {
		errs = append(errs, errors.New("EMAIL_FROM is required"))
	}

	switch c.MailProvider {
	case ProviderResend:
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY is required when MAIL_PROVIDER=resend"))
		}
	case ProviderSMTP:
		if c.MailHost == "" {
			errs = append(errs, errors.New("MAIL_HOST is required when MAIL_PROVIDER=smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_PROVIDER must be %q or %q", ProviderResend, ProviderSMTP))
	}

	if c.ConfirmationTTL <= 0 {
		errs = append(errs, errors.New("CONFIRMATION_TTL must be positive"))
	}
	if c.ReminderAfter <= 0 || c.ReminderAfter >= c.ConfirmationTTL {
		errs = append(errs, errors.New("REMINDER_AFTER must be positive and shorter than CONFIRMATION_TTL"))
	}
	if c.CleanupBatchSize <= 0 || c.ReminderBatchSize <= 0 {
		errs = append(errs, errors.New("batch sizes must be positive"))
	}
	if c.UpstreamTimeout <= 0 || c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitEmails(list, fallback string) []string {
	if strings.TrimSpace(list) == "" {
		list = fallback
	}
	var out []string
	for _, e := range strings.Split(list, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func loadAdminFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ADMIN_EMAILS_FILE: %w", err)
	}

	var f adminFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse ADMIN_EMAILS_FILE: %w", err)
	}
	return f.Admins, nil
}
