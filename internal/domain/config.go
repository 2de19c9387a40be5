package domain

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config is the effective runtime configuration of a suite run.
// It is assembled from .env, process environment, presets and CLI overrides.
type Config struct {
	Environment string `validate:"required"`

	Browser  BrowserConfig
	App      AppConfig
	Timeouts TimeoutConfig
	Database DatabaseConfig
	Email    EmailConfig
	Queue    QueueConfig
	Paths    PathsConfig
	Runtime  RuntimeConfig
	Users    UsersConfig
	Features FeatureFlags
	Reports  ReportConfig
}

type BrowserConfig struct {
	Name      string `validate:"oneof=chrome firefox edge"`
	Headless  bool
	Width     int `validate:"gt=0"`
	Height    int `validate:"gt=0"`
	RemoteURL string
}

type AppConfig struct {
	BaseURL    string `validate:"required,url"`
	APIBaseURL string `validate:"required,url"`
}

type TimeoutConfig struct {
	Implicit time.Duration `validate:"gt=0"`
	Explicit time.Duration `validate:"gt=0"`
	PageLoad time.Duration `validate:"gt=0"`
}

type DatabaseConfig struct {
	Type     string `validate:"oneof=postgresql mysql sqlite"`
	Host     string
	Port     int `validate:"gte=0"`
	Name     string `validate:"required"`
	User     string
	Password string
}

type EmailConfig struct {
	Host       string
	Port       int `validate:"gt=0"`
	User       string
	Password   string
	UseTLS     bool
	MailboxURL string
	NotifyTo   string
}

type QueueConfig struct {
	Backend  string `validate:"oneof=redis nats"`
	RedisURL string
	RedisKey string
	NATSURL  string
	Subject  string
	Stream   string
}

type PathsConfig struct {
	Features    string
	TestData    string
	Reports     string
	Screenshots string
	Logs        string
}

type RuntimeConfig struct {
	Parallel   int           `validate:"gt=0"`
	APITimeout time.Duration `validate:"gt=0"`
	APIRetries int           `validate:"gte=0"`
	LogLevel   string
}

// TestUser is a credential pair used by login steps.
type TestUser struct {
	Email    string
	Password string
}

type UsersConfig struct {
	Valid TestUser
	Admin TestUser
}

type FeatureFlags struct {
	API                  bool
	Database             bool
	Email                bool
	ScreenshotsOnFailure bool
}

type ReportConfig struct {
	Bucket string
	Prefix string
	Mask   bool
}

// DefaultConfig mirrors the defaults of the environment loader.
func DefaultConfig() Config {
	return Config{
		Environment: "staging",
		Browser:     BrowserConfig{Name: "chrome", Width: 1920, Height: 1080},
		App: AppConfig{
			BaseURL:    "https://demo-ecommerce.com",
			APIBaseURL: "https://api.demo-ecommerce.com",
		},
		Timeouts: TimeoutConfig{
			Implicit: 10 * time.Second,
			Explicit: 10 * time.Second,
			PageLoad: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Type: "postgresql", Host: "localhost", Port: 5432,
			Name: "test_db", User: "test_user", Password: "test_password",
		},
		Email: EmailConfig{Host: "smtp.gmail.com", Port: 587, UseTLS: true},
		Queue: QueueConfig{
			Backend:  "redis",
			RedisURL: "redis://localhost:6379/0",
			RedisKey: "email_jobs",
			NATSURL:  "nats://localhost:4222",
			Subject:  "email.jobs",
			Stream:   "EMAIL_JOBS",
		},
		Paths: PathsConfig{
			Features:    "features",
			TestData:    "data/test_data",
			Reports:     "reports",
			Screenshots: "reports/screenshots",
			Logs:        "logs",
		},
		Runtime: RuntimeConfig{Parallel: 1, APITimeout: 30 * time.Second, APIRetries: 3, LogLevel: "INFO"},
		Users: UsersConfig{
			Valid: TestUser{Email: "test@example.com", Password: "SecurePass123!"},
			Admin: TestUser{Email: "admin@example.com", Password: "AdminPass123!"},
		},
		Features: FeatureFlags{API: true, Database: true, ScreenshotsOnFailure: true},
		Reports:  ReportConfig{Prefix: "cursior", Mask: true},
	}
}

// DatabaseURL renders the connection URL for the configured database type.
func (c Config) DatabaseURL() (string, error) {
	db := c.Database
	hostPort := net.JoinHostPort(db.Host, strconv.Itoa(db.Port))

	switch db.Type {
	case "postgresql", "mysql":
		u := url.URL{
			Scheme: db.Type,
			User:   url.UserPassword(db.User, db.Password),
			Host:   hostPort,
			Path:   "/" + db.Name,
		}
		return u.String(), nil
	case "sqlite":
		return "sqlite:///" + SQLiteFile(db.Name), nil
	default:
		return "", &OpError{
			Op:   "config.database_url",
			Kind: KindUnsupported,
			Err:  fmt.Errorf("unsupported database type %q", db.Type),
		}
	}
}

// SQLiteFile maps a database name to its file, keeping explicit paths as-is.
func SQLiteFile(name string) string {
	if name == ":memory:" || strings.HasSuffix(name, ".db") || strings.HasPrefix(name, "file:") {
		return name
	}
	return name + ".db"
}

// TestUser returns the named user. Unknown names fall back to the valid user.
func (c Config) TestUser(kind string) TestUser {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "admin", "admin_user":
		return c.Users.Admin
	default:
		return c.Users.Valid
	}
}

// Vars exposes config values to step placeholders.
func (c Config) Vars() Vars {
	return Vars{
		"base_url":            c.App.BaseURL,
		"api_base_url":        c.App.APIBaseURL,
		"environment":         c.Environment,
		"browser":             c.Browser.Name,
		"valid_user_email":    c.Users.Valid.Email,
		"valid_user_password": c.Users.Valid.Password,
		"admin_user_email":    c.Users.Admin.Email,
		"admin_user_password": c.Users.Admin.Password,
	}
}

const maskedValue = "****"

// Masked returns a copy safe to print or persist.
func (c Config) Masked() Config {
	out := c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return maskedValue
	}
	out.Database.Password = mask(c.Database.Password)
	out.Email.Password = mask(c.Email.Password)
	out.Users.Valid.Password = mask(c.Users.Valid.Password)
	out.Users.Admin.Password = mask(c.Users.Admin.Password)
	return out
}

// Set applies a single runtime override. Keys are the environment variable
// names, case-insensitive, so "-D browser=firefox" and BROWSER agree.
func (c *Config) Set(key, value string) error {
	k := normalizeKey(key)
	setter, ok := configSetters[k]
	if !ok {
		return &OpError{
			Op:   "config.set",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("unknown configuration key: %s", key),
		}
	}
	if err := setter(c, strings.TrimSpace(value)); err != nil {
		return &OpError{
			Op:   "config.set",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("%s: %w", k, err),
		}
	}
	return nil
}

// SettableKeys lists the keys accepted by Set.
func SettableKeys() []string {
	out := make([]string, 0, len(configSetters))
	for k := range configSetters {
		out = append(out, k)
	}
	return out
}

// IsSettable reports whether Set accepts key.
func IsSettable(key string) bool {
	_, ok := configSetters[normalizeKey(key)]
	return ok
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("-", "_", ".", "_").Replace(k)
}

type setterFunc func(*Config, string) error

func str(field func(*Config) *string) setterFunc {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func lower(field func(*Config) *string) setterFunc {
	return func(c *Config, v string) error {
		*field(c) = strings.ToLower(v)
		return nil
	}
}

func boolean(field func(*Config) *bool) setterFunc {
	return func(c *Config, v string) error {
		b, err := ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func integer(field func(*Config) *int) setterFunc {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected integer, got %q", v)
		}
		*field(c) = n
		return nil
	}
}

func seconds(field func(*Config) *time.Duration) setterFunc {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected seconds, got %q", v)
		}
		*field(c) = time.Duration(n) * time.Second
		return nil
	}
}

// ParseBool accepts the spellings people put in .env files.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "y":
		return true, nil
	case "0", "false", "no", "off", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %q", v)
	}
}

var configSetters = map[string]setterFunc{
	"environment":    lower(func(c *Config) *string { return &c.Environment }),
	"browser":        lower(func(c *Config) *string { return &c.Browser.Name }),
	"headless":       boolean(func(c *Config) *bool { return &c.Browser.Headless }),
	"browser_width":  integer(func(c *Config) *int { return &c.Browser.Width }),
	"browser_height": integer(func(c *Config) *int { return &c.Browser.Height }),
	"selenium_url":   str(func(c *Config) *string { return &c.Browser.RemoteURL }),

	"base_url":     str(func(c *Config) *string { return &c.App.BaseURL }),
	"api_base_url": str(func(c *Config) *string { return &c.App.APIBaseURL }),

	"implicit_wait":     seconds(func(c *Config) *time.Duration { return &c.Timeouts.Implicit }),
	"explicit_wait":     seconds(func(c *Config) *time.Duration { return &c.Timeouts.Explicit }),
	"page_load_timeout": seconds(func(c *Config) *time.Duration { return &c.Timeouts.PageLoad }),

	"db_type":     lower(func(c *Config) *string { return &c.Database.Type }),
	"db_host":     str(func(c *Config) *string { return &c.Database.Host }),
	"db_port":     integer(func(c *Config) *int { return &c.Database.Port }),
	"db_name":     str(func(c *Config) *string { return &c.Database.Name }),
	"db_user":     str(func(c *Config) *string { return &c.Database.User }),
	"db_password": str(func(c *Config) *string { return &c.Database.Password }),

	"email_host":      str(func(c *Config) *string { return &c.Email.Host }),
	"email_port":      integer(func(c *Config) *int { return &c.Email.Port }),
	"email_user":      str(func(c *Config) *string { return &c.Email.User }),
	"email_password":  str(func(c *Config) *string { return &c.Email.Password }),
	"email_use_tls":   boolean(func(c *Config) *bool { return &c.Email.UseTLS }),
	"mailbox_api_url": str(func(c *Config) *string { return &c.Email.MailboxURL }),
	"notify_email":    str(func(c *Config) *string { return &c.Email.NotifyTo }),

	"queue_backend":       lower(func(c *Config) *string { return &c.Queue.Backend }),
	"redis_url":           str(func(c *Config) *string { return &c.Queue.RedisURL }),
	"email_queue_key":     str(func(c *Config) *string { return &c.Queue.RedisKey }),
	"nats_url":            str(func(c *Config) *string { return &c.Queue.NATSURL }),
	"email_queue_subject": str(func(c *Config) *string { return &c.Queue.Subject }),
	"email_queue_stream":  str(func(c *Config) *string { return &c.Queue.Stream }),

	"test_data_dir":  str(func(c *Config) *string { return &c.Paths.TestData }),
	"report_dir":     str(func(c *Config) *string { return &c.Paths.Reports }),
	"screenshot_dir": str(func(c *Config) *string { return &c.Paths.Screenshots }),
	"log_dir":        str(func(c *Config) *string { return &c.Paths.Logs }),
	"log_level":      str(func(c *Config) *string { return &c.Runtime.LogLevel }),

	"parallel_processes": integer(func(c *Config) *int { return &c.Runtime.Parallel }),
	"api_timeout":        seconds(func(c *Config) *time.Duration { return &c.Runtime.APITimeout }),
	"api_retries":        integer(func(c *Config) *int { return &c.Runtime.APIRetries }),

	"test_user_email":     str(func(c *Config) *string { return &c.Users.Valid.Email }),
	"test_user_password":  str(func(c *Config) *string { return &c.Users.Valid.Password }),
	"admin_user_email":    str(func(c *Config) *string { return &c.Users.Admin.Email }),
	"admin_user_password": str(func(c *Config) *string { return &c.Users.Admin.Password }),

	"enable_api_testing":          boolean(func(c *Config) *bool { return &c.Features.API }),
	"enable_database_testing":     boolean(func(c *Config) *bool { return &c.Features.Database }),
	"enable_email_testing":        boolean(func(c *Config) *bool { return &c.Features.Email }),
	"take_screenshots_on_failure": boolean(func(c *Config) *bool { return &c.Features.ScreenshotsOnFailure }),

	"report_bucket": str(func(c *Config) *string { return &c.Reports.Bucket }),
	"report_prefix": str(func(c *Config) *string { return &c.Reports.Prefix }),
}
