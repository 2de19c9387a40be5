package config

// EnvConfig is the raw process environment. Values stay strings so that
// parsing errors can be reported against the variable name.
type EnvConfig struct {
	Environment string `env:"ENVIRONMENT" env-default:"staging"`

	Browser       string `env:"BROWSER" env-default:"chrome"`
	Headless      string `env:"HEADLESS" env-default:"false"`
	BrowserWidth  string `env:"BROWSER_WIDTH" env-default:"1920"`
	BrowserHeight string `env:"BROWSER_HEIGHT" env-default:"1080"`
	SeleniumURL   string `env:"SELENIUM_URL"`

	BaseURL    string `env:"BASE_URL" env-default:"https://demo-ecommerce.com"`
	APIBaseURL string `env:"API_BASE_URL" env-default:"https://api.demo-ecommerce.com"`

	ImplicitWait    string `env:"IMPLICIT_WAIT" env-default:"10"`
	ExplicitWait    string `env:"EXPLICIT_WAIT" env-default:"10"`
	PageLoadTimeout string `env:"PAGE_LOAD_TIMEOUT" env-default:"30"`

	DBType     string `env:"DB_TYPE" env-default:"postgresql"`
	DBHost     string `env:"DB_HOST" env-default:"localhost"`
	DBPort     string `env:"DB_PORT" env-default:"5432"`
	DBName     string `env:"DB_NAME" env-default:"test_db"`
	DBUser     string `env:"DB_USER" env-default:"test_user"`
	DBPassword string `env:"DB_PASSWORD" env-default:"test_password"`

	EmailHost     string `env:"EMAIL_HOST" env-default:"smtp.gmail.com"`
	EmailPort     string `env:"EMAIL_PORT" env-default:"587"`
	EmailUser     string `env:"EMAIL_USER"`
	EmailPassword string `env:"EMAIL_PASSWORD"`
	EmailUseTLS   string `env:"EMAIL_USE_TLS" env-default:"true"`
	MailboxAPIURL string `env:"MAILBOX_API_URL"`
	NotifyEmail   string `env:"NOTIFY_EMAIL"`

	QueueBackend      string `env:"QUEUE_BACKEND" env-default:"redis"`
	RedisURL          string `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
	EmailQueueKey     string `env:"EMAIL_QUEUE_KEY" env-default:"email_jobs"`
	NATSURL           string `env:"NATS_URL" env-default:"nats://localhost:4222"`
	EmailQueueSubject string `env:"EMAIL_QUEUE_SUBJECT" env-default:"email.jobs"`
	EmailQueueStream  string `env:"EMAIL_QUEUE_STREAM" env-default:"EMAIL_JOBS"`

	TestDataDir   string `env:"TEST_DATA_DIR" env-default:"data/test_data"`
	ReportDir     string `env:"REPORT_DIR" env-default:"reports"`
	ScreenshotDir string `env:"SCREENSHOT_DIR" env-default:"reports/screenshots"`
	LogDir        string `env:"LOG_DIR" env-default:"logs"`
	LogLevel      string `env:"LOG_LEVEL" env-default:"INFO"`

	ParallelProcesses string `env:"PARALLEL_PROCESSES" env-default:"1"`
	APITimeout        string `env:"API_TIMEOUT" env-default:"30"`
	APIRetries        string `env:"API_RETRIES" env-default:"3"`

	TestUserEmail     string `env:"TEST_USER_EMAIL" env-default:"test@example.com"`
	TestUserPassword  string `env:"TEST_USER_PASSWORD" env-default:"SecurePass123!"`
	AdminUserEmail    string `env:"ADMIN_USER_EMAIL" env-default:"admin@example.com"`
	AdminUserPassword string `env:"ADMIN_USER_PASSWORD" env-default:"AdminPass123!"`

	EnableAPITesting         string `env:"ENABLE_API_TESTING" env-default:"true"`
	EnableDatabaseTesting    string `env:"ENABLE_DATABASE_TESTING" env-default:"true"`
	EnableEmailTesting       string `env:"ENABLE_EMAIL_TESTING" env-default:"false"`
	TakeScreenshotsOnFailure string `env:"TAKE_SCREENSHOTS_ON_FAILURE" env-default:"true"`

	ReportBucket string `env:"REPORT_BUCKET"`
	ReportPrefix string `env:"REPORT_PREFIX" env-default:"cursior"`
}

// pairs lists every variable with its value in a stable order.
func (e EnvConfig) pairs() [][2]string {
	return [][2]string{
		{"ENVIRONMENT", e.Environment},
		{"BROWSER", e.Browser},
		{"HEADLESS", e.Headless},
		{"BROWSER_WIDTH", e.BrowserWidth},
		{"BROWSER_HEIGHT", e.BrowserHeight},
		{"SELENIUM_URL", e.SeleniumURL},
		{"BASE_URL", e.BaseURL},
		{"API_BASE_URL", e.APIBaseURL},
		{"IMPLICIT_WAIT", e.ImplicitWait},
		{"EXPLICIT_WAIT", e.ExplicitWait},
		{"PAGE_LOAD_TIMEOUT", e.PageLoadTimeout},
		{"DB_TYPE", e.DBType},
		{"DB_HOST", e.DBHost},
		{"DB_PORT", e.DBPort},
		{"DB_NAME", e.DBName},
		{"DB_USER", e.DBUser},
		{"DB_PASSWORD", e.DBPassword},
		{"EMAIL_HOST", e.EmailHost},
		{"EMAIL_PORT", e.EmailPort},
		{"EMAIL_USER", e.EmailUser},
		{"EMAIL_PASSWORD", e.EmailPassword},
		{"EMAIL_USE_TLS", e.EmailUseTLS},
		{"MAILBOX_API_URL", e.MailboxAPIURL},
		{"NOTIFY_EMAIL", e.NotifyEmail},
		{"QUEUE_BACKEND", e.QueueBackend},
		{"REDIS_URL", e.RedisURL},
		{"EMAIL_QUEUE_KEY", e.EmailQueueKey},
		{"NATS_URL", e.NATSURL},
		{"EMAIL_QUEUE_SUBJECT", e.EmailQueueSubject},
		{"EMAIL_QUEUE_STREAM", e.EmailQueueStream},
		{"TEST_DATA_DIR", e.TestDataDir},
		{"REPORT_DIR", e.ReportDir},
		{"SCREENSHOT_DIR", e.ScreenshotDir},
		{"LOG_DIR", e.LogDir},
		{"LOG_LEVEL", e.LogLevel},
		{"PARALLEL_PROCESSES", e.ParallelProcesses},
		{"API_TIMEOUT", e.APITimeout},
		{"API_RETRIES", e.APIRetries},
		{"TEST_USER_EMAIL", e.TestUserEmail},
		{"TEST_USER_PASSWORD", e.TestUserPassword},
		{"ADMIN_USER_EMAIL", e.AdminUserEmail},
		{"ADMIN_USER_PASSWORD", e.AdminUserPassword},
		{"ENABLE_API_TESTING", e.EnableAPITesting},
		{"ENABLE_DATABASE_TESTING", e.EnableDatabaseTesting},
		{"ENABLE_EMAIL_TESTING", e.EnableEmailTesting},
		{"TAKE_SCREENSHOTS_ON_FAILURE", e.TakeScreenshotsOnFailure},
		{"REPORT_BUCKET", e.ReportBucket},
		{"REPORT_PREFIX", e.ReportPrefix},
	}
}
