package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	OTP           OTPConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	Notifications NotificationsConfig
	Telegram      TelegramConfig
	Sendgrid      SendgridConfig
	Razorpay      RazorpayConfig
	Google        GoogleConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Media         MediaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Razorpay.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"BOUTIQUE_APP_ENV" required:"true"`
	Port         string   `envconfig:"BOUTIQUE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"BOUTIQUE_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"BOUTIQUE_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"BOUTIQUE_LOG_WARN_STACK" default:"false"`
	AdminEmail   string   `envconfig:"BOUTIQUE_ADMIN_EMAIL"`
	CORSOrigins  []string `envconfig:"BOUTIQUE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOUTIQUE_DB_DSN"`
	Driver string `envconfig:"BOUTIQUE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOUTIQUE_DB_HOST"`
	LegacyPort     int    `envconfig:"BOUTIQUE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOUTIQUE_DB_USER"`
	LegacyPassword string `envconfig:"BOUTIQUE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOUTIQUE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOUTIQUE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOUTIQUE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOUTIQUE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOUTIQUE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOUTIQUE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"BOUTIQUE_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOUTIQUE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOUTIQUE_REDIS_ADDR"`
	Password     string        `envconfig:"BOUTIQUE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOUTIQUE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOUTIQUE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOUTIQUE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOUTIQUE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOUTIQUE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOUTIQUE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BOUTIQUE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BOUTIQUE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BOUTIQUE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"BOUTIQUE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOUTIQUE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOUTIQUE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOUTIQUE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOUTIQUE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOUTIQUE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
	OTPWindow        time.Duration `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_OTP_WINDOW" default:"10m"`
	OTPEmailLimit    int           `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_OTP_EMAIL_LIMIT" default:"3"`
	OTPIPLimit       int           `envconfig:"BOUTIQUE_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"10"`
}

type OTPConfig struct {
	TTL    time.Duration `envconfig:"BOUTIQUE_OTP_TTL" default:"5m"`
	Digits int           `envconfig:"BOUTIQUE_OTP_DIGITS" default:"6"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOUTIQUE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOUTIQUE_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	EnforceTotal bool `envconfig:"BOUTIQUE_ORDERS_ENFORCE_TOTAL" default:"true"`
}

type NotificationsConfig struct {
	Timeout time.Duration `envconfig:"BOUTIQUE_NOTIFY_TIMEOUT" default:"10s"`
}

type TelegramConfig struct {
	BotToken string `envconfig:"BOUTIQUE_TELEGRAM_BOT_TOKEN"`
	ChatID   string `envconfig:"BOUTIQUE_TELEGRAM_CHAT_ID"`
	BaseURL  string `envconfig:"BOUTIQUE_TELEGRAM_BASE_URL" default:"https://api.telegram.org"`
}

// Enabled reports whether both the bot token and the chat target are present.
func (t TelegramConfig) Enabled() bool {
	return strings.TrimSpace(t.BotToken) != "" && strings.TrimSpace(t.ChatID) != ""
}

type SendgridConfig struct {
	APIKey      string `envconfig:"BOUTIQUE_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"BOUTIQUE_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"BOUTIQUE_SENDGRID_FROM_NAME" default:"Shiv Shakti Boutique"`
	NotifyTo    string `envconfig:"BOUTIQUE_ORDER_ALERT_EMAIL"`
}

// Enabled reports whether outbound mail can be sent at all.
func (s SendgridConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.DefaultFrom) != ""
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"BOUTIQUE_RAZORPAY_KEY_ID" required:"true"`
	KeySecret string        `envconfig:"BOUTIQUE_RAZORPAY_KEY_SECRET" required:"true"`
	Currency  string        `envconfig:"BOUTIQUE_RAZORPAY_CURRENCY" default:"INR"`
	Timeout   time.Duration `envconfig:"BOUTIQUE_RAZORPAY_TIMEOUT" default:"15s"`
	ReplayTTL time.Duration `envconfig:"BOUTIQUE_PAYMENT_REPLAY_TTL" default:"168h"`
}

func (r RazorpayConfig) validate() error {
	if strings.TrimSpace(r.KeyID) == "" || strings.TrimSpace(r.KeySecret) == "" {
		return fmt.Errorf("either %s or %s is blank", EnvRazorpayKeyID, EnvRazorpayKeySecret)
	}
	if placeholderSecrets[strings.TrimSpace(r.KeySecret)] {
		return fmt.Errorf("%s holds a placeholder value", EnvRazorpayKeySecret)
	}
	return nil
}

type GoogleConfig struct {
	ClientID string `envconfig:"BOUTIQUE_GOOGLE_CLIENT_ID"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BOUTIQUE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BOUTIQUE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BOUTIQUE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"BOUTIQUE_GCS_BUCKET_NAME"`
	PublicBase string `envconfig:"BOUTIQUE_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

// Enabled reports whether product image uploads can be stored.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

// PubSubConfig names the topic order.created events go to. Publishing is
// off when the topic is blank.
type PubSubConfig struct {
	OrdersTopic string `envconfig:"BOUTIQUE_PUBSUB_ORDERS_TOPIC"`
}

func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"BOUTIQUE_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured megabyte cap to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
