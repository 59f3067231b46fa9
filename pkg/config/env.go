package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "BOUTIQUE_APP_ENV"
	EnvPort                   = "BOUTIQUE_APP_PORT"
	EnvAdminEmail             = "BOUTIQUE_ADMIN_EMAIL"
	EnvDBDSN                  = "BOUTIQUE_DB_DSN"
	EnvDBHost                 = "BOUTIQUE_DB_HOST"
	EnvDBUser                 = "BOUTIQUE_DB_USER"
	EnvDBName                 = "BOUTIQUE_DB_NAME"
	EnvRedisURL               = "BOUTIQUE_REDIS_URL"
	EnvJWTSecret              = "BOUTIQUE_JWT_SECRET"
	EnvJWTIssuer              = "BOUTIQUE_JWT_ISSUER"
	EnvJWTExpMins             = "BOUTIQUE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BOUTIQUE_REFRESH_TOKEN_TTL_MINUTES"
	EnvRazorpayKeyID          = "BOUTIQUE_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret      = "BOUTIQUE_RAZORPAY_KEY_SECRET"
	EnvTelegramBotToken       = "BOUTIQUE_TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID         = "BOUTIQUE_TELEGRAM_CHAT_ID"
	EnvSendgridAPIKey         = "BOUTIQUE_SENDGRID_API_KEY"
	EnvSendgridFrom           = "BOUTIQUE_SENDGRID_FROM_EMAIL"
	EnvNotifyTimeout          = "BOUTIQUE_NOTIFY_TIMEOUT"
	EnvOrdersEnforceTotal     = "BOUTIQUE_ORDERS_ENFORCE_TOTAL"
	EnvPubSubOrdersTopic      = "BOUTIQUE_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// Values shipped in sample .env files.
var placeholderSecrets = map[string]bool{
	"placeholder_secret":           true,
	"your_razorpay_key_secret":     true,
	"your_gmail_app_password_here": true,
	"changeme":                     true,
}
