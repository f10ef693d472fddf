package config

// Settings contains the application config
type Settings struct {
	Port        int    `env:"PORT"`
	MonPort     int    `env:"MON_PORT"`
	EnablePprof bool   `env:"ENABLE_PPROF"`
	LogLevel    string `env:"LOG_LEVEL"`
	ServiceName string `env:"SERVICE_NAME"`

	// LineChannelSecret signs inbound webhook payloads. When empty,
	// signature verification is skipped entirely; that mode is only
	// meant for development and test deployments.
	LineChannelSecret string `env:"LINE_CHANNEL_SECRET"`
	// LineAccessToken authorizes outbound Messaging API calls. When
	// empty, display-name resolution is skipped and the unknown
	// sentinel is used.
	LineAccessToken string `env:"LINE_ACCESS_TOKEN"`
	LineAPIBaseURL  string `env:"LINE_API_BASE_URL"`

	EnableEmailNotification bool   `env:"ENABLE_EMAIL_NOTIFICATION"`
	SMTPHost                string `env:"SMTP_HOST"`
	SMTPPort                string `env:"SMTP_PORT"`
	SMTPUser                string `env:"SMTP_USER"`
	SMTPPass                string `env:"SMTP_PASS"`
	NotificationEmail       string `env:"NOTIFICATION_EMAIL"`

	// WebhookURL is the generic notification callback. Empty disables
	// the webhook sink.
	WebhookURL string `env:"WEBHOOK_URL"`
	// EnableGroupReply pushes a confirmation message back into the
	// originating group whenever a mention is recorded.
	EnableGroupReply bool `env:"ENABLE_GROUP_REPLY"`
}

// DefaultLineAPIBaseURL is used when LINE_API_BASE_URL is not set.
const DefaultLineAPIBaseURL = "https://api.line.me/v2"
