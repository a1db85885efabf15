package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/pinauth"
	"github.com/MrEthical07/pinauth/credential"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration of the service: defaults,
// then the YAML file, then environment overrides.
type Config struct {
	ServiceID  string
	HTTPPort   int
	GRPCPort   int
	TrustProxy bool

	DatabaseURL  string
	RedisURL     string
	MaxDBConns   int32
	SessionStore string // "postgres" or "redis"

	KafkaBrokers    []string
	KafkaAuditTopic string

	JWTSecret     string
	JWTExpiration time.Duration
	JWTIssuer     string

	PinTTL            time.Duration
	PinMaxAttempts    int
	PinHashAlgorithm  string
	BcryptCost        int
	PinConsumeOnValid bool

	CentralSystemURL           string
	CentralSystemAPIKey        string
	CentralSystemEnabled       bool
	CentralSystemFailurePolicy string
	CentralSystemTimeout       time.Duration

	TwilioEnabled      bool
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	SendGridEnabled   bool
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	NotificationTimeout time.Duration

	LoginRateLimit  int
	LoginRateWindow time.Duration

	SessionSweepInterval time.Duration
	ProductionMode       bool

	OTelMetricsEnabled bool
	OTelEndpoint       string // host:port of an OTLP/gRPC collector
	OTelInsecure       bool
	OTelExportInterval time.Duration
}

// configFile mirrors configs/pinauth.yaml.
type configFile struct {
	Service struct {
		ID         string `yaml:"id"`
		HTTPPort   int    `yaml:"http_port"`
		GRPCPort   int    `yaml:"grpc_port"`
		TrustProxy *bool  `yaml:"trust_proxy"`
		Production *bool  `yaml:"production"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		AuditTopic   string   `yaml:"audit_topic"`
		SessionStore string   `yaml:"session_store"`
	} `yaml:"dependencies"`
	Pin struct {
		TTLHours       int    `yaml:"ttl_hours"`
		MaxAttempts    int    `yaml:"max_attempts"`
		HashAlgorithm  string `yaml:"hash_algorithm"`
		BcryptCost     int    `yaml:"bcrypt_cost"`
		ConsumeOnValid *bool  `yaml:"consume_on_valid"`
	} `yaml:"pin"`
	JWT struct {
		ExpirationHours int    `yaml:"expiration_hours"`
		Issuer          string `yaml:"issuer"`
	} `yaml:"jwt"`
	CentralSystem struct {
		URL            string `yaml:"url"`
		Enabled        *bool  `yaml:"enabled"`
		FailurePolicy  string `yaml:"failure_policy"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"central_system"`
	Notifications struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		Twilio         struct {
			Enabled      bool   `yaml:"enabled"`
			WhatsAppFrom string `yaml:"whatsapp_from"`
		} `yaml:"twilio"`
		SendGrid struct {
			Enabled   bool   `yaml:"enabled"`
			FromEmail string `yaml:"from_email"`
			FromName  string `yaml:"from_name"`
		} `yaml:"sendgrid"`
	} `yaml:"notifications"`
	RateLimit struct {
		LoginAttempts int `yaml:"login_attempts"`
		WindowSeconds int `yaml:"window_seconds"`
	} `yaml:"rate_limit"`
	Metrics struct {
		OTelEnabled     bool   `yaml:"otel_enabled"`
		OTLPEndpoint    string `yaml:"otlp_endpoint"`
		OTLPInsecure    bool   `yaml:"otlp_insecure"`
		IntervalSeconds int    `yaml:"export_interval_seconds"`
	} `yaml:"metrics"`
}

func defaultConfig() Config {
	return Config{
		ServiceID:                  "pinauth",
		HTTPPort:                   8080,
		GRPCPort:                   9090,
		MaxDBConns:                 20,
		SessionStore:               "postgres",
		KafkaAuditTopic:            "pinauth.audit.v1",
		JWTExpiration:              8 * time.Hour,
		JWTIssuer:                  "pinauth",
		PinTTL:                     8 * time.Hour,
		PinMaxAttempts:             3,
		PinHashAlgorithm:           "bcrypt",
		BcryptCost:                 10,
		CentralSystemEnabled:       true,
		CentralSystemFailurePolicy: string(credential.FailClosed),
		CentralSystemTimeout:       5 * time.Second,
		SendGridFromName:           "POS",
		NotificationTimeout:        10 * time.Second,
		LoginRateLimit:             5,
		LoginRateWindow:            time.Minute,
		SessionSweepInterval:       time.Hour,
		OTelExportInterval:         30 * time.Second,
	}
}

// LoadConfig resolves configuration in priority order: defaults, file, env.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		applyFile(&cfg, f)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, f configFile) {
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Service.TrustProxy != nil {
		cfg.TrustProxy = *f.Service.TrustProxy
	}
	if f.Service.Production != nil {
		cfg.ProductionMode = *f.Service.Production
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Dependencies.AuditTopic != "" {
		cfg.KafkaAuditTopic = f.Dependencies.AuditTopic
	}
	if f.Dependencies.SessionStore != "" {
		cfg.SessionStore = f.Dependencies.SessionStore
	}
	if f.Pin.TTLHours > 0 {
		cfg.PinTTL = time.Duration(f.Pin.TTLHours) * time.Hour
	}
	if f.Pin.MaxAttempts > 0 {
		cfg.PinMaxAttempts = f.Pin.MaxAttempts
	}
	if f.Pin.HashAlgorithm != "" {
		cfg.PinHashAlgorithm = f.Pin.HashAlgorithm
	}
	if f.Pin.BcryptCost > 0 {
		cfg.BcryptCost = f.Pin.BcryptCost
	}
	if f.Pin.ConsumeOnValid != nil {
		cfg.PinConsumeOnValid = *f.Pin.ConsumeOnValid
	}
	if f.JWT.ExpirationHours > 0 {
		cfg.JWTExpiration = time.Duration(f.JWT.ExpirationHours) * time.Hour
	}
	if f.JWT.Issuer != "" {
		cfg.JWTIssuer = f.JWT.Issuer
	}
	if f.CentralSystem.URL != "" {
		cfg.CentralSystemURL = f.CentralSystem.URL
	}
	if f.CentralSystem.Enabled != nil {
		cfg.CentralSystemEnabled = *f.CentralSystem.Enabled
	}
	if f.CentralSystem.FailurePolicy != "" {
		cfg.CentralSystemFailurePolicy = f.CentralSystem.FailurePolicy
	}
	if f.CentralSystem.TimeoutSeconds > 0 {
		cfg.CentralSystemTimeout = time.Duration(f.CentralSystem.TimeoutSeconds) * time.Second
	}
	if f.Notifications.TimeoutSeconds > 0 {
		cfg.NotificationTimeout = time.Duration(f.Notifications.TimeoutSeconds) * time.Second
	}
	cfg.TwilioEnabled = f.Notifications.Twilio.Enabled
	if f.Notifications.Twilio.WhatsAppFrom != "" {
		cfg.TwilioWhatsAppFrom = f.Notifications.Twilio.WhatsAppFrom
	}
	cfg.SendGridEnabled = f.Notifications.SendGrid.Enabled
	if f.Notifications.SendGrid.FromEmail != "" {
		cfg.SendGridFromEmail = f.Notifications.SendGrid.FromEmail
	}
	if f.Notifications.SendGrid.FromName != "" {
		cfg.SendGridFromName = f.Notifications.SendGrid.FromName
	}
	if f.RateLimit.LoginAttempts > 0 {
		cfg.LoginRateLimit = f.RateLimit.LoginAttempts
	}
	if f.RateLimit.WindowSeconds > 0 {
		cfg.LoginRateWindow = time.Duration(f.RateLimit.WindowSeconds) * time.Second
	}
	cfg.OTelMetricsEnabled = f.Metrics.OTelEnabled
	if f.Metrics.OTLPEndpoint != "" {
		cfg.OTelEndpoint = f.Metrics.OTLPEndpoint
	}
	cfg.OTelInsecure = f.Metrics.OTLPInsecure
	if f.Metrics.IntervalSeconds > 0 {
		cfg.OTelExportInterval = time.Duration(f.Metrics.IntervalSeconds) * time.Second
	}
}

func applyEnv(cfg *Config) {
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaAuditTopic = envOrDefault("KAFKA_AUDIT_TOPIC", cfg.KafkaAuditTopic)
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(envOrDefault("SESSION_STORE", cfg.SessionStore)))
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.TrustProxy = envBool("TRUST_PROXY", cfg.TrustProxy)
	cfg.ProductionMode = envBool("PRODUCTION_MODE", cfg.ProductionMode)

	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTExpiration = time.Duration(envInt("JWT_EXPIRATION_HOURS", int(cfg.JWTExpiration.Hours()))) * time.Hour
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)

	cfg.PinTTL = time.Duration(envInt("PIN_TTL_HOURS", int(cfg.PinTTL.Hours()))) * time.Hour
	cfg.PinMaxAttempts = envInt("PIN_MAX_ATTEMPTS", cfg.PinMaxAttempts)
	cfg.PinHashAlgorithm = envOrDefault("PIN_HASH_ALGORITHM", cfg.PinHashAlgorithm)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.PinConsumeOnValid = envBool("PIN_CONSUME_ON_VALID", cfg.PinConsumeOnValid)

	cfg.CentralSystemURL = envOrDefault("CENTRAL_SYSTEM_URL", cfg.CentralSystemURL)
	cfg.CentralSystemAPIKey = envOrDefault("CENTRAL_SYSTEM_API_KEY", cfg.CentralSystemAPIKey)
	cfg.CentralSystemEnabled = envBool("CENTRAL_SYSTEM_ENABLED", cfg.CentralSystemEnabled)
	cfg.CentralSystemFailurePolicy = strings.ToLower(strings.TrimSpace(envOrDefault("CENTRAL_SYSTEM_FAILURE_POLICY", cfg.CentralSystemFailurePolicy)))
	cfg.CentralSystemTimeout = time.Duration(envInt("CENTRAL_SYSTEM_TIMEOUT_SECONDS", int(cfg.CentralSystemTimeout.Seconds()))) * time.Second

	cfg.TwilioEnabled = envBool("TWILIO_ENABLED", cfg.TwilioEnabled)
	cfg.TwilioAccountSID = envOrDefault("TWILIO_ACCOUNT_SID", cfg.TwilioAccountSID)
	cfg.TwilioAuthToken = envOrDefault("TWILIO_AUTH_TOKEN", cfg.TwilioAuthToken)
	cfg.TwilioWhatsAppFrom = envOrDefault("TWILIO_WHATSAPP_FROM", cfg.TwilioWhatsAppFrom)

	cfg.SendGridEnabled = envBool("SENDGRID_ENABLED", cfg.SendGridEnabled)
	cfg.SendGridAPIKey = envOrDefault("SENDGRID_API_KEY", cfg.SendGridAPIKey)
	cfg.SendGridFromEmail = envOrDefault("SENDGRID_FROM_EMAIL", cfg.SendGridFromEmail)
	cfg.SendGridFromName = envOrDefault("SENDGRID_FROM_NAME", cfg.SendGridFromName)

	cfg.NotificationTimeout = time.Duration(envInt("NOTIFICATION_TIMEOUT_SECONDS", int(cfg.NotificationTimeout.Seconds()))) * time.Second
	cfg.LoginRateLimit = envInt("LOGIN_RATE_LIMIT", cfg.LoginRateLimit)
	cfg.LoginRateWindow = time.Duration(envInt("LOGIN_RATE_WINDOW_SECONDS", int(cfg.LoginRateWindow.Seconds()))) * time.Second
	cfg.SessionSweepInterval = time.Duration(envInt("SESSION_SWEEP_MINUTES", int(cfg.SessionSweepInterval.Minutes()))) * time.Minute

	cfg.OTelMetricsEnabled = envBool("OTEL_METRICS_ENABLED", cfg.OTelMetricsEnabled)
	cfg.OTelEndpoint = envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTelEndpoint)
	cfg.OTelInsecure = envBool("OTEL_EXPORTER_OTLP_INSECURE", cfg.OTelInsecure)
	cfg.OTelExportInterval = time.Duration(envInt("OTEL_METRICS_INTERVAL_SECONDS", int(cfg.OTelExportInterval.Seconds()))) * time.Second
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("missing DB_URL/POSTGRES_URL")
	}
	if c.RedisURL == "" {
		return errors.New("missing REDIS_URL")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.CentralSystemEnabled && c.CentralSystemURL == "" {
		return errors.New("missing CENTRAL_SYSTEM_URL while the central system check is enabled")
	}
	switch c.SessionStore {
	case "postgres", "redis":
	default:
		return fmt.Errorf("unknown session store %q", c.SessionStore)
	}
	if c.OTelMetricsEnabled && c.OTelExportInterval <= 0 {
		return errors.New("OTEL_METRICS_INTERVAL_SECONDS must be > 0 while OTel metrics are enabled")
	}
	return nil
}

// EngineConfig maps the service configuration onto the engine's.
func (c Config) EngineConfig() pinauth.Config {
	cfg := pinauth.DefaultConfig()
	cfg.Pin.TTL = c.PinTTL
	cfg.Pin.MaxAttempts = c.PinMaxAttempts
	cfg.Pin.HashAlgorithm = c.PinHashAlgorithm
	cfg.Pin.BcryptCost = c.BcryptCost
	cfg.Pin.ConsumeOnValid = c.PinConsumeOnValid
	cfg.Token.TTL = c.JWTExpiration
	cfg.Token.PrivateKey = []byte(c.JWTSecret)
	cfg.Token.Issuer = c.JWTIssuer
	cfg.Credential.Enabled = c.CentralSystemEnabled
	cfg.Credential.FailurePolicy = credential.FailurePolicy(c.CentralSystemFailurePolicy)
	cfg.Notification.Timeout = c.NotificationTimeout
	cfg.RateLimit.MaxLoginAttempts = c.LoginRateLimit
	cfg.RateLimit.Window = c.LoginRateWindow
	cfg.Metrics.EnableLatencyHistograms = true
	cfg.Security.ProductionMode = c.ProductionMode
	return cfg
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt falls back on empty or unparsable values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
