package pinauth

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/pinauth/credential"
	"github.com/MrEthical07/pinauth/internal/audit"
	"github.com/MrEthical07/pinauth/internal/rate"
	"github.com/MrEthical07/pinauth/jwt"
	"github.com/MrEthical07/pinauth/notify"
	"github.com/MrEthical07/pinauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Configure it during initialization and call
// Build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	operators  OperatorProvider
	sessions   session.Registry
	validator  credential.Validator
	message    notify.Channel
	email      notify.Channel
	auditSink  AuditSink
	logger     *slog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the TTL store used for PIN records, the login limiter and,
// unless WithSessionRegistry is called, sessions.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithOperatorProvider(p OperatorProvider) *Builder {
	b.operators = p
	return b
}

// WithSessionRegistry overrides the default Redis-backed registry, e.g. with
// [session.NewGormRegistry].
func (b *Builder) WithSessionRegistry(r session.Registry) *Builder {
	b.sessions = r
	return b
}

// WithCredentialValidator sets the external primary-credential check. It is
// required when Config.Credential.Enabled is true.
func (b *Builder) WithCredentialValidator(v credential.Validator) *Builder {
	b.validator = v
	return b
}

// WithNotifier sets the message and email channels. Either may be nil, in
// which case that channel always reports not sent.
func (b *Builder) WithNotifier(message, email notify.Channel) *Builder {
	b.message = message
	b.email = email
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.operators == nil {
		return nil, errors.New("operator provider required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- PIN STORE --------
	pins, err := newPinStore(b.redis, cfg.Pin)
	if err != nil {
		return nil, err
	}

	// -------- CREDENTIAL GATE --------
	gate, err := credential.NewGate(credential.Config{
		Enabled:       cfg.Credential.Enabled,
		FailurePolicy: cfg.Credential.FailurePolicy,
	}, b.validator, logger)
	if err != nil {
		return nil, err
	}

	// -------- TOKENS --------
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Token.TTL,
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- SESSIONS --------
	sessions := b.sessions
	if sessions == nil {
		sessions = session.NewRedisRegistry(b.redis, cfg.Session.RedisPrefix)
	}

	engine := &Engine{
		config:    cfg,
		logger:    logger.With("module", "pinauth"),
		pins:      pins,
		gate:      gate,
		notifier:  notify.NewDispatcher(notify.Config{Timeout: cfg.Notification.Timeout}, b.message, b.email, logger),
		tokens:    tokens,
		sessions:  sessions,
		operators: b.operators,
		metrics:   NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink, logger),
	}
	if cfg.RateLimit.Enabled {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
			Window:           cfg.RateLimit.Window,
		})
	}
	engine.flow = engine.newFlowService()

	for _, w := range cfg.Lint() {
		if w.Severity >= LintWarn {
			engine.logger.Warn("config lint", "code", w.Code, "message", w.Message)
		}
	}

	b.built = true

	return engine, nil
}
