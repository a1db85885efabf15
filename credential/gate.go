package credential

import (
	"context"
	"errors"
	"log/slog"
)

// FailurePolicy decides the outcome when the validator cannot be reached.
type FailurePolicy string

const (
	FailClosed FailurePolicy = "closed"
	FailOpen   FailurePolicy = "open"
)

// Config configures a Gate. FailurePolicy has no default and must be set
// whenever Enabled is true.
type Config struct {
	Enabled       bool
	FailurePolicy FailurePolicy
}

// Gate is the primary-credential check used by Login.
type Gate struct {
	config    Config
	validator Validator
	logger    *slog.Logger
}

func NewGate(cfg Config, validator Validator, logger *slog.Logger) (*Gate, error) {
	if cfg.Enabled {
		switch cfg.FailurePolicy {
		case FailClosed, FailOpen:
		case "":
			return nil, errors.New("credential failure policy must be set explicitly")
		default:
			return nil, errors.New("unknown credential failure policy")
		}
		if validator == nil {
			return nil, errors.New("credential validator is required when enabled")
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		config:    cfg,
		validator: validator,
		logger:    logger.With("module", "credential"),
	}, nil
}

// Verify performs a single synchronous check. It never returns an error: a
// transport failure resolves through the configured FailurePolicy.
func (g *Gate) Verify(ctx context.Context, username, password string) bool {
	if !g.config.Enabled {
		g.logger.WarnContext(ctx, "credential check disabled, allowing login", "username", username)
		return true
	}

	valid, err := g.validator.Validate(ctx, username, password)
	if err != nil {
		allow := g.config.FailurePolicy == FailOpen
		g.logger.ErrorContext(ctx, "credential validator call failed",
			"username", username,
			"policy", string(g.config.FailurePolicy),
			"allowed", allow,
			"error", err,
		)
		return allow
	}

	g.logger.InfoContext(ctx, "credential check completed", "username", username, "valid", valid)
	return valid
}
