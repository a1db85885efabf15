package test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MrEthical07/pinauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testSigningKey = "integration-signing-key-0123456789"

type fixedOperators map[string]pinauth.Operator

func (f fixedOperators) GetOperatorByUsername(_ context.Context, username string) (pinauth.Operator, error) {
	op, ok := f[username]
	if !ok {
		return pinauth.Operator{}, pinauth.ErrOperatorNotFound
	}
	return op, nil
}

func (f fixedOperators) GetOperatorByID(_ context.Context, id int64) (pinauth.Operator, error) {
	for _, op := range f {
		if op.ID == id {
			return op, nil
		}
	}
	return pinauth.Operator{}, pinauth.ErrOperatorNotFound
}

func (fixedOperators) UpdateLastLogin(context.Context, int64, time.Time) error { return nil }

type passwordTable map[string]string

func (p passwordTable) Validate(_ context.Context, username, password string) (bool, error) {
	want, ok := p[username]
	return ok && want == password, nil
}

func defaultOperators() fixedOperators {
	return fixedOperators{
		"alice": {ID: 1, Username: "alice", FullName: "Alice Moreno", Email: "alice@store.test", Phone: "+573001112233", Role: pinauth.RoleOperator, Active: true},
		"bruno": {ID: 2, Username: "bruno", FullName: "Bruno Diaz", Email: "bruno@store.test", Phone: "+573004445566", Role: pinauth.RoleSupervisor, Active: true},
	}
}

func integrationConfig() pinauth.Config {
	cfg := pinauth.DefaultConfig()
	cfg.Pin.BcryptCost = 4
	cfg.Token.PrivateKey = []byte(testSigningKey)
	cfg.Notification.Timeout = time.Second
	cfg.RateLimit.Enabled = false
	cfg.Audit.Enabled = false
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEngine builds an engine over rdb with the default operators.
func newEngine(t *testing.T, rdb redis.UniversalClient, cfg pinauth.Config) *pinauth.Engine {
	t.Helper()
	engine, err := pinauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithOperatorProvider(defaultOperators()).
		WithCredentialValidator(passwordTable{"alice": "alice-pass", "bruno": "bruno-pass"}).
		WithLogger(discardLogger()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newMiniredisEngine(t *testing.T, cfg pinauth.Config) (*pinauth.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return newEngine(t, rdb, cfg), mr
}

func wrongPin(pin string) string {
	if pin == "000000" {
		return "111111"
	}
	return "000000"
}
