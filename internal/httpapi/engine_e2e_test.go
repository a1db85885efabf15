package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/pinauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type staticOperators struct {
	op pinauth.Operator
}

func (s staticOperators) GetOperatorByUsername(_ context.Context, username string) (pinauth.Operator, error) {
	if username != s.op.Username {
		return pinauth.Operator{}, pinauth.ErrOperatorNotFound
	}
	return s.op, nil
}

func (s staticOperators) GetOperatorByID(_ context.Context, id int64) (pinauth.Operator, error) {
	if id != s.op.ID {
		return pinauth.Operator{}, pinauth.ErrOperatorNotFound
	}
	return s.op, nil
}

func (staticOperators) UpdateLastLogin(context.Context, int64, time.Time) error { return nil }

type passwordValidator map[string]string

func (p passwordValidator) Validate(_ context.Context, username, password string) (bool, error) {
	return p[username] == password, nil
}

func newEngineRouter(t *testing.T) http.Handler {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := pinauth.DefaultConfig()
	cfg.Pin.BcryptCost = 4
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Notification.Timeout = time.Second
	cfg.Audit.Enabled = false

	engine, err := pinauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithOperatorProvider(staticOperators{op: pinauth.Operator{
			ID: 1, Username: "alice", FullName: "Alice Moreno", Email: "alice@store.test",
			Phone: "+573001234567", Role: pinauth.RoleOperator, Active: true,
		}}).
		WithCredentialValidator(passwordValidator{"alice": "alice-pass"}).
		WithLogger(quietLogger()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return newTestRouter(engine, RouterOptions{})
}

func TestEngineFlowOverHTTP(t *testing.T) {
	h := newEngineRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "alice-pass"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	var login pinauth.LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" || len(login.Pin) != 6 {
		t.Fatalf("unexpected login result: %+v", login)
	}

	wrong := "000000"
	if login.Pin == wrong {
		wrong = "111111"
	}
	rec = doJSON(t, h, http.MethodPost, "/auth/validate-pin", login.Token, map[string]string{"pin": wrong})
	var res pinauth.ValidatePinResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode validate: %v", err)
	}
	if rec.Code != http.StatusOK || res.Outcome != pinauth.PinInvalid || res.AttemptsRemaining == nil || *res.AttemptsRemaining != 2 {
		t.Fatalf("expected INVALID with 2 remaining, got %d %+v", rec.Code, res)
	}

	rec = doJSON(t, h, http.MethodPost, "/auth/validate-pin", login.Token, map[string]string{"pin": login.Pin})
	res = pinauth.ValidatePinResult{}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode validate: %v", err)
	}
	if !res.Valid || res.Outcome != pinauth.PinValid {
		t.Fatalf("expected VALID, got %+v", res)
	}

	rec = doJSON(t, h, http.MethodGet, "/auth/session", login.Token, nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "true" {
		t.Fatalf("expected active session, got %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/auth/logout", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/auth/session", login.Token, nil)
	if rec.Code != http.StatusUnauthorized || strings.TrimSpace(rec.Body.String()) != "false" {
		t.Fatalf("revoked token must yield 401 false, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestEngineLoginBadPasswordOverHTTP(t *testing.T) {
	h := newEngineRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	if rec.Code != http.StatusUnauthorized || decodeError(t, rec).Error != "INVALID_CREDENTIALS" {
		t.Fatalf("expected 401 INVALID_CREDENTIALS, got %d %s", rec.Code, rec.Body.String())
	}
}
