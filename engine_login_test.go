package pinauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/pinauth/internal"
	"github.com/MrEthical07/pinauth/notify"
	"github.com/MrEthical07/pinauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

type mockOperatorProvider struct {
	mu        sync.Mutex
	byID      map[int64]Operator
	lastLogin map[int64]time.Time
	lookupErr error
}

func newMockOperatorProvider(ops ...Operator) *mockOperatorProvider {
	m := &mockOperatorProvider{
		byID:      map[int64]Operator{},
		lastLogin: map[int64]time.Time{},
	}
	for _, op := range ops {
		m.byID[op.ID] = op
	}
	return m
}

func (m *mockOperatorProvider) GetOperatorByUsername(_ context.Context, username string) (Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return Operator{}, m.lookupErr
	}
	for _, op := range m.byID {
		if op.Username == username {
			return op, nil
		}
	}
	return Operator{}, ErrOperatorNotFound
}

func (m *mockOperatorProvider) GetOperatorByID(_ context.Context, operatorID int64) (Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return Operator{}, m.lookupErr
	}
	op, ok := m.byID[operatorID]
	if !ok {
		return Operator{}, ErrOperatorNotFound
	}
	return op, nil
}

func (m *mockOperatorProvider) UpdateLastLogin(_ context.Context, operatorID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogin[operatorID] = at
	return nil
}

func (m *mockOperatorProvider) setActive(operatorID int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op := m.byID[operatorID]
	op.Active = active
	m.byID[operatorID] = op
}

type stubValidator struct {
	passwords map[string]string
	err       error
	calls     atomic.Int64
}

func (v *stubValidator) Validate(_ context.Context, username, password string) (bool, error) {
	v.calls.Add(1)
	if v.err != nil {
		return false, v.err
	}
	want, ok := v.passwords[username]
	return ok && want == password, nil
}

type recordingChannel struct {
	name    string
	enabled bool
	delay   time.Duration
	err     error

	mu   sync.Mutex
	sent []notify.Content
}

func (c *recordingChannel) Name() string  { return c.name }
func (c *recordingChannel) Enabled() bool { return c.enabled }

func (c *recordingChannel) Send(ctx context.Context, _ notify.Recipient, content notify.Content) error {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	c.sent = append(c.sent, content)
	c.mu.Unlock()
	return nil
}

func (c *recordingChannel) Mask(to notify.Recipient) string {
	if c.name == "email" {
		return notify.MaskEmail(to.Email)
	}
	return notify.MaskPhone(to.Phone)
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *recordingChannel) last() notify.Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return notify.Content{}
	}
	return c.sent[len(c.sent)-1]
}

type memoryAuditSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *memoryAuditSink) Write(_ context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memoryAuditSink) snapshot() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *memoryAuditSink) actions() []AuditAction {
	var out []AuditAction
	for _, e := range s.snapshot() {
		out = append(out, e.Action)
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Pin.BcryptCost = 4
	cfg.Token.PrivateKey = testSigningKey
	cfg.Notification.Timeout = time.Second
	cfg.Audit.DropIfFull = false
	return cfg
}

func testOperators() []Operator {
	return []Operator{
		{ID: 1, Username: "alice", FullName: "Alice Moreno", Email: "alice@store.test", Phone: "+573001234567", Role: RoleOperator, Active: true},
		{ID: 2, Username: "bob", FullName: "Bob Ruiz", Email: "bob@store.test", Phone: "+573009876543", Role: RoleSupervisor, Active: true},
		{ID: 3, Username: "carol", FullName: "Carol Diaz", Email: "carol@store.test", Phone: "+573005550000", Role: RoleOperator, Active: false},
	}
}

type testHarness struct {
	engine    *Engine
	mr        *miniredis.Miniredis
	redis     *redis.Client
	operators *mockOperatorProvider
	validator *stubValidator
	message   *recordingChannel
	email     *recordingChannel
	audit     *memoryAuditSink
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestHarness(t *testing.T, cfg Config, mutate ...func(*testHarness)) *testHarness {
	t.Helper()

	mr, rdb := newTestRedis(t)
	h := &testHarness{
		mr:        mr,
		redis:     rdb,
		operators: newMockOperatorProvider(testOperators()...),
		validator: &stubValidator{passwords: map[string]string{
			"alice": "alice-pass",
			"bob":   "bob-pass",
			"carol": "carol-pass",
		}},
		message: &recordingChannel{name: "whatsapp", enabled: true},
		email:   &recordingChannel{name: "email", enabled: true},
		audit:   &memoryAuditSink{},
	}
	for _, fn := range mutate {
		fn(h)
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithOperatorProvider(h.operators).
		WithCredentialValidator(h.validator).
		WithNotifier(h.message, h.email).
		WithAuditSink(h.audit).
		WithLogger(quietLogger()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	h.engine = engine

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return h
}

func wrongPIN(pin string) string {
	if pin == "111111" {
		return "222222"
	}
	return "111111"
}

func TestLoginIssuesPinTokenAndSession(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := WithUserAgent(WithClientIP(context.Background(), "10.0.0.7"), "pos-terminal/2.1")

	before := time.Now()
	res, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if !res.Success || res.Token == "" {
		t.Fatalf("expected success with token, got %+v", res)
	}
	if !internal.IsPIN(res.Pin) {
		t.Fatalf("expected six digit pin, got %q", res.Pin)
	}
	if res.Operator.ID != 1 || res.Operator.Username != "alice" || res.Operator.Name != "Alice Moreno" {
		t.Fatalf("unexpected operator summary: %+v", res.Operator)
	}
	if res.Operator.Role != RoleOperator || res.Operator.VerificationCode != res.Pin {
		t.Fatalf("unexpected role or verification code: %+v", res.Operator)
	}
	if res.ExpiresIn != int64((8 * time.Hour).Seconds()) {
		t.Fatalf("expected 8h expiresIn, got %d", res.ExpiresIn)
	}

	wantExpiry := before.Add(8 * time.Hour)
	if res.PinExpiresAt.Before(wantExpiry.Add(-time.Second)) || res.PinExpiresAt.After(time.Now().Add(8*time.Hour)) {
		t.Fatalf("pin expiry %v not TTL after issuance", res.PinExpiresAt)
	}
	if ttl := h.mr.TTL("pin:operator:1"); ttl != 8*time.Hour {
		t.Fatalf("expected 8h record ttl, got %v", ttl)
	}

	stored, err := h.engine.pins.records.Get(ctx, "1")
	if err != nil {
		t.Fatalf("pin record missing: %v", err)
	}
	if stored.Attempts != 0 {
		t.Fatalf("expected attempts=0, got %d", stored.Attempts)
	}
	if stored.Hash == res.Pin || strings.Contains(stored.Hash, res.Pin) {
		t.Fatal("pin must be stored hashed")
	}

	n := res.Notifications
	if !n.WhatsApp.Sent || n.WhatsApp.MaskedPhone != "***-***-4567" {
		t.Fatalf("unexpected whatsapp notice: %+v", n.WhatsApp)
	}
	if !n.Email.Sent || n.Email.MaskedEmail != "a***@store.test" {
		t.Fatalf("unexpected email notice: %+v", n.Email)
	}
	if !strings.Contains(h.message.last().Text, res.Pin) {
		t.Fatal("message content must carry the pin")
	}
	if !strings.Contains(h.email.last().HTML, res.Pin) {
		t.Fatal("email content must carry the pin")
	}

	claims, err := h.engine.VerifyToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.OperatorID != 1 || claims.Username != "alice" || claims.Role != RoleOperator || claims.JTI == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	record, err := h.engine.sessions.FindActiveByJTI(ctx, claims.JTI)
	if err != nil {
		t.Fatalf("session for jti missing: %v", err)
	}
	if record.OperatorID != 1 || record.IPAddress != "10.0.0.7" || record.UserAgent != "pos-terminal/2.1" {
		t.Fatalf("unexpected session record: %+v", record)
	}

	h.operators.mu.Lock()
	_, touched := h.operators.lastLogin[1]
	h.operators.mu.Unlock()
	if !touched {
		t.Fatal("expected last login to be recorded")
	}

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 || snap.Counters[MetricPinIssued] != 1 || snap.Counters[MetricSessionCreated] != 1 {
		t.Fatalf("unexpected counters: %+v", snap.Counters)
	}
	if snap.Counters[MetricNotificationSent] != 2 {
		t.Fatalf("expected two notifications sent, got %d", snap.Counters[MetricNotificationSent])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "alice", password: "nope"},
		{name: "unknown user", username: "mallory", password: "alice-pass"},
		{name: "empty password", username: "alice", password: ""},
		{name: "empty username", username: "", password: "alice-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.engine.Login(ctx, tt.username, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if res != nil {
				t.Fatalf("expected nil result, got %+v", res)
			}
		})
	}

	if h.mr.Exists("pin:operator:1") {
		t.Fatal("no pin may be issued on failed login")
	}
	if h.message.count() != 0 || h.email.count() != 0 {
		t.Fatal("no notification may be sent on failed login")
	}
}

func TestLoginOperatorNotFoundAfterValidCredentials(t *testing.T) {
	h := newTestHarness(t, testConfig(), func(h *testHarness) {
		h.validator.passwords["ghost"] = "ghost-pass"
	})

	_, err := h.engine.Login(context.Background(), "ghost", "ghost-pass")
	if !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}

func TestLoginInactiveOperatorRejected(t *testing.T) {
	h := newTestHarness(t, testConfig())

	_, err := h.engine.Login(context.Background(), "carol", "carol-pass")
	if !errors.Is(err, ErrOperatorInactive) {
		t.Fatalf("expected ErrOperatorInactive, got %v", err)
	}
	if h.mr.Exists("pin:operator:3") {
		t.Fatal("inactive operator must not receive a pin")
	}

	h.engine.Close()
	events := h.audit.snapshot()
	if len(events) != 1 || events[0].Action != AuditLoginFailed {
		t.Fatalf("expected single LOGIN_FAILED event, got %+v", events)
	}
	if events[0].OperatorID != 3 || events[0].Error != "operator_inactive" {
		t.Fatalf("unexpected audit event: %+v", events[0])
	}
}

func TestLoginCredentialValidatorFailClosed(t *testing.T) {
	h := newTestHarness(t, testConfig(), func(h *testHarness) {
		h.validator.err = errors.New("dial tcp: connection refused")
	})

	_, err := h.engine.Login(context.Background(), "alice", "alice-pass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected fail-closed ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginCredentialValidatorFailOpen(t *testing.T) {
	cfg := testConfig()
	cfg.Credential.FailurePolicy = "open"
	h := newTestHarness(t, cfg, func(h *testHarness) {
		h.validator.err = errors.New("dial tcp: connection refused")
	})

	res, err := h.engine.Login(context.Background(), "alice", "wrong-but-unchecked")
	if err != nil {
		t.Fatalf("expected fail-open login, got %v", err)
	}
	if !res.Success {
		t.Fatal("expected success under fail-open")
	}
}

func TestLoginCredentialCheckDisabledSkipsValidator(t *testing.T) {
	cfg := testConfig()
	cfg.Credential.Enabled = false
	h := newTestHarness(t, cfg)

	if _, err := h.engine.Login(context.Background(), "alice", "anything"); err != nil {
		t.Fatalf("expected login with check disabled, got %v", err)
	}
	if h.validator.calls.Load() != 0 {
		t.Fatal("validator must not be called when disabled")
	}
}

func TestLoginNotificationFailuresDoNotFailLogin(t *testing.T) {
	cfg := testConfig()
	cfg.Notification.Timeout = 100 * time.Millisecond
	h := newTestHarness(t, cfg, func(h *testHarness) {
		h.message.delay = 2 * time.Second
		h.email.err = errors.New("smtp: 451 temporary failure")
	})

	start := time.Now()
	res, err := h.engine.Login(context.Background(), "alice", "alice-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("login blocked on notification for %v", elapsed)
	}
	if res.Notifications.WhatsApp.Sent || res.Notifications.Email.Sent {
		t.Fatalf("expected both channels unsent, got %+v", res.Notifications)
	}
	if res.Notifications.WhatsApp.MaskedPhone != "***-***-4567" {
		t.Fatalf("masked destination must be reported even when unsent: %+v", res.Notifications.WhatsApp)
	}
	if h.engine.MetricsSnapshot().Counters[MetricNotificationFailed] != 2 {
		t.Fatal("expected two failed notifications counted")
	}
}

func TestLoginDisabledChannelReportsNotSent(t *testing.T) {
	h := newTestHarness(t, testConfig(), func(h *testHarness) {
		h.email.enabled = false
	})

	res, err := h.engine.Login(context.Background(), "alice", "alice-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !res.Notifications.WhatsApp.Sent || res.Notifications.Email.Sent {
		t.Fatalf("unexpected delivery flags: %+v", res.Notifications)
	}
	if h.email.count() != 0 {
		t.Fatal("disabled channel must not send")
	}
}

func TestLoginReplacesPriorPin(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := context.Background()

	first, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := h.engine.ValidatePin(ctx, 1, wrongPIN(first.Pin)); err != nil {
		t.Fatalf("wrong pin: %v", err)
	}

	second, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	stored, err := h.engine.pins.records.Get(ctx, "1")
	if err != nil {
		t.Fatalf("record missing: %v", err)
	}
	if stored.Attempts != 0 {
		t.Fatalf("expected attempts reset by new login, got %d", stored.Attempts)
	}

	if first.Pin != second.Pin {
		res, err := h.engine.ValidatePin(ctx, 1, first.Pin)
		if err != nil {
			t.Fatalf("validate old pin: %v", err)
		}
		if res.Valid {
			t.Fatal("superseded pin must not validate")
		}
	}
	res, err := h.engine.ValidatePin(ctx, 1, second.Pin)
	if err != nil || !res.Valid {
		t.Fatalf("expected new pin valid, got %+v err=%v", res, err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxLoginAttempts = 2
	h := newTestHarness(t, cfg)
	ctx := WithClientIP(context.Background(), "10.0.0.9")

	for i := 0; i < 2; i++ {
		if _, err := h.engine.Login(ctx, "alice", "bad"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := h.engine.Login(ctx, "alice", "alice-pass"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
	if h.engine.MetricsSnapshot().Counters[MetricLoginRateLimited] != 1 {
		t.Fatal("expected rate limited counter")
	}

	h.mr.FastForward(cfg.RateLimit.Window + time.Second)
	if _, err := h.engine.Login(ctx, "alice", "alice-pass"); err != nil {
		t.Fatalf("expected login after window, got %v", err)
	}
}

func TestLoginPinStoreUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	h := newTestHarness(t, cfg)
	h.mr.Close()

	_, err := h.engine.Login(context.Background(), "alice", "alice-pass")
	if !errors.Is(err, ErrPinStoreUnavailable) {
		t.Fatalf("expected ErrPinStoreUnavailable, got %v", err)
	}
	if h.message.count() != 0 {
		t.Fatal("no notification may be sent when the pin was not stored")
	}
}

func TestLoginAuditTrail(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := WithClientIP(context.Background(), "10.0.0.7")

	if _, err := h.engine.Login(ctx, "alice", "nope"); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := h.engine.Login(ctx, "alice", "alice-pass"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	h.engine.Close()

	events := h.audit.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected two audit events, got %d", len(events))
	}
	failed, ok := events[0], events[1]
	if failed.Action != AuditLoginFailed || failed.Success || failed.Error != "invalid_credentials" {
		t.Fatalf("unexpected failure event: %+v", failed)
	}
	if failed.Username != "alice" || failed.IP != "10.0.0.7" {
		t.Fatalf("failure event missing origin: %+v", failed)
	}
	if ok.Action != AuditLogin || !ok.Success || ok.OperatorID != 1 || ok.EntityType != "OPERATOR" || ok.EntityID != "1" {
		t.Fatalf("unexpected success event: %+v", ok)
	}
	if ok.Metadata["session_id"] == "" {
		t.Fatal("expected session id in login metadata")
	}
	for _, e := range events {
		for _, v := range e.Metadata {
			if strings.Contains(v, "alice-pass") {
				t.Fatal("audit metadata must not carry secrets")
			}
		}
	}
}

func TestLoginAuditSinkFailureIsSwallowed(t *testing.T) {
	mr, rdb := newTestRedis(t)
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	sink := AuditSinkFunc(func(context.Context, AuditEvent) error {
		return errors.New("audit table locked")
	})
	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithOperatorProvider(newMockOperatorProvider(testOperators()...)).
		WithCredentialValidator(&stubValidator{passwords: map[string]string{"alice": "alice-pass"}}).
		WithAuditSink(sink).
		WithLogger(quietLogger()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	res, err := engine.Login(context.Background(), "alice", "alice-pass")
	if err != nil {
		t.Fatalf("audit failure must not fail login: %v", err)
	}
	if res.Notifications.WhatsApp.Sent || res.Notifications.Email.Sent {
		t.Fatal("nil channels must report not sent")
	}
	engine.Close()

	if engine.AuditFailed() != 1 {
		t.Fatalf("expected one failed audit write, got %d", engine.AuditFailed())
	}
	if engine.MetricsSnapshot().Counters[MetricAuditFailed] != 1 {
		t.Fatal("expected audit failure surfaced in metrics")
	}
}

type failingRegistry struct {
	session.Registry
}

func (failingRegistry) Create(context.Context, int64, string, session.Origin, time.Duration) (*session.Record, error) {
	return nil, session.ErrUnavailable
}

func TestLoginSessionFailureSendsNoPin(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	message := &recordingChannel{name: "whatsapp", enabled: true}
	email := &recordingChannel{name: "email", enabled: true}
	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithOperatorProvider(newMockOperatorProvider(testOperators()...)).
		WithCredentialValidator(&stubValidator{passwords: map[string]string{"alice": "alice-pass"}}).
		WithNotifier(message, email).
		WithSessionRegistry(failingRegistry{}).
		WithLogger(quietLogger()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	_, err = engine.Login(context.Background(), "alice", "alice-pass")
	if !errors.Is(err, ErrSessionCreationFailed) {
		t.Fatalf("expected ErrSessionCreationFailed, got %v", err)
	}
	if mr.Exists("pin:operator:1") {
		t.Fatal("expected pin discarded after session failure")
	}
	if message.count() != 0 || email.count() != 0 {
		t.Fatalf("discarded pin must not be delivered, got %d message and %d email sends", message.count(), email.count())
	}
}
