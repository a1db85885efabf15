package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.IssuePin != nil && s.deps.Token.Verify != nil
}

func (s Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	return RunLogin(ctx, username, password, s.deps.Login)
}

func (s Service) ValidatePin(ctx context.Context, operatorID int64, pin string) (*PinResult, error) {
	return RunValidatePin(ctx, operatorID, pin, s.deps.Pin)
}

func (s Service) Logout(ctx context.Context, operatorID int64) error {
	return RunLogout(ctx, operatorID, s.deps.Logout)
}

func (s Service) CheckSession(ctx context.Context, operatorID int64) (bool, error) {
	return RunCheckSession(ctx, operatorID, s.deps.Session)
}

func (s Service) VerifyToken(ctx context.Context, token string) (*TokenResult, error) {
	return RunVerifyToken(ctx, token, s.deps.Token)
}
