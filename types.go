package pinauth

import (
	"context"
	"strings"
	"time"
)

// Role is the label carried by an operator. It is not an authorization
// model; the engine only propagates it into tokens and summaries.
type Role string

const (
	RoleOperator   Role = "OPERATOR"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

var knownRoles = map[Role]struct{}{
	RoleOperator:   {},
	RoleSupervisor: {},
	RoleAdmin:      {},
}

// ParseRole normalizes value and reports whether it names a known role.
func ParseRole(value string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := knownRoles[r]
	return r, ok
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// Operator is the identity record owned by the operator store. The password
// hash is never seen by this package; credentials are checked externally.
type Operator struct {
	ID          int64
	Username    string
	FullName    string
	Email       string
	Phone       string
	Role        Role
	Active      bool
	LastLoginAt *time.Time
}

// OperatorProvider is implemented by the relational operator store.
//
// Lookups must return [ErrOperatorNotFound] (optionally wrapped) when no row
// matches.
//
//	Docs: internal/postgres.OperatorRepository
type OperatorProvider interface {
	GetOperatorByUsername(ctx context.Context, username string) (Operator, error)
	GetOperatorByID(ctx context.Context, operatorID int64) (Operator, error)
	UpdateLastLogin(ctx context.Context, operatorID int64, at time.Time) error
}

// OperatorSummary is the operator view returned by Login.
// VerificationCode mirrors the issued PIN for clients that display it.
type OperatorSummary struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Name             string `json:"name"`
	Role             Role   `json:"role"`
	VerificationCode string `json:"verificationCode,omitempty"`
}

// OperatorProfile is the operator view returned by a successful ValidatePin.
type OperatorProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role"`
}

// MessageNotice reports the message channel delivery.
type MessageNotice struct {
	Sent        bool   `json:"sent"`
	MaskedPhone string `json:"maskedPhone"`
}

// EmailNotice reports the email channel delivery.
type EmailNotice struct {
	Sent        bool   `json:"sent"`
	MaskedEmail string `json:"maskedEmail"`
}

// Notifications carries per-channel delivery flags. Delivery is best-effort
// and a false flag never fails Login.
type Notifications struct {
	WhatsApp MessageNotice `json:"whatsapp"`
	Email    EmailNotice   `json:"email"`
}

// LoginResult is returned by [Engine.Login]. Pin is the plaintext secret and
// is included exactly once, in this payload.
type LoginResult struct {
	Success       bool            `json:"success"`
	Token         string          `json:"token"`
	ExpiresIn     int64           `json:"expiresIn"`
	Operator      OperatorSummary `json:"operator"`
	Pin           string          `json:"pin"`
	PinExpiresAt  time.Time       `json:"pinExpiresAt"`
	Notifications Notifications   `json:"notifications"`
}

// PinOutcome classifies a ValidatePin call.
type PinOutcome string

const (
	PinValid            PinOutcome = "VALID"
	PinInvalid          PinOutcome = "INVALID"
	PinExpired          PinOutcome = "EXPIRED"
	PinAttemptsExceeded PinOutcome = "MAX_ATTEMPTS_EXCEEDED"
)

func (o PinOutcome) String() string {
	return string(o)
}

// Err maps the outcome onto the PIN sentinel errors. PinValid maps to nil.
func (o PinOutcome) Err() error {
	switch o {
	case PinValid:
		return nil
	case PinInvalid:
		return ErrPinMismatch
	case PinExpired:
		return ErrPinExpiredOrAbsent
	case PinAttemptsExceeded:
		return ErrPinAttemptsExceeded
	default:
		return ErrEngineNotReady
	}
}

// ValidatePinResult is the discriminated ValidatePin response. PIN outcomes
// are reported here and never as errors.
type ValidatePinResult struct {
	Success           bool             `json:"success"`
	Valid             bool             `json:"valid"`
	Outcome           PinOutcome       `json:"outcome"`
	Operator          *OperatorProfile `json:"operator,omitempty"`
	AttemptsRemaining *int             `json:"attemptsRemaining,omitempty"`
	Message           string           `json:"message,omitempty"`
	RequiresLogin     bool             `json:"requiresLogin,omitempty"`
}

// Claims is the verified content of a session token.
type Claims struct {
	OperatorID int64
	Username   string
	Role       Role
	Email      string
	JTI        string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}
