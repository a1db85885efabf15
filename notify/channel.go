package notify

import (
	"context"
	"errors"
)

// ErrChannelDisabled is returned by Send on a channel that is switched off.
var ErrChannelDisabled = errors.New("notification channel disabled")

// Recipient identifies the operator a PIN is delivered to.
type Recipient struct {
	Name  string
	Phone string
	Email string
}

// Channel delivers rendered content to one destination kind.
type Channel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, to Recipient, content Content) error
	// Mask returns the privacy-safe destination for to.
	Mask(to Recipient) string
}
