package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Second

// Config configures a Dispatcher.
type Config struct {
	// Timeout bounds how long Wait blocks on unfinished channels.
	Timeout time.Duration
}

// ChannelReport is the delivery outcome of one channel.
type ChannelReport struct {
	Sent        bool
	Destination string
}

// Report holds per-channel outcomes with masked destinations.
type Report struct {
	Message ChannelReport
	Email   ChannelReport
}

// Dispatcher fans a PIN out to the message and email channels concurrently.
type Dispatcher struct {
	config  Config
	message Channel
	email   Channel
	logger  *slog.Logger
}

// NewDispatcher accepts nil channels; a nil channel always reports not sent.
func NewDispatcher(cfg Config, message, email Channel, logger *slog.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		config:  cfg,
		message: message,
		email:   email,
		logger:  logger.With("module", "notify"),
	}
}

type sendResult struct {
	email bool
	sent  bool
}

// Pending is an in-flight dispatch started by Start.
type Pending struct {
	results  chan sendResult
	expected int
	deadline time.Time
	cancel   context.CancelFunc

	once   sync.Once
	report Report
}

// Start launches both sends and returns immediately. The sends are detached
// from ctx cancellation and bounded by the dispatcher timeout.
func (d *Dispatcher) Start(ctx context.Context, to Recipient, content Content) *Pending {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.Timeout)
	p := &Pending{
		results:  make(chan sendResult, 2),
		deadline: time.Now().Add(d.config.Timeout),
		cancel:   cancel,
	}
	p.report.Message.Destination = maskFor(d.message, to, MaskPhone(to.Phone))
	p.report.Email.Destination = maskFor(d.email, to, MaskEmail(to.Email))

	p.expected = 2
	go func() { p.results <- sendResult{email: false, sent: d.deliver(sendCtx, d.message, to, content)} }()
	go func() { p.results <- sendResult{email: true, sent: d.deliver(sendCtx, d.email, to, content)} }()

	return p
}

// SendPin is Start followed by Wait.
func (d *Dispatcher) SendPin(ctx context.Context, to Recipient, content Content) Report {
	return d.Start(ctx, to, content).Wait()
}

// Wait joins both sends, returning once both finished or the deadline passed.
// Channels still running at the deadline report Sent=false. Wait is safe to
// call more than once.
func (p *Pending) Wait() Report {
	p.once.Do(func() {
		defer p.cancel()

		timer := time.NewTimer(time.Until(p.deadline))
		defer timer.Stop()

		for remaining := p.expected; remaining > 0; remaining-- {
			select {
			case res := <-p.results:
				if res.email {
					p.report.Email.Sent = res.sent
				} else {
					p.report.Message.Sent = res.sent
				}
			case <-timer.C:
				return
			}
		}
	})
	return p.report
}

// deliver never panics or returns an error past this boundary.
func (d *Dispatcher) deliver(ctx context.Context, ch Channel, to Recipient, content Content) (sent bool) {
	if ch == nil {
		return false
	}
	name := ch.Name()
	destination := ch.Mask(to)

	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "notification panicked", "channel", name, "to", destination, "panic", fmt.Sprint(r))
			sent = false
		}
	}()

	if !ch.Enabled() {
		d.logger.WarnContext(ctx, "notification channel disabled", "channel", name)
		return false
	}

	if err := ch.Send(ctx, to, content); err != nil {
		if errors.Is(err, ErrChannelDisabled) {
			return false
		}
		d.logger.ErrorContext(ctx, "notification failed", "channel", name, "to", destination, "error", err)
		return false
	}

	d.logger.InfoContext(ctx, "notification sent", "channel", name, "to", destination)
	return true
}

func maskFor(ch Channel, to Recipient, fallback string) string {
	if ch == nil {
		return fallback
	}
	return ch.Mask(to)
}
