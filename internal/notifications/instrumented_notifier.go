package notifications

import (
	"context"

	"github.com/modernblog/bloghub/internal/observability"
)

// InstrumentedNotifier records send counts and latency per mail kind.
type InstrumentedNotifier struct {
	inner Notifier
	prom  *observability.Prom
}

func NewInstrumentedNotifier(inner Notifier, prom *observability.Prom) *InstrumentedNotifier {
	return &InstrumentedNotifier{inner: inner, prom: prom}
}

func (n *InstrumentedNotifier) SendResetLink(ctx context.Context, input SendResetLinkInput) error {
	return n.prom.ObserveMail("reset_link", func() error {
		return n.inner.SendResetLink(ctx, input)
	})
}

func (n *InstrumentedNotifier) SendPasswordChanged(ctx context.Context, input SendPasswordChangedInput) error {
	return n.prom.ObserveMail("password_changed", func() error {
		return n.inner.SendPasswordChanged(ctx, input)
	})
}
