package notifications

import "context"

type SendResetLinkInput struct {
	Email string
	Name  string
	Link  string
}

type SendPasswordChangedInput struct {
	Email string
	Name  string
}

type Notifier interface {
	// SendResetLink delivers the reset link; the caller treats a failure
	// as non-fatal for the reset request flow.
	SendResetLink(ctx context.Context, input SendResetLinkInput) error

	// SendPasswordChanged is best-effort; failures are logged and swallowed.
	SendPasswordChanged(ctx context.Context, input SendPasswordChangedInput) error
}
