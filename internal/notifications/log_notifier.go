package notifications

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogNotifier stands in for the SMTP transport in local development.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendResetLink(ctx context.Context, in SendResetLinkInput) error {
	if err := simulate(ctx); err != nil {
		return err
	}

	log.Printf("notification.reset_link email=%s name=%s link=%s", in.Email, in.Name, in.Link)
	return nil
}

func (n *LogNotifier) SendPasswordChanged(ctx context.Context, in SendPasswordChangedInput) error {
	if err := simulate(ctx); err != nil {
		return err
	}

	log.Printf("notification.password_changed email=%s name=%s", in.Email, in.Name)
	return nil
}

// simulate lets local runs exercise slow or failing providers.
func simulate(ctx context.Context) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	return nil
}
