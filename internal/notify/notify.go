package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers one chat message to a webhook endpoint.
type Notifier interface {
	Send(ctx context.Context, endpoint, text string) error
}

// Multi sends to every notifier and returns all of their errors combined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, endpoint, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, endpoint, text))
	}
	return err
}
