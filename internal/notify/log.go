package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log writes every message to the logger. Combined with Slack in a Multi it
// leaves a trail of what was sent even when delivery fails.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(_ context.Context, endpoint, text string) error {
	if l.Logger != nil {
		l.Logger.Info("notification", zap.String("endpoint", redact(endpoint)), zap.String("text", text))
	}
	return nil
}

// redact keeps the scheme and host of a webhook URL; the path usually
// carries the secret token.
func redact(endpoint string) string {
	for i, slashes := 0, 0; i < len(endpoint); i++ {
		if endpoint[i] == '/' {
			slashes++
			if slashes == 3 {
				return endpoint[:i] + "/…"
			}
		}
	}
	return endpoint
}
