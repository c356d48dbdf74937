// Package notify is the delivery contract for verification codes. The
// auth core only generates and validates codes; getting them to an
// inbox or a phone is someone else's channel.
package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers a one-time code to the identity field (email or
// phone) it was generated for.
type Notifier interface {
	SendCode(ctx context.Context, identity, code string) error
}

// LoggerNotifier is a stub implementation that writes codes to the
// logger. Useful for local development; never wire it in production.
type LoggerNotifier struct {
	logger *slog.Logger
}

func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

func (n *LoggerNotifier) SendCode(_ context.Context, identity, code string) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("verification code issued", "identity", identity, "code", code)
	return nil
}
