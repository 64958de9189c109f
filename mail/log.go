package mail

import (
	"context"

	"go.uber.org/zap"

	aurauth "github.com/aura-labs/aurauth"
)

// Log is a Mailer that writes every message to a logger instead of
// delivering it. Useful in development, where seeing the OTP in the
// process log replaces a relay.
type Log struct {
	logger *zap.Logger
}

// NewLog wraps the logger; nil falls back to a no-op logger.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Send implements aurauth.Mailer.
func (l *Log) Send(_ context.Context, msg aurauth.Message) error {
	l.logger.Info("mail (not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text))
	return nil
}
