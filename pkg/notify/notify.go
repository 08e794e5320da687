// Package notify delivers password reset messages to users.
package notify

import (
	"context"
	"errors"

	"template-service/pkg/config"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by the notifier used when no SMTP server is set
var ErrNotConfigured = errors.New("notify: mail delivery not configured")

// Notifier sends the temporary password produced by a password reset
type Notifier interface {
	SendPasswordReset(ctx context.Context, to, tempPassword string) error
}

// New returns an SMTP notifier when host and user are configured, otherwise a
// notifier that always fails with ErrNotConfigured.
func New(cfg config.SMTPConfig, log *zap.Logger) Notifier {
	if cfg.Host == "" || cfg.Username == "" {
		log.Warn("SMTP not configured, password reset emails will not be sent")
		return Disabled{}
	}
	log.Info("SMTP notifier enabled", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	return NewSMTPNotifier(cfg)
}

// Disabled never delivers anything
type Disabled struct{}

func (Disabled) SendPasswordReset(context.Context, string, string) error {
	return ErrNotConfigured
}
