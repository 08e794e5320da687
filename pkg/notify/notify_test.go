package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"template-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSMTPConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.test",
		Port:     2525,
		Username: "mailer",
		Password: "secret",
		From:     "Templates <noreply@example.com>",
	}
}

func TestNewSelectsNotifier(t *testing.T) {
	_, disabled := New(config.SMTPConfig{}, zap.NewNop()).(Disabled)
	assert.True(t, disabled)

	_, smtpNotifier := New(testSMTPConfig(), zap.NewNop()).(*SMTPNotifier)
	assert.True(t, smtpNotifier)
}

func TestDisabledNotifier(t *testing.T) {
	err := Disabled{}.SendPasswordReset(context.Background(), "a@a.test", "abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSMTPNotifierSendsMultipartMessage(t *testing.T) {
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	n := NewSMTPNotifier(testSMTPConfig()).WithSendFunc(
		func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
			return nil
		})
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := n.SendPasswordReset(context.Background(), "alice@tenant-a.test", "Xy7kPq2m")
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:2525", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"alice@tenant-a.test"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Password Reset\r\n")
	assert.Contains(t, gotMsg, "multipart/alternative")
	assert.Contains(t, gotMsg, "Your temporary password: Xy7kPq2m")
	assert.Contains(t, gotMsg, "text/html")
	assert.Equal(t, 2, strings.Count(gotMsg, "Xy7kPq2m"))
	assert.Contains(t, gotMsg, "&copy; 2026")
}

func TestSMTPNotifierPropagatesFailure(t *testing.T) {
	boom := errors.New("connection refused")
	n := NewSMTPNotifier(testSMTPConfig()).WithSendFunc(
		func(string, smtp.Auth, string, []string, []byte) error { return boom })

	err := n.SendPasswordReset(context.Background(), "alice@tenant-a.test", "Xy7kPq2m")
	assert.ErrorIs(t, err, boom)
}

func TestSMTPNotifierRejectsBadRecipient(t *testing.T) {
	called := false
	n := NewSMTPNotifier(testSMTPConfig()).WithSendFunc(
		func(string, smtp.Auth, string, []string, []byte) error { called = true; return nil })

	err := n.SendPasswordReset(context.Background(), "not an address", "Xy7kPq2m")
	assert.Error(t, err)
	assert.False(t, called)
}
