package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"template-service/pkg/config"
	"template-service/pkg/logger"

	"go.uber.org/zap"
)

const resetSubject = "Password Reset"

var resetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; background-color: #f4f4f5;">
  <h2>Password Reset Request</h2>
  <p>We received a request to reset your password. Here's your temporary password:</p>
  <p style="font-family: 'Courier New', monospace; font-size: 24px; letter-spacing: 4px;">{{.TempPassword}}</p>
  <p><strong>Important:</strong> Please change your password immediately after logging in.</p>
  <p style="font-size: 12px; color: #94a3b8;">If you didn't request this password reset, please ignore this email or contact support.</p>
  <p style="font-size: 12px; color: #94a3b8;">&copy; {{.Year}}</p>
</body>
</html>
`))

const resetText = `Password Reset

We received a request to reset your password.

Your temporary password: %s

Please change your password immediately after logging in.

If you didn't request this password reset, please ignore this email.
`

// SendFunc has the signature of smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier delivers mail through an SMTP relay using PLAIN auth
type SMTPNotifier struct {
	cfg  config.SMTPConfig
	send SendFunc
	now  func() time.Time
}

// NewSMTPNotifier creates a notifier for the given relay
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// WithSendFunc replaces the transport, mainly for tests
func (n *SMTPNotifier) WithSendFunc(send SendFunc) *SMTPNotifier {
	n.send = send
	return n
}

// SendPasswordReset mails the temporary password to the user
func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, to, tempPassword string) error {
	log := logger.FromContext(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}

	from, err := mail.ParseAddress(n.cfg.From)
	if err != nil {
		return fmt.Errorf("parse sender address: %w", err)
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("parse recipient address: %w", err)
	}

	msg, err := n.buildResetMessage(from, rcpt, tempPassword)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := n.send(addr, auth, from.Address, []string{rcpt.Address}, msg); err != nil {
		log.Error("Failed to send password reset email", zap.String("to", rcpt.Address), zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}

	log.Info("Password reset email sent", zap.String("to", rcpt.Address))
	return nil
}

func (n *SMTPNotifier) buildResetMessage(from, to *mail.Address, tempPassword string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	fmt.Fprintf(textPart, resetText, tempPassword)

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
	if err != nil {
		return nil, fmt.Errorf("create html part: %w", err)
	}
	data := struct {
		TempPassword string
		Year         int
	}{tempPassword, n.now().Year()}
	if err := resetHTML.Execute(htmlPart, data); err != nil {
		return nil, fmt.Errorf("render html part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from.String())
	fmt.Fprintf(&msg, "To: %s\r\n", to.String())
	fmt.Fprintf(&msg, "Subject: %s\r\n", resetSubject)
	fmt.Fprintf(&msg, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
