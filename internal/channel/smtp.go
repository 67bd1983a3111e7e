package channel

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPSender delivers email notifications over plain SMTP.
type SMTPSender struct {
	addr   string
	auth   smtp.Auth
	from   string
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, username, password, from string, logger *zap.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if port <= 0 {
		port = 587
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var auth smtp.Auth
	if strings.TrimSpace(username) != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPSender{
		addr:   fmt.Sprintf("%s:%d", host, port),
		auth:   auth,
		from:   from,
		logger: logger,
		send:   smtp.SendMail,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to string, subject string, body string) error {
	if s == nil || s.send == nil {
		return fmt.Errorf("smtp sender is not initialized")
	}
	if strings.TrimSpace(to) == "" {
		return &ChannelError{Message: "recipient address is required", Transient: false}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	done := make(chan error, 1)
	go func() {
		done <- s.send(s.addr, s.auth, s.from, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return &ChannelError{
				Message:   "smtp delivery failed",
				Transient: true,
				Cause:     err,
			}
		}
	}

	s.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
