package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string        `yaml:"host"     validate:"required_with=Port"`
	Port     int           `yaml:"port"     validate:"omitempty,min=1,max=65535"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"     validate:"omitempty,email"`
	Timeout  time.Duration `yaml:"timeout"`
	// DisableTLS skips STARTTLS, for local relays only
	DisableTLS bool `yaml:"disable_tls"`
}

// SMTPSender delivers email through an SMTP relay.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

func NewSMTPSender(config SMTPConfig, logger *slog.Logger) *SMTPSender {
	if config.Port == 0 {
		config.Port = 587
	}

	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &SMTPSender{config: config, logger: logger.With("sender", "smtp", "host", config.Host)}
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	from := email.From
	if from == "" {
		from = s.config.From
	}

	if from == "" {
		return errors.New("smtp: no sender address configured")
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	dialer := net.Dialer{Timeout: s.config.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Temporary(fmt.Errorf("smtp dial %s: %w", addr, err))
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		_ = conn.Close()

		return classify(err)
	}

	defer func() {
		if err := client.Close(); err != nil {
			s.logger.DebugContext(ctx, "smtp close failed", "error", err)
		}
	}()

	if ok, _ := client.Extension("STARTTLS"); ok && !s.config.DisableTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return classify(err)
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return classify(err)
		}
	}

	if err := client.Mail(from); err != nil {
		return classify(err)
	}

	for _, rcpt := range email.Recipients() {
		if err := client.Rcpt(rcpt); err != nil {
			return classify(err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return classify(err)
	}

	if _, err := w.Write(buildMessage(from, email)); err != nil {
		return classify(err)
	}

	if err := w.Close(); err != nil {
		return classify(err)
	}

	// the relay accepted the message, a failed QUIT does not undo that
	if err := client.Quit(); err != nil {
		s.logger.WarnContext(ctx, "smtp quit failed after delivery", "error", err)
	}

	return nil
}

// classify maps SMTP reply codes 4xx and network failures to ErrTemporary.
func classify(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		if protoErr.Code >= 400 && protoErr.Code < 500 {
			return Temporary(err)
		}

		return fmt.Errorf("smtp: %w", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Temporary(err)
	}

	return fmt.Errorf("smtp: %w", err)
}

func buildMessage(from string, email Email) []byte {
	var b strings.Builder

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(email.To, ", ") + "\r\n")

	if len(email.Cc) > 0 {
		b.WriteString("Cc: " + strings.Join(email.Cc, ", ") + "\r\n")
	}

	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", email.Subject) + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(email.Body, "\r\n", "\n"), "\n", "\r\n"))

	return []byte(b.String())
}
