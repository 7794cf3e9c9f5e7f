// Package mailer is the SMTP transport for outreach emails.
package mailer

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender is the one call the queue processor makes per listing. Any returned
// error counts as a failed attempt; the listing stays queued.
type Sender interface {
	Send(ctx context.Context, to []string, subject, body, attachmentPath string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SSL      bool // implicit TLS; false means STARTTLS
}

type SMTPSender struct {
	cfg    Config
	logger *zap.SugaredLogger
}

func NewSMTPSender(cfg Config, logger *zap.SugaredLogger) *SMTPSender {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

// Verify performs the SMTP handshake and authentication without sending
// anything. Boot aborts on failure so a misconfigured transport never eats a
// whole queue of send attempts.
func (s *SMTPSender) Verify(ctx context.Context) error {
	c, err := s.client()
	if err != nil {
		return errors.Wrap(err, "smtp client")
	}
	if err := c.DialWithContext(ctx); err != nil {
		return errors.Wrapf(err, "smtp handshake with %s:%d", s.cfg.Host, s.cfg.Port)
	}
	return c.Close()
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject, body, attachmentPath string) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}
	if body == "" {
		return errors.New("empty email body")
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return errors.Wrapf(err, "invalid from address %q", s.cfg.From)
	}
	if err := msg.To(to...); err != nil {
		return errors.Wrapf(err, "invalid recipients %v", to)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if attachmentPath != "" {
		// File errors surface when the message body is written during send.
		msg.AttachFile(attachmentPath)
	}

	c, err := s.client()
	if err != nil {
		return errors.Wrap(err, "smtp client")
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "send to %v", to)
	}

	s.logger.Infow("email sent", "to", to, "subject", subject)
	return nil
}
