package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
)

// DefaultSendTimeout bounds a single send when SMTPConfig.Timeout is zero.
const DefaultSendTimeout = 30 * time.Second

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional - some servers allow unauthenticated relay
	Password string // optional
	From     string // default sender address
	FromName string // optional sender display name
	Timeout  time.Duration
}

// SMTPSender implements Sender using go-mail.
//
// The go-mail client is built on first use and then shared by every send for
// the life of the process. Construction happens at most once, even when the
// first sends race each other.
type SMTPSender struct {
	config *SMTPConfig
	logger *slog.Logger

	once      sync.Once
	client    *mail.Client
	clientErr error
	newClient func(host string, opts ...mail.Option) (*mail.Client, error)

	// a go-mail client carries one SMTP session at a time
	sendMu sync.Mutex
}

// NewSMTPSender creates an SMTP sender. No connection is made until the
// first Send.
func NewSMTPSender(config SMTPConfig, logger *slog.Logger) *SMTPSender {
	if config.Timeout <= 0 {
		config.Timeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{
		config:    &config,
		logger:    logger,
		newClient: mail.NewClient,
	}
}

// Client returns the shared go-mail client, building it on first call.
func (s *SMTPSender) Client() (*mail.Client, error) {
	s.once.Do(func() {
		s.client, s.clientErr = s.newClient(s.config.Host, s.clientOptions()...)
		if s.clientErr != nil {
			s.clientErr = fmt.Errorf("failed to create SMTP client: %w", s.clientErr)
			return
		}
		s.logger.Info("smtp: client created",
			"host", s.config.Host,
			"port", s.config.Port,
			"implicit_tls", s.config.Port == 465,
		)
	})
	return s.client, s.clientErr
}

// Send sends an email via SMTP.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg, err := s.buildMessage(email)
	if err != nil {
		return "", err
	}

	client, err := s.Client()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	s.logger.Debug("smtp: sending email",
		"to", email.To,
		"subject", email.Subject,
		"host", s.config.Host,
		"port", s.config.Port,
	)

	s.sendMu.Lock()
	err = client.DialAndSendWithContext(ctx, msg)
	s.sendMu.Unlock()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return "", fmt.Errorf("%w after %s: %v", ErrSendTimeout, s.config.Timeout, err)
		}
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("smtp: email sent", "to", email.To)

	return msg.GetMessageID(), nil
}

func (s *SMTPSender) buildMessage(email *Email) (*mail.Msg, error) {
	if len(email.To) == 0 {
		return nil, ErrNoRecipient
	}

	msg := mail.NewMsg()

	from := email.From
	if from == "" {
		from = s.config.From
	}
	fromName := email.FromName
	if fromName == "" && email.From == "" {
		fromName = s.config.FromName
	}
	// a display name the header cannot carry is dropped, not fatal
	if fromName == "" || msg.FromFormat(fromName, from) != nil {
		if err := msg.From(from); err != nil {
			return nil, fmt.Errorf("%w: from address: %v", ErrInvalidMessage, err)
		}
	}

	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("%w: to address: %v", ErrInvalidMessage, err)
	}

	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, fmt.Errorf("%w: reply-to address: %v", ErrInvalidMessage, err)
		}
	}

	msg.Subject(email.Subject)
	msg.SetMessageID()
	msg.SetDate()

	// Prefer HTML with text fallback, or just text
	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTMLBody)
	case email.HTMLBody != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTMLBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.TextBody)
	}

	return msg, nil
}

// clientOptions returns go-mail client options based on configuration.
// Port 465 is implicit TLS; every other port starts in plain text and
// upgrades with STARTTLS when the server offers it.
func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(s.config.Timeout),
	}

	if s.config.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
