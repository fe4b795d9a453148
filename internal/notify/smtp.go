package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

type SMTPOpts struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// SMTPTransport mails alerts over STARTTLS.
type SMTPTransport struct {
	opts SMTPOpts
}

func NewSMTPTransport(opts SMTPOpts) (*SMTPTransport, error) {
	if opts.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if len(opts.To) == 0 {
		return nil, errors.New("notify destination is required for smtp")
	}
	if opts.Port == 0 {
		opts.Port = 587
	}
	if opts.From == "" {
		opts.From = opts.To[0]
	}
	return &SMTPTransport{opts: opts}, nil
}

func (s *SMTPTransport) Name() string { return "smtp" }

func (s *SMTPTransport) Send(ctx context.Context, subject, body string) error {
	msg, err := s.message(subject, body)
	if err != nil {
		return err
	}

	clientOpts := []mail.Option{
		mail.WithPort(s.opts.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if s.opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.opts.Username),
			mail.WithPassword(s.opts.Password),
		)
	}
	client, err := mail.NewClient(s.opts.Host, clientOpts...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail via %s:%d: %w", s.opts.Host, s.opts.Port, err)
	}
	return nil
}

func (s *SMTPTransport) message(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.opts.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(s.opts.To...); err != nil {
		return nil, fmt.Errorf("invalid destination address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
