// Package mailer submits transactional mail over SMTP. Dispatch is
// synchronous with a short timeout; expiry counts as dispatch failure, never
// as request failure.
package mailer

import (
	"context"
	"fmt"
	"time"

	mail "gopkg.in/mail.v2"
)

const dialTimeout = 5 * time.Second

type SMTP struct {
	dialer *mail.Dialer
	sender string
}

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	SSL      bool
}

func NewSMTP(opts Options) *SMTP {
	d := mail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password)
	d.SSL = opts.SSL
	d.Timeout = dialTimeout
	return &SMTP{dialer: d, sender: opts.Sender}
}

func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// gomail has no context support; run the dial in a goroutine and give up
	// when the caller's context expires. The dialer's own timeout bounds the
	// goroutine either way.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}
