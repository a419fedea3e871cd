// Package email sends transactional email through SendGrid.
package email

import (
	"context"
	"fmt"
	"strings"

	"fundsledger/internal/config"
	"fundsledger/pkg/apperror"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridSender(cfg *config.EmailConfig) *SendGridSender {
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v3/mail/send"
	}
	return &SendGridSender{
		client: client,
		from:   mail.NewEmail("", cfg.From),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail("", msg.To), "", msg.HTML)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return apperror.Wrap(apperror.UpstreamUnavailable, "email provider unavailable", err)
	}
	if resp.StatusCode >= 300 {
		return apperror.Wrap(apperror.UpstreamUnavailable, "email provider rejected message",
			fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body))
	}
	return nil
}
