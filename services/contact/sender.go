package contact

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/rajuvisuals/storefront/lib/myerrors"
)

type EmailMessage struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

//go:generate mockgen -source=sender.go -package contact -destination sender_mock.go EmailSender
type EmailSender interface {
	Send(c context.Context, msg EmailMessage) (string, error)
}

type resendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) EmailSender {
	return &resendSender{
		client: resend.NewClient(apiKey),
	}
}

func (s *resendSender) Send(c context.Context, msg EmailMessage) (string, error) {
	sent, err := s.client.Emails.SendWithContext(c, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", myerrors.NewUnavailableError(fmt.Errorf("error sending email: %s", err))
	}

	return sent.Id, nil
}
