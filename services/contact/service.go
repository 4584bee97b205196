package contact

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rajuvisuals/storefront/lib/myerrors"
	"github.com/rajuvisuals/storefront/lib/mylog"
	"github.com/rajuvisuals/storefront/lib/mystore"
	"github.com/rajuvisuals/storefront/lib/mytime"
	"github.com/rajuvisuals/storefront/lib/myuuid"
)

//go:embed templates
var templateFolder embed.FS
var (
	confirmationTemplate *template.Template
	notificationTemplate *template.Template
)

func init() {
	confirmationTemplate = template.Must(template.ParseFS(templateFolder, "templates/confirmation.html"))
	notificationTemplate = template.Must(template.ParseFS(templateFolder, "templates/notification.html"))
}

type Config struct {
	Enabled     bool
	AdminEmail  string
	FromAddress string
}

type service struct {
	cfg          Config
	messageStore mystore.Store[ContactMessage]
	sender       EmailSender
	logger       mylog.Logger
	nower        mytime.Nower
	uuider       myuuid.UUIDer
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(cfg Config, messageStore mystore.Store[ContactMessage], sender EmailSender, logger mylog.Logger, nower mytime.Nower, uuider myuuid.UUIDer) *service {
	return &service{
		cfg:          cfg,
		messageStore: messageStore,
		sender:       sender,
		logger:       logger,
		nower:        nower,
		uuider:       uuider,
	}
}

// submitContact stores the message and notifies both sides by email.
// The stored copy is the source of truth: delivery being disabled or the
// confirmation failing does not lose the message.
func (s *service) submitContact(c context.Context, req ContactRequest) error {
	now := s.nower.Now()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || req.Email == "" || req.Message == "" {
		return myerrors.NewInvalidInputError(fmt.Errorf("missing name, email or message"))
	}
	if !emailPattern.MatchString(req.Email) {
		return myerrors.NewInvalidInputError(fmt.Errorf("invalid email address"))
	}

	msg := ContactMessage{
		UID:       s.uuider.Create(),
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		CreatedAt: now,
	}

	err := s.messageStore.Put(c, msg.UID, msg)
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing contact message: %s", err))
	}

	if !s.cfg.Enabled {
		s.logger.Log(c, msg.UID, mylog.SeverityInfo, "Email delivery disabled: stored contact message %s only", msg.UID)
		return nil
	}

	notification, err := render(notificationTemplate, msg)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	_, err = s.sender.Send(c, EmailMessage{
		From:    s.cfg.FromAddress,
		To:      []string{s.cfg.AdminEmail},
		ReplyTo: msg.Email,
		Subject: fmt.Sprintf("New contact message from %s", msg.Name),
		HTML:    notification,
	})
	if err != nil {
		return err
	}

	confirmation, err := render(confirmationTemplate, msg)
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	_, err = s.sender.Send(c, EmailMessage{
		From:    s.cfg.FromAddress,
		To:      []string{msg.Email},
		Subject: "Thanks for reaching out",
		HTML:    confirmation,
	})
	if err != nil {
		// The admin got the message: do not fail the request over the
		// courtesy copy.
		s.logger.Log(c, msg.UID, mylog.SeverityWarn, "Error sending confirmation for message %s: %s", msg.UID, err)
	}

	s.logger.Log(c, msg.UID, mylog.SeverityInfo, "Handled contact message %s from %s", msg.UID, msg.Email)

	return nil
}

func render(t *template.Template, msg ContactMessage) (string, error) {
	var buf bytes.Buffer
	err := t.Execute(&buf, msg)
	if err != nil {
		return "", fmt.Errorf("error rendering email template: %s", err)
	}

	return buf.String(), nil
}
