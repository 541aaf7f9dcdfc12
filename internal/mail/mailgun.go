package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

var (
	ErrMissingDomain = errors.New("failed to load Mailgun domain")
	ErrMissingAPIKey = errors.New("failed to load Mailgun API key")
	ErrSendFailed    = errors.New("error sending activation email")
)

// Mailer delivers the transactional mails the registration workflow needs.
type Mailer interface {
	SendActivation(ctx context.Context, to, link string) error
}

// Mailgun sends mail through the Mailgun HTTP API.
type Mailgun struct {
	mg      *mailgun.MailgunImpl
	from    string
	timeout time.Duration
}

// NewMailgun creates a Mailgun mailer. Every send is bounded by timeout.
func NewMailgun(domain, apiKey, fromTitle, fromEmail string, timeout time.Duration) (*Mailgun, error) {
	if domain == "" {
		return nil, ErrMissingDomain
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &Mailgun{
		mg:      mailgun.NewMailgun(domain, apiKey),
		from:    fmt.Sprintf("%s <%s>", fromTitle, fromEmail),
		timeout: timeout,
	}, nil
}

// SendActivation mails the confirmation link to a freshly registered or
// re-requesting user.
func (m *Mailgun) SendActivation(ctx context.Context, to, link string) error {
	subject := "Registration activation"
	text := fmt.Sprintf("Please click the link to activate your registration: %s", link)
	html := fmt.Sprintf(`<html>Please click the link to activate your registration: <a href="%s">Activation Link</a></html>`, link)

	message := m.mg.NewMessage(m.from, subject, text, to)
	message.SetHtml(html)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, _, err := m.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}
