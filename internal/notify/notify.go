// Package notify delivers reports by email through the Resend API.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/resend/resend-go/v2"
)

// Sender defaults.
const (
	DefaultFrom    = "onboarding@resend.dev"
	DefaultSubject = "File Neglect Report"
	TestSubject    = "FilePulse - Test Email"
	minAPIKeyLen   = 10
)

// EmailError is returned for every failed delivery attempt.
type EmailError struct {
	Msg string
	Err error
}

func (e *EmailError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *EmailError) Unwrap() error {
	return e.Err
}

// emailSender is the subset of the Resend emails service used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendNotifier sends email through Resend.
type ResendNotifier struct {
	newSender func(apiKey string) emailSender
	logger    *slog.Logger
}

var _ contract.Notifier = &ResendNotifier{} // Compile-time check

// NewResendNotifier creates a notifier backed by the Resend API.
func NewResendNotifier(logger *slog.Logger) *ResendNotifier {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	return &ResendNotifier{
		newSender: func(apiKey string) emailSender {
			return resend.NewClient(apiKey).Emails
		},
		logger: logger,
	}
}

// Send validates the message, reads every attachment and sends it. All
// failures are reported as *EmailError.
func (n *ResendNotifier) Send(ctx context.Context, msg contract.EmailMessage) error {
	var to []string
	for _, addr := range msg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return &EmailError{Msg: "recipient list is empty"}
	}
	apiKey := strings.TrimSpace(msg.APIKey)
	if apiKey == "" {
		return &EmailError{Msg: "API key is not configured"}
	}

	attachments := make([]*resend.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		content, err := os.ReadFile(a.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return &EmailError{Msg: "attachment not found: " + a.Path, Err: err}
			}
			return &EmailError{Msg: "cannot read attachment " + a.Path, Err: err}
		}
		name := a.Filename
		if name == "" {
			name = filepath.Base(a.Path)
		}
		attachments = append(attachments, &resend.Attachment{Content: content, Filename: name})
	}

	from := msg.From
	if from == "" {
		from = DefaultFrom
	}
	subject := msg.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      to,
		Subject: subject,
		Html:    msg.HTML,
	}
	if len(attachments) > 0 {
		req.Attachments = attachments
	}

	n.logger.Info("Sending email", "recipients", len(to), "attachments", len(attachments))
	resp, err := n.newSender(apiKey).SendWithContext(ctx, req)
	if err != nil {
		n.logger.Error("Resend send failed", "error", err)
		return &EmailError{Msg: "resend send failed", Err: err}
	}
	id := ""
	if resp != nil {
		id = resp.Id
	}
	n.logger.Info("Email sent successfully", "id", id)
	return nil
}

// TestAPIKey reports whether key looks like a usable API key. It does not
// contact the service.
func TestAPIKey(key string) bool {
	return len(strings.TrimSpace(key)) >= minAPIKeyLen
}
