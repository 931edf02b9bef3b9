package services

import (
	"context"
	"fmt"
	"log/slog"

	"delegatebooking/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendBookingNotification sends the email registered under n.Key, e.g. "delegate_new_booking".
func (s *emailService) SendBookingNotification(ctx context.Context, n domain.BookingNotification) error {
	if !domain.NotificationRegistry[n.Key] {
		return fmt.Errorf("unknown notification %q", n.Key)
	}
	if n.Recipient == "" {
		return fmt.Errorf("notification %s for booking %d has no recipient", n.Key, n.BookingID)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(n.Key, n)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", n.Key, err)
	}
	if err := s.mailer.Send(n.Recipient, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", n.Key, err)
	}
	s.logger.InfoContext(ctx, "booking email sent", "key", n.Key, "booking_id", n.BookingID, "to", n.Recipient)
	return nil
}
