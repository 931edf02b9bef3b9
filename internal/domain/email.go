package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	// SendBookingNotification renders the template named by n.Key and mails it to n.Recipient.
	SendBookingNotification(ctx context.Context, n BookingNotification) error
}
