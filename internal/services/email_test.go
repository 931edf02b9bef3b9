package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delegatebooking/internal/domain"
)

type fakeMailer struct {
	to, subject string
	err         error
}

func (f *fakeMailer) Send(to, subject, html, text string) error {
	if f.err != nil {
		return f.err
	}
	f.to, f.subject = to, subject
	return nil
}

type fakeRenderer struct {
	name string
	err  error
}

func (f *fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	if f.err != nil {
		return "", "", "", f.err
	}
	f.name = templateName
	return "Subject " + templateName, "<p>html</p>", "text", nil
}

func TestEmailService_SendBookingNotification(t *testing.T) {
	ctx := context.Background()
	valid := domain.BookingNotification{Key: "delegate_new_booking", BookingID: 1, Recipient: "jane@example.com"}

	tests := []struct {
		name     string
		n        domain.BookingNotification
		mailer   *fakeMailer
		renderer *fakeRenderer
		wantErr  bool
	}{
		{name: "sent", n: valid, mailer: &fakeMailer{}, renderer: &fakeRenderer{}},
		{name: "unregistered key", n: domain.BookingNotification{Key: "delegate_unknown", Recipient: "a@b.com"}, mailer: &fakeMailer{}, renderer: &fakeRenderer{}, wantErr: true},
		{name: "no recipient", n: domain.BookingNotification{Key: "delegate_new_booking"}, mailer: &fakeMailer{}, renderer: &fakeRenderer{}, wantErr: true},
		{name: "render error", n: valid, mailer: &fakeMailer{}, renderer: &fakeRenderer{err: errors.New("bad template")}, wantErr: true},
		{name: "mailer error", n: valid, mailer: &fakeMailer{err: errors.New("ses down")}, renderer: &fakeRenderer{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEmailService(tt.mailer, tt.renderer, discardLogger())
			err := svc.SendBookingNotification(ctx, tt.n)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "delegate_new_booking", tt.renderer.name)
			assert.Equal(t, "jane@example.com", tt.mailer.to)
			assert.Equal(t, "Subject delegate_new_booking", tt.mailer.subject)
		})
	}
}
