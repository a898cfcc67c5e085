package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/thirtyapp/thirty/internal/model"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendWelcomeEmail(email, name string) error {
	subject, body := welcomeEmailTemplate(name, s.appURL, s.appName)
	return s.send("welcome", email, subject, body)
}

func (s *EmailService) SendPasswordResetEmail(email, token, name string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	subject, body := passwordResetEmailTemplate(name, resetURL, s.appName)
	return s.send("password_reset", email, subject, body)
}

func (s *EmailService) SendPurchaseReceiptEmail(email, name string, tracks []model.Track) error {
	subject, body := purchaseReceiptEmailTemplate(name, tracks, s.appURL, s.appName)
	return s.send("purchase_receipt", email, subject, body)
}

func (s *EmailService) SendAccountDeletedEmail(email, name string) error {
	subject, body := accountDeletedEmailTemplate(name, s.appName)
	return s.send("account_deleted", email, subject, body)
}

func (s *EmailService) send(emailType, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", emailType, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", emailType, "to", to)
	}
	return err
}
