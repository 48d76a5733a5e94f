package services

import (
  "context"
  "fmt"
  "os"

  "github.com/sendgrid/sendgrid-go"
  "github.com/sendgrid/sendgrid-go/helpers/mail"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
)

type EmailService interface {
  SendWelcomeEmail(ctx context.Context, toEmail string, firstName string) error
}

type emailService struct {
  log       *logger.Logger
  client    *sendgrid.Client
  fromEmail string
}

func NewEmailService(log *logger.Logger) (EmailService, error) {
  serviceLog := log.With("service", "EmailService")
  apiKey := os.Getenv("SENDGRID_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("Missing SENDGRID_API_KEY environment variable")
  }
  fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
  if fromEmail == "" {
    serviceLog.Warn("SENDGRID_FROM_EMAIL not set; using fallback no-reply@wayfarer.app")
    fromEmail = "no-reply@wayfarer.app"
  }

  return &emailService{
    log:       serviceLog,
    client:    sendgrid.NewSendClient(apiKey),
    fromEmail: fromEmail,
  }, nil
}

func (es *emailService) SendWelcomeEmail(ctx context.Context, toEmail string, firstName string) error {
  greeting := "Hi there"
  if firstName != "" {
    greeting = "Hi " + firstName
  }
  plainText := greeting + ",\n\nWelcome to Wayfarer! Start a chat and tell us where you want to go.\n"
  htmlContent := "<p>" + greeting + ",</p><p>Welcome to Wayfarer! Start a chat and tell us where you want to go.</p>"

  from := mail.NewEmail("Wayfarer", es.fromEmail)
  to := mail.NewEmail("", toEmail)
  message := mail.NewSingleEmail(from, "Welcome to Wayfarer", to, plainText, htmlContent)
  response, err := es.client.SendWithContext(ctx, message)
  if err != nil {
    es.log.Warn("Sendgrid email send failed", "error", err)
    return err
  }
  es.log.Info("Welcome email sent", "to", toEmail, "statusCode", response.StatusCode)
  return nil
}
