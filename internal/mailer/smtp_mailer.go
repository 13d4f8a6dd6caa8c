package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPMailer implements Mailer over SMTP via gomail.
type SMTPMailer struct {
	dialer     *gomail.Dialer
	from       string
	senderName string
	logger     *zap.Logger
}

func NewSMTPMailer(host string, port int, username, password, fromEmail, senderName string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:     gomail.NewDialer(host, port, username, password),
		from:       fromEmail,
		senderName: senderName,
		logger:     logger.Named("SMTPMailer"),
	}
}

func (s *SMTPMailer) SendVerificationEmail(toEmail, toName, verifyURL string) error {
	body := fmt.Sprintf(
		"<h1>Hi %s, use the link below to verify your email</h1><br><p><a href=%q>%s</a></p>",
		toName, verifyURL, verifyURL)
	return s.send(toEmail, "Verify your email", body)
}

func (s *SMTPMailer) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	body := fmt.Sprintf(
		"<h1>Hi %s, use the link below to reset your password</h1><br><p><a href=%q>%s</a></p>",
		toName, resetURL, resetURL)
	return s.send(toEmail, "Reset your password", body)
}

func (s *SMTPMailer) send(toEmail, subject, htmlBody string) error {
	m := gomail.NewMessage()
	if s.senderName != "" {
		m.SetHeader("From", m.FormatAddress(s.from, s.senderName))
	} else {
		m.SetHeader("From", s.from)
	}
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send email", zap.String("toEmail", toEmail), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Info("Email sent", zap.String("toEmail", toEmail), zap.String("subject", subject))
	return nil
}
