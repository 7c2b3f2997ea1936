package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"
)

// SendEmail sends a plain-text email using the SMTP settings from the
// environment. It is a no-op when SMTP_HOST is not configured, so the service
// runs fine without a mail server in development.
func SendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" || to == "" {
		return nil
	}

	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return err
	}
	return nil
}

// NotifyAdminOfPayoutRequest emails the configured admin address when a new
// payout request is created.
func NotifyAdminOfPayoutRequest(referrerID string, amount float64, currency, method string) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	subject := "New payout request"
	body := fmt.Sprintf("Referrer %s requested a payout of %.2f %s via %s.",
		referrerID, amount, currency, method)
	_ = SendEmail(adminEmail, subject, body)
}

// NotifyAdminOfPayoutDecision emails the configured admin address when a
// payout request is resolved, for the audit inbox.
func NotifyAdminOfPayoutDecision(payoutID, status, note string) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	subject := fmt.Sprintf("Payout request %s", status)
	body := fmt.Sprintf("Payout request %s was marked %s.", payoutID, status)
	if note != "" {
		body += " Note: " + note
	}
	_ = SendEmail(adminEmail, subject, body)
}
