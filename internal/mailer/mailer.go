// Package mailer sends notification emails over SMTP. Sending is
// best-effort: the contact form never fails because mail could not be
// delivered.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/avolkov/inkpress/internal/store"
)

// Config holds SMTP connection settings. An empty Host disables sending.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	AdminAddr string
}

// Mailer sends admin notifications for new contact enquiries.
type Mailer struct {
	cfg Config
	// send is swappable for tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a Mailer from the given config.
func New(cfg Config) *Mailer {
	return &Mailer{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

// Enabled reports whether the mailer is configured to send.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.AdminAddr != ""
}

// SendEnquiryNotification emails the admin about a new contact enquiry.
// Returns nil without sending when the mailer is not configured.
func (m *Mailer) SendEnquiryNotification(enq store.Enquiry) error {
	if !m.Enabled() {
		return nil
	}

	msg := buildEnquiryMessage(m.cfg.From, m.cfg.AdminAddr, enq)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{m.cfg.AdminAddr}, msg); err != nil {
		return fmt.Errorf("failed to send enquiry notification: %w", err)
	}
	return nil
}

// buildEnquiryMessage formats the notification email. Header values are
// sanitized so user input cannot inject additional headers.
func buildEnquiryMessage(from, to string, enq store.Enquiry) []byte {
	subject := sanitizeHeader(enq.Subject)
	if subject == "" {
		subject = "(no subject)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: New enquiry: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Name: %s\r\n", enq.Name)
	fmt.Fprintf(&b, "Email: %s\r\n", enq.Email)
	fmt.Fprintf(&b, "Contact: %s\r\n", enq.Contact)
	if enq.Country.Valid && enq.Country.String != "" {
		fmt.Fprintf(&b, "Country: %s\r\n", enq.Country.String)
	}
	b.WriteString("\r\n")
	b.WriteString(enq.Message)
	b.WriteString("\r\n")

	return []byte(b.String())
}

// sanitizeHeader strips CR and LF from a value used in a mail header.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
