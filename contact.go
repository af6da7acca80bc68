package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/Zachkp/resume-weblog/internal/config"
	"github.com/Zachkp/resume-weblog/internal/contact"
	"github.com/Zachkp/resume-weblog/internal/i18n"
)

const qrSize = 256

var errSMTPNotConfigured = errors.New("SMTP credentials not configured")

// Mailer forwards a validated contact submission.
type Mailer interface {
	Send(f contact.Form) error
}

type smtpMailer struct {
	host, port string
	user, pass string
	to         string
}

func newSMTPMailer(cfg config.Config) *smtpMailer {
	to := cfg.ToEmail
	if to == "" {
		to = cfg.SMTPUser
	}
	return &smtpMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		to:   to,
	}
}

func (m *smtpMailer) Send(f contact.Form) error {
	if m.user == "" || m.pass == "" {
		return errSMTPNotConfigured
	}
	msg := composeContactEmail(m.user, m.to, f)
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.user, []string{m.to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	log.Printf("Email sent successfully from %s (%s)", f.Name, f.Contact)
	return nil
}

// headerSafe drops line breaks so a field cannot add mail headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func composeContactEmail(from, to string, f contact.Form) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", headerSafe(f.Subject))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Contact: %s
Subject: %s
Message:
%s

---
Sent from your portfolio contact form
`, f.Name, f.Contact, f.Subject, f.Message)

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("From: " + from + "\r\n")
	if strings.Contains(f.Contact, "@") {
		b.WriteString("Reply-To: " + headerSafe(f.Contact) + "\r\n")
	}
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body + "\r\n")
	return []byte(b.String())
}

// handleContact validates and forwards a contact submission. It answers
// with the notification the page shows.
func (s *server) handleContact(c *gin.Context) {
	p := i18n.Printer(s.lang(c))

	var f contact.Form
	if err := c.ShouldBind(&f); err != nil {
		log.Printf("Error reading contact form: %v", err)
		c.JSON(http.StatusBadRequest, contact.Notify(p, err))
		return
	}
	if err := contact.Validate(f); err != nil {
		c.JSON(http.StatusBadRequest, contact.Notify(p, err))
		return
	}
	f = f.Trimmed()
	if err := s.mailer.Send(f); err != nil {
		log.Printf("Error sending email: %v", err)
		c.JSON(http.StatusBadGateway, contact.Undelivered(p))
		return
	}
	c.JSON(http.StatusOK, contact.Notify(p, nil))
}

// handleContactQR serves a QR code of the site's public URL.
func (s *server) handleContactQR(c *gin.Context) {
	png, err := qrcode.Encode(s.cfg.PublicURL, qrcode.Medium, qrSize)
	if err != nil {
		log.Printf("Error encoding QR code: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
