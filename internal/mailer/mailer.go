// Package mailer delivers the HTML notification emails of the credential
// flows over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"go.uber.org/zap"

	"signa-backend/internal/config"
	"signa-backend/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer is the notification interface consumed by the orchestrators. Both
// sends are best-effort from the caller's point of view: the pending record or
// token remains redeemable even when delivery fails.
type Mailer interface {
	SendPasswordReset(to, name, link string) error
	SendEmailChangeConfirmation(to, name, link string) error
}

type SMTPMailer struct {
	cfg       config.SMTPConfig
	publicURL string
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.SMTPConfig, publicURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, publicURL: publicURL}
}

func (m *SMTPMailer) SendPasswordReset(to, name, link string) error {
	return m.send(to, "Redefinição de senha", "reset_senha.html", templateContext{
		Name:   name,
		Link:   link,
		AppURL: m.publicURL,
	})
}

func (m *SMTPMailer) SendEmailChangeConfirmation(to, name, link string) error {
	return m.send(to, "Alteração de e-mail", "alteracao_email.html", templateContext{
		Name:   name,
		Link:   link,
		AppURL: m.publicURL,
	})
}

type templateContext struct {
	Name   string
	Link   string
	AppURL string
}

func (m *SMTPMailer) send(to, subject, templateName string, ctx templateContext) error {
	if to == "" {
		return errors.New("destinatário não pode ser vazio")
	}
	if subject == "" {
		return errors.New("assunto não pode ser vazio")
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, templateName, ctx); err != nil {
		return fmt.Errorf("failed to render email template %s: %w", templateName, err)
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg.Bytes()); err != nil {
		logger.Error("Erro ao enviar e-mail",
			zap.String("template", templateName),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("E-mail enviado com sucesso",
		zap.String("template", templateName),
		zap.String("event", "email_sent"),
	)

	return nil
}
