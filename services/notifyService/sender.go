package notifyService

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"lastManStanding/config"
)

type Template string

const (
	TemplatePickConfirmation Template = "pick_confirmation"
	TemplatePickReminder     Template = "pick_reminder"
	TemplatePicksReport      Template = "picks_report"
)

type Recipient struct {
	Name  string
	Email string
}

// Sender delivers one rendered template to one recipient.
type Sender interface {
	Send(ctx context.Context, tmpl Template, to Recipient, data any) error
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Render executes the subject and body blocks of tmpl.
func Render(tmpl Template, data any) (subject string, body string, err error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(tmpl)+"_subject", data); err != nil {
		return "", "", fmt.Errorf("error rendering %s subject: %w", tmpl, err)
	}
	subject = strings.TrimSpace(html.UnescapeString(buf.String()))

	buf.Reset()
	if err := templates.ExecuteTemplate(&buf, string(tmpl)+".html", data); err != nil {
		return "", "", fmt.Errorf("error rendering %s body: %w", tmpl, err)
	}
	return subject, buf.String(), nil
}

type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
	}
}

func (s *SMTPSender) Send(ctx context.Context, tmpl Template, to Recipient, data any) error {
	if to.Email == "" {
		return fmt.Errorf("no email address for %s", to.Name)
	}
	subject, body, err := Render(tmpl, data)
	if err != nil {
		return err
	}

	msg := []byte("To: " + to.Email + "\r\n" +
		"From: " + s.from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Quit()

	if s.user != "" {
		if err := client.Auth(smtp.PlainAuth("", s.user, s.pass, s.host)); err != nil {
			return fmt.Errorf("error authenticating with SMTP server: %w", err)
		}
	}
	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("error on MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to.Email); err != nil {
		return fmt.Errorf("error on RCPT TO %s: %w", to.Email, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("error on DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("error writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("error closing DATA: %w", err)
	}
	return nil
}

// dial uses implicit TLS on 465 and STARTTLS everywhere else.
func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))
	tlsConfig := &tls.Config{ServerName: s.host}

	var dialer net.Dialer
	if s.port == 465 {
		conn, err := (&tls.Dialer{NetDialer: &dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("error opening TLS connection to %s: %w", addr, err)
		}
		client, err := smtp.NewClient(conn, s.host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("error creating SMTP client: %w", err)
		}
		return client, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error creating SMTP client: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("error on STARTTLS: %w", err)
		}
	}
	return client, nil
}

// LogSender renders messages and logs them instead of mailing.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, tmpl Template, to Recipient, data any) error {
	subject, _, err := Render(tmpl, data)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "mail disabled, message not sent",
		slog.String("template", string(tmpl)),
		slog.String("to", to.Email),
		slog.String("subject", subject),
	)
	return nil
}
