package mailer

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var (
	_ ports.Mailer = (*SMTPMailer)(nil)
	_ ports.Mailer = (*LogMailer)(nil)
)

// Config holds SMTP credentials. Port 465 implies implicit TLS.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	Timeout  time.Duration
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.Username) != "" && c.Password != ""
}

// SMTPMailer renders and sends order confirmations through an SMTP relay.
type SMTPMailer struct {
	cfg  Config
	tmpl *template.Template
}

// NewSMTPMailer validates the configuration and parses the email template.
func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if !cfg.Configured() {
		return nil, errors.New("smtp mailer requires host, username and password")
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FromName == "" {
		cfg.FromName = "Storefront"
	}
	tmpl, err := template.New("confirmation").Funcs(template.FuncMap{
		"fmtDate": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
	}).Parse(confirmationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse confirmation template: %w", err)
	}
	return &SMTPMailer{cfg: cfg, tmpl: tmpl}, nil
}

// SendConfirmation renders the confirmation and sends it to the order email.
func (m *SMTPMailer) SendConfirmation(ctx context.Context, c ports.Confirmation) error {
	msg, err := m.buildMessage(c)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation for order %s: %w", c.OrderID, err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(c ports.Confirmation) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.Username); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(c.Email); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(fmt.Sprintf("Order confirmation #%s", shortID(c.OrderID)))
	if err := msg.SetBodyHTMLTemplate(m.tmpl, c); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}
	return msg, nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	return opts
}

// LogMailer stands in when SMTP is not configured; it records what would have been sent.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, c ports.Confirmation) error {
	m.logger.InfoContext(ctx, "mail not configured, skipping order confirmation",
		slog.String("order.id", c.OrderID), slog.String("email", c.Email))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[len(id)-8:])
	}
	return strings.ToUpper(id)
}

const confirmationTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your order, {{.CustomerName}}!</h2>
  <p>Order <strong>{{.OrderID}}</strong> was placed on {{fmtDate .PlacedAt}}.</p>
  <table cellpadding="6" style="border-collapse: collapse; width: 100%;">
    <tr style="background: #f5f5f5;"><th align="left">Product</th><th>Qty</th><th align="right">Price</th></tr>
    {{range .Items}}
    <tr>
      <td>{{.Name}}{{if gt .Discount 0}} (-{{.Discount}}%){{end}}</td>
      <td align="center">{{.Quantity}}</td>
      <td align="right">{{.UnitPrice}} ₫</td>
    </tr>
    {{end}}
  </table>
  <p><strong>Total: {{.Total}} ₫</strong></p>
  <p>Payment: {{if eq .PaymentMethod "cod"}}cash on delivery{{else}}paid online{{end}}</p>
  <p>Ship to: {{.CustomerName}}, {{.Address}}, {{.Phone}}</p>
</body>
</html>
`
