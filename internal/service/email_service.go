package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SetConfig 更新运行时邮件配置
func (s *EmailService) SetConfig(cfg *config.EmailConfig) {
	if cfg == nil {
		return
	}
	s.cfg = cfg
}

// OrderEmailInput 订单相关邮件输入
type OrderEmailInput struct {
	OrderNo  string
	FullName string
	Amount   models.Money
	Currency string
	Items    []models.OrderItem
}

// SendOrderConfirmation 发送下单确认邮件
func (s *EmailService) SendOrderConfirmation(toEmail string, input OrderEmailInput) error {
	subject := fmt.Sprintf("Order %s received", input.OrderNo)
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName(input.FullName))
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", input.OrderNo)
	writeOrderLines(&b, input)
	b.WriteString("\nWe will notify you once your payment is confirmed.\n")
	return s.sendTextEmail(toEmail, subject, b.String())
}

// SendPaymentConfirmed 发送支付确认邮件
func (s *EmailService) SendPaymentConfirmed(toEmail string, input OrderEmailInput) error {
	subject := fmt.Sprintf("Payment confirmed for order %s", input.OrderNo)
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName(input.FullName))
	fmt.Fprintf(&b, "We have received your payment of %s %s for order %s.\n\n", input.Currency, input.Amount.String(), input.OrderNo)
	writeOrderLines(&b, input)
	b.WriteString("\nYour order is now being processed.\n")
	return s.sendTextEmail(toEmail, subject, b.String())
}

// SendWelcome 发送欢迎邮件
func (s *EmailService) SendWelcome(toEmail, firstName string) error {
	subject := "Welcome to PoshPearl"
	body := fmt.Sprintf("Hi %s,\n\nWelcome to PoshPearl. Your account is ready.\n", displayName(firstName))
	return s.sendTextEmail(toEmail, subject, body)
}

// SendPasswordReset 发送密码重置邮件
func (s *EmailService) SendPasswordReset(toEmail, resetURL string) error {
	subject := "Reset your PoshPearl password"
	body := fmt.Sprintf("We received a request to reset your password.\n\nUse the link below to choose a new one:\n%s\n\nIf you did not request this, you can ignore this email.\n", resetURL)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendCustomEmail 发送测试邮件或自定义邮件
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "PoshPearl SMTP test"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "This is a test email from PoshPearl. The SMTP configuration works."
	}
	return s.sendTextEmail(toEmail, subject, body)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return name
}

func writeOrderLines(b *strings.Builder, input OrderEmailInput) {
	for _, item := range input.Items {
		fmt.Fprintf(b, "  %d x %s — %s %s\n", item.Quantity, item.ProductName, input.Currency, item.TotalPrice.String())
	}
	fmt.Fprintf(b, "\nTotal: %s %s\n", input.Currency, input.Amount.String())
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	if s.cfg.UseTLS {
		return sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	return sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
