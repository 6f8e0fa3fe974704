package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"
)

type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender entrega uma mensagem já renderizada.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSender usa a API hospedada da Resend (provedor padrão).
type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string, timeout time.Duration) *ResendSender {
	httpClient := &http.Client{Timeout: timeout}
	return &ResendSender{client: resend.NewCustomClient(httpClient, apiKey)}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("erro ao enviar email via Resend: %w", err)
	}
	return nil
}

// SMTPSender manda por SMTP com gomail (MAIL_PROVIDER=smtp).
type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Password string
}

func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	return &SMTPSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	// gomail não aceita context; o envio segue em background se o prazo estourar
	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("erro ao enviar email SMTP: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("erro ao enviar email SMTP: %w", ctx.Err())
	}
}
