package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

var emailsSent = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total de e-mails disparados por tipo e resultado",
	},
	[]string{"kind", "status"},
)

const (
	subjectConfirmation = "Confirme seu cadastro"
	subjectReminder     = "Falta confirmar seu e-mail"
	subjectWelcome      = "Cadastro confirmado"
)

type emailData struct {
	Name       string
	ConfirmURL string
	ExpiresIn  string
}

// Notifier monta os e-mails do fluxo de confirmação e entrega pelo Sender configurado.
type Notifier struct {
	Sender     Sender
	From       string
	ConfirmURL string // base pública, ex.: https://api.exemplo.com/confirm
	TTL        time.Duration
	Dev        bool
}

func NewNotifier(sender Sender, from, publicAPIURL string, ttl time.Duration, dev bool) *Notifier {
	return &Notifier{
		Sender:     sender,
		From:       from,
		ConfirmURL: strings.TrimRight(publicAPIURL, "/") + "/confirm",
		TTL:        ttl,
		Dev:        dev,
	}
}

func (n *Notifier) SendConfirmation(ctx context.Context, to, name, token string) error {
	link := n.confirmLink(token, to)
	if n.Dev {
		slog.Debug("🔗 link de confirmação (dev)", "email", to, "url", link)
	}
	return n.send(ctx, "confirmation", to, subjectConfirmation, emailData{
		Name:       name,
		ConfirmURL: link,
		ExpiresIn:  humanizeTTL(n.TTL),
	})
}

func (n *Notifier) SendReminder(ctx context.Context, to, name, token string) error {
	return n.send(ctx, "reminder", to, subjectReminder, emailData{
		Name:       name,
		ConfirmURL: n.confirmLink(token, to),
	})
}

func (n *Notifier) SendWelcome(ctx context.Context, to, name string) error {
	return n.send(ctx, "welcome", to, subjectWelcome, emailData{Name: name})
}

func (n *Notifier) send(ctx context.Context, kind, to, subject string, data emailData) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, kind+".html", data); err != nil {
		emailsSent.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("erro ao processar template %s: %w", kind, err)
	}

	err := n.Sender.Send(ctx, Message{
		From:    n.From,
		To:      to,
		Subject: subject,
		HTML:    body.String(),
	})
	if err != nil {
		emailsSent.WithLabelValues(kind, "error").Inc()
		return err
	}

	emailsSent.WithLabelValues(kind, "sent").Inc()
	slog.Info("📧 e-mail enviado", "kind", kind, "to", to)
	return nil
}

func (n *Notifier) confirmLink(token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return n.ConfirmURL + "?" + q.Encode()
}

func humanizeTTL(d time.Duration) string {
	switch {
	case d <= 0:
		return "breve"
	case d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 horas"
		}
		return fmt.Sprintf("%d dias", days)
	case d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hora"
		}
		return fmt.Sprintf("%d horas", hours)
	default:
		return fmt.Sprintf("%d minutos", int(d/time.Minute))
	}
}
