package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/atomic-crm/internal/infra/integration/kommo"
)

// CRMClient define o contrato da integração que recebe leads confirmados.
type CRMClient interface {
	CreateLead(ctx context.Context, input kommo.CreateLeadInput) (int, error)
}

type Worker struct {
	Channel *amqp.Channel
	CRM     CRMClient
	Timeout time.Duration
}

func NewWorker(ch *amqp.Channel, crm CRMClient, timeout time.Duration) *Worker {
	return &Worker{Channel: ch, CRM: crm, Timeout: timeout}
}

// Start consome a fila até ctx ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	slog.Info("🐇 worker aguardando na fila", "queue", queueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("canal do RabbitMQ fechado")
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle processa uma entrega; qualquer falha vira Nack sem requeue (vai para a DLQ).
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	var payload LeadConfirmedPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		slog.Error("❌ [WORKER] JSON inválido", "error", err)
		d.Nack(false, false)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, w.timeout())
	defer cancel()

	kommoID, err := w.CRM.CreateLead(cctx, kommo.CreateLeadInput{
		LeadID: payload.LeadID,
		Name:   payload.Name,
		Email:  payload.Email,
		Phone:  payload.Phone,
	})
	if err != nil {
		slog.Error("❌ [WORKER] erro na integração com o CRM", "email", payload.Email, "error", err)
		d.Nack(false, false)
		return
	}

	slog.Info("✅ [WORKER] lead sincronizado no CRM", "email", payload.Email, "kommo_id", kommoID)
	d.Ack(false)
}

func (w *Worker) timeout() time.Duration {
	if w.Timeout <= 0 {
		return 10 * time.Second
	}
	return w.Timeout
}
