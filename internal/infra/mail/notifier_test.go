package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	msgs []Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestSendConfirmationBuildsLink(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "Atomic CRM <no-reply@atomic.dev>", "https://api.atomic.dev/", 24*time.Hour, false)

	err := n.SendConfirmation(context.Background(), "ana+teste@x.com", "Ana", "tok_123-abc")
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, "ana+teste@x.com", msg.To)
	assert.Equal(t, "Atomic CRM <no-reply@atomic.dev>", msg.From)
	assert.Equal(t, subjectConfirmation, msg.Subject)
	assert.Contains(t, msg.HTML, "Olá, Ana!")
	assert.Contains(t, msg.HTML, "24 horas")
	// html/template escapa o & do query string
	assert.Contains(t, msg.HTML, "https://api.atomic.dev/confirm?email=ana%2Bteste%40x.com&amp;token=tok_123-abc")
}

func TestSendWelcomeEscapesName(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "from@x.com", "https://api.atomic.dev", time.Hour, false)

	require.NoError(t, n.SendWelcome(context.Background(), "a@x.com", "<script>"))
	assert.Equal(t, subjectWelcome, sender.msgs[0].Subject)
	assert.NotContains(t, sender.msgs[0].HTML, "<script>")
}

func TestSendReminderWithoutName(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "from@x.com", "https://api.atomic.dev", time.Hour, false)

	require.NoError(t, n.SendReminder(context.Background(), "a@x.com", "", "tok_abcdefgh"))
	assert.Equal(t, subjectReminder, sender.msgs[0].Subject)
	assert.Contains(t, sender.msgs[0].HTML, "Olá!")
}

func TestSendPropagatesSenderError(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	n := NewNotifier(&fakeSender{err: sentinel}, "from@x.com", "https://api.atomic.dev", time.Hour, false)

	err := n.SendWelcome(context.Background(), "a@x.com", "Ana")
	assert.ErrorIs(t, err, sentinel)
}

func TestHumanizeTTL(t *testing.T) {
	assert.Equal(t, "1 hora", humanizeTTL(time.Hour))
	assert.Equal(t, "6 horas", humanizeTTL(6*time.Hour))
	assert.Equal(t, "24 horas", humanizeTTL(24*time.Hour))
	assert.Equal(t, "3 dias", humanizeTTL(72*time.Hour))
	assert.Equal(t, "90 minutos", humanizeTTL(90*time.Minute))
}

func TestSMTPSenderHonorsContext(t *testing.T) {
	s := NewSMTPSender("10.255.255.1", 25, "", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, Message{From: "a@x.com", To: "b@x.com", Subject: "x", HTML: "<p>x</p>"})
	assert.ErrorIs(t, err, context.Canceled)
}
