package testutil

import (
	"context"
	"sync"
)

type SentEmail struct {
	Kind  string
	To    string
	Name  string
	Token string
}

// RecordingNotifier guarda os e-mails "enviados"; Err faz todo envio falhar.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []SentEmail
	Err  error
}

func (n *RecordingNotifier) SendConfirmation(ctx context.Context, to, name, token string) error {
	return n.record(SentEmail{Kind: "confirmation", To: to, Name: name, Token: token})
}

func (n *RecordingNotifier) SendReminder(ctx context.Context, to, name, token string) error {
	return n.record(SentEmail{Kind: "reminder", To: to, Name: name, Token: token})
}

func (n *RecordingNotifier) SendWelcome(ctx context.Context, to, name string) error {
	return n.record(SentEmail{Kind: "welcome", To: to, Name: name})
}

func (n *RecordingNotifier) record(e SentEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, e)
	return nil
}

func (n *RecordingNotifier) Sent() []SentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentEmail{}, n.sent...)
}

// Last returns the most recent email of the given kind, or nil.
func (n *RecordingNotifier) Last(kind string) *SentEmail {
	sent := n.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].Kind == kind {
			e := sent[i]
			return &e
		}
	}
	return nil
}
