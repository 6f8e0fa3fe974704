package usecase

import (
	"context"
	"fmt"
	"log/slog"
)

// Transaction executa o protocolo em duas fases usado nos fluxos de lead:
//  1. operações (gravação no banco): qualquer falha aborta e roda as compensações;
//  2. follow-ups (e-mail, evento, fila): só rodam após todas as operações,
//     falha é logada e nunca desfaz o que já foi gravado.
type Transaction struct {
	operations    []Operation
	compensations []Compensation
	followUps     []Operation
	failed        []string
}

type Operation struct {
	Name string
	Fn   func(context.Context) error
}

type Compensation struct {
	Name string
	Fn   func(context.Context) error
}

func NewTransaction() *Transaction {
	return &Transaction{
		operations:    []Operation{},
		compensations: []Compensation{},
		followUps:     []Operation{},
	}
}

func (t *Transaction) AddOperation(name string, fn func(context.Context) error) {
	t.operations = append(t.operations, Operation{name, fn})
}

// AddCompensation registers the undo step for the operation with the same index.
func (t *Transaction) AddCompensation(name string, fn func(context.Context) error) {
	t.compensations = append(t.compensations, Compensation{name, fn})
}

func (t *Transaction) AddFollowUp(name string, fn func(context.Context) error) {
	t.followUps = append(t.followUps, Operation{name, fn})
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.Fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.Name, err, i)
		}
	}

	for _, f := range t.followUps {
		if err := f.Fn(ctx); err != nil {
			t.failed = append(t.failed, f.Name)
			slog.Warn("⚠️ follow-up falhou, estado já gravado", "step", f.Name, "error", err)
		}
	}

	return nil
}

// FailedFollowUps lists the follow-up steps that returned an error in the last Execute.
func (t *Transaction) FailedFollowUps() []string {
	return t.failed
}

func (t *Transaction) rollback(ctx context.Context, failedAtIndex int) {
	for i := failedAtIndex - 1; i >= 0; i-- {
		if i < len(t.compensations) {
			comp := t.compensations[i]
			if err := comp.Fn(ctx); err != nil {
				slog.Error("⚠️ compensação falhou (risco de inconsistência)", "step", comp.Name, "error", err)
			}
		}
	}
}
