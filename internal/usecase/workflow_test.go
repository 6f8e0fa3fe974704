package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/atomic-crm/internal/entity"
	"github.com/xavierca1/atomic-crm/internal/testutil"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

type fixture struct {
	store    *testutil.MemStore
	notifier *testutil.RecordingNotifier
	now      time.Time
	submit   *usecase.SubmitLeadUseCase
	confirm  *usecase.ConfirmLeadUseCase
	resend   *usecase.ResendConfirmationUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    testutil.NewMemStore(),
		notifier: &testutil.RecordingNotifier{},
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.store.Clock = clock

	tokens := usecase.NewTokenIssuer(24 * time.Hour)

	f.submit = usecase.NewSubmitLeadUseCase(f.store, f.store, f.notifier, tokens, time.Second)
	f.submit.Now = clock
	f.confirm = usecase.NewConfirmLeadUseCase(f.store, f.store, f.notifier, nil, time.Second)
	f.confirm.Now = clock
	f.resend = usecase.NewResendConfirmationUseCase(f.store, f.store, f.notifier, tokens, time.Second)
	f.resend.Now = clock
	return f
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *usecase.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestSubmitCreatesPendingAndSendsConfirmation(t *testing.T) {
	f := newFixture(t)

	out, err := f.submit.Execute(context.Background(), usecase.SubmitLeadInput{
		Name: "Ana", Email: "Ana@X.com", Phone: "11999990000",
	})

	require.NoError(t, err)
	assert.Equal(t, usecase.StatusPendingConfirmation, out.Status)
	assert.Equal(t, "ana@x.com", out.Email)
	require.NotNil(t, out.ExpiresAt)
	assert.Equal(t, f.now.Add(24*time.Hour), *out.ExpiresAt)

	pending, err := f.store.FindPendingByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.False(t, pending.ReminderSent)

	sent := f.notifier.Last("confirmation")
	require.NotNil(t, sent)
	assert.Equal(t, pending.Token, sent.Token)
	assert.Equal(t, []entity.EmailEventType{entity.EmailEventConfirmationSent}, f.store.EventTypes("ana@x.com"))
}

func TestSubmitTwiceRefreshesTokenAndLogsResent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.submit.Execute(ctx, usecase.SubmitLeadInput{Name: "Ana", Email: "ana@x.com"})
	require.NoError(t, err)
	first, _ := f.store.FindPendingByEmail(ctx, "ana@x.com")

	f.now = f.now.Add(time.Hour)
	_, err = f.submit.Execute(ctx, usecase.SubmitLeadInput{Email: "ana@x.com"})
	require.NoError(t, err)
	second, _ := f.store.FindPendingByEmail(ctx, "ana@x.com")

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, "Ana", second.Name, "nome vazio não apaga o anterior")
	assert.Equal(t, f.now.Add(24*time.Hour), second.ExpiresAt)
	assert.Equal(t, 1, f.store.PendingCount())
	assert.Equal(t, []entity.EmailEventType{
		entity.EmailEventConfirmationSent,
		entity.EmailEventConfirmationResent,
	}, f.store.EventTypes("ana@x.com"))
}

func TestSubmitAlreadyConfirmedIsNoop(t *testing.T) {
	f := newFixture(t)
	f.store.SeedConfirmed(&entity.ConfirmedLead{ID: "c1", Email: "ana@x.com"})

	out, err := f.submit.Execute(context.Background(), usecase.SubmitLeadInput{Email: "ana@x.com"})

	require.NoError(t, err)
	assert.Equal(t, usecase.StatusAlreadyRegistered, out.Status)
	assert.Equal(t, 0, f.store.PendingCount())
	assert.Empty(t, f.notifier.Sent())
}

func TestSubmitInvalidEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.submit.Execute(context.Background(), usecase.SubmitLeadInput{Email: "bad-email"})

	assert.Equal(t, usecase.CodeValidation, domainCode(t, err))
	assert.Equal(t, 0, f.store.PendingCount())
}

func TestSubmitMailFailureKeepsPendingRow(t *testing.T) {
	f := newFixture(t)
	f.notifier.Err = errors.New("resend fora do ar")

	out, err := f.submit.Execute(context.Background(), usecase.SubmitLeadInput{Email: "ana@x.com"})

	require.NoError(t, err)
	assert.Equal(t, usecase.StatusPendingConfirmation, out.Status)
	assert.Equal(t, 1, f.store.PendingCount())
}

func TestSubmitStoreFailureIsTechnical(t *testing.T) {
	f := newFixture(t)
	f.store.FailWith = errors.New("connection refused")

	_, err := f.submit.Execute(context.Background(), usecase.SubmitLeadInput{Email: "ana@x.com"})

	require.Error(t, err)
	assert.True(t, usecase.IsTechnicalError(err))
	assert.Empty(t, f.notifier.Sent())
}

func TestConfirmHappyPathThenReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.submit.Execute(ctx, usecase.SubmitLeadInput{Name: "Ana", Email: "ana@x.com", Phone: "11999990000"})
	require.NoError(t, err)
	token := f.notifier.Last("confirmation").Token

	out, err := f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: token})
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", out.Email)
	assert.Equal(t, "confirm", out.Action)

	lead, err := f.store.FindConfirmedByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, out.ConfirmedID, lead.ID)
	assert.Equal(t, f.now, lead.ConfirmedAt)
	assert.Equal(t, "11999990000", lead.Phone)
	assert.Equal(t, 0, f.store.PendingCount())
	assert.NotNil(t, f.notifier.Last("welcome"))
	assert.Contains(t, f.store.EventTypes("ana@x.com"), entity.EmailEventConfirmed)

	_, err = f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: token})
	assert.Equal(t, usecase.CodeTokenNotFound, domainCode(t, err))
	assert.Equal(t, 1, f.store.ConfirmedCount())
}

func TestConfirmExpiredTokenLeavesPending(t *testing.T) {
	f := newFixture(t)
	f.store.SeedPending(&entity.PendingLead{
		ID: "p1", Email: "ana@x.com", Token: "expired-token-123",
		CreatedAt: f.now.Add(-25 * time.Hour),
		ExpiresAt: f.now.Add(-time.Hour),
	})

	_, err := f.confirm.Execute(context.Background(), usecase.ConfirmLeadInput{Token: "expired-token-123"})

	assert.Equal(t, usecase.CodeTokenExpired, domainCode(t, err))
	assert.Equal(t, 1, f.store.PendingCount())
	assert.Equal(t, 0, f.store.ConfirmedCount())
}

func TestConfirmEmailMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.submit.Execute(ctx, usecase.SubmitLeadInput{Email: "ana@x.com"})
	require.NoError(t, err)
	token := f.notifier.Last("confirmation").Token

	_, err = f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: token, Email: "bob@x.com"})
	assert.Equal(t, usecase.CodeTokenEmailMismatch, domainCode(t, err))

	_, err = f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: token, Email: "ANA@x.com"})
	assert.NoError(t, err, "comparação ignora caixa")
}

func TestConfirmUnknownAndMalformedTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: "does-not-exist-123"})
	assert.Equal(t, usecase.CodeTokenNotFound, domainCode(t, err))

	_, err = f.confirm.Execute(ctx, usecase.ConfirmLeadInput{})
	assert.Equal(t, usecase.CodeMissingToken, domainCode(t, err))

	_, err = f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: "bad token!"})
	assert.Equal(t, usecase.CodeInvalidToken, domainCode(t, err))
}

func TestConcurrentConfirmSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.submit.Execute(ctx, usecase.SubmitLeadInput{Email: "ana@x.com"})
	require.NoError(t, err)
	token := f.notifier.Last("confirmation").Token

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, notFound := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: token})
			mu.Lock()
			defer mu.Unlock()
			var de *usecase.DomainError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &de) && de.Code == usecase.CodeTokenNotFound:
				notFound++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, notFound)
	assert.Equal(t, 1, f.store.ConfirmedCount())
}

type recordingPublisher struct {
	leads []*entity.ConfirmedLead
	err   error
}

func (p *recordingPublisher) PublishLeadConfirmed(ctx context.Context, lead *entity.ConfirmedLead) error {
	p.leads = append(p.leads, lead)
	return p.err
}

func TestConfirmPublishesEventWithoutBlockingOnFailure(t *testing.T) {
	f := newFixture(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	f.confirm.Publisher = pub
	ctx := context.Background()

	_, err := f.submit.Execute(ctx, usecase.SubmitLeadInput{Email: "ana@x.com"})
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: f.notifier.Last("confirmation").Token})

	require.NoError(t, err)
	require.Len(t, pub.leads, 1)
	assert.Equal(t, "ana@x.com", pub.leads[0].Email)
}

func TestResendRequiresPending(t *testing.T) {
	f := newFixture(t)

	_, err := f.resend.Execute(context.Background(), usecase.ResendConfirmationInput{Email: "ghost@x.com"})

	assert.Equal(t, usecase.CodePendingNotFound, domainCode(t, err))
	assert.Empty(t, f.notifier.Sent())
}

func TestResendRotatesTokenAndResetsReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SeedPending(&entity.PendingLead{
		ID: "p1", Name: "Ana", Email: "ana@x.com", Token: "old-token-abcdef",
		CreatedAt:    f.now.Add(-10 * time.Hour),
		ExpiresAt:    f.now.Add(14 * time.Hour),
		ReminderSent: true,
	})

	out, err := f.resend.Execute(ctx, usecase.ResendConfirmationInput{Email: "ANA@x.com", Origin: usecase.OriginAdmin})
	require.NoError(t, err)
	assert.Equal(t, usecase.StatusResent, out.Status)
	assert.Equal(t, f.now.Add(24*time.Hour), out.ExpiresAt)

	p, _ := f.store.FindPendingByEmail(ctx, "ana@x.com")
	assert.NotEqual(t, "old-token-abcdef", p.Token)
	assert.False(t, p.ReminderSent)
	assert.Equal(t, p.Token, f.notifier.Last("confirmation").Token)

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, entity.EmailEventConfirmationResent, events[0].Type)
	assert.Equal(t, usecase.OriginAdmin, events[0].Meta["route"])

	_, err = f.confirm.Execute(ctx, usecase.ConfirmLeadInput{Token: "old-token-abcdef"})
	assert.Equal(t, usecase.CodeTokenNotFound, domainCode(t, err), "token antigo deixa de valer")
}
