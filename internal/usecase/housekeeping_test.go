package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/atomic-crm/internal/entity"
	"github.com/xavierca1/atomic-crm/internal/testutil"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

var hkNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seedPending(store *testutil.MemStore, id string, created, expires time.Time, reminded bool) {
	store.SeedPending(&entity.PendingLead{
		ID:           id,
		Email:        id + "@x.com",
		Token:        "token-" + id + "-abcdef",
		CreatedAt:    created,
		ExpiresAt:    expires,
		ReminderSent: reminded,
	})
}

func TestCleanupRemovesOnlyExpiredAndIsIdempotent(t *testing.T) {
	store := testutil.NewMemStore()
	seedPending(store, "old", hkNow.Add(-48*time.Hour), hkNow.Add(-24*time.Hour), false)
	seedPending(store, "edge", hkNow.Add(-24*time.Hour), hkNow, false)
	seedPending(store, "live", hkNow.Add(-time.Hour), hkNow.Add(23*time.Hour), false)

	uc := usecase.NewCleanupPendingUseCase(store, 0, time.Second)
	uc.Now = func() time.Time { return hkNow }

	out, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Removed)
	assert.False(t, out.HasMore)

	_, err = store.FindPendingByEmail(context.Background(), "live@x.com")
	assert.NoError(t, err)

	out, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, out.Removed)
}

func TestCleanupIsBatched(t *testing.T) {
	store := testutil.NewMemStore()
	for i := 0; i < 5; i++ {
		seedPending(store, fmt.Sprintf("p%d", i), hkNow.Add(-48*time.Hour), hkNow.Add(-time.Duration(i+1)*time.Hour), false)
	}

	uc := usecase.NewCleanupPendingUseCase(store, 3, time.Second)
	uc.Now = func() time.Time { return hkNow }

	out, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, out.Removed)
	assert.True(t, out.HasMore)

	out, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Removed)
	assert.False(t, out.HasMore)
}

func TestRemindSendsOncePerWindow(t *testing.T) {
	store := testutil.NewMemStore()
	notifier := &testutil.RecordingNotifier{}

	seedPending(store, "stale", hkNow.Add(-8*time.Hour), hkNow.Add(16*time.Hour), false)
	seedPending(store, "fresh", hkNow.Add(-time.Hour), hkNow.Add(23*time.Hour), false)
	seedPending(store, "done", hkNow.Add(-10*time.Hour), hkNow.Add(14*time.Hour), true)
	seedPending(store, "expired", hkNow.Add(-30*time.Hour), hkNow.Add(-6*time.Hour), false)

	uc := usecase.NewRemindPendingUseCase(store, store, notifier, 6*time.Hour, 0, time.Second)
	uc.Now = func() time.Time { return hkNow }

	out, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, out.ProcessedCount)
	assert.Equal(t, []string{"stale"}, out.ProcessedIDs)

	reminder := notifier.Last("reminder")
	require.NotNil(t, reminder)
	assert.Equal(t, "stale@x.com", reminder.To)
	assert.Equal(t, "token-stale-abcdef", reminder.Token)
	assert.Equal(t, []entity.EmailEventType{entity.EmailEventConfirmationReminder}, store.EventTypes("stale@x.com"))

	out, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, out.ProcessedCount, "não lembra duas vezes")
}

func TestRemindFailedSendIsRetriedNextRun(t *testing.T) {
	store := testutil.NewMemStore()
	notifier := &testutil.RecordingNotifier{Err: errors.New("smtp down")}
	seedPending(store, "stale", hkNow.Add(-8*time.Hour), hkNow.Add(16*time.Hour), false)

	uc := usecase.NewRemindPendingUseCase(store, store, notifier, 6*time.Hour, 10, time.Second)
	uc.Now = func() time.Time { return hkNow }

	out, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, out.ProcessedCount)
	assert.Equal(t, 1, out.Failed)

	p, _ := store.FindPendingByEmail(context.Background(), "stale@x.com")
	assert.False(t, p.ReminderSent)

	notifier.Err = nil
	out, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, out.ProcessedCount)
}
