package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/atomic-crm/internal/entity"
	"github.com/xavierca1/atomic-crm/internal/testutil"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

// MockLeadRepository cobre os caminhos de falha do banco.
type MockLeadRepository struct {
	mock.Mock
	entity.LeadRepositoryInterface
}

func (m *MockLeadRepository) ListLeads(ctx context.Context, filter entity.LeadFilter) (*entity.LeadPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LeadPage), args.Error(1)
}

func (m *MockLeadRepository) FindConfirmedByID(ctx context.Context, id string) (*entity.ConfirmedLead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ConfirmedLead), args.Error(1)
}

func seedAdminStore(t *testing.T) (*testutil.MemStore, []string) {
	t.Helper()
	store := testutil.NewMemStore()
	store.Clock = func() time.Time { return hkNow }

	var ids []string
	for i := 0; i < 3; i++ {
		id := uuid.New().String()
		ids = append(ids, id)
		store.SeedConfirmed(&entity.ConfirmedLead{
			ID:          id,
			Name:        fmt.Sprintf("Lead %d", i),
			Email:       fmt.Sprintf("lead%d@x.com", i),
			CreatedAt:   hkNow.Add(-time.Duration(i) * time.Hour),
			ConfirmedAt: hkNow,
		})
	}
	seedPending(store, "pendente", hkNow.Add(-time.Hour), hkNow.Add(23*time.Hour), false)
	store.SeedPending(&entity.PendingLead{
		ID: "vencido", Email: "vencido@x.com", Phone: "11988887777", Token: "tok-vencido-123",
		CreatedAt: hkNow.Add(-30 * time.Hour), ExpiresAt: hkNow.Add(-6 * time.Hour),
	})
	return store, ids
}

func TestAdminListSummaryAndPagination(t *testing.T) {
	store, _ := seedAdminStore(t)
	uc := usecase.NewAdminLeadsUseCase(store, time.Second)

	out, err := uc.List(context.Background(), usecase.ListLeadsInput{Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 5, out.Summary.Total)
	assert.Equal(t, 3, out.Summary.Confirmed)
	assert.Equal(t, 1, out.Summary.Pending)
	assert.Equal(t, 1, out.Summary.ExpiredWithPhone)
	assert.Equal(t, usecase.Pagination{
		Page: 1, Limit: 2, Total: 5, TotalPages: 3, HasNextPage: true, HasPrevPage: false,
	}, out.Pagination)
	assert.Len(t, out.Leads, 2)
}

func TestAdminListFiltersByStatusAndText(t *testing.T) {
	store, _ := seedAdminStore(t)
	uc := usecase.NewAdminLeadsUseCase(store, time.Second)

	out, err := uc.List(context.Background(), usecase.ListLeadsInput{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Pagination.Total)
	assert.Equal(t, 20, out.Pagination.Limit)
	for _, l := range out.Leads {
		assert.Equal(t, entity.LeadStatusConfirmed, l.Status)
	}

	out, err = uc.List(context.Background(), usecase.ListLeadsInput{Query: "8888"})
	require.NoError(t, err)
	require.Len(t, out.Leads, 1)
	assert.Equal(t, entity.LeadStatusExpiredWithPhone, out.Leads[0].Status)

	_, err = uc.List(context.Background(), usecase.ListLeadsInput{Status: "banana"})
	assert.Equal(t, usecase.CodeValidation, domainCode(t, err))
}

func TestAdminListClampsLimit(t *testing.T) {
	store, _ := seedAdminStore(t)
	uc := usecase.NewAdminLeadsUseCase(store, time.Second)

	out, err := uc.List(context.Background(), usecase.ListLeadsInput{Limit: 5000, Page: -3})
	require.NoError(t, err)
	assert.Equal(t, usecase.MaxPageLimit, out.Pagination.Limit)
	assert.Equal(t, 1, out.Pagination.Page)
}

func TestAdminUpdateAndDelete(t *testing.T) {
	store, ids := seedAdminStore(t)
	uc := usecase.NewAdminLeadsUseCase(store, time.Second)
	uc.Now = func() time.Time { return hkNow.Add(time.Minute) }
	ctx := context.Background()

	name := "  Ana Maria "
	phone := "(11) 97777-6666"
	out, err := uc.Update(ctx, ids[0], usecase.UpdateLeadInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", out.Lead.Name)
	assert.Equal(t, "11977776666", out.Lead.Phone)

	got, err := uc.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Lead.Name)
	assert.Equal(t, hkNow.Add(time.Minute), got.Lead.UpdatedAt)

	del, err := uc.Delete(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, del.Deleted)

	_, err = uc.Delete(ctx, ids[0])
	assert.Equal(t, usecase.CodeLeadNotFound, domainCode(t, err))
}

func TestAdminRejectsInvalidID(t *testing.T) {
	uc := usecase.NewAdminLeadsUseCase(testutil.NewMemStore(), time.Second)

	_, err := uc.Get(context.Background(), "not-a-uuid")
	assert.Equal(t, usecase.CodeInvalidID, domainCode(t, err))

	_, err = uc.Delete(context.Background(), "1; DROP TABLE leads")
	assert.Equal(t, usecase.CodeInvalidID, domainCode(t, err))
}

func TestAdminDatabaseFailures(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("ListLeads", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	repo.On("FindConfirmedByID", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	uc := usecase.NewAdminLeadsUseCase(repo, time.Second)

	_, err := uc.List(context.Background(), usecase.ListLeadsInput{})
	assert.True(t, usecase.IsTechnicalError(err))

	_, err = uc.Get(context.Background(), uuid.New().String())
	assert.True(t, usecase.IsTechnicalError(err))

	repo.AssertExpectations(t)
}
