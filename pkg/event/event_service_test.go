package event

import (
	"context"
	"testing"
	"time"

	"github.com/forecastly/forecastly/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = user.User{Id: 1, Uid: "user-1", Settings: user.Settings{Timezone: "UTC"}}
var ctx = user.WithUser(context.Background(), testUser)

func setupService(t *testing.T) (*ServiceImpl, *RepositoryStub) {
	repo := NewRepositoryStub()
	t.Cleanup(repo.Reset)
	return NewEventService(repo), repo
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should derive type and defaults", func(t *testing.T) {
		service, repo := setupService(t)

		created, err := service.Create(ctx, Event{
			Title:     "Gym",
			Amount:    decimal.NewFromInt(-40),
			Frequency: Monthly,
			StartDate: date(2025, 1, 10),
			Enabled:   true,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, created.Id)
		assert.Equal(t, Expense, created.Type)
		assert.True(t, created.Recurring)
		assert.Equal(t, SourceCustom, created.Source)

		stored, err := repo.GetEvent(ctx, 1, created.Id)
		require.NoError(t, err)
		assert.Equal(t, "Gym", stored.Title)
	})

	t.Run("should default to single occurrence", func(t *testing.T) {
		service, _ := setupService(t)

		created, err := service.Create(ctx, Event{Title: "Bonus", Amount: decimal.NewFromInt(500), StartDate: date(2025, 2, 1)})

		require.NoError(t, err)
		assert.Equal(t, Once, created.Frequency)
		assert.False(t, created.Recurring)
		assert.Equal(t, Income, created.Type)
	})

	t.Run("should reject invalid event", func(t *testing.T) {
		service, _ := setupService(t)

		_, err := service.Create(ctx, Event{Amount: decimal.NewFromInt(5), StartDate: date(2025, 2, 1)})

		assert.ErrorIs(t, err, ErrInvalidEvent)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		service, _ := setupService(t)

		_, err := service.Create(context.Background(), Event{Title: "x"})

		assert.ErrorIs(t, err, user.ErrNoUser)
		assert.Contains(t, err.Error(), "failed to get current user")
	})
}

func TestServiceImpl_List_ReanchorsToUserTimezone(t *testing.T) {
	service, repo := setupService(t)
	_, err := repo.StoreEvent(ctx, 2, Event{Id: "a", Title: "Rent", StartDate: date(2025, 5, 1)})
	require.NoError(t, err)
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	userCtx := user.WithUser(context.Background(), user.User{Id: 2, Settings: user.Settings{Timezone: "Europe/Warsaw"}})

	events, err := service.List(userCtx)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, warsaw), events[0].StartDate)
}

func TestServiceImpl_SetEnabled(t *testing.T) {
	service, _ := setupService(t)
	created, err := service.Create(ctx, Event{Title: "Salary", Amount: decimal.NewFromInt(3000), StartDate: date(2025, 1, 1), Enabled: true})
	require.NoError(t, err)

	updated, err := service.SetEnabled(ctx, created.Id, false)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	_, err = service.SetEnabled(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestServiceImpl_Delete(t *testing.T) {
	service, repo := setupService(t)
	created, err := service.Create(ctx, Event{Title: "Salary", Amount: decimal.NewFromInt(3000), StartDate: date(2025, 1, 1)})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, created.Id))

	events, err := repo.GetEvents(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.ErrorIs(t, service.Delete(ctx, created.Id), ErrEventNotFound)
}

func TestServiceImpl_ReplaceDetected(t *testing.T) {
	netflix := Event{
		Title:     "Netflix",
		Amount:    decimal.RequireFromString("-15.99"),
		Type:      Expense,
		Frequency: Monthly,
		StartDate: date(2025, 1, 5),
		Enabled:   true,
		Recurring: true,
		IsBank:    true,
		Source:    SourceRecurringTransaction,
	}

	t.Run("should replace previously detected rules of the bank only", func(t *testing.T) {
		service, repo := setupService(t)
		_, err := repo.StoreEvent(ctx, 1, Event{Id: "old", Title: "Old", BankId: "bank-1", Generated: true})
		require.NoError(t, err)
		_, err = repo.StoreEvent(ctx, 1, Event{Id: "other", Title: "Other", BankId: "bank-2", Generated: true})
		require.NoError(t, err)
		_, err = repo.StoreEvent(ctx, 1, Event{Id: "custom", Title: "Custom", Source: SourceCustom})
		require.NoError(t, err)

		stored, err := service.ReplaceDetected(ctx, "bank-1", []Event{netflix})

		require.NoError(t, err)
		assert.Equal(t, 1, stored)
		events, err := repo.GetEvents(ctx, 1)
		require.NoError(t, err)
		titles := make([]string, 0, len(events))
		for _, e := range events {
			titles = append(titles, e.Title)
		}
		assert.ElementsMatch(t, []string{"Netflix", "Other", "Custom"}, titles)
	})

	t.Run("should mark stored rules as generated for the bank", func(t *testing.T) {
		service, repo := setupService(t)

		_, err := service.ReplaceDetected(ctx, "bank-1", []Event{netflix})
		require.NoError(t, err)

		events, err := repo.GetEvents(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.True(t, events[0].Generated)
		assert.Equal(t, "bank-1", events[0].BankId)
		assert.NotEmpty(t, events[0].Id)
	})

	t.Run("should skip invalid rules", func(t *testing.T) {
		service, _ := setupService(t)
		invalid := netflix
		invalid.Title = ""

		stored, err := service.ReplaceDetected(ctx, "bank-1", []Event{netflix, invalid})

		require.NoError(t, err)
		assert.Equal(t, 1, stored)
	})
}

func TestServiceImpl_DeleteByBank(t *testing.T) {
	service, repo := setupService(t)
	_, _ = repo.StoreEvent(ctx, 1, Event{Id: "t1", Title: "Txn", BankId: "bank-1", IsBank: true})
	_, _ = repo.StoreEvent(ctx, 1, Event{Id: "r1", Title: "Rule", BankId: "bank-1", Generated: true})
	_, _ = repo.StoreEvent(ctx, 1, Event{Id: "c1", Title: "Custom"})

	deleted, err := service.DeleteByBank(ctx, "bank-1")

	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	events, err := repo.GetEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "c1", events[0].Id)
}
