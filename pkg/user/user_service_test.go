package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService() (*UserServiceImpl, *StubUserRepository) {
	repo := NewStubUserRepository()
	return NewUserService(repo, "USD"), repo
}

func TestUserServiceImpl_CreateUser(t *testing.T) {
	t.Run("should apply default currency", func(t *testing.T) {
		service, _ := setupService()

		created, err := service.CreateUser(context.Background(), User{Uid: "u-1", Username: "jane", DisplayName: "Jane"})

		require.NoError(t, err)
		assert.Equal(t, 1, created.Id)
		assert.Equal(t, "USD", created.Settings.Currency)
	})

	t.Run("should reject unknown timezone", func(t *testing.T) {
		service, _ := setupService()

		_, err := service.CreateUser(context.Background(), User{
			Username: "jane",
			Settings: Settings{Timezone: "Mars/Olympus"},
		})

		assert.ErrorIs(t, err, ErrUserDataInvalid)
	})

	t.Run("should reject taken username", func(t *testing.T) {
		service, _ := setupService()
		_, err := service.CreateUser(context.Background(), User{Username: "jane"})
		require.NoError(t, err)

		_, err = service.CreateUser(context.Background(), User{Username: "jane"})

		assert.ErrorIs(t, err, ErrUserDataInvalid)
	})
}

func TestUserServiceImpl_UpdateUser(t *testing.T) {
	t.Run("should update settings of current user", func(t *testing.T) {
		service, _ := setupService()
		created, err := service.CreateUser(context.Background(), User{Uid: "u-1", Username: "jane", DisplayName: "Jane"})
		require.NoError(t, err)
		ctx := WithUser(context.Background(), created)

		updated, err := service.UpdateUser(ctx, User{
			DisplayName: "Jane D",
			Settings:    Settings{Timezone: "Europe/Warsaw", WeekFirstDay: time.Sunday, Currency: "PLN"},
		})

		require.NoError(t, err)
		assert.Equal(t, "Jane D", updated.DisplayName)
		assert.Equal(t, "Europe/Warsaw", updated.Settings.Timezone)
		assert.Equal(t, time.Sunday, updated.Settings.WeekFirstDay)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		service, _ := setupService()

		_, err := service.UpdateUser(context.Background(), User{DisplayName: "x"})

		assert.ErrorIs(t, err, ErrNoUser)
		assert.Contains(t, err.Error(), "failed to get current user")
	})
}

func TestSettings_Location(t *testing.T) {
	assert.Equal(t, time.Local, Settings{}.Location())
	assert.Equal(t, time.Local, Settings{Timezone: "Nowhere/Invalid"}.Location())
	assert.Equal(t, "America/New_York", Settings{Timezone: "America/New_York"}.Location().String())
}

func TestHandler_CreateUser(t *testing.T) {
	service, _ := setupService()
	handler := NewHandler(service)

	t.Run("should create user", func(t *testing.T) {
		body := `{"uid":"abc","username":"joe","displayName":"Joe","settings":{"timezone":"UTC","weekStartDay":"sunday","currency":"eur"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t,
			`{"uid":"abc","username":"joe","displayName":"Joe","settings":{"timezone":"UTC","weekStartDay":"sunday","currency":"EUR"}}`,
			w.Body.String())
	})

	t.Run("should require username", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/user", strings.NewReader(`{"displayName":"Joe"}`))
		w := httptest.NewRecorder()

		handler.CreateUser(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Username is required")
	})
}

func TestHandler_CurrentUser_WithoutUser(t *testing.T) {
	service, _ := setupService()
	handler := NewHandler(service)
	req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
	w := httptest.NewRecorder()

	handler.CurrentUser(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
