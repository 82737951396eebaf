package event

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*mux.Router, *ServiceImpl) {
	service, _ := setupService(t)
	handler := NewEventHandler(service)
	r := mux.NewRouter()
	r.HandleFunc("/api/event", handler.List).Methods("GET")
	r.HandleFunc("/api/event", handler.Create).Methods("POST")
	r.HandleFunc("/api/event/{eventId}", handler.Update).Methods("PATCH")
	r.HandleFunc("/api/event/{eventId}", handler.Delete).Methods("DELETE")
	return r, service
}

func serve(r *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Create(t *testing.T) {
	t.Run("should create monthly expense", func(t *testing.T) {
		r, _ := setupHandler(t)

		w := serve(r, http.MethodPost, "/api/event",
			`{"title":"Rent","amount":"-1200","frequency":"monthly","date":"2025-01-31"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		var dto EventDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, "Rent", dto.Title)
		assert.Equal(t, "-1200.00", dto.Amount)
		assert.Equal(t, "expense", dto.Type)
		assert.Equal(t, "monthly", dto.Frequency)
		assert.Equal(t, "2025-01-31", dto.Date)
		assert.True(t, dto.Enabled)
		assert.True(t, dto.Recurring)
		assert.Equal(t, "Custom Event", dto.Source)
	})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed body", `{`, "Invalid request body format"},
		{"bad amount", `{"title":"x","amount":"abc","date":"2025-01-01"}`, "Invalid amount"},
		{"bad date", `{"title":"x","amount":"1","date":"01/02/2025"}`, "Invalid date format"},
		{"bad frequency", `{"title":"x","amount":"1","date":"2025-01-01","frequency":"yearly"}`, "Invalid frequency"},
		{"missing title", `{"amount":"1","date":"2025-01-01"}`, "Invalid event"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupHandler(t)

			w := serve(r, http.MethodPost, "/api/event", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	r, service := setupHandler(t)
	created, err := service.Create(ctx, Event{Title: "Salary", Amount: decimal.NewFromInt(2000), StartDate: date(2025, 1, 1), Enabled: true})
	require.NoError(t, err)

	w := serve(r, http.MethodPatch, "/api/event/"+created.Id, `{"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)

	w = serve(r, http.MethodPatch, "/api/event/"+created.Id, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPatch, "/api/event/missing", `{"enabled":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodDelete, "/api/event/"+created.Id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(r, http.MethodDelete, "/api/event/"+created.Id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodGet, "/api/event", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
