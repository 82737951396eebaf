package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/forecastly/forecastly/internal/rest"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type EventDTO struct {
	Id         string `json:"id"`
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Type       string `json:"type"`
	Frequency  string `json:"frequency"`
	Date       string `json:"date"`
	Enabled    bool   `json:"enabled"`
	Recurring  bool   `json:"recurring"`
	Generated  bool   `json:"generated"`
	IsBank     bool   `json:"isBank"`
	BankId     string `json:"bankId,omitempty"`
	Source     string `json:"source"`
	SourceIcon string `json:"sourceIcon,omitempty"`
}

type CreateEventRequest struct {
	Title     string `json:"title"`
	Amount    string `json:"amount"`
	Type      string `json:"type"`
	Frequency string `json:"frequency"`
	Date      string `json:"date"`
	Enabled   *bool  `json:"enabled"`
}

type UpdateEventRequest struct {
	Enabled *bool `json:"enabled"`
}

type Handler struct {
	eventService Service
}

func NewEventHandler(eventService Service) *Handler {
	return &Handler{eventService: eventService}
}

// List godoc
// @Summary List cash-flow events
// @Tags Event
// @Produce json
// @Success 200 {array} EventDTO
// @Router /api/event [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing events")

	events, err := h.eventService.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := make([]EventDTO, 0, len(events))
	for _, e := range events {
		response = append(response, ToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, response)
}

// Create godoc
// @Summary Create a custom cash-flow event
// @Tags Event
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event"
// @Success 201 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/event [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var request CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	log.Debug("New event request: ", request)

	amount, err := decimal.NewFromString(request.Amount)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid amount", "Amount must be a decimal number")
		return
	}
	date, err := localdate.ParseIn(request.Date, time.UTC)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "Date must be in YYYY-MM-DD format")
		return
	}
	frequency := Once
	if request.Frequency != "" {
		frequency, err = ParseFrequency(request.Frequency)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid frequency", err.Error())
			return
		}
	}
	enabled := true
	if request.Enabled != nil {
		enabled = *request.Enabled
	}

	created, err := h.eventService.Create(r.Context(), Event{
		Title:     request.Title,
		Amount:    amount,
		Type:      Type(request.Type),
		Frequency: frequency,
		StartDate: date,
		Enabled:   enabled,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(created))
}

// Update godoc
// @Summary Enable or disable an event
// @Tags Event
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param event body UpdateEventRequest true "Update"
// @Success 200 {object} EventDTO
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/event/{eventId} [patch]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]

	var request UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Enabled == nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid or missing 'enabled' in request body", "")
		return
	}

	updated, err := h.eventService.SetEnabled(r.Context(), eventId, *request.Enabled)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Event not found", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(updated))
}

// Delete godoc
// @Summary Delete an event
// @Tags Event
// @Param eventId path string true "Event ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Router /api/event/{eventId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]
	log.Debug("Deleting event: ", eventId)

	if err := h.eventService.Delete(r.Context(), eventId); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Event not found", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ToDTO(e Event) EventDTO {
	return EventDTO{
		Id:         e.Id,
		Title:      e.Title,
		Amount:     e.Amount.StringFixed(2),
		Type:       string(e.Type),
		Frequency:  string(e.Frequency),
		Date:       localdate.Format(e.StartDate),
		Enabled:    e.Enabled,
		Recurring:  e.Recurring,
		Generated:  e.Generated,
		IsBank:     e.IsBank,
		BankId:     e.BankId,
		Source:     string(e.Source),
		SourceIcon: e.SourceIcon,
	}
}
