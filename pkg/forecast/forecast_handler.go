package forecast

import (
	"errors"
	"net/http"
	"time"

	"github.com/forecastly/forecastly/internal/rest"
	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/forecastly/forecastly/pkg/recurrence"
	"github.com/forecastly/forecastly/pkg/simulation"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BalanceEntryDTO struct {
	Date           string           `json:"date"`
	Balance        string           `json:"balance"`
	DayAmount      string           `json:"dayAmount"`
	Events         []event.EventDTO `json:"events"`
	IsCurrentMonth bool             `json:"isCurrentMonth"`
}

type CrossingDTO struct {
	Date      string `json:"date"`
	Direction string `json:"direction"`
	Balance   string `json:"balance"`
}

type SummaryDTO struct {
	Threshold  string           `json:"threshold"`
	Lowest     *BalanceEntryDTO `json:"lowest,omitempty"`
	Highest    *BalanceEntryDTO `json:"highest,omitempty"`
	FirstBelow *BalanceEntryDTO `json:"firstBelow,omitempty"`
	Crossings  []CrossingDTO    `json:"crossings"`
}

type CalendarDTO struct {
	Month     string            `json:"month"`
	GridStart string            `json:"gridStart"`
	GridEnd   string            `json:"gridEnd"`
	Base      string            `json:"baseBalance"`
	Days      []BalanceEntryDTO `json:"days"`
	Summary   SummaryDTO        `json:"summary"`
	Skipped   int               `json:"skipped"`
}

type ProjectionDTO struct {
	Base    string            `json:"baseBalance"`
	Days    []BalanceEntryDTO `json:"days"`
	Final   BalanceEntryDTO   `json:"final"`
	Summary SummaryDTO        `json:"summary"`
	Skipped int               `json:"skipped"`
}

type CandidateDTO struct {
	Title            string  `json:"title"`
	Amount           string  `json:"amount"`
	Frequency        string  `json:"frequency"`
	DayOfMonth       int     `json:"dayOfMonth"`
	StartDate        string  `json:"startDate"`
	Occurrences      int     `json:"occurrences"`
	MeanIntervalDays float64 `json:"meanIntervalDays"`
}

type RecurringDTO struct {
	Candidates []CandidateDTO `json:"candidates"`
	Skipped    int            `json:"skipped"`
}

type Handler struct {
	forecastService Service
	csvRenderer     simulation.Renderer
	threshold       decimal.Decimal
}

func NewHandler(forecastService Service, csvRenderer simulation.Renderer, cfg Config) *Handler {
	return &Handler{forecastService: forecastService, csvRenderer: csvRenderer, threshold: cfg.LowBalanceThreshold}
}

// Calendar godoc
// @Summary Simulated balance calendar of a month
// @Description Six week grid starting on the user's first day of week. Days before today are omitted.
// @Tags Forecast
// @Produce json
// @Param month query string false "Month (YYYY-MM), defaults to the current month"
// @Success 200 {object} CalendarDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid month"
// @Router /api/forecast/calendar [get]
// @Security XUserId
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	var month time.Time
	if monthString := r.URL.Query().Get("month"); monthString != "" {
		parsed, err := time.Parse("2006-01", monthString)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid month format", "month must be in YYYY-MM format")
			return
		}
		month = parsed
	}

	calendar, err := h.forecastService.Calendar(r.Context(), month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rest.WriteJSON(w, http.StatusOK, CalendarDTO{
		Month:     calendar.Month.Format("2006-01"),
		GridStart: localdate.Format(calendar.GridStart),
		GridEnd:   localdate.Format(calendar.GridEnd),
		Base:      calendar.Base.StringFixed(2),
		Days:      entriesToDTO(calendar.Entries),
		Summary:   h.summaryToDTO(calendar.Summary, len(calendar.Entries) > 0),
		Skipped:   calendar.Skipped,
	})
}

// Projection godoc
// @Summary Project the balance up to a target date
// @Tags Forecast
// @Produce json
// @Produce text/csv
// @Param target query string true "Target date (YYYY-MM-DD)"
// @Param start query string false "Start date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} ProjectionDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid range"
// @Router /api/forecast/projection [get]
// @Security XUserId
func (h *Handler) Projection(w http.ResponseWriter, r *http.Request) {
	target, err := localdate.ParseIn(r.URL.Query().Get("target"), time.UTC)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid target date", "target must be in YYYY-MM-DD format")
		return
	}
	var start time.Time
	if startString := r.URL.Query().Get("start"); startString != "" {
		start, err = localdate.ParseIn(startString, time.UTC)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid start date", "start must be in YYYY-MM-DD format")
			return
		}
	}

	projection, err := h.forecastService.Project(r.Context(), start, target)
	if err != nil {
		if errors.Is(err, simulation.ErrInvalidRange) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid range", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := h.csvRenderer.Render(projection.Entries())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv response: %v", err)
		}
		return
	}

	days := make([]BalanceEntryDTO, 0, projection.Len())
	for _, entry := range projection.Sequence() {
		days = append(days, entryToDTO(entry))
	}
	rest.WriteJSON(w, http.StatusOK, ProjectionDTO{
		Base:    projection.Base.StringFixed(2),
		Days:    days,
		Final:   entryToDTO(projection.Final()),
		Summary: h.summaryToDTO(projection.Summary, projection.Len() > 0),
		Skipped: projection.Skipped,
	})
}

// Recurring godoc
// @Summary Recurring payments detected in imported transactions
// @Tags Forecast
// @Produce json
// @Success 200 {object} RecurringDTO
// @Router /api/forecast/recurring [get]
// @Security XUserId
func (h *Handler) Recurring(w http.ResponseWriter, r *http.Request) {
	result, err := h.forecastService.Recurring(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	response := RecurringDTO{
		Candidates: make([]CandidateDTO, 0, len(result.Candidates)),
		Skipped:    len(result.Skipped),
	}
	for _, c := range result.Candidates {
		response.Candidates = append(response.Candidates, candidateToDTO(c))
	}
	rest.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) summaryToDTO(summary simulation.Summary, hasEntries bool) SummaryDTO {
	dto := SummaryDTO{
		Threshold: h.threshold.StringFixed(2),
		Crossings: make([]CrossingDTO, 0, len(summary.Crossings)),
	}
	if hasEntries {
		lowest := entryToDTO(summary.Lowest)
		highest := entryToDTO(summary.Highest)
		dto.Lowest = &lowest
		dto.Highest = &highest
	}
	if summary.FirstBelow != nil {
		firstBelow := entryToDTO(*summary.FirstBelow)
		dto.FirstBelow = &firstBelow
	}
	for _, c := range summary.Crossings {
		dto.Crossings = append(dto.Crossings, CrossingDTO{
			Date:      localdate.Format(c.Date),
			Direction: string(c.Direction),
			Balance:   c.Balance.StringFixed(2),
		})
	}
	return dto
}

func entriesToDTO(entries []simulation.BalanceEntry) []BalanceEntryDTO {
	result := make([]BalanceEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entryToDTO(entry))
	}
	return result
}

func entryToDTO(entry simulation.BalanceEntry) BalanceEntryDTO {
	events := make([]event.EventDTO, 0, len(entry.Events))
	for _, e := range entry.Events {
		events = append(events, event.ToDTO(e))
	}
	return BalanceEntryDTO{
		Date:           localdate.Format(entry.Date),
		Balance:        entry.Balance.StringFixed(2),
		DayAmount:      entry.DayAmount.StringFixed(2),
		Events:         events,
		IsCurrentMonth: entry.IsCurrentMonth,
	}
}

func candidateToDTO(c recurrence.Candidate) CandidateDTO {
	return CandidateDTO{
		Title:            c.Title,
		Amount:           c.Amount.StringFixed(2),
		Frequency:        string(c.Frequency),
		DayOfMonth:       c.DayOfMonth,
		StartDate:        localdate.Format(c.StartDate),
		Occurrences:      c.Occurrences,
		MeanIntervalDays: c.MeanIntervalDays,
	}
}
