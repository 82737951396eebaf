package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/forecastly/forecastly/internal/event_bus"
	"github.com/forecastly/forecastly/internal/utils"
	"github.com/forecastly/forecastly/pkg/bank"
	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/forecastly/forecastly/pkg/recurrence"
	"github.com/forecastly/forecastly/pkg/simulation"
	"github.com/forecastly/forecastly/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Calendar simulates the calendar grid of the month containing the given day.
	// A zero month means the current one.
	Calendar(ctx context.Context, month time.Time) (Calendar, error)
	// Project simulates [start, target]. A zero start means today.
	Project(ctx context.Context, start, target time.Time) (Projection, error)
	// Recurring detects recurring payments in all imported transactions.
	Recurring(ctx context.Context) (recurrence.DetectionResult, error)
}

type ServiceImpl struct {
	eventService event.Service
	bankService  bank.Service
	cfg          Config
	clock        utils.Clock
}

func NewService(
	eventService event.Service,
	bankService bank.Service,
	cfg Config,
	clock utils.Clock,
	eventBus *event_bus.EventBus,
) *ServiceImpl {
	service := &ServiceImpl{
		eventService: eventService,
		bankService:  bankService,
		cfg:          cfg,
		clock:        clock,
	}

	event_bus.SubscribeTyped(eventBus, event_bus.TransactionsImportedType, func(e event_bus.EventT[event_bus.TransactionsImported]) error {
		log.Debugf("Received transactions imported event for bank %s", e.Data.BankId)
		if err := service.handleTransactionsImported(e.Context(), e.Data); err != nil {
			log.Errorf("failed to refresh recurring rules of bank %s: %v", e.Data.BankId, err)
			return err
		}
		return nil
	})
	event_bus.SubscribeTyped(eventBus, event_bus.BankDisconnectedType, func(e event_bus.EventT[event_bus.BankDisconnected]) error {
		log.Debugf("Received bank disconnected event for bank %s", e.Data.BankId)
		if err := service.handleBankDisconnected(e.Context(), e.Data); err != nil {
			log.Errorf("failed to remove events of bank %s: %v", e.Data.BankId, err)
			return err
		}
		return nil
	})

	return service
}

func (s *ServiceImpl) Calendar(ctx context.Context, month time.Time) (Calendar, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Calendar{}, fmt.Errorf("failed to get current user: %w", err)
	}
	loc := currentUser.Settings.Location()

	if month.IsZero() {
		month = localdate.Today(s.clock.Now(), loc)
	}
	y, m, _ := month.Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	gridStart := localdate.WeekStart(monthStart, currentUser.Settings.WeekFirstDay)
	gridEnd := localdate.AddDays(gridStart, CalendarWeeks*7-1)

	in, err := s.inputs(ctx)
	if err != nil {
		return Calendar{}, err
	}

	start := gridStart
	if today := localdate.Today(s.clock.Now(), loc); today.After(start) {
		start = today
	}
	entries := simulation.Simulate(in.base, simulation.Range{Start: start, End: gridEnd, DisplayMonth: monthStart}, in.events)

	return Calendar{
		Month:     monthStart,
		GridStart: gridStart,
		GridEnd:   gridEnd,
		Base:      in.base,
		Entries:   entries,
		Summary:   simulation.Analyze(entries, s.cfg.LowBalanceThreshold),
		Skipped:   in.skipped,
	}, nil
}

func (s *ServiceImpl) Project(ctx context.Context, start, target time.Time) (Projection, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Projection{}, fmt.Errorf("failed to get current user: %w", err)
	}
	loc := currentUser.Settings.Location()

	if start.IsZero() {
		start = localdate.Today(s.clock.Now(), loc)
	}
	start = localdate.Anchor(start, loc)
	target = localdate.Anchor(target, loc)
	if target.Before(start) {
		return Projection{}, fmt.Errorf("%w: target %s is before start %s",
			simulation.ErrInvalidRange, localdate.Format(target), localdate.Format(start))
	}

	in, err := s.inputs(ctx)
	if err != nil {
		return Projection{}, err
	}
	projection, err := simulation.Project(in.base, start, target, in.events)
	if err != nil {
		return Projection{}, err
	}
	return Projection{
		Projection: projection,
		Base:       in.base,
		Summary:    simulation.Analyze(projection.Entries(), s.cfg.LowBalanceThreshold),
		Skipped:    in.skipped,
	}, nil
}

func (s *ServiceImpl) Recurring(ctx context.Context) (recurrence.DetectionResult, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return recurrence.DetectionResult{}, fmt.Errorf("failed to get current user: %w", err)
	}
	transactions, err := s.bankService.Transactions(ctx)
	if err != nil {
		return recurrence.DetectionResult{}, err
	}
	detector := recurrence.NewDetector(s.cfg.Detector, currentUser.Settings.Location())
	return detector.Detect(bank.ForDetection(transactions)), nil
}

type pipelineInput struct {
	base    decimal.Decimal
	events  []event.Event
	skipped int
}

// inputs loads the user's data and turns it into the deduplicated list of dated events.
func (s *ServiceImpl) inputs(ctx context.Context) (pipelineInput, error) {
	userEvents, err := s.eventService.List(ctx)
	if err != nil {
		return pipelineInput{}, err
	}
	transactions, err := s.bankService.Transactions(ctx)
	if err != nil {
		return pipelineInput{}, err
	}
	base, err := s.bankService.Balance(ctx)
	if err != nil {
		return pipelineInput{}, err
	}

	var rules, dated []event.Event
	for _, e := range userEvents {
		if e.IsRule() {
			rules = append(rules, e)
		} else {
			dated = append(dated, e)
		}
	}

	bankEvents, skippedTransactions := bank.ToEvents(transactions)
	expansion := recurrence.NewExpander(s.clock, s.cfg.HorizonMonths, s.cfg.ExpandFutureRules).Expand(rules)

	skipped := len(skippedTransactions) + len(expansion.Skipped)
	if skipped > 0 {
		log.Warnf("%d records skipped while building the forecast", skipped)
	}

	return pipelineInput{
		base:    base,
		events:  simulation.Dedupe(dated, bankEvents, expansion.Occurrences),
		skipped: skipped,
	}, nil
}

func (s *ServiceImpl) handleTransactionsImported(ctx context.Context, imported event_bus.TransactionsImported) error {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	transactions, err := s.bankService.Transactions(ctx)
	if err != nil {
		return err
	}
	fromBank := make([]bank.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.BankId == imported.BankId {
			fromBank = append(fromBank, t)
		}
	}

	detector := recurrence.NewDetector(s.cfg.Detector, currentUser.Settings.Location())
	result := detector.Detect(bank.ForDetection(fromBank))
	rules := make([]event.Event, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		rules = append(rules, candidate.ToEvent(imported.BankId))
	}

	stored, err := s.eventService.ReplaceDetected(ctx, imported.BankId, rules)
	if err != nil {
		return err
	}
	log.Infof("detected %d recurring payments for bank %s (%d transactions skipped)",
		stored, imported.BankId, len(result.Skipped))
	return nil
}

func (s *ServiceImpl) handleBankDisconnected(ctx context.Context, disconnected event_bus.BankDisconnected) error {
	_, err := s.eventService.DeleteByBank(ctx, disconnected.BankId)
	return err
}
