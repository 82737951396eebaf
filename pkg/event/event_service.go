package event

import (
	"context"
	"fmt"

	"github.com/forecastly/forecastly/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, event Event) (Event, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (Event, error)
	Delete(ctx context.Context, id string) error
	// ReplaceDetected swaps the detected recurring rules of a bank for the given ones.
	ReplaceDetected(ctx context.Context, bankId string, rules []Event) (int, error)
	// DeleteByBank drops every event sourced from the bank (bank disconnect cascade).
	DeleteByBank(ctx context.Context, bankId string) (int, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewEventService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) List(ctx context.Context) ([]Event, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	events, err := s.repo.GetEvents(ctx, currentUser.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	loc := currentUser.Settings.Location()
	for i := range events {
		events[i] = events[i].In(loc)
	}
	return events, nil
}

func (s *ServiceImpl) Create(ctx context.Context, event Event) (Event, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	userId := currentUser.Id
	if !event.StartDate.IsZero() {
		event = event.In(currentUser.Settings.Location())
	}
	if event.Type == "" {
		event.Type = TypeFromAmount(event.Amount)
	}
	if event.Frequency == "" {
		event.Frequency = Once
	}
	event.Recurring = event.Frequency != Once
	if event.Source == "" {
		event.Source = SourceCustom
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	event.Id = uuid.NewString()

	stored, err := s.repo.StoreEvent(ctx, userId, event)
	if err != nil {
		return Event{}, fmt.Errorf("failed to store event: %w", err)
	}
	log.Debugf("created event %s (%s) for user %d", stored.Id, stored.Title, userId)
	return stored, nil
}

func (s *ServiceImpl) SetEnabled(ctx context.Context, id string, enabled bool) (Event, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := s.repo.SetEnabled(ctx, currentUser.Id, id, enabled); err != nil {
		return Event{}, err
	}
	event, err := s.repo.GetEvent(ctx, currentUser.Id, id)
	if err != nil {
		return Event{}, err
	}
	return event.In(currentUser.Settings.Location()), nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.DeleteEvent(ctx, userId, id)
}

func (s *ServiceImpl) ReplaceDetected(ctx context.Context, bankId string, rules []Event) (int, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	stored := 0
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		deleted, err := repo.DeleteGenerated(ctx, userId, bankId)
		if err != nil {
			return err
		}
		log.Debugf("removed %d previously detected rules of bank %s", deleted, bankId)
		for _, rule := range rules {
			rule.BankId = bankId
			rule.Generated = true
			if rule.Id == "" {
				rule.Id = uuid.NewString()
			}
			if err := rule.Validate(); err != nil {
				log.Warnf("skipping detected rule %q: %v", rule.Title, err)
				continue
			}
			if _, err := repo.StoreEvent(ctx, userId, rule); err != nil {
				return err
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to replace detected rules: %w", err)
	}
	return stored, nil
}

func (s *ServiceImpl) DeleteByBank(ctx context.Context, bankId string) (int, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.DeleteByBank(ctx, userId, bankId)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bank events: %w", err)
	}
	log.Infof("removed %d events of disconnected bank %s", deleted, bankId)
	return deleted, nil
}
