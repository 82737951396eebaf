package event

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu     sync.RWMutex
	events map[int]map[string]Event // userId -> id -> event
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{events: make(map[int]map[string]Event)}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	snapshot := make(map[int]map[string]Event, len(r.events))
	for userId, events := range r.events {
		copied := make(map[string]Event, len(events))
		for id, e := range events {
			copied[id] = e
		}
		snapshot[userId] = copied
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.events = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) StoreEvent(ctx context.Context, userId int, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events[userId] == nil {
		r.events[userId] = make(map[string]Event)
	}
	r.events[userId][event.Id] = event
	return event, nil
}

func (r *RepositoryStub) GetEvents(ctx context.Context, userId int) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Event, 0, len(r.events[userId]))
	for _, e := range r.events[userId] {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (r *RepositoryStub) GetEvent(ctx context.Context, userId int, id string) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[userId][id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return e, nil
}

func (r *RepositoryStub) SetEnabled(ctx context.Context, userId int, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[userId][id]
	if !ok {
		return ErrEventNotFound
	}
	e.Enabled = enabled
	r.events[userId][id] = e
	return nil
}

func (r *RepositoryStub) DeleteEvent(ctx context.Context, userId int, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[userId][id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events[userId], id)
	return nil
}

func (r *RepositoryStub) DeleteGenerated(ctx context.Context, userId int, bankId string) (int, error) {
	return r.deleteWhere(userId, func(e Event) bool { return e.BankId == bankId && e.Generated }), nil
}

func (r *RepositoryStub) DeleteByBank(ctx context.Context, userId int, bankId string) (int, error) {
	return r.deleteWhere(userId, func(e Event) bool { return e.BankId == bankId }), nil
}

func (r *RepositoryStub) deleteWhere(userId int, match func(Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, e := range r.events[userId] {
		if match(e) {
			delete(r.events[userId], id)
			deleted++
		}
	}
	return deleted
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make(map[int]map[string]Event)
}
