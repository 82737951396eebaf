package bank

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu           sync.RWMutex
	accounts     map[int]map[string]Account
	transactions map[int]map[string]Transaction
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		accounts:     make(map[int]map[string]Account),
		transactions: make(map[int]map[string]Transaction),
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	accounts := copyNested(r.accounts)
	transactions := copyNested(r.transactions)
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.accounts = accounts
		r.transactions = transactions
		r.mu.Unlock()
		return err
	}
	return nil
}

func copyNested[T any](m map[int]map[string]T) map[int]map[string]T {
	result := make(map[int]map[string]T, len(m))
	for userId, items := range m {
		copied := make(map[string]T, len(items))
		for id, item := range items {
			copied[id] = item
		}
		result[userId] = copied
	}
	return result
}

func (r *RepositoryStub) StoreAccounts(ctx context.Context, userId int, accounts []Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accounts[userId] == nil {
		r.accounts[userId] = make(map[string]Account)
	}
	for _, a := range accounts {
		r.accounts[userId][a.Id] = a
	}
	return nil
}

func (r *RepositoryStub) StoreTransactions(ctx context.Context, userId int, transactions []Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transactions[userId] == nil {
		r.transactions[userId] = make(map[string]Transaction)
	}
	for _, t := range transactions {
		r.transactions[userId][t.Id] = t
	}
	return nil
}

func (r *RepositoryStub) GetAccounts(ctx context.Context, userId int) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Account, 0, len(r.accounts[userId]))
	for _, a := range r.accounts[userId] {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].BankId != result[j].BankId {
			return result[i].BankId < result[j].BankId
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (r *RepositoryStub) GetTransactions(ctx context.Context, userId int) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Transaction, 0, len(r.transactions[userId]))
	for _, t := range r.transactions[userId] {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (r *RepositoryStub) DeleteBank(ctx context.Context, userId int, bankId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for id, a := range r.accounts[userId] {
		if a.BankId == bankId {
			delete(r.accounts[userId], id)
			found = true
		}
	}
	for id, t := range r.transactions[userId] {
		if t.BankId == bankId {
			delete(r.transactions[userId], id)
			found = true
		}
	}
	return found, nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = make(map[int]map[string]Account)
	r.transactions = make(map[int]map[string]Transaction)
}
