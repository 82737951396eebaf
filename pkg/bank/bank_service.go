package bank

import (
	"context"
	"fmt"
	"strings"

	"github.com/forecastly/forecastly/internal/event_bus"
	"github.com/forecastly/forecastly/internal/utils"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/forecastly/forecastly/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Snapshot is one pull from a bank aggregator: current accounts and their recent transactions.
type Snapshot struct {
	Accounts     []Account
	Transactions []Transaction
}

type Service interface {
	// Import stores the snapshot for the bank and announces it on the event bus.
	Import(ctx context.Context, bankId string, snapshot Snapshot) error
	Disconnect(ctx context.Context, bankId string) error
	Accounts(ctx context.Context) ([]Account, error)
	Transactions(ctx context.Context) ([]Transaction, error)
	// Balance is the total of all connected accounts.
	Balance(ctx context.Context) (decimal.Decimal, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(repo Repository, eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) Import(ctx context.Context, bankId string, snapshot Snapshot) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	bankId = strings.TrimSpace(bankId)
	if bankId == "" {
		return fmt.Errorf("%w: bank id is required", ErrInvalidSnapshot)
	}

	accounts := make([]Account, 0, len(snapshot.Accounts))
	for _, a := range snapshot.Accounts {
		if strings.TrimSpace(a.Id) == "" {
			return fmt.Errorf("%w: account id is required", ErrInvalidSnapshot)
		}
		a.BankId = bankId
		accounts = append(accounts, a)
	}
	transactions := make([]Transaction, 0, len(snapshot.Transactions))
	for _, t := range snapshot.Transactions {
		if strings.TrimSpace(t.Id) == "" {
			return fmt.Errorf("%w: transaction id is required", ErrInvalidSnapshot)
		}
		t.BankId = bankId
		transactions = append(transactions, t)
	}

	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.StoreAccounts(ctx, userId, accounts); err != nil {
			return err
		}
		return repo.StoreTransactions(ctx, userId, transactions)
	})
	if err != nil {
		return err
	}
	log.Infof("imported %d accounts and %d transactions from bank %s", len(accounts), len(transactions), bankId)

	err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.TransactionsImportedType, event_bus.TransactionsImported{
		BankId:       bankId,
		Accounts:     len(accounts),
		Transactions: len(transactions),
		ImportedAt:   s.clock.Now(),
	}))
	if err != nil {
		log.Errorf("failed to publish transactions imported event: %v", err)
		return err
	}
	return nil
}

func (s *ServiceImpl) Disconnect(ctx context.Context, bankId string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	// Subscribers run before the commit so a failed cascade keeps the bank for a retry.
	return s.repo.WithTransaction(ctx, func(repo Repository) error {
		found, err := repo.DeleteBank(ctx, userId, bankId)
		if err != nil {
			return err
		}
		if !found {
			return ErrBankNotFound
		}

		err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.BankDisconnectedType, event_bus.BankDisconnected{
			BankId: bankId,
		}))
		if err != nil {
			log.Errorf("failed to publish bank disconnected event: %v", err)
			return err
		}
		return nil
	})
}

func (s *ServiceImpl) Accounts(ctx context.Context) ([]Account, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetAccounts(ctx, userId)
}

// Transactions returns stored transactions with dates anchored in the user's timezone.
func (s *ServiceImpl) Transactions(ctx context.Context) ([]Transaction, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	transactions, err := s.repo.GetTransactions(ctx, currentUser.Id)
	if err != nil {
		return nil, err
	}
	loc := currentUser.Settings.Location()
	for i := range transactions {
		transactions[i].Date = localdate.Anchor(transactions[i].Date, loc)
	}
	return transactions, nil
}

func (s *ServiceImpl) Balance(ctx context.Context) (decimal.Decimal, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return TotalBalance(accounts), nil
}
