package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	StoreAccounts(ctx context.Context, userId int, accounts []Account) error
	StoreTransactions(ctx context.Context, userId int, transactions []Transaction) error
	GetAccounts(ctx context.Context, userId int) ([]Account, error)
	GetTransactions(ctx context.Context, userId int) ([]Transaction, error)
	// DeleteBank removes accounts and transactions of the bank and reports whether anything existed.
	DeleteBank(ctx context.Context, userId int, bankId string) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) StoreAccounts(ctx context.Context, userId int, accounts []Account) error {
	query := `INSERT INTO bank_account (id, user_id, bank_id, name, balance)
				VALUES ($1, $2, $3, $4, $5::numeric)
				ON CONFLICT (user_id, id) DO UPDATE
				SET bank_id = EXCLUDED.bank_id, name = EXCLUDED.name, balance = EXCLUDED.balance`
	batch := &pgx.Batch{}
	for _, a := range accounts {
		batch.Queue(query, a.Id, userId, a.BankId, a.Name, a.Balance.String())
	}
	return r.sendBatch(ctx, batch, "accounts")
}

func (r *RepositoryImpl) StoreTransactions(ctx context.Context, userId int, transactions []Transaction) error {
	query := `INSERT INTO bank_transaction (id, user_id, bank_id, account_id, name, amount, date)
				VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::date)
				ON CONFLICT (user_id, id) DO UPDATE
				SET bank_id = EXCLUDED.bank_id, account_id = EXCLUDED.account_id, name = EXCLUDED.name,
				    amount = EXCLUDED.amount, date = EXCLUDED.date`
	batch := &pgx.Batch{}
	for _, t := range transactions {
		batch.Queue(query, t.Id, userId, t.BankId, t.AccountId, t.Name, t.Amount.String(), localdate.Format(t.Date))
	}
	return r.sendBatch(ctx, batch, "transactions")
}

func (r *RepositoryImpl) sendBatch(ctx context.Context, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}
	results := r.getQueryer().SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			err = fmt.Errorf("could not store %s: %w", what, err)
			log.Error(err)
			return err
		}
	}
	return results.Close()
}

func (r *RepositoryImpl) GetAccounts(ctx context.Context, userId int) ([]Account, error) {
	rows, err := r.getQueryer().Query(ctx,
		`SELECT id, bank_id, name, balance::text FROM bank_account WHERE user_id = $1 ORDER BY bank_id, id`, userId)
	if err != nil {
		return nil, fmt.Errorf("could not query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]Account, 0)
	for rows.Next() {
		var a Account
		var balance string
		if err := rows.Scan(&a.Id, &a.BankId, &a.Name, &balance); err != nil {
			return nil, fmt.Errorf("could not scan account: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("invalid balance of account %s: %w", a.Id, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *RepositoryImpl) GetTransactions(ctx context.Context, userId int) ([]Transaction, error) {
	rows, err := r.getQueryer().Query(ctx,
		`SELECT id, bank_id, account_id, name, amount::text, date::text
		 FROM bank_transaction WHERE user_id = $1 ORDER BY date, id`, userId)
	if err != nil {
		return nil, fmt.Errorf("could not query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		var t Transaction
		var amount, date string
		if err := rows.Scan(&t.Id, &t.BankId, &t.AccountId, &t.Name, &amount, &date); err != nil {
			return nil, fmt.Errorf("could not scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid amount of transaction %s: %w", t.Id, err)
		}
		if t.Date, err = localdate.ParseIn(date, time.UTC); err != nil {
			return nil, fmt.Errorf("invalid date of transaction %s: %w", t.Id, err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *RepositoryImpl) DeleteBank(ctx context.Context, userId int, bankId string) (bool, error) {
	accounts, err := r.getQueryer().Exec(ctx, `DELETE FROM bank_account WHERE user_id = $1 AND bank_id = $2`, userId, bankId)
	if err != nil {
		return false, fmt.Errorf("could not delete accounts: %w", err)
	}
	transactions, err := r.getQueryer().Exec(ctx, `DELETE FROM bank_transaction WHERE user_id = $1 AND bank_id = $2`, userId, bankId)
	if err != nil {
		return false, fmt.Errorf("could not delete transactions: %w", err)
	}
	return accounts.RowsAffected()+transactions.RowsAffected() > 0, nil
}
