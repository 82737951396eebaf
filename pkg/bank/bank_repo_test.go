package bank

import (
	"context"
	"os"
	"testing"

	"github.com/forecastly/forecastly/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, int) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	seeded, err := test_utils.SeedUser(ctx, db)
	require.NoError(t, err)
	return ctx, NewRepository(db), seeded.Id
}

func TestRepositoryImpl_StoreAndGet(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)

	err := repo.StoreAccounts(ctx, userId, []Account{
		{Id: "acc-1", BankId: "bank-1", Name: "Checking", Balance: decimal.RequireFromString("1200.55")},
	})
	require.NoError(t, err)
	err = repo.StoreTransactions(ctx, userId, []Transaction{
		{Id: "t2", BankId: "bank-1", AccountId: "acc-1", Name: "Rent", Amount: decimal.NewFromInt(900), Date: day(2025, 2, 1)},
		{Id: "t1", BankId: "bank-1", AccountId: "acc-1", Name: "Coffee", Amount: decimal.RequireFromString("3.2"), Date: day(2025, 1, 31)},
	})
	require.NoError(t, err)

	accounts, err := repo.GetAccounts(ctx, userId)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "bank-1", accounts[0].BankId)
	assert.True(t, decimal.RequireFromString("1200.55").Equal(accounts[0].Balance))

	transactions, err := repo.GetTransactions(ctx, userId)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "t1", transactions[0].Id)
	assert.Equal(t, day(2025, 1, 31), transactions[0].Date)
	assert.True(t, decimal.RequireFromString("3.2").Equal(transactions[0].Amount))
}

func TestRepositoryImpl_Upsert(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	account := Account{Id: "acc-1", BankId: "bank-1", Name: "Checking", Balance: decimal.NewFromInt(10)}
	require.NoError(t, repo.StoreAccounts(ctx, userId, []Account{account}))

	account.Balance = decimal.NewFromInt(25)
	require.NoError(t, repo.StoreAccounts(ctx, userId, []Account{account}))

	accounts, err := repo.GetAccounts(ctx, userId)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(accounts[0].Balance))
}

func TestRepositoryImpl_DeleteBank(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	require.NoError(t, repo.StoreAccounts(ctx, userId, []Account{
		{Id: "acc-1", BankId: "bank-1", Name: "A", Balance: decimal.Zero},
		{Id: "acc-2", BankId: "bank-2", Name: "B", Balance: decimal.Zero},
	}))

	found, err := repo.DeleteBank(ctx, userId, "bank-1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.DeleteBank(ctx, userId, "bank-1")
	require.NoError(t, err)
	assert.False(t, found)

	accounts, err := repo.GetAccounts(ctx, userId)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc-2", accounts[0].Id)
}

func TestRepositoryImpl_WithTransactionRollsBack(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)

	err := repo.WithTransaction(ctx, func(tx Repository) error {
		if err := tx.StoreAccounts(ctx, userId, []Account{{Id: "acc-1", BankId: "bank-1", Name: "A", Balance: decimal.Zero}}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	accounts, err := repo.GetAccounts(ctx, userId)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
