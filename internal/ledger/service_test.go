package ledger

import (
	"context"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corethreads/commerce/internal/checkout"
	"github.com/corethreads/commerce/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, balance string) *domain.Customer {
	t.Helper()
	c := &domain.Customer{
		Username: "walker",
		Email:    "walker@test.local",
		Balance:  decimal.RequireFromString(balance),
		Status:   "enabled",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestDeposit(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	customer := seedCustomer(t, db, "100.50")

	updated, err := svc.Deposit(ctx, customer.ID, decimal.RequireFromString("49.50"), "Top up")
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("150")),
		"balance %s", updated.Balance)

	// One CREDIT row lands with the deposit.
	rows, total, err := svc.ListTransactions(ctx, customer.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.TransactionTypeCredit, rows[0].Type)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("49.50")))
	assert.Equal(t, "Top up", rows[0].Description)
}

func TestDepositRejectsNonPositiveAmounts(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	customer := seedCustomer(t, db, "100")

	for _, amount := range []string{"0", "-5"} {
		_, err := svc.Deposit(ctx, customer.ID, decimal.RequireFromString(amount), "")
		require.ErrorIs(t, err, ErrInvalidAmount)
	}

	got, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("100")))
}

func TestDepositUnknownCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Deposit(context.Background(), 987654, decimal.NewFromInt(10), "")
	require.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.GetCustomer(context.Background(), 987654)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestHistoryRecorderWritesDebitRow(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "1000")

	bus := EventBus.New()
	require.NoError(t, NewHistoryRecorder(db).Register(bus))

	bus.Publish(checkout.TopicOrderCreated, checkout.OrderCreatedEvent{
		OrderID:     1,
		CustomerID:  customer.ID,
		OrderNumber: "ORD-AB12CD34",
		TotalAmount: decimal.RequireFromString("99.98"),
	})
	bus.WaitAsync()

	rows, total, err := NewService(db).ListTransactions(context.Background(), customer.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.TransactionTypeDebit, rows[0].Type)
	assert.Equal(t, "Order ORD-AB12CD34", rows[0].Description)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("99.98")))
}

func TestListTransactionsPaginates(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	customer := seedCustomer(t, db, "0")
	for i := 0; i < 5; i++ {
		_, err := svc.Deposit(ctx, customer.ID, decimal.NewFromInt(int64(i+1)), "Top up")
		require.NoError(t, err)
	}

	rows, total, err := svc.ListTransactions(ctx, customer.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, rows, 2)

	rows, _, err = svc.ListTransactions(ctx, customer.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
