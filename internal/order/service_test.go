package order

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corethreads/commerce/internal/checkout"
	"github.com/corethreads/commerce/internal/domain"
	"github.com/corethreads/commerce/pkg/common"
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

func seedOrder(t *testing.T, db *gorm.DB, customerID int64, status string) *domain.Order {
	t.Helper()
	o := &domain.Order{
		ID:          common.UUIDint64(),
		CustomerID:  customerID,
		OrderNumber: checkout.GenerateOrderNumber(),
		TotalAmount: decimal.RequireFromString("49.99"),
		Status:      status,
	}
	require.NoError(t, db.Omit("Items").Create(o).Error)
	require.NoError(t, db.Create(&domain.OrderItem{
		OrderID:   o.ID,
		ProductID: 1,
		VariantID: 1,
		Quantity:  1,
		UnitPrice: o.TotalAmount,
		Subtotal:  o.TotalAmount,
	}).Error)
	return o
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusProcessing, true},
		{domain.OrderStatusProcessing, domain.OrderStatusShipped, true},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},
		{domain.OrderStatusPending, domain.OrderStatusShipped, false},
		{domain.OrderStatusPending, domain.OrderStatusDelivered, false},
		{domain.OrderStatusProcessing, domain.OrderStatusPending, false},
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusProcessing, domain.OrderStatusCancelled, true},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, true},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{domain.OrderStatusDelivered, domain.OrderStatusShipped, false},
		{domain.OrderStatusCancelled, domain.OrderStatusPending, false},
		{domain.OrderStatusCancelled, domain.OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_to_%s", tc.from, tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestGetAndGetByNumber(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seeded := seedOrder(t, db, 10, domain.OrderStatusPending)

	got, err := svc.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.OrderNumber, got.OrderNumber)
	require.Len(t, got.Items, 1)

	byNumber, err := svc.GetByNumber(ctx, seeded.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, byNumber.ID)

	_, err = svc.Get(ctx, 123456789)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetByNumber(ctx, "ORD-NOPE0000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seeded := seedOrder(t, db, 10, domain.OrderStatusPending)

	for _, status := range []string{
		domain.OrderStatusProcessing,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		got, err := svc.UpdateStatus(ctx, seeded.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	// DELIVERED is terminal.
	_, err := svc.UpdateStatus(ctx, seeded.ID, domain.OrderStatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusRejectsSkipsAndUnknown(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seeded := seedOrder(t, db, 10, domain.OrderStatusPending)

	_, err := svc.UpdateStatus(ctx, seeded.ID, domain.OrderStatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, seeded.ID, "TELEPORTED")
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Rejections leave the row untouched.
	got, err := svc.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
}

func TestCancelKeepsItems(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seeded := seedOrder(t, db, 10, domain.OrderStatusProcessing)

	got, err := svc.Cancel(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)

	reloaded, err := svc.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, reloaded.Status)
	assert.Len(t, reloaded.Items, 1)
}

func TestListFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedOrder(t, db, 10, domain.OrderStatusPending)
	}
	seedOrder(t, db, 11, domain.OrderStatusDelivered)

	all, total, err := svc.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, all, 4)

	pending, total, err := svc.List(ctx, domain.OrderStatusPending, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, pending, 2)

	byCustomer, err := svc.ListByCustomer(ctx, 11)
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, domain.OrderStatusDelivered, byCustomer[0].Status)

	delivered, err := svc.ListByStatus(ctx, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Len(t, delivered, 1)
}
