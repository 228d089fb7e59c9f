package checkout

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/corethreads/commerce/internal/domain"
)

// InventoryStore is the read/write boundary for products and variants. No
// business rules live here; the engine treats it as transactional by
// constructing a store over the commit transaction handle.
type InventoryStore interface {
	// GetProduct retrieves a product by ID
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// GetVariants retrieves all variants of a product ordered by ID
	GetVariants(ctx context.Context, productID int64) ([]domain.ProductVariant, error)

	// LockVariants takes row locks on the given variants where the dialect
	// supports it
	LockVariants(ctx context.Context, ids []int64) error

	// DeductVariantStock atomically deducts qty when enough stock remains,
	// reporting whether the guarded update applied
	DeductVariantStock(ctx context.Context, variantID, qty int64) (bool, error)

	// ResyncProductStock rewrites the product's denormalized stock from the
	// sum of its variants
	ResyncProductStock(ctx context.Context, productID int64) error
}

// LedgerStore is the read/write boundary for customer balances.
type LedgerStore interface {
	// GetCustomer retrieves a customer with its current balance
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)

	// LockCustomer takes a row lock on the customer where supported
	LockCustomer(ctx context.Context, id int64) error

	// DeductBalance atomically deducts amount when the balance covers it,
	// reporting whether the guarded update applied
	DeductBalance(ctx context.Context, customerID int64, amount decimal.Decimal) (bool, error)
}

// OrderStore persists committed orders and their line items.
type OrderStore interface {
	// CreateOrder inserts a new order
	CreateOrder(ctx context.Context, order *domain.Order) error

	// CreateOrderItem inserts a new line item
	CreateOrderItem(ctx context.Context, item *domain.OrderItem) error

	// GetByID retrieves an order with its items
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// GetByNumber retrieves an order by its unique order number
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)

	// ListByCustomer retrieves a customer's orders, newest first
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)

	// ListByStatus retrieves orders in a given lifecycle status
	ListByStatus(ctx context.Context, status string) ([]domain.Order, error)
}

// GormInventoryStore is the GORM implementation of InventoryStore.
type GormInventoryStore struct {
	db *gorm.DB
}

// NewGormInventoryStore creates an inventory store over db, which may be a
// transaction handle.
func NewGormInventoryStore(db *gorm.DB) *GormInventoryStore {
	return &GormInventoryStore{db: db}
}

func (s *GormInventoryStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormInventoryStore) GetVariants(ctx context.Context, productID int64) ([]domain.ProductVariant, error) {
	var variants []domain.ProductVariant
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&variants).Error
	return variants, err
}

func (s *GormInventoryStore) LockVariants(ctx context.Context, ids []int64) error {
	if len(ids) == 0 || s.db.Name() != "postgres" {
		return nil
	}
	var locked []int64
	return s.db.WithContext(ctx).
		Model(&domain.ProductVariant{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Pluck("id", &locked).Error
}

func (s *GormInventoryStore) DeductVariantStock(ctx context.Context, variantID, qty int64) (bool, error) {
	// Guarded update: the stock >= qty predicate is what keeps stock from
	// ever going negative under concurrent checkouts.
	res := s.db.WithContext(ctx).
		Model(&domain.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "deduct variant stock")
	}
	return res.RowsAffected == 1, nil
}

func (s *GormInventoryStore) ResyncProductStock(ctx context.Context, productID int64) error {
	// Resync rather than increment so prior drift self-heals.
	err := s.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("(SELECT COALESCE(SUM(stock), 0) FROM product_variants WHERE product_id = ?)", productID),
			"updated_at": time.Now(),
		}).Error
	return errors.Wrap(err, "resync product stock")
}

// GormLedgerStore is the GORM implementation of LedgerStore.
type GormLedgerStore struct {
	db *gorm.DB
}

// NewGormLedgerStore creates a ledger store over db.
func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{db: db}
}

func (s *GormLedgerStore) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.WithContext(ctx).First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormLedgerStore) LockCustomer(ctx context.Context, id int64) error {
	if s.db.Name() != "postgres" {
		return nil
	}
	var locked []int64
	return s.db.WithContext(ctx).
		Model(&domain.Customer{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Pluck("id", &locked).Error
}

func (s *GormLedgerStore) DeductBalance(ctx context.Context, customerID int64, amount decimal.Decimal) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ? AND balance >= ?", customerID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "deduct balance")
	}
	return res.RowsAffected == 1, nil
}

// GormOrderStore is the GORM implementation of OrderStore.
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates an order store over db.
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

func (s *GormOrderStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	return s.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (s *GormOrderStore) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *GormOrderStore) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *GormOrderStore) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("order_number = ?", number).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *GormOrderStore) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *GormOrderStore) ListByStatus(ctx context.Context, status string) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}
