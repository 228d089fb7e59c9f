package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/corethreads/commerce/internal/domain"
)

var (
	// ErrCustomerNotFound means the customer id does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrInvalidAmount means a deposit amount was zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Service handles balance reads, deposits and transaction history. Checkout
// deducts balances itself inside its commit transaction; this service covers
// everything around it.
type Service struct {
	db *gorm.DB
}

// NewService creates a ledger service over db.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetCustomer retrieves a customer with its current balance.
func (s *Service) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrCustomerNotFound, "customer %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Deposit credits the customer's balance and records a CREDIT transaction,
// both inside one transaction.
func (s *Service) Deposit(ctx context.Context, customerID int64, amount decimal.Decimal, description string) (*domain.Customer, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	var customer domain.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(ErrCustomerNotFound, "customer %d", customerID)
			}
			return err
		}

		res := tx.Model(&domain.Customer{}).
			Where("id = ?", customerID).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance + ?", amount),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "credit balance")
		}

		return tx.Create(&domain.Transaction{
			CustomerID:  customerID,
			Amount:      amount,
			Type:        domain.TransactionTypeCredit,
			Description: description,
			CreatedAt:   time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	customer.Balance = customer.Balance.Add(amount)
	return &customer, nil
}

// ListTransactions retrieves a customer's balance history, newest first.
func (s *Service) ListTransactions(ctx context.Context, customerID int64, page, pageSize int) ([]domain.Transaction, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.Transaction
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	return rows, total, err
}
