package order

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/corethreads/commerce/internal/checkout"
	"github.com/corethreads/commerce/internal/domain"
)

var (
	// ErrNotFound means the order id or number does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition means the requested status change violates the
	// lifecycle rules.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// CanTransition reports whether an order may move from one lifecycle status
// to another. DELIVERED and CANCELLED are terminal; CANCELLED is reachable
// from any non-terminal state; forward movement is strictly sequential.
func CanTransition(from, to string) bool {
	if from == domain.OrderStatusDelivered || from == domain.OrderStatusCancelled {
		return false
	}
	switch to {
	case domain.OrderStatusCancelled:
		return true
	case domain.OrderStatusProcessing:
		return from == domain.OrderStatusPending
	case domain.OrderStatusShipped:
		return from == domain.OrderStatusProcessing
	case domain.OrderStatusDelivered:
		return from == domain.OrderStatusShipped
	}
	return false
}

// Service handles order reads and lifecycle transitions. Orders are created
// only by the checkout engine; this service never mutates line items.
type Service struct {
	db    *gorm.DB
	store checkout.OrderStore
}

// NewService creates an order service over db.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, store: checkout.NewGormOrderStore(db)}
}

// Get retrieves an order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.store.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "order %d", id)
	}
	return order, err
}

// GetByNumber retrieves an order by its unique order number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	order, err := s.store.GetByNumber(ctx, number)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "order %s", number)
	}
	return order, err
}

// ListByCustomer retrieves a customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// ListByStatus retrieves orders in a given lifecycle status.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]domain.Order, error) {
	return s.store.ListByStatus(ctx, status)
}

// List retrieves orders with pagination, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, page, pageSize int) ([]domain.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []domain.Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	return orders, total, err
}

// UpdateStatus moves an order through its lifecycle, validating the
// transition.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	if !domain.OrderStatusValid(status) {
		return nil, errors.Wrapf(ErrInvalidTransition, "unknown status %q", status)
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, status) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", order.Status, status)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}).Error
	if err != nil {
		return nil, errors.Wrap(err, "update order status")
	}

	zap.L().Info("order status updated",
		zap.Int64("order_id", id),
		zap.String("from", order.Status),
		zap.String("to", status),
	)

	order.Status = status
	order.UpdatedAt = now
	return order, nil
}

// Cancel transitions an order to CANCELLED. Line items stay in place; only
// the status changes.
func (s *Service) Cancel(ctx context.Context, id int64) (*domain.Order, error) {
	return s.UpdateStatus(ctx, id, domain.OrderStatusCancelled)
}
