package ledger

import (
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/corethreads/commerce/internal/checkout"
	"github.com/corethreads/commerce/internal/domain"
)

// HistoryRecorder subscribes to order events and persists the balance-history
// side of a checkout. It runs outside the checkout transaction: the balance
// field is the source of truth, history rows are an audit trail.
type HistoryRecorder struct {
	db *gorm.DB
}

// NewHistoryRecorder creates a recorder over db.
func NewHistoryRecorder(db *gorm.DB) *HistoryRecorder {
	return &HistoryRecorder{db: db}
}

// Register subscribes the recorder to the event bus.
func (r *HistoryRecorder) Register(bus EventBus.Bus) error {
	return bus.Subscribe(checkout.TopicOrderCreated, r.HandleOrderCreated)
}

// HandleOrderCreated records the DEBIT row for a committed order.
func (r *HistoryRecorder) HandleOrderCreated(evt checkout.OrderCreatedEvent) {
	err := r.db.Create(&domain.Transaction{
		CustomerID:  evt.CustomerID,
		Amount:      evt.TotalAmount,
		Type:        domain.TransactionTypeDebit,
		Description: "Order " + evt.OrderNumber,
		CreatedAt:   time.Now(),
	}).Error
	if err != nil {
		zap.L().Error("failed to record order transaction",
			zap.String("order_number", evt.OrderNumber),
			zap.Int64("customer_id", evt.CustomerID),
			zap.Error(err),
		)
	}
}
