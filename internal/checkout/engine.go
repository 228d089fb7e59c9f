package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/corethreads/commerce/internal/domain"
	"github.com/corethreads/commerce/pkg/common"
	"github.com/corethreads/commerce/pkg/metrics"
)

// errRetryCommit signals that a guarded update inside the commit transaction
// lost a race; the whole checkout revalidates and retries.
var errRetryCommit = errors.New("commit guard miss")

// Engine converts a requested item list into a committed order while
// enforcing stock and balance invariants. All validation runs before any
// write; the commit is a single transaction and any failure leaves the
// datastore unchanged.
type Engine struct {
	db     *gorm.DB
	policy func() Policy
	bus    EventBus.Bus
}

// NewEngine creates a checkout engine. policy is resolved per call so runtime
// settings changes apply without restarts; nil falls back to DefaultPolicy.
// bus may be nil when no subscribers are wired.
func NewEngine(db *gorm.DB, policy func() Policy, bus EventBus.Bus) *Engine {
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Engine{db: db, policy: policy, bus: bus}
}

// line is one validated item ready to commit.
type line struct {
	product  *domain.Product
	variant  *domain.ProductVariant
	qty      int64
	unit     decimal.Decimal
	subtotal decimal.Decimal
}

// Checkout validates customerID and items against inventory and ledger and,
// when everything passes, atomically commits the order. A Result with a
// non-empty failure list means nothing was committed. Commit conflicts from
// concurrent checkouts are revalidated and retried up to the policy budget
// before ErrCommitConflict is surfaced.
func (e *Engine) Checkout(ctx context.Context, customerID int64, items []Item) (*Result, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	pol := e.policy()
	attempts := pol.MaxCommitAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var res *Result
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err = e.attempt(ctx, customerID, items, pol)
		if !errors.Is(err, errRetryCommit) {
			return res, err
		}
		metrics.Inc(metrics.CheckoutConflictRetry)
		zap.L().Warn("checkout commit conflict, retrying",
			zap.Int64("customer_id", customerID),
			zap.Int("attempt", attempt),
		)
	}
	return nil, ErrCommitConflict
}

// attempt runs one validate-then-commit pass.
func (e *Engine) attempt(ctx context.Context, customerID int64, items []Item, pol Policy) (*Result, error) {
	ledger := NewGormLedgerStore(e.db)
	inventory := NewGormInventoryStore(e.db)

	customer, err := ledger.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrCustomerNotFound, "customer %d", customerID)
		}
		return nil, errors.Wrap(err, "load customer")
	}
	if customer.Status == common.DISABLED {
		return nil, errors.Wrapf(ErrCustomerDisabled, "customer %d", customerID)
	}

	lines := make([]line, 0, len(items))
	var failures []ItemFailure
	total := decimal.Zero

	// Quantities already claimed per variant by earlier lines in this
	// request. Two lines resolving to the same variant must be checked
	// against the combined demand, or the commit guard would miss on a
	// request no retry can ever satisfy.
	reserved := make(map[int64]int64)

	for _, item := range items {
		if item.ProductID <= 0 {
			failures = append(failures, ItemFailure{Reason: ReasonMissingProduct})
			continue
		}
		if item.Quantity <= 0 {
			failures = append(failures, ItemFailure{
				ProductID: item.ProductID,
				Reason:    ReasonInvalidQuantity,
			})
			continue
		}

		product, err := inventory.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				failures = append(failures, ItemFailure{
					ProductID: item.ProductID,
					Reason:    ReasonProductNotFound,
				})
				continue
			}
			return nil, errors.Wrap(err, "load product")
		}

		variants, err := inventory.GetVariants(ctx, item.ProductID)
		if err != nil {
			return nil, errors.Wrap(err, "load variants")
		}
		if len(variants) == 0 {
			failures = append(failures, ItemFailure{
				ProductID: item.ProductID,
				Reason:    ReasonNoVariants,
			})
			continue
		}

		variant := selectVariant(variants, item, pol.StrictVariantMatch)
		if variant == nil {
			failures = append(failures, ItemFailure{
				ProductID: item.ProductID,
				Reason:    ReasonNoMatchingVariant,
			})
			continue
		}

		if variant.Stock < reserved[variant.ID]+item.Quantity {
			available := variant.Stock - reserved[variant.ID]
			if available < 0 {
				available = 0
			}
			requested := item.Quantity
			failures = append(failures, ItemFailure{
				ProductID: item.ProductID,
				VariantID: variant.ID,
				Reason:    ReasonInsufficientStock,
				Available: &available,
				Requested: &requested,
			})
			continue
		}
		reserved[variant.ID] += item.Quantity

		unit := variant.DisplayPrice(product)
		subtotal := unit.Mul(decimal.NewFromInt(item.Quantity))
		total = total.Add(subtotal)
		lines = append(lines, line{
			product:  product,
			variant:  variant,
			qty:      item.Quantity,
			unit:     unit,
			subtotal: subtotal,
		})
	}

	if len(failures) > 0 {
		metrics.Inc(metrics.CheckoutFailure)
		return &Result{Failures: failures, RemainingBalance: customer.Balance}, nil
	}

	if customer.Balance.LessThan(total) {
		metrics.Inc(metrics.CheckoutFailure)
		balance := customer.Balance
		required := total
		return &Result{
			RemainingBalance: customer.Balance,
			Failures: []ItemFailure{{
				Reason:         ReasonInsufficientBalance,
				CurrentBalance: &balance,
				RequiredAmount: &required,
			}},
		}, nil
	}

	order, remaining, err := e.commit(ctx, customer, lines, total, pol)
	if err != nil {
		return nil, err
	}

	metrics.Inc(metrics.CheckoutSuccess)
	zap.L().Info("checkout committed",
		zap.Int64("customer_id", customer.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", total.StringFixed(2)),
	)

	if e.bus != nil {
		e.bus.Publish(TopicOrderCreated, OrderCreatedEvent{
			OrderID:     order.ID,
			CustomerID:  customer.ID,
			OrderNumber: order.OrderNumber,
			TotalAmount: order.TotalAmount,
		})
	}

	return &Result{
		Order:            order,
		RemainingBalance: remaining,
	}, nil
}

// commit performs the atomic state transition: order + items created, stock
// deducted, product totals resynced, balance deducted. Any guard miss rolls
// the whole transaction back. The returned balance is re-read inside the
// transaction so it reflects the committed value even when other writes
// landed since validation.
func (e *Engine) commit(ctx context.Context, customer *domain.Customer, lines []line, total decimal.Decimal, pol Policy) (*domain.Order, decimal.Decimal, error) {
	status := pol.FulfillStatus
	if !domain.OrderStatusValid(status) {
		status = domain.OrderStatusDelivered
	}

	now := time.Now()
	order := &domain.Order{
		ID:          common.UUIDint64(),
		CustomerID:  customer.ID,
		OrderNumber: GenerateOrderNumber(),
		TotalAmount: total,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var remaining decimal.Decimal
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txInventory := NewGormInventoryStore(tx)
		txLedger := NewGormLedgerStore(tx)
		txOrders := NewGormOrderStore(tx)

		variantIDs := make([]int64, 0, len(lines))
		for i := range lines {
			variantIDs = append(variantIDs, lines[i].variant.ID)
		}
		if err := txInventory.LockVariants(ctx, variantIDs); err != nil {
			return errors.Wrap(err, "lock variants")
		}
		if err := txLedger.LockCustomer(ctx, customer.ID); err != nil {
			return errors.Wrap(err, "lock customer")
		}

		if err := txOrders.CreateOrder(ctx, order); err != nil {
			return errors.Wrap(err, "create order")
		}

		touched := make([]int64, 0, len(lines))
		seen := make(map[int64]bool, len(lines))
		for i := range lines {
			l := &lines[i]
			item := domain.OrderItem{
				OrderID:   order.ID,
				ProductID: l.product.ID,
				VariantID: l.variant.ID,
				Quantity:  l.qty,
				UnitPrice: l.unit,
				Subtotal:  l.subtotal,
				CreatedAt: now,
			}
			if err := txOrders.CreateOrderItem(ctx, &item); err != nil {
				return errors.Wrap(err, "create order item")
			}
			order.Items = append(order.Items, item)

			ok, err := txInventory.DeductVariantStock(ctx, l.variant.ID, l.qty)
			if err != nil {
				return err
			}
			if !ok {
				// Stock moved under us since validation.
				return errRetryCommit
			}

			if !seen[l.product.ID] {
				seen[l.product.ID] = true
				touched = append(touched, l.product.ID)
			}
		}

		for _, productID := range touched {
			if err := txInventory.ResyncProductStock(ctx, productID); err != nil {
				return err
			}
		}

		ok, err := txLedger.DeductBalance(ctx, customer.ID, total)
		if err != nil {
			return err
		}
		if !ok {
			return errRetryCommit
		}

		updated, err := txLedger.GetCustomer(ctx, customer.ID)
		if err != nil {
			return errors.Wrap(err, "reload balance")
		}
		remaining = updated.Balance

		return nil
	})
	if err != nil {
		if errors.Is(err, errRetryCommit) {
			return nil, decimal.Zero, errRetryCommit
		}
		return nil, decimal.Zero, errors.Wrap(err, "checkout commit failed")
	}
	return order, remaining, nil
}

// selectVariant picks the first variant whose size and color both match the
// request, case-insensitively; a nil or empty request field matches any
// value. With strict matching off, no exact match falls back to the first
// variant, reproducing the source system's substitution behavior.
func selectVariant(variants []domain.ProductVariant, item Item, strict bool) *domain.ProductVariant {
	for i := range variants {
		v := &variants[i]
		color := ""
		if v.Color != nil {
			color = *v.Color
		}
		if matchField(item.Size, v.Size) && matchField(item.Color, color) {
			return v
		}
	}
	if strict {
		return nil
	}
	return &variants[0]
}

func matchField(requested *string, value string) bool {
	if requested == nil {
		return true
	}
	want := strings.TrimSpace(*requested)
	if want == "" {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(value))
}

// GenerateOrderNumber builds a globally unique, non-sequential order number
// from a random token, safe against cross-request collision under concurrent
// checkouts (the unique index backstops the residual chance).
func GenerateOrderNumber() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(token[:8])
}
