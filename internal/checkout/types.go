package checkout

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/corethreads/commerce/internal/domain"
)

// Item is one requested line in a checkout call. Size and color are optional:
// a nil (or empty) field matches any variant value.
type Item struct {
	ProductID int64   `json:"productId"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
	Quantity  int64   `json:"quantity"`
}

// Failure reason strings surfaced to callers. Insufficient balance is
// distinguishable by reason so callers can present a tailored message.
const (
	ReasonMissingProduct      = "Missing productId"
	ReasonInvalidQuantity     = "Quantity must be a positive integer"
	ReasonProductNotFound     = "Product not found"
	ReasonNoVariants          = "No variants available"
	ReasonNoMatchingVariant   = "No matching variant"
	ReasonInsufficientStock   = "Insufficient stock"
	ReasonInsufficientBalance = "Insufficient balance"
)

// ItemFailure describes why a single requested item (or, for the balance
// case, the whole checkout) was rejected.
type ItemFailure struct {
	ProductID      int64            `json:"productId,omitempty"`
	VariantID      int64            `json:"variantId,omitempty"`
	Reason         string           `json:"reason"`
	Available      *int64           `json:"available,omitempty"`
	Requested      *int64           `json:"requested,omitempty"`
	CurrentBalance *decimal.Decimal `json:"currentBalance,omitempty"`
	RequiredAmount *decimal.Decimal `json:"requiredAmount,omitempty"`
}

// Result is either a committed order or a non-empty failure list, never both.
type Result struct {
	Order            *domain.Order   `json:"order,omitempty"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Failures         []ItemFailure   `json:"failures,omitempty"`
}

// OK reports whether the checkout committed.
func (r *Result) OK() bool {
	return r != nil && len(r.Failures) == 0 && r.Order != nil
}

// BalanceFailure returns the insufficient-balance entry when that is why the
// checkout aborted.
func (r *Result) BalanceFailure() *ItemFailure {
	for i := range r.Failures {
		if r.Failures[i].Reason == ReasonInsufficientBalance {
			return &r.Failures[i]
		}
	}
	return nil
}

var (
	// ErrCustomerNotFound means the customerId does not reference an
	// existing customer. Surfaced to the caller, no retry.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrCustomerDisabled means the customer exists but its account status
	// blocks transacting.
	ErrCustomerDisabled = errors.New("customer disabled")

	// ErrNoItems means the request carried an empty item list.
	ErrNoItems = errors.New("no items to checkout")

	// ErrCommitConflict means the guarded commit lost a race and the retry
	// budget is exhausted. Safe to retry the whole call, nothing committed.
	ErrCommitConflict = errors.New("checkout commit conflict")
)

// Policy carries the behavioral knobs resolved per call from runtime
// settings.
type Policy struct {
	// StrictVariantMatch fails an item when no variant matches the requested
	// size/color exactly. When false the legacy behavior substitutes the
	// product's first variant instead.
	StrictVariantMatch bool
	// FulfillStatus is the lifecycle status a committed order is created
	// with. The source system fulfills instantly (DELIVERED); a real
	// fulfillment pipeline would set PENDING.
	FulfillStatus string
	// MaxCommitAttempts bounds the revalidate-and-retry loop on commit
	// conflicts.
	MaxCommitAttempts int
}

// DefaultPolicy mirrors the source system's behavior except for variant
// matching, which defaults to strict.
func DefaultPolicy() Policy {
	return Policy{
		StrictVariantMatch: true,
		FulfillStatus:      domain.OrderStatusDelivered,
		MaxCommitAttempts:  3,
	}
}

// TopicOrderCreated is published on the process event bus after a successful
// commit. Subscribers run outside the checkout transaction.
const TopicOrderCreated = "order.created"

// OrderCreatedEvent is the payload for TopicOrderCreated.
type OrderCreatedEvent struct {
	OrderID     int64
	CustomerID  int64
	OrderNumber string
	TotalAmount decimal.Decimal
}
