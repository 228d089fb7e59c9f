package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer holds the account identity plus the spendable ledger balance.
// Balance must never go negative; checkout deducts it only through guarded
// updates inside the commit transaction.
type Customer struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id,string"`
	Username  string          `gorm:"size:20;uniqueIndex;not null" json:"username" form:"username"`
	FirstName string          `gorm:"size:50" json:"first_name" form:"first_name"`
	LastName  string          `gorm:"size:50" json:"last_name" form:"last_name"`
	Email     string          `gorm:"size:100;uniqueIndex;not null" json:"email" form:"email"`
	Password  string          `gorm:"size:255" json:"-" form:"-"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`
	Status    string          `gorm:"size:20;index;default:'enabled'" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Customer) TableName() string {
	return "customers"
}

const (
	TransactionTypeDebit  = "DEBIT"
	TransactionTypeCredit = "CREDIT"
)

// Transaction is a row of balance history. Checkout itself never writes these;
// the ledger recorder persists a DEBIT after the commit, deposits a CREDIT.
type Transaction struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id,string"`
	CustomerID  int64           `gorm:"index;not null" json:"customer_id,string"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type        string          `gorm:"size:16;index;not null" json:"type"`
	Description string          `gorm:"size:255" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName Specify table name
func (Transaction) TableName() string {
	return "transactions"
}
