package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeSavings TransactionType = "savings"
)

// TransactionTypes lists every valid type in display order.
var TransactionTypes = []TransactionType{
	TransactionTypeExpense,
	TransactionTypeIncome,
	TransactionTypeSavings,
}

// Valid reports whether t is one of the enumerated types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeExpense, TransactionTypeIncome, TransactionTypeSavings:
		return true
	}
	return false
}

// ParseTransactionType normalizes raw upstream text to a transaction type.
// Anything unrecognized becomes an expense.
func ParseTransactionType(raw string) TransactionType {
	t := TransactionType(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return TransactionTypeExpense
}

// Scope selects whose transactions a query covers.
type Scope string

const (
	ScopeSelf   Scope = "self"
	ScopeFamily Scope = "family"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeSelf || s == ScopeFamily
}

// Draft is a validated transaction that has not been stored yet.
type Draft struct {
	Type        TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	CreatedAt   time.Time
}

// Transaction represents a stored financial event. Rows are never updated;
// the only mutation is deletion of the newest one.
type Transaction struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Category    string          `gorm:"not null" json:"category"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"created_at"`
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	FamilyID    string          `gorm:"not null;index" json:"family_id"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate assigns the ID and stores the timestamp in UTC so range
// filters compare consistently across drivers.
func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return nil
}
