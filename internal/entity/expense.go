package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense represents an expense claim for data transfer between layers.
// ID, UserID and CreatedAt are assigned at creation and never change.
type Expense struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"user_id"`
	ExpenseType     string          `json:"expense_type"`
	TransactionDate time.Time       `json:"transaction_date"`
	Purpose         string          `json:"purpose"`
	Amount          decimal.Decimal `json:"amount"`
	Participants    string          `json:"participants"`
	ReceiptURL      string          `json:"receipt_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// HasReceipt reports whether the record points at an uploaded object.
func (e *Expense) HasReceipt() bool {
	return e.ReceiptURL != ""
}
