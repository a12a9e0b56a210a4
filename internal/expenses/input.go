package expenses

import (
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuchialin/expense-claim/constants"
	"github.com/yuchialin/expense-claim/internal/common"
)

// Attachment carries an uploaded receipt file read out of a multipart form.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// FormInput is the raw form payload of a create or update operation. Fields
// arrive as strings from the multipart form; parse is the validation boundary
// that turns them into typed values before any store call.
type FormInput struct {
	ExpenseType     string
	TransactionDate string
	Purpose         string
	Amount          string
	Participants    string
	Receipt         *Attachment
}

type parsedInput struct {
	expenseType     string
	transactionDate time.Time
	purpose         string
	amount          decimal.Decimal
	participants    string
}

func (in *FormInput) parse() (*parsedInput, error) {
	p := &parsedInput{
		expenseType:  strings.TrimSpace(in.ExpenseType),
		purpose:      strings.TrimSpace(in.Purpose),
		participants: strings.TrimSpace(in.Participants),
	}

	if p.expenseType == "" {
		return nil, common.ValidationErrorf("expense_type is required")
	}
	if strings.TrimSpace(in.TransactionDate) == "" {
		return nil, common.ValidationErrorf("transaction_date is required")
	}
	if p.purpose == "" {
		return nil, common.ValidationErrorf("purpose is required")
	}
	if p.participants == "" {
		return nil, common.ValidationErrorf("participants is required")
	}
	if strings.TrimSpace(in.Amount) == "" {
		return nil, common.ValidationErrorf("amount is required")
	}

	txDate, err := time.Parse("2006-01-02", strings.TrimSpace(in.TransactionDate))
	if err != nil {
		return nil, common.ValidationErrorf("transaction_date invalid (YYYY-MM-DD): %v", err)
	}
	p.transactionDate = txDate

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return nil, common.ValidationErrorf("amount must be a number: %v", err)
	}
	if amount.IsNegative() {
		return nil, common.ValidationErrorf("amount must not be negative")
	}
	p.amount = amount

	if in.Receipt != nil {
		ext := constants.NormalizeExt(path.Ext(in.Receipt.Filename))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return nil, common.ValidationErrorf("receipt_file extension %q is not allowed", ext)
		}
		if len(in.Receipt.Content) == 0 {
			return nil, common.ValidationErrorf("receipt_file is empty")
		}
	}

	return p, nil
}
