package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yuchialin/expense-claim/internal/entity"
	"github.com/yuchialin/expense-claim/internal/repository"
)

type stubRepo struct {
	expenses []*entity.Expense
}

func (s *stubRepo) Insert(context.Context, *repository.CreateExpenseParams) (*entity.Expense, error) {
	panic("not used")
}

func (s *stubRepo) GetByID(context.Context, uuid.UUID) (*entity.Expense, error) {
	panic("not used")
}

func (s *stubRepo) ListByUser(_ context.Context, userID string) ([]*entity.Expense, error) {
	var out []*entity.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateByID(context.Context, uuid.UUID, *repository.UpdateExpenseParams) (*entity.Expense, error) {
	panic("not used")
}

func (s *stubRepo) DeleteByID(context.Context, uuid.UUID) error {
	panic("not used")
}

func expense(userID, purpose, date string, amount int64) *entity.Expense {
	d, _ := time.Parse("2006-01-02", date)
	return &entity.Expense{
		ID:              uuid.New(),
		UserID:          userID,
		ExpenseType:     "餐飲",
		TransactionDate: d,
		Purpose:         purpose,
		Amount:          decimal.NewFromInt(amount),
		Participants:    "Alice",
		CreatedAt:       d,
	}
}

func TestExportExpensesXLSX(t *testing.T) {
	repo := &stubRepo{expenses: []*entity.Expense{
		expense("user_a", "lunch", "2024-01-10", 500),
		expense("user_a", "taxi", "2024-02-01", 300),
		expense("user_b", "not mine", "2024-01-15", 999),
	}}
	svc := NewService(repo, nil)

	raw, err := svc.ExportExpensesXLSX(context.Background(), "user_a", nil, nil)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	header, err := wb.GetCellValue("Expenses", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Transaction Date", header)

	purpose, err := wb.GetCellValue("Expenses", "C2")
	require.NoError(t, err)
	assert.Equal(t, "lunch", purpose)

	amount, err := wb.GetCellValue("Expenses", "D2")
	require.NoError(t, err)
	assert.Equal(t, "500", amount)

	rows, err := wb.GetRows("Expenses")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus the two user_a rows")
}

func TestExportExpensesXLSXDateWindow(t *testing.T) {
	repo := &stubRepo{expenses: []*entity.Expense{
		expense("user_a", "january", "2024-01-10", 1),
		expense("user_a", "february", "2024-02-10", 2),
		expense("user_a", "march", "2024-03-10", 3),
	}}
	svc := NewService(repo, nil)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	raw, err := svc.ExportExpensesXLSX(context.Background(), "user_a", &from, &to)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	rows, err := wb.GetRows("Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "february", rows[1][2])
}
