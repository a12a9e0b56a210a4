package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/entity"
)

// CreateExpenseParams wraps the columns set on insert. ID and CreatedAt are
// assigned by the store client.
type CreateExpenseParams struct {
	UserID          string
	ExpenseType     string
	TransactionDate time.Time
	Purpose         string
	Amount          decimal.Decimal
	Participants    string
	ReceiptURL      string
}

// UpdateExpenseParams wraps the mutable columns. UserID and CreatedAt are
// deliberately absent; they never change after creation.
type UpdateExpenseParams struct {
	ExpenseType     string
	TransactionDate time.Time
	Purpose         string
	Amount          decimal.Decimal
	Participants    string
	ReceiptURL      string
}

type ExpenseRepository interface {
	Insert(ctx context.Context, params *CreateExpenseParams) (*entity.Expense, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Expense, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error)
	UpdateByID(ctx context.Context, id uuid.UUID, params *UpdateExpenseParams) (*entity.Expense, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type expenseRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewExpenseRepository(db *sql.DB, logger *slog.Logger) ExpenseRepository {
	return &expenseRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

const expenseColumns = `id, user_id, expense_type, transaction_date, purpose, amount, participants, receipt_url, created_at`

func (r *expenseRepository) Insert(ctx context.Context, params *CreateExpenseParams) (*entity.Expense, error) {
	e := &entity.Expense{
		ID:              uuid.New(),
		UserID:          params.UserID,
		ExpenseType:     params.ExpenseType,
		TransactionDate: dateOnly(params.TransactionDate),
		Purpose:         params.Purpose,
		Amount:          params.Amount,
		Participants:    params.Participants,
		ReceiptURL:      params.ReceiptURL,
		CreatedAt:       r.now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID.String(), e.UserID, e.ExpenseType, e.TransactionDate, e.Purpose, e.Amount, e.Participants, e.ReceiptURL, e.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert expense", "user_id", params.UserID, "error", err)
		return nil, common.PersistenceErrorf("insert expense: %v", err)
	}
	return e, nil
}

func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id.String())

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("expense %s", id)
	}
	if err != nil {
		r.logger.Error("failed to get expense", "expense_id", id, "error", err)
		return nil, common.PersistenceErrorf("get expense: %v", err)
	}
	return e, nil
}

func (r *expenseRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		r.logger.Error("failed to list expenses", "user_id", userID, "error", err)
		return nil, common.PersistenceErrorf("list expenses: %v", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.logger.Warn("failed to close expense rows", "error", cerr)
		}
	}()

	var result []*entity.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, common.PersistenceErrorf("scan expense: %v", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.PersistenceErrorf("iterate expenses: %v", err)
	}
	return result, nil
}

func (r *expenseRepository) UpdateByID(ctx context.Context, id uuid.UUID, params *UpdateExpenseParams) (*entity.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET expense_type = $1, transaction_date = $2, purpose = $3, amount = $4, participants = $5, receipt_url = $6
		 WHERE id = $7`,
		params.ExpenseType, dateOnly(params.TransactionDate), params.Purpose, params.Amount, params.Participants, params.ReceiptURL, id.String(),
	)
	if err != nil {
		r.logger.Error("failed to update expense", "expense_id", id, "error", err)
		return nil, common.PersistenceErrorf("update expense: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, common.PersistenceErrorf("update expense: %v", err)
	}
	if affected == 0 {
		return nil, common.NotFoundErrorf("expense %s", id)
	}
	return r.GetByID(ctx, id)
}

func (r *expenseRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id.String())
	if err != nil {
		r.logger.Error("failed to delete expense", "expense_id", id, "error", err)
		return common.PersistenceErrorf("delete expense: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return common.PersistenceErrorf("delete expense: %v", err)
	}
	if affected == 0 {
		return common.NotFoundErrorf("expense %s", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var (
		e     entity.Expense
		rawID string
	)
	if err := row.Scan(&rawID, &e.UserID, &e.ExpenseType, &e.TransactionDate, &e.Purpose, &e.Amount, &e.Participants, &e.ReceiptURL, &e.CreatedAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return &e, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
