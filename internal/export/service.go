// Package export produces XLSX workbooks of a user's expense claims.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yuchialin/expense-claim/internal/entity"
	"github.com/yuchialin/expense-claim/internal/repository"
)

// Service is a tiny façade over the expense repository that produces XLSX
// bytes for exports.
type Service struct {
	repo   repository.ExpenseRepository
	logger *slog.Logger
}

func NewService(repo repository.ExpenseRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportExpensesXLSX returns an XLSX workbook (as bytes) for the given owner
// and transaction-date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all of the owner's expenses.
func (s *Service) ExportExpensesXLSX(ctx context.Context, ownerID string, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	recs = filterByDate(recs, fromDate, toDate)

	f := excelize.NewFile()
	const sheet = "Expenses"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Transaction Date",
		"Expense Type",
		"Purpose",
		"Amount",
		"Participants",
		"Receipt URL",
		"Created At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.TransactionDate.Format("2006-01-02"))
		write(2, r.ExpenseType)
		write(3, r.Purpose)
		write(4, r.Amount.String())
		write(5, r.Participants)
		write(6, r.ReceiptURL)
		write(7, r.CreatedAt.Format(time.RFC3339))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("expenses exported",
		"user_id", ownerID,
		"rows", len(recs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func filterByDate(recs []*entity.Expense, from, to *time.Time) []*entity.Expense {
	if from == nil && to == nil {
		return recs
	}
	out := make([]*entity.Expense, 0, len(recs))
	for _, r := range recs {
		d := time.Date(r.TransactionDate.Year(), r.TransactionDate.Month(), r.TransactionDate.Day(), 0, 0, 0, 0, time.UTC)
		if from != nil && d.Before(*from) {
			continue
		}
		if to != nil && d.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
