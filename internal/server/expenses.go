package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/entity"
	"github.com/yuchialin/expense-claim/internal/expenses"
	"github.com/yuchialin/expense-claim/internal/identity"
)

// maxReceiptSize bounds the in-memory part of multipart parsing.
const maxReceiptSize = 10 << 20

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())

	in, err := parseExpenseForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.svc.Create(r.Context(), caller.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())

	list, err := s.svc.ListByOwner(r.Context(), caller.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*entity.Expense{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := expenseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// hand the detail view a time-bounded URL instead of the raw object path
	resolved := *e
	resolved.ReceiptURL = s.svc.ResolveReceiptURL(r.Context(), e.ReceiptURL)
	s.writeJSON(w, http.StatusOK, &resolved)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())

	id, err := expenseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := parseExpenseForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.svc.Update(r.Context(), id, caller.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())

	id, err := expenseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Delete(r.Context(), id, caller.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())

	parseDate := func(name string) (*time.Time, error) {
		v := r.URL.Query().Get(name)
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, common.ValidationErrorf("%s invalid (YYYY-MM-DD): %v", name, err)
		}
		return &t, nil
	}

	from, err := parseDate("from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := parseDate("to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	raw, err := s.exporter.ExportExpensesXLSX(r.Context(), caller.ID, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func expenseID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.ValidationErrorf("id must be a UUID")
	}
	return id, nil
}

// parseExpenseForm reads the multipart payload into the raw form input. Field
// coercion and validation happen one layer down, in the expense service.
func parseExpenseForm(r *http.Request) (*expenses.FormInput, error) {
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		return nil, common.ValidationErrorf("invalid multipart form: %v", err)
	}

	in := &expenses.FormInput{
		ExpenseType:     r.FormValue("expense_type"),
		TransactionDate: r.FormValue("transaction_date"),
		Purpose:         r.FormValue("purpose"),
		Amount:          r.FormValue("amount"),
		Participants:    r.FormValue("participants"),
	}

	file, header, err := r.FormFile("receipt_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil
		}
		return nil, common.ValidationErrorf("invalid receipt_file: %v", err)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, common.ValidationErrorf("read receipt_file: %v", err)
	}
	in.Receipt = &expenses.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}
	return in, nil
}
