// Package expenses implements the expense record lifecycle: CRUD against the
// record store coupled to attachment uploads in the object store.
//
// The two stores are not spanned by any transaction. Consistency is bounded
// by two fixed rules instead: an attachment is uploaded before the record
// that references it is written, so a stored receipt_url never points at a
// missing object, and attachment cleanup is best-effort, so a visible
// mutation never fails because of a cleanup step.
package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/yuchialin/expense-claim/constants"
	"github.com/yuchialin/expense-claim/internal/entity"
	"github.com/yuchialin/expense-claim/internal/repository"
	"github.com/yuchialin/expense-claim/internal/storage"
)

// receiptKeyRe extracts the object key from a stored receipt URL. The fixed
// path pattern matches how the object store exposes the receipts bucket.
var receiptKeyRe = regexp.MustCompile(`receipts/([^?]+)`)

type Service struct {
	repo         repository.ExpenseRepository
	store        storage.ObjectStore
	signedURLTTL time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(repo repository.ExpenseRepository, store storage.ObjectStore, signedURLTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if signedURLTTL <= 0 {
		signedURLTTL = time.Hour
	}
	return &Service{
		repo:         repo,
		store:        store,
		signedURLTTL: signedURLTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// Create validates the form input, uploads the attachment when present, then
// inserts the record with the resulting URL. The upload happens first so the
// inserted row never references a missing object; if the insert fails the
// uploaded object is left in place rather than rolled back.
func (s *Service) Create(ctx context.Context, ownerID string, in *FormInput) (*entity.Expense, error) {
	p, err := in.parse()
	if err != nil {
		return nil, err
	}

	receiptURL := ""
	if in.Receipt != nil {
		key := s.storageKey(ownerID, in.Receipt.Filename)
		url, err := s.store.Upload(ctx, key, in.Receipt.Content, in.Receipt.ContentType, false)
		if err != nil {
			return nil, err
		}
		receiptURL = url
	}

	created, err := s.repo.Insert(ctx, &repository.CreateExpenseParams{
		UserID:          ownerID,
		ExpenseType:     p.expenseType,
		TransactionDate: p.transactionDate,
		Purpose:         p.purpose,
		Amount:          p.amount,
		Participants:    p.participants,
		ReceiptURL:      receiptURL,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense created", "expense_id", created.ID, "user_id", ownerID, "has_receipt", receiptURL != "")
	return created, nil
}

// Update replaces the mutable fields of an owned record. When a new
// attachment is supplied, the superseded object is removed best-effort
// before the new upload; a cleanup failure is logged, never raised.
func (s *Service) Update(ctx context.Context, id uuid.UUID, callerID string, in *FormInput) (*entity.Expense, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireOwner(current, callerID); err != nil {
		return nil, err
	}

	p, err := in.parse()
	if err != nil {
		return nil, err
	}

	receiptURL := current.ReceiptURL
	if in.Receipt != nil {
		if current.ReceiptURL != "" {
			s.removeReceiptObject(ctx, id, current.ReceiptURL)
		}
		key := s.storageKey(current.UserID, in.Receipt.Filename)
		url, err := s.store.Upload(ctx, key, in.Receipt.Content, in.Receipt.ContentType, false)
		if err != nil {
			return nil, err
		}
		receiptURL = url
	}

	updated, err := s.repo.UpdateByID(ctx, id, &repository.UpdateExpenseParams{
		ExpenseType:     p.expenseType,
		TransactionDate: p.transactionDate,
		Purpose:         p.purpose,
		Amount:          p.amount,
		Participants:    p.participants,
		ReceiptURL:      receiptURL,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense updated", "expense_id", id, "user_id", callerID, "receipt_replaced", in.Receipt != nil)
	return updated, nil
}

// Delete removes an owned record. The attached object, when present, is
// removed best-effort first; the record deletion proceeds regardless so the
// user never keeps seeing a half-deleted record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, callerID string) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireOwner(current, callerID); err != nil {
		return err
	}

	if current.ReceiptURL != "" {
		s.removeReceiptObject(ctx, id, current.ReceiptURL)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("expense deleted", "expense_id", id, "user_id", callerID)
	return nil
}

// GetByID is open to any authenticated caller; only mutations are owner-gated.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*entity.Expense, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByOwner returns the owner's records, created_at descending. Each call
// is a fresh snapshot.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Expense, error) {
	return s.repo.ListByUser(ctx, ownerID)
}

// ResolveReceiptURL derives a short-lived access URL from a stored receipt
// URL. It falls back to the stored URL when key extraction or signing fails,
// and never touches stored state.
func (s *Service) ResolveReceiptURL(ctx context.Context, receiptURL string) string {
	if receiptURL == "" {
		return ""
	}
	key, ok := receiptObjectKey(receiptURL)
	if !ok {
		return receiptURL
	}
	signed, err := s.store.CreateSignedURL(ctx, key, s.signedURLTTL)
	if err != nil {
		s.logger.Warn("failed to sign receipt url, falling back to stored url", "key", key, "error", err)
		return receiptURL
	}
	return signed
}

// removeReceiptObject is the best-effort cleanup step shared by update and
// delete. Extraction or removal failures are logged and suppressed.
func (s *Service) removeReceiptObject(ctx context.Context, id uuid.UUID, receiptURL string) {
	key, ok := receiptObjectKey(receiptURL)
	if !ok {
		s.logger.Warn("could not extract object key from receipt url, skipping cleanup", "expense_id", id, "receipt_url", receiptURL)
		return
	}
	if err := s.store.Remove(ctx, key); err != nil {
		s.logger.Warn("failed to remove receipt object, continuing", "expense_id", id, "key", key, "error", err)
	}
}

// storageKey derives a collision-resistant, owner-attributable object key.
func (s *Service) storageKey(ownerID, filename string) string {
	ext := constants.NormalizeExt(path.Ext(filename))
	return fmt.Sprintf("%s/%d-%s.%s", ownerID, s.now().UnixNano(), uuid.New().String(), ext)
}

func receiptObjectKey(receiptURL string) (string, bool) {
	m := receiptKeyRe.FindStringSubmatch(receiptURL)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}
