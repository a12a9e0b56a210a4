package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/entity"
)

// ProviderUserRepository mirrors identity-provider user records received via
// lifecycle webhooks into the provider_users side table.
type ProviderUserRepository interface {
	Upsert(ctx context.Context, user *entity.ProviderUser) error
	Delete(ctx context.Context, userID string) error
	GetByID(ctx context.Context, userID string) (*entity.ProviderUser, error)
}

type providerUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewProviderUserRepository(db *sql.DB, logger *slog.Logger) ProviderUserRepository {
	return &providerUserRepository{db: db, logger: logger}
}

func (r *providerUserRepository) Upsert(ctx context.Context, user *entity.ProviderUser) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO provider_users (user_id, first_name, last_name, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			updated_at = excluded.updated_at`,
		user.UserID, user.FirstName, user.LastName, user.Email, user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("failed to upsert provider user", "user_id", user.UserID, "error", err)
		return common.PersistenceErrorf("upsert provider user: %v", err)
	}
	return nil
}

func (r *providerUserRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM provider_users WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("failed to delete provider user", "user_id", userID, "error", err)
		return common.PersistenceErrorf("delete provider user: %v", err)
	}
	return nil
}

func (r *providerUserRepository) GetByID(ctx context.Context, userID string) (*entity.ProviderUser, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, first_name, last_name, email, created_at, updated_at
		 FROM provider_users WHERE user_id = $1`, userID)

	var u entity.ProviderUser
	err := row.Scan(&u.UserID, &u.FirstName, &u.LastName, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, common.NotFoundErrorf("provider user %s", userID)
	}
	if err != nil {
		r.logger.Error("failed to get provider user", "user_id", userID, "error", err)
		return nil, common.PersistenceErrorf("get provider user: %v", err)
	}
	return &u, nil
}
