package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/yuchialin/expense-claim/internal/common"

	_ "modernc.org/sqlite"
)

// ExpenseRepoTestSuite runs the repository against an in-memory sqlite
// database using the same SQL as the Postgres production store.
type ExpenseRepoTestSuite struct {
	suite.Suite
	db   *sql.DB
	repo *expenseRepository
}

func (s *ExpenseRepoTestSuite) SetupTest() {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(s.T(), err, "failed to open test database")
	// a single connection keeps every statement on the same in-memory DB
	db.SetMaxOpenConns(1)
	require.NoError(s.T(), Migrate(context.Background(), db))

	s.db = db
	s.repo = NewExpenseRepository(db, slog.Default()).(*expenseRepository)
}

func (s *ExpenseRepoTestSuite) TearDownTest() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *ExpenseRepoTestSuite) params(userID string) *CreateExpenseParams {
	return &CreateExpenseParams{
		UserID:          userID,
		ExpenseType:     "餐飲",
		TransactionDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Purpose:         "team lunch",
		Amount:          decimal.NewFromInt(500),
		Participants:    "Alice,Bob",
	}
}

func (s *ExpenseRepoTestSuite) TestInsertAndGet() {
	ctx := context.Background()

	created, err := s.repo.Insert(ctx, s.params("user_1"))
	require.NoError(s.T(), err)
	assert.NotEqual(s.T(), uuid.Nil, created.ID)
	assert.False(s.T(), created.CreatedAt.IsZero())
	assert.Empty(s.T(), created.ReceiptURL)

	got, err := s.repo.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ID, got.ID)
	assert.Equal(s.T(), "user_1", got.UserID)
	assert.Equal(s.T(), "餐飲", got.ExpenseType)
	assert.Equal(s.T(), "2024-01-10", got.TransactionDate.Format("2006-01-02"))
	assert.Equal(s.T(), "team lunch", got.Purpose)
	assert.True(s.T(), got.Amount.Equal(decimal.NewFromInt(500)), "amount changed in round trip: %s", got.Amount)
	assert.Equal(s.T(), "Alice,Bob", got.Participants)
	assert.Empty(s.T(), got.ReceiptURL)
}

func (s *ExpenseRepoTestSuite) TestGetByIDRepeatable() {
	ctx := context.Background()
	created, err := s.repo.Insert(ctx, s.params("user_1"))
	require.NoError(s.T(), err)

	first, err := s.repo.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)
	second, err := s.repo.GetByID(ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first, second)
}

func (s *ExpenseRepoTestSuite) TestGetByIDNotFound() {
	_, err := s.repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(s.T(), err, common.ErrNotFound)
}

func (s *ExpenseRepoTestSuite) TestListByUserFiltersAndOrders() {
	ctx := context.Background()

	// deterministic, second-granular creation times
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Minute), base.Add(2 * time.Minute)}
	i := 0
	s.repo.now = func() time.Time {
		t := times[i%len(times)]
		i++
		return t
	}

	p1 := s.params("user_a")
	p1.Purpose = "oldest"
	_, err := s.repo.Insert(ctx, p1)
	require.NoError(s.T(), err)

	p2 := s.params("user_a")
	p2.Purpose = "middle"
	_, err = s.repo.Insert(ctx, p2)
	require.NoError(s.T(), err)

	p3 := s.params("user_b")
	p3.Purpose = "other owner"
	_, err = s.repo.Insert(ctx, p3)
	require.NoError(s.T(), err)

	got, err := s.repo.ListByUser(ctx, "user_a")
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 2)
	assert.Equal(s.T(), "middle", got[0].Purpose, "expected created_at descending")
	assert.Equal(s.T(), "oldest", got[1].Purpose)
	for _, e := range got {
		assert.Equal(s.T(), "user_a", e.UserID)
	}

	none, err := s.repo.ListByUser(ctx, "user_c")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), none)
}

func (s *ExpenseRepoTestSuite) TestUpdatePreservesImmutableFields() {
	ctx := context.Background()
	created, err := s.repo.Insert(ctx, s.params("user_1"))
	require.NoError(s.T(), err)

	updated, err := s.repo.UpdateByID(ctx, created.ID, &UpdateExpenseParams{
		ExpenseType:     "交通",
		TransactionDate: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		Purpose:         "taxi to airport",
		Amount:          decimal.RequireFromString("1200.50"),
		Participants:    "Carol",
		ReceiptURL:      "https://files.example.com/storage/v1/object/public/receipts/user_1/abc.png",
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), created.ID, updated.ID)
	assert.Equal(s.T(), created.UserID, updated.UserID)
	assert.WithinDuration(s.T(), created.CreatedAt, updated.CreatedAt, time.Second)
	assert.Equal(s.T(), "交通", updated.ExpenseType)
	assert.Equal(s.T(), "taxi to airport", updated.Purpose)
	assert.True(s.T(), updated.Amount.Equal(decimal.RequireFromString("1200.50")))
	assert.Equal(s.T(), "https://files.example.com/storage/v1/object/public/receipts/user_1/abc.png", updated.ReceiptURL)
}

func (s *ExpenseRepoTestSuite) TestUpdateNotFound() {
	_, err := s.repo.UpdateByID(context.Background(), uuid.New(), &UpdateExpenseParams{
		ExpenseType:     "其他",
		TransactionDate: time.Now(),
		Purpose:         "x",
		Amount:          decimal.NewFromInt(1),
		Participants:    "x",
	})
	assert.ErrorIs(s.T(), err, common.ErrNotFound)
}

func (s *ExpenseRepoTestSuite) TestDeleteThenGet() {
	ctx := context.Background()
	created, err := s.repo.Insert(ctx, s.params("user_1"))
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.repo.DeleteByID(ctx, created.ID))

	_, err = s.repo.GetByID(ctx, created.ID)
	assert.ErrorIs(s.T(), err, common.ErrNotFound)

	err = s.repo.DeleteByID(ctx, created.ID)
	assert.ErrorIs(s.T(), err, common.ErrNotFound)
}

func TestExpenseRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseRepoTestSuite))
}
