package expenses

import (
	"github.com/yuchialin/expense-claim/internal/common"
	"github.com/yuchialin/expense-claim/internal/entity"
)

// IsOwner reports whether callerID is the owning identity of the record.
func IsOwner(e *entity.Expense, callerID string) bool {
	return e != nil && callerID != "" && e.UserID == callerID
}

// RequireOwner gates mutating operations. Reads of a single record by id are
// deliberately not gated; only update and delete go through this check.
func RequireOwner(e *entity.Expense, callerID string) error {
	if e == nil {
		return common.ErrForbidden
	}
	if !IsOwner(e, callerID) {
		return common.WrapError(common.ErrForbidden, "expense "+e.ID.String())
	}
	return nil
}
