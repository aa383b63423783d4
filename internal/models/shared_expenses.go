package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Split methods form a closed set; the calculator dispatches on them
// exhaustively.
const (
	SplitMethodEqual      = "EQUAL"
	SplitMethodExact      = "EXACT"
	SplitMethodPercentage = "PERCENTAGE"
	SplitMethodShares     = "SHARES"
)

type SharedExpense struct {
	ID          int             `json:"id,omitempty" db:"id,omitempty"`
	ExpenseRef  string          `json:"expense_ref,omitempty" db:"expense_ref,omitempty"`
	GroupID     int             `json:"group_id,omitempty" db:"group_id,omitempty"`
	PaidBy      int             `json:"paid_by,omitempty" db:"paid_by,omitempty"`
	Amount      decimal.Decimal `json:"amount,omitempty" db:"amount,omitempty"`
	ExpenseDate sql.NullString  `json:"expense_date,omitempty" db:"expense_date,omitempty"`
	SplitMethod string          `json:"split_method,omitempty" db:"split_method,omitempty"`
	Notes       string          `json:"notes,omitempty" db:"notes,omitempty"`
	CreatedAt   sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
}
