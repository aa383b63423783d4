package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type SharedExpenseSplit struct {
	ID              int             `json:"id,omitempty" db:"id,omitempty"`
	SharedExpenseID int             `json:"shared_expense_id,omitempty" db:"shared_expense_id,omitempty"`
	MemberID        int             `json:"member_id,omitempty" db:"member_id,omitempty"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	IsSettled       bool            `json:"is_settled,omitempty" db:"is_settled,omitempty"`
	CreatedAt       sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
}
