package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Debt statuses stored in the database. OVERDUE is never stored: it is
// derived on read from the due date (see EffectiveStatus).
const (
	DebtStatusPending = "PENDING"
	DebtStatusPartial = "PARTIAL"
	DebtStatusSettled = "SETTLED"
	DebtStatusOverdue = "OVERDUE"
)

type Debt struct {
	ID              int             `json:"id,omitempty" db:"id,omitempty"`
	CreditorID      int             `json:"creditor_id,omitempty" db:"creditor_id,omitempty"`
	DebtorID        int             `json:"debtor_id,omitempty" db:"debtor_id,omitempty"`
	GroupID         sql.NullInt64   `json:"group_id,omitempty" db:"group_id,omitempty"`
	SharedExpenseID sql.NullInt64   `json:"shared_expense_id,omitempty" db:"shared_expense_id,omitempty"`
	Description     string          `json:"description,omitempty" db:"description,omitempty"`
	Amount          decimal.Decimal `json:"amount,omitempty" db:"amount,omitempty"`
	PaidAmount      decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Status          string          `json:"status,omitempty" db:"status,omitempty"`
	DueDate         sql.NullString  `json:"due_date,omitempty" db:"due_date,omitempty"`
	SettledAt       sql.NullString  `json:"settled_at,omitempty" db:"settled_at,omitempty"`
	CreatedAt       sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
	UpdatedAt       sql.NullString  `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}

// Outstanding returns the amount still owed on the debt.
func (d *Debt) Outstanding() decimal.Decimal {
	return d.Amount.Sub(d.PaidAmount)
}

// IsOverdue reports whether a non-settled debt is past its due date.
func (d *Debt) IsOverdue(now time.Time) bool {
	if d.Status == DebtStatusSettled || !d.DueDate.Valid {
		return false
	}
	due, err := time.Parse("2006-01-02", d.DueDate.String)
	if err != nil {
		return false
	}
	return now.After(due.Add(24 * time.Hour))
}

// EffectiveStatus surfaces OVERDUE for non-settled debts past their due
// date; otherwise it returns the stored status.
func (d *Debt) EffectiveStatus(now time.Time) string {
	if d.IsOverdue(now) {
		return DebtStatusOverdue
	}
	return d.Status
}
