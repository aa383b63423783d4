package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type DebtPayment struct {
	ID            int             `json:"id,omitempty" db:"id,omitempty"`
	DebtID        int             `json:"debt_id,omitempty" db:"debt_id,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitempty" db:"amount,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty" db:"payment_method,omitempty"`
	Reference     string          `json:"reference,omitempty" db:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty" db:"notes,omitempty"`
	CreatedAt     sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
}
