package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dueOn(date string) sql.NullString {
	return sql.NullString{String: date, Valid: true}
}

func TestDebtOutstanding(t *testing.T) {
	debt := Debt{
		Amount:     decimal.RequireFromString("120.50"),
		PaidAmount: decimal.RequireFromString("20.50"),
	}
	assert.True(t, debt.Outstanding().Equal(decimal.RequireFromString("100.00")))
}

func TestDebtIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  string
		dueDate sql.NullString
		want    bool
	}{
		{"no due date", DebtStatusPending, sql.NullString{}, false},
		{"due in the future", DebtStatusPending, dueOn("2026-03-20"), false},
		{"due today keeps the whole day", DebtStatusPending, dueOn("2026-03-15"), false},
		{"due yesterday", DebtStatusPending, dueOn("2026-03-14"), true},
		{"due two days ago", DebtStatusPending, dueOn("2026-03-13"), true},
		{"long past due", DebtStatusPartial, dueOn("2025-12-01"), true},
		{"settled is never overdue", DebtStatusSettled, dueOn("2025-12-01"), false},
		{"unparseable due date", DebtStatusPending, dueOn("not-a-date"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debt := Debt{Status: tt.status, DueDate: tt.dueDate}
			assert.Equal(t, tt.want, debt.IsOverdue(now))
		})
	}
}

func TestDebtEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	overdue := Debt{Status: DebtStatusPartial, DueDate: dueOn("2026-01-01")}
	assert.Equal(t, DebtStatusOverdue, overdue.EffectiveStatus(now))

	// The stored status never becomes OVERDUE, only the view of it.
	assert.Equal(t, DebtStatusPartial, overdue.Status)

	current := Debt{Status: DebtStatusPending, DueDate: dueOn("2026-04-01")}
	assert.Equal(t, DebtStatusPending, current.EffectiveStatus(now))

	settled := Debt{Status: DebtStatusSettled, DueDate: dueOn("2026-01-01")}
	assert.Equal(t, DebtStatusSettled, settled.EffectiveStatus(now))
}
