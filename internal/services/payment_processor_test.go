package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/models"
)

func newDebt(amount, paid string, status string) *models.Debt {
	return &models.Debt{
		ID:         42,
		CreditorID: 1,
		DebtorID:   2,
		Amount:     d(amount),
		PaidAmount: d(paid),
		Status:     status,
	}
}

func TestApplyPayment(t *testing.T) {
	t.Run("partial payment moves PENDING to PARTIAL", func(t *testing.T) {
		debt := newDebt("500.00", "0.00", models.DebtStatusPending)
		require.NoError(t, ApplyPayment(debt, d("200.00")))
		assert.True(t, debt.PaidAmount.Equal(d("200.00")))
		assert.Equal(t, models.DebtStatusPartial, debt.Status)
		assert.True(t, debt.Outstanding().Equal(d("300.00")))
	})

	t.Run("payment of the exact outstanding settles", func(t *testing.T) {
		debt := newDebt("500.00", "200.00", models.DebtStatusPartial)
		require.NoError(t, ApplyPayment(debt, d("300.00")))
		assert.Equal(t, models.DebtStatusSettled, debt.Status)
		assert.True(t, debt.Outstanding().IsZero())
	})

	t.Run("overpayment is rejected and leaves the debt untouched", func(t *testing.T) {
		debt := newDebt("500.00", "0.00", models.DebtStatusPending)
		err := ApplyPayment(debt, d("500.01"))
		require.ErrorIs(t, err, ErrOverpayment)
		assert.True(t, debt.PaidAmount.IsZero())
		assert.Equal(t, models.DebtStatusPending, debt.Status)
	})

	t.Run("overpayment against partial outstanding is rejected", func(t *testing.T) {
		debt := newDebt("500.00", "450.00", models.DebtStatusPartial)
		err := ApplyPayment(debt, d("50.01"))
		require.ErrorIs(t, err, ErrOverpayment)
		assert.True(t, debt.PaidAmount.Equal(d("450.00")))
	})

	t.Run("any payment against a settled debt is an overpayment", func(t *testing.T) {
		debt := newDebt("500.00", "500.00", models.DebtStatusSettled)
		err := ApplyPayment(debt, d("0.01"))
		require.ErrorIs(t, err, ErrOverpayment)
	})

	t.Run("zero payment is rejected", func(t *testing.T) {
		debt := newDebt("500.00", "0.00", models.DebtStatusPending)
		require.ErrorIs(t, ApplyPayment(debt, d("0.00")), ErrInvalidAmount)
	})

	t.Run("negative payment is rejected", func(t *testing.T) {
		debt := newDebt("500.00", "0.00", models.DebtStatusPending)
		require.ErrorIs(t, ApplyPayment(debt, d("-10.00")), ErrInvalidAmount)
	})

	t.Run("sub-cent payment is rejected", func(t *testing.T) {
		debt := newDebt("500.00", "0.00", models.DebtStatusPending)
		require.ErrorIs(t, ApplyPayment(debt, d("1.005")), ErrInvalidAmount)
	})
}

func TestApplyPaymentSequenceSettlesExactly(t *testing.T) {
	debt := newDebt("100.00", "0.00", models.DebtStatusPending)
	payments := []string{"33.34", "33.33", "33.33"}
	for i, p := range payments {
		require.NoErrorf(t, ApplyPayment(debt, d(p)), "payment %d", i)
	}
	assert.Equal(t, models.DebtStatusSettled, debt.Status)
	assert.True(t, debt.PaidAmount.Equal(d("100.00")))

	// Once the final cent is paid, nothing more fits.
	require.ErrorIs(t, ApplyPayment(debt, d("0.01")), ErrOverpayment)
}

func TestRecalculateStatus(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		paid   string
		want   string
	}{
		{"nothing paid", "100.00", "0.00", models.DebtStatusPending},
		{"one cent paid", "100.00", "0.01", models.DebtStatusPartial},
		{"almost settled", "100.00", "99.99", models.DebtStatusPartial},
		{"exactly settled", "100.00", "100.00", models.DebtStatusSettled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecalculateStatus(d(tt.amount), d(tt.paid)))
		})
	}
}

func TestRecalculateStatusNeverRegresses(t *testing.T) {
	// Walk a debt a cent at a time and assert the status ordering
	// PENDING -> PARTIAL -> SETTLED is monotone.
	rank := map[string]int{
		models.DebtStatusPending: 0,
		models.DebtStatusPartial: 1,
		models.DebtStatusSettled: 2,
	}
	amount := d("0.25")
	paid := decimal.Zero
	prev := RecalculateStatus(amount, paid)
	for paid.LessThan(amount) {
		paid = paid.Add(d("0.01"))
		next := RecalculateStatus(amount, paid)
		require.GreaterOrEqual(t, rank[next], rank[prev])
		prev = next
	}
	assert.Equal(t, models.DebtStatusSettled, prev)
}
