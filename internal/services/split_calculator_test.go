package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func shareAmounts(shares []SplitShare) []string {
	out := make([]string, len(shares))
	for i, s := range shares {
		out[i] = s.Amount.StringFixed(2)
	}
	return out
}

func sumShares(shares []SplitShare) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

func TestComputeSplitEqual(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		members []int
		want    []string
	}{
		{"even division", "90.00", []int{1, 2, 3}, []string{"30.00", "30.00", "30.00"}},
		{"one cent remainder", "100.00", []int{1, 2, 3}, []string{"33.34", "33.33", "33.33"}},
		{"two cent remainder", "0.05", []int{1, 2, 3}, []string{"0.02", "0.02", "0.01"}},
		{"single member", "42.50", []int{7}, []string{"42.50"}},
		{"remainder goes to lowest ids", "10.00", []int{4, 2, 9}, []string{"3.34", "3.33", "3.33"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := make([]SplitInput, len(tt.members))
			for i, m := range tt.members {
				inputs[i] = SplitInput{MemberID: m}
			}
			shares, err := ComputeSplit(d(tt.amount), models.SplitMethodEqual, inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shareAmounts(shares))
			assert.True(t, sumShares(shares).Equal(d(tt.amount)))
		})
	}
}

func TestComputeSplitEqualSumsExactlyForManySizes(t *testing.T) {
	amounts := []string{"0.01", "1.00", "99.97", "100.00", "12345.67"}
	for _, amount := range amounts {
		for n := 1; n <= 50; n++ {
			inputs := make([]SplitInput, n)
			for i := range inputs {
				inputs[i] = SplitInput{MemberID: i + 1}
			}
			shares, err := ComputeSplit(d(amount), models.SplitMethodEqual, inputs)
			require.NoError(t, err, "amount=%s n=%d", amount, n)
			require.Truef(t, sumShares(shares).Equal(d(amount)),
				"amount=%s n=%d sum=%s", amount, n, sumShares(shares))

			// No two shares differ by more than one cent.
			min, max := shares[0].Amount, shares[0].Amount
			for _, s := range shares {
				if s.Amount.LessThan(min) {
					min = s.Amount
				}
				if s.Amount.GreaterThan(max) {
					max = s.Amount
				}
			}
			require.True(t, max.Sub(min).LessThanOrEqual(d("0.01")))
		}
	}
}

func TestComputeSplitExact(t *testing.T) {
	t.Run("accepts matching amounts", func(t *testing.T) {
		shares, err := ComputeSplit(d("100.00"), models.SplitMethodExact, []SplitInput{
			{MemberID: 1, Amount: d("70.00")},
			{MemberID: 2, Amount: d("30.00")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"70.00", "30.00"}, shareAmounts(shares))
	})

	t.Run("allows a zero share", func(t *testing.T) {
		shares, err := ComputeSplit(d("50.00"), models.SplitMethodExact, []SplitInput{
			{MemberID: 1, Amount: d("50.00")},
			{MemberID: 2, Amount: d("0.00")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"50.00", "0.00"}, shareAmounts(shares))
	})

	t.Run("rejects sum below the total", func(t *testing.T) {
		_, err := ComputeSplit(d("100.00"), models.SplitMethodExact, []SplitInput{
			{MemberID: 1, Amount: d("70.00")},
			{MemberID: 2, Amount: d("29.99")},
		})
		require.ErrorIs(t, err, ErrSplitMismatch)
		assert.Contains(t, err.Error(), "99.99")
	})

	t.Run("rejects sum above the total", func(t *testing.T) {
		_, err := ComputeSplit(d("100.00"), models.SplitMethodExact, []SplitInput{
			{MemberID: 1, Amount: d("70.00")},
			{MemberID: 2, Amount: d("30.01")},
		})
		require.ErrorIs(t, err, ErrSplitMismatch)
	})

	t.Run("rejects a negative share", func(t *testing.T) {
		_, err := ComputeSplit(d("100.00"), models.SplitMethodExact, []SplitInput{
			{MemberID: 1, Amount: d("110.00")},
			{MemberID: 2, Amount: d("-10.00")},
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects sub-cent precision", func(t *testing.T) {
		_, err := ComputeSplit(d("100.00"), models.SplitMethodExact, []SplitInput{
			{MemberID: 1, Amount: d("50.005")},
			{MemberID: 2, Amount: d("49.995")},
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestComputeSplitPercentage(t *testing.T) {
	t.Run("whole percentages", func(t *testing.T) {
		shares, err := ComputeSplit(d("200.00"), models.SplitMethodPercentage, []SplitInput{
			{MemberID: 1, Percent: d("50")},
			{MemberID: 2, Percent: d("30")},
			{MemberID: 3, Percent: d("20")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"100.00", "60.00", "40.00"}, shareAmounts(shares))
	})

	t.Run("fractional percentages keep exact sum", func(t *testing.T) {
		shares, err := ComputeSplit(d("100.00"), models.SplitMethodPercentage, []SplitInput{
			{MemberID: 1, Percent: d("33.33")},
			{MemberID: 2, Percent: d("33.33")},
			{MemberID: 3, Percent: d("33.34")},
		})
		require.NoError(t, err)
		assert.True(t, sumShares(shares).Equal(d("100.00")))
	})

	t.Run("largest remainder wins the leftover cent", func(t *testing.T) {
		// 0.65 of 10.01 is 6.5065, 0.35 is 3.5035: member 1 has the
		// larger fractional remainder and takes the extra cent.
		shares, err := ComputeSplit(d("10.01"), models.SplitMethodPercentage, []SplitInput{
			{MemberID: 1, Percent: d("65")},
			{MemberID: 2, Percent: d("35")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"6.51", "3.50"}, shareAmounts(shares))
	})

	t.Run("remainder ties break by ascending member id", func(t *testing.T) {
		shares, err := ComputeSplit(d("0.03"), models.SplitMethodPercentage, []SplitInput{
			{MemberID: 5, Percent: d("50")},
			{MemberID: 2, Percent: d("50")},
		})
		require.NoError(t, err)
		require.Len(t, shares, 2)
		assert.Equal(t, 2, shares[0].MemberID)
		assert.Equal(t, "0.02", shares[0].Amount.StringFixed(2))
		assert.Equal(t, "0.01", shares[1].Amount.StringFixed(2))
	})

	t.Run("rejects percentages under 100", func(t *testing.T) {
		_, err := ComputeSplit(d("100.00"), models.SplitMethodPercentage, []SplitInput{
			{MemberID: 1, Percent: d("50")},
			{MemberID: 2, Percent: d("49.99")},
		})
		require.ErrorIs(t, err, ErrSplitMismatch)
	})

	t.Run("rejects percentages over 100", func(t *testing.T) {
		_, err := ComputeSplit(d("100.00"), models.SplitMethodPercentage, []SplitInput{
			{MemberID: 1, Percent: d("60")},
			{MemberID: 2, Percent: d("40.01")},
		})
		require.ErrorIs(t, err, ErrSplitMismatch)
	})

	t.Run("rejects a negative percentage", func(t *testing.T) {
		_, err := ComputeSplit(d("100.00"), models.SplitMethodPercentage, []SplitInput{
			{MemberID: 1, Percent: d("110")},
			{MemberID: 2, Percent: d("-10")},
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestComputeSplitShares(t *testing.T) {
	t.Run("proportional weights", func(t *testing.T) {
		shares, err := ComputeSplit(d("100.00"), models.SplitMethodShares, []SplitInput{
			{MemberID: 1, Shares: 2},
			{MemberID: 2, Shares: 1},
			{MemberID: 3, Shares: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"50.00", "25.00", "25.00"}, shareAmounts(shares))
	})

	t.Run("remainder cents favour larger remainders", func(t *testing.T) {
		// 100.00 over weights 1,1,1: 33.33 each plus one cent left over.
		shares, err := ComputeSplit(d("100.00"), models.SplitMethodShares, []SplitInput{
			{MemberID: 1, Shares: 1},
			{MemberID: 2, Shares: 1},
			{MemberID: 3, Shares: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"33.34", "33.33", "33.33"}, shareAmounts(shares))
	})

	t.Run("zero weight member gets nothing", func(t *testing.T) {
		shares, err := ComputeSplit(d("30.00"), models.SplitMethodShares, []SplitInput{
			{MemberID: 1, Shares: 3},
			{MemberID: 2, Shares: 0},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"30.00", "0.00"}, shareAmounts(shares))
	})

	t.Run("rejects all-zero weights", func(t *testing.T) {
		_, err := ComputeSplit(d("30.00"), models.SplitMethodShares, []SplitInput{
			{MemberID: 1, Shares: 0},
			{MemberID: 2, Shares: 0},
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects a negative weight", func(t *testing.T) {
		_, err := ComputeSplit(d("30.00"), models.SplitMethodShares, []SplitInput{
			{MemberID: 1, Shares: 2},
			{MemberID: 2, Shares: -1},
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("sums exactly across awkward weights", func(t *testing.T) {
		weights := [][]int64{{1, 2, 4}, {3, 3, 1}, {7, 11, 13}, {1, 1, 1, 1, 1, 1, 1}}
		for _, ws := range weights {
			inputs := make([]SplitInput, len(ws))
			for i, w := range ws {
				inputs[i] = SplitInput{MemberID: i + 1, Shares: w}
			}
			shares, err := ComputeSplit(d("99.97"), models.SplitMethodShares, inputs)
			require.NoError(t, err)
			require.Truef(t, sumShares(shares).Equal(d("99.97")), "weights=%v", ws)
		}
	})
}

func TestComputeSplitValidation(t *testing.T) {
	two := []SplitInput{{MemberID: 1}, {MemberID: 2}}

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := ComputeSplit(d("0.00"), models.SplitMethodEqual, two)
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := ComputeSplit(d("-5.00"), models.SplitMethodEqual, two)
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects sub-cent amount", func(t *testing.T) {
		_, err := ComputeSplit(d("10.005"), models.SplitMethodEqual, two)
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects empty member list", func(t *testing.T) {
		_, err := ComputeSplit(d("10.00"), models.SplitMethodEqual, nil)
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects duplicate members", func(t *testing.T) {
		_, err := ComputeSplit(d("10.00"), models.SplitMethodEqual, []SplitInput{
			{MemberID: 3}, {MemberID: 3},
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := ComputeSplit(d("10.00"), "HALVES", two)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HALVES")
	})
}

func TestComputeSplitIsDeterministic(t *testing.T) {
	inputs := []SplitInput{
		{MemberID: 9, Shares: 2},
		{MemberID: 1, Shares: 3},
		{MemberID: 5, Shares: 2},
	}
	first, err := ComputeSplit(d("77.77"), models.SplitMethodShares, inputs)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ComputeSplit(d("77.77"), models.SplitMethodShares, inputs)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Output ordering is by member id regardless of input ordering.
	ids := make([]int, len(first))
	for i, s := range first {
		ids[i] = s.MemberID
	}
	assert.Equal(t, []int{1, 5, 9}, ids)
}

func TestComputeSplitShareOrderingMatchesInputAfterSort(t *testing.T) {
	for n := 2; n <= 8; n++ {
		inputs := make([]SplitInput, n)
		for i := range inputs {
			inputs[i] = SplitInput{MemberID: n - i} // descending on purpose
		}
		shares, err := ComputeSplit(d("13.37"), models.SplitMethodEqual, inputs)
		require.NoError(t, err)
		for i := 1; i < len(shares); i++ {
			require.Greaterf(t, shares[i].MemberID, shares[i-1].MemberID,
				fmt.Sprintf("shares not ordered for n=%d", n))
		}
	}
}
