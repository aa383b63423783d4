package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/models"
)

func debtBetween(creditor, debtor int, amount, paid string, status string) models.Debt {
	return models.Debt{
		CreditorID: creditor,
		DebtorID:   debtor,
		Amount:     d(amount),
		PaidAmount: d(paid),
		Status:     status,
	}
}

func TestSummarizeBalancesSharedDinnerScenario(t *testing.T) {
	// A fronts a 300.00 dinner split equally across A, B and C, so B and
	// C each owe A 100.00. B then pays 40.00 towards their debt. A nets
	// +160, B -60, C -100 and settling takes two transfers.
	debts := []models.Debt{
		debtBetween(1, 2, "100.00", "40.00", models.DebtStatusPartial),
		debtBetween(1, 3, "100.00", "0.00", models.DebtStatusPending),
	}
	summary := SummarizeBalances(debts)

	require.Len(t, summary.NetPositions, 3)
	assert.Equal(t, 1, summary.NetPositions[0].MemberID)
	assert.True(t, summary.NetPositions[0].Net.Equal(d("160.00")))
	assert.True(t, summary.NetPositions[1].Net.Equal(d("-60.00")))
	assert.True(t, summary.NetPositions[2].Net.Equal(d("-100.00")))

	// Greedy pairing: largest creditor is A, largest debtor is C.
	require.Len(t, summary.SuggestedTransfers, 2)
	assert.Equal(t, SuggestedTransfer{FromMemberID: 3, ToMemberID: 1, Amount: d("100.00")}, summary.SuggestedTransfers[0])
	assert.Equal(t, SuggestedTransfer{FromMemberID: 2, ToMemberID: 1, Amount: d("60.00")}, summary.SuggestedTransfers[1])

	require.Len(t, summary.PairwiseBalances, 2)
	assert.True(t, summary.PairwiseBalances[0].Amount.Equal(d("60.00")))
	assert.True(t, summary.PairwiseBalances[1].Amount.Equal(d("100.00")))
}

func TestSummarizeBalancesIgnoresSettledAndPaidPortions(t *testing.T) {
	debts := []models.Debt{
		debtBetween(1, 2, "100.00", "100.00", models.DebtStatusSettled),
		debtBetween(1, 2, "80.00", "30.00", models.DebtStatusPartial),
		debtBetween(3, 1, "20.00", "20.00", models.DebtStatusSettled),
	}
	summary := SummarizeBalances(debts)

	require.Len(t, summary.NetPositions, 2)
	assert.True(t, summary.NetPositions[0].Net.Equal(d("50.00")))
	assert.True(t, summary.NetPositions[1].Net.Equal(d("-50.00")))

	require.Len(t, summary.PairwiseBalances, 1)
	assert.Equal(t, 2, summary.PairwiseBalances[0].DebtorID)
	assert.Equal(t, 1, summary.PairwiseBalances[0].CreditorID)
	assert.True(t, summary.PairwiseBalances[0].Amount.Equal(d("50.00")))
}

func TestSummarizeBalancesOffsettingDebtsNetToZero(t *testing.T) {
	debts := []models.Debt{
		debtBetween(1, 2, "25.00", "0.00", models.DebtStatusPending),
		debtBetween(2, 1, "25.00", "0.00", models.DebtStatusPending),
	}
	summary := SummarizeBalances(debts)

	for _, p := range summary.NetPositions {
		assert.True(t, p.Net.IsZero())
	}
	assert.Empty(t, summary.SuggestedTransfers)

	// Pairwise totals survive the netting for audit.
	require.Len(t, summary.PairwiseBalances, 2)
}

func TestSummarizeBalancesEmptyAndAllSettled(t *testing.T) {
	assert.Empty(t, SummarizeBalances(nil).SuggestedTransfers)

	summary := SummarizeBalances([]models.Debt{
		debtBetween(1, 2, "10.00", "10.00", models.DebtStatusSettled),
	})
	assert.Empty(t, summary.NetPositions)
	assert.Empty(t, summary.SuggestedTransfers)
	assert.Empty(t, summary.PairwiseBalances)
}

func TestSummarizeBalancesTransferCountIsBounded(t *testing.T) {
	// A chain of debts across six members nets to at most five transfers.
	debts := []models.Debt{
		debtBetween(1, 2, "10.00", "0.00", models.DebtStatusPending),
		debtBetween(2, 3, "20.00", "0.00", models.DebtStatusPending),
		debtBetween(3, 4, "30.00", "0.00", models.DebtStatusPending),
		debtBetween(4, 5, "40.00", "0.00", models.DebtStatusPending),
		debtBetween(5, 6, "50.00", "0.00", models.DebtStatusPending),
	}
	summary := SummarizeBalances(debts)

	nonZero := 0
	for _, p := range summary.NetPositions {
		if !p.Net.IsZero() {
			nonZero++
		}
	}
	assert.LessOrEqual(t, len(summary.SuggestedTransfers), nonZero-1)
}

func TestSummarizeBalancesTransfersReconcileNets(t *testing.T) {
	debts := []models.Debt{
		debtBetween(1, 2, "33.34", "0.00", models.DebtStatusPending),
		debtBetween(1, 3, "33.33", "10.00", models.DebtStatusPartial),
		debtBetween(2, 3, "13.33", "0.00", models.DebtStatusPending),
		debtBetween(4, 1, "5.00", "0.00", models.DebtStatusPending),
		debtBetween(2, 4, "7.77", "0.00", models.DebtStatusPending),
	}
	summary := SummarizeBalances(debts)

	// Applying every suggested transfer must zero every net position.
	remaining := make(map[int]decimal.Decimal)
	for _, p := range summary.NetPositions {
		remaining[p.MemberID] = p.Net
	}
	var positive decimal.Decimal
	for _, p := range summary.NetPositions {
		if p.Net.IsPositive() {
			positive = positive.Add(p.Net)
		}
	}

	var transferred decimal.Decimal
	for _, tr := range summary.SuggestedTransfers {
		require.True(t, tr.Amount.IsPositive())
		remaining[tr.FromMemberID] = remaining[tr.FromMemberID].Add(tr.Amount)
		remaining[tr.ToMemberID] = remaining[tr.ToMemberID].Sub(tr.Amount)
		transferred = transferred.Add(tr.Amount)
	}

	assert.True(t, transferred.Equal(positive), "transferred %s, positive nets %s", transferred, positive)
	for member, net := range remaining {
		assert.Truef(t, net.IsZero(), "member %d left with %s", member, net)
	}
}

func TestSummarizeBalancesGreedyTieBreaksBySmallestID(t *testing.T) {
	// Members 2 and 3 owe member 1 the same amount: the smaller id pays
	// first so the transfer order is stable.
	debts := []models.Debt{
		debtBetween(1, 3, "50.00", "0.00", models.DebtStatusPending),
		debtBetween(1, 2, "50.00", "0.00", models.DebtStatusPending),
	}
	summary := SummarizeBalances(debts)

	require.Len(t, summary.SuggestedTransfers, 2)
	assert.Equal(t, 2, summary.SuggestedTransfers[0].FromMemberID)
	assert.Equal(t, 3, summary.SuggestedTransfers[1].FromMemberID)
}
