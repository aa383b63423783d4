package services

import (
	"context"
	"database/sql"
	"sort"

	"github.com/shopspring/decimal"

	"splitledger/internal/models"
	"splitledger/pkg/utils"
)

// NetPosition is one member's aggregate standing: positive means the
// group owes them, negative means they owe the group.
type NetPosition struct {
	MemberID int             `json:"member_id"`
	Net      decimal.Decimal `json:"net"`
}

// SuggestedTransfer is one settling payment the aggregator proposes. It
// is guidance only; debts are closed by recorded payments, never by the
// suggestion itself.
type SuggestedTransfer struct {
	FromMemberID int             `json:"from_member_id"`
	ToMemberID   int             `json:"to_member_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// PairwiseBalance is the unreduced outstanding total from one debtor to
// one creditor, kept for audit and display.
type PairwiseBalance struct {
	DebtorID   int             `json:"debtor_id"`
	CreditorID int             `json:"creditor_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type BalanceSummary struct {
	NetPositions       []NetPosition       `json:"net_positions"`
	SuggestedTransfers []SuggestedTransfer `json:"suggested_transfers"`
	PairwiseBalances   []PairwiseBalance   `json:"pairwise_balances"`
}

// SummarizeBalances nets a group's open debts into per-member positions
// and a reduced transfer list. Only outstanding value (amount minus paid)
// of non-settled debts counts.
//
// The transfer list comes from greedy matching: repeatedly pair the
// largest creditor with the largest debtor (ties by ascending member id)
// and move the smaller of the two nets. That is not always the
// theoretical minimum transfer count (an NP-hard partition problem), but
// it is deterministic, at most one transfer fewer than the number of
// members with a nonzero net, and computed in one pass over the debts.
func SummarizeBalances(debts []models.Debt) BalanceSummary {
	nets := make(map[int]int64)
	pairs := make(map[[2]int]int64)

	for i := range debts {
		d := &debts[i]
		if d.Status == models.DebtStatusSettled {
			continue
		}
		outstanding := d.Outstanding().Shift(2).IntPart()
		if outstanding <= 0 {
			continue
		}
		nets[d.CreditorID] += outstanding
		nets[d.DebtorID] -= outstanding
		pairs[[2]int{d.DebtorID, d.CreditorID}] += outstanding
	}

	summary := BalanceSummary{
		NetPositions:       make([]NetPosition, 0, len(nets)),
		SuggestedTransfers: []SuggestedTransfer{},
		PairwiseBalances:   make([]PairwiseBalance, 0, len(pairs)),
	}

	for member, net := range nets {
		summary.NetPositions = append(summary.NetPositions, NetPosition{MemberID: member, Net: fromCents(net)})
	}
	sort.Slice(summary.NetPositions, func(i, j int) bool {
		return summary.NetPositions[i].MemberID < summary.NetPositions[j].MemberID
	})

	for pair, amount := range pairs {
		summary.PairwiseBalances = append(summary.PairwiseBalances, PairwiseBalance{
			DebtorID:   pair[0],
			CreditorID: pair[1],
			Amount:     fromCents(amount),
		})
	}
	sort.Slice(summary.PairwiseBalances, func(i, j int) bool {
		a, b := summary.PairwiseBalances[i], summary.PairwiseBalances[j]
		if a.DebtorID != b.DebtorID {
			return a.DebtorID < b.DebtorID
		}
		return a.CreditorID < b.CreditorID
	})

	creditors := make(map[int]int64)
	debtors := make(map[int]int64)
	for member, net := range nets {
		switch {
		case net > 0:
			creditors[member] = net
		case net < 0:
			debtors[member] = -net
		}
	}

	for len(creditors) > 0 && len(debtors) > 0 {
		creditor := pickLargest(creditors)
		debtor := pickLargest(debtors)

		amount := creditors[creditor]
		if debtors[debtor] < amount {
			amount = debtors[debtor]
		}

		summary.SuggestedTransfers = append(summary.SuggestedTransfers, SuggestedTransfer{
			FromMemberID: debtor,
			ToMemberID:   creditor,
			Amount:       fromCents(amount),
		})

		creditors[creditor] -= amount
		debtors[debtor] -= amount
		if creditors[creditor] == 0 {
			delete(creditors, creditor)
		}
		if debtors[debtor] == 0 {
			delete(debtors, debtor)
		}
	}

	return summary
}

// pickLargest returns the member with the largest balance, smallest
// member id on ties.
func pickLargest(balances map[int]int64) int {
	best := -1
	var bestAmount int64
	for member, amount := range balances {
		if amount > bestAmount || (amount == bestAmount && (best == -1 || member < best)) {
			best = member
			bestAmount = amount
		}
	}
	return best
}

// GroupBalanceSummary loads the group's open debts in a single query (a
// point-in-time snapshot, no locks) and nets them.
func GroupBalanceSummary(ctx context.Context, db *sql.DB, groupID int) (BalanceSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, creditor_id, debtor_id, group_id, shared_expense_id, description,
		       amount, paid_amount, status, due_date, settled_at, created_at, updated_at
		FROM debts
		WHERE group_id = ? AND status != ?
	`, groupID, models.DebtStatusSettled)
	if err != nil {
		return BalanceSummary{}, utils.ErrorHandler(err, "failed to load group debts")
	}
	defer rows.Close()

	var debts []models.Debt
	for rows.Next() {
		var d models.Debt
		if err := rows.Scan(&d.ID, &d.CreditorID, &d.DebtorID, &d.GroupID, &d.SharedExpenseID,
			&d.Description, &d.Amount, &d.PaidAmount, &d.Status, &d.DueDate,
			&d.SettledAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return BalanceSummary{}, utils.ErrorHandler(err, "failed to scan debt")
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return BalanceSummary{}, utils.ErrorHandler(err, "failed to iterate debts")
	}

	return SummarizeBalances(debts), nil
}
