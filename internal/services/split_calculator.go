package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"splitledger/internal/models"
)

// SplitInput carries one target member plus the method-specific value:
// Amount for EXACT, Percent for PERCENTAGE, Shares for SHARES. EQUAL uses
// only the member id.
type SplitInput struct {
	MemberID int             `json:"member_id"`
	Amount   decimal.Decimal `json:"amount,omitempty"`
	Percent  decimal.Decimal `json:"percent,omitempty"`
	Shares   int64           `json:"shares,omitempty"`
}

// SplitShare is one member's computed share of an expense.
type SplitShare struct {
	MemberID int             `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// ComputeSplit turns an expense amount, a split method and the per-member
// inputs into shares that sum to the amount exactly. It is a pure
// function; persisting the shares is the caller's job.
//
// Rounding remainders are distributed by the largest-remainder method,
// ties broken by ascending member id, so results are reproducible.
func ComputeSplit(amount decimal.Decimal, method string, inputs []SplitInput) ([]SplitShare, error) {
	total, err := positiveCents(amount)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one member is required", ErrInvalidAmount)
	}

	sorted := make([]SplitInput, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MemberID < sorted[j].MemberID })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].MemberID == sorted[i-1].MemberID {
			return nil, fmt.Errorf("%w: member %d appears more than once", ErrInvalidAmount, sorted[i].MemberID)
		}
	}

	var shares []SplitShare
	switch method {
	case models.SplitMethodEqual:
		shares, err = equalSplit(total, sorted)
	case models.SplitMethodExact:
		shares, err = exactSplit(total, sorted)
	case models.SplitMethodPercentage:
		shares, err = percentageSplit(total, sorted)
	case models.SplitMethodShares:
		shares, err = sharesSplit(total, sorted)
	default:
		return nil, fmt.Errorf("unsupported split method %q", method)
	}
	if err != nil {
		return nil, err
	}

	// Exact-sum invariant, checked unconditionally: a violation here is an
	// engine bug, not caller input.
	var sum int64
	for _, s := range shares {
		c, cErr := toCents(s.Amount)
		if cErr != nil {
			return nil, fmt.Errorf("%w: computed share %s", ErrInvalidSplitState, s.Amount)
		}
		sum += c
	}
	if sum != total {
		return nil, fmt.Errorf("%w: shares sum to %s, expected %s",
			ErrInvalidSplitState, fromCents(sum), fromCents(total))
	}
	return shares, nil
}

// equalSplit divides total cents evenly; the first total%n members in
// ascending id order absorb one extra cent each.
func equalSplit(total int64, inputs []SplitInput) ([]SplitShare, error) {
	n := int64(len(inputs))
	base := total / n
	remainder := total % n

	shares := make([]SplitShare, len(inputs))
	for i, in := range inputs {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		shares[i] = SplitShare{MemberID: in.MemberID, Amount: fromCents(cents)}
	}
	return shares, nil
}

// exactSplit takes caller-provided amounts verbatim and rejects any sum
// mismatch. Zero shares are allowed; negative ones are not.
func exactSplit(total int64, inputs []SplitInput) ([]SplitShare, error) {
	shares := make([]SplitShare, len(inputs))
	var sum int64
	for i, in := range inputs {
		cents, err := toCents(in.Amount)
		if err != nil {
			return nil, err
		}
		if cents < 0 {
			return nil, fmt.Errorf("%w: share for member %d is negative", ErrInvalidAmount, in.MemberID)
		}
		sum += cents
		shares[i] = SplitShare{MemberID: in.MemberID, Amount: fromCents(cents)}
	}
	if sum != total {
		return nil, fmt.Errorf("%w: splits sum to %s, expected %s",
			ErrSplitMismatch, fromCents(sum), fromCents(total))
	}
	return shares, nil
}

// percentageSplit requires the percentages to sum to exactly 100.00.
// Each share is total*pct/100 floored to cents; leftover cents go to the
// largest fractional remainders.
func percentageSplit(total int64, inputs []SplitInput) ([]SplitShare, error) {
	weights := make([]int64, len(inputs))
	var pctSum int64
	for i, in := range inputs {
		// Percentages carry at most two decimal places, like money.
		bp, err := toCents(in.Percent)
		if err != nil {
			return nil, fmt.Errorf("%w: percentage for member %d", ErrInvalidAmount, in.MemberID)
		}
		if bp < 0 {
			return nil, fmt.Errorf("%w: percentage for member %d is negative", ErrInvalidAmount, in.MemberID)
		}
		weights[i] = bp
		pctSum += bp
	}
	if pctSum != 10000 {
		return nil, fmt.Errorf("%w: percentages sum to %s, expected 100.00",
			ErrSplitMismatch, fromCents(pctSum))
	}
	return apportion(total, pctSum, weights, inputs), nil
}

// sharesSplit allocates total cents proportionally to integer share
// weights, floor first, then largest remainder.
func sharesSplit(total int64, inputs []SplitInput) ([]SplitShare, error) {
	weights := make([]int64, len(inputs))
	var totalShares int64
	for i, in := range inputs {
		if in.Shares < 0 {
			return nil, fmt.Errorf("%w: share weight for member %d is negative", ErrInvalidAmount, in.MemberID)
		}
		weights[i] = in.Shares
		totalShares += in.Shares
	}
	if totalShares == 0 {
		return nil, fmt.Errorf("%w: share weights sum to 0", ErrInvalidAmount)
	}
	return apportion(total, totalShares, weights, inputs), nil
}

// apportion implements largest-remainder apportionment: floor(total*w/W)
// cents per member, then one leftover cent at a time to the largest
// fractional remainder, ties by ascending member id. inputs must already
// be sorted by member id.
func apportion(total, weightSum int64, weights []int64, inputs []SplitInput) []SplitShare {
	type allocation struct {
		index     int
		cents     int64
		remainder int64
	}

	allocs := make([]allocation, len(inputs))
	var allocated int64
	for i, w := range weights {
		raw := total * w
		allocs[i] = allocation{index: i, cents: raw / weightSum, remainder: raw % weightSum}
		allocated += allocs[i].cents
	}

	// Stable sort keeps ascending member id within equal remainders.
	order := make([]allocation, len(allocs))
	copy(order, allocs)
	sort.SliceStable(order, func(i, j int) bool { return order[i].remainder > order[j].remainder })

	leftover := total - allocated
	for i := int64(0); i < leftover; i++ {
		allocs[order[i].index].cents++
	}

	shares := make([]SplitShare, len(inputs))
	for i, a := range allocs {
		shares[i] = SplitShare{MemberID: inputs[i].MemberID, Amount: fromCents(a.cents)}
	}
	return shares
}
