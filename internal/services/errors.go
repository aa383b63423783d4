package services

import "errors"

// Engine error kinds. Callers match them with errors.Is and map them to
// HTTP statuses; messages carry the violated invariant.
var (
	// ErrInvalidAmount is returned for non-positive or malformed monetary input.
	ErrInvalidAmount = errors.New("invalid monetary amount")

	// ErrSplitMismatch is returned when caller-provided shares do not sum to
	// the expense amount. The engine never auto-corrects.
	ErrSplitMismatch = errors.New("splits do not sum to the expense amount")

	// ErrOverpayment is returned when a payment exceeds a debt's outstanding balance.
	ErrOverpayment = errors.New("payment exceeds outstanding balance")

	// ErrNotGroupMember is returned when the payer or a target member is
	// outside the expense group.
	ErrNotGroupMember = errors.New("not a member of the group")

	// ErrInvalidSplitState indicates persisted splits that violate the
	// exact-sum invariant. It points at a prior bug, never at caller input.
	ErrInvalidSplitState = errors.New("splits are inconsistent with the expense amount")

	// ErrDeletionConflict is returned when deleting a shared expense or debt
	// that already has recorded payments.
	ErrDeletionConflict = errors.New("record has payment history and cannot be deleted")
)
