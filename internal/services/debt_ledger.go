package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"splitledger/internal/models"
	"splitledger/pkg/utils"
)

// CreateSharedExpenseInput carries everything needed to materialize one
// shared expense: the external expense reference (amount and date are a
// read-only copy from the transaction subsystem), the group, the payer,
// the split method and its per-member inputs.
type CreateSharedExpenseInput struct {
	ExpenseRef  string
	GroupID     int
	PaidBy      int
	Amount      decimal.Decimal
	ExpenseDate string
	SplitMethod string
	Notes       string
	DueDate     string
	Inputs      []SplitInput
}

const mysqlErrDuplicateEntry = 1062

// CreateSharedExpense computes the splits and persists the expense, its
// splits and the derived debts in one transaction. Every split whose
// member is not the payer and whose share is positive becomes a PENDING
// debt owed to the payer.
//
// The external expense reference is the idempotency key: if splits
// already exist for it, the existing rows are returned unchanged so
// client retries are safe.
func CreateSharedExpense(ctx context.Context, db *sql.DB, in CreateSharedExpenseInput) (*models.SharedExpense, []models.SharedExpenseSplit, bool, error) {
	if in.ExpenseRef == "" {
		return nil, nil, false, fmt.Errorf("%w: expense reference is required", ErrInvalidAmount)
	}

	members, err := groupMemberSet(ctx, db, in.GroupID)
	if err != nil {
		return nil, nil, false, err
	}
	if !members[in.PaidBy] {
		return nil, nil, false, fmt.Errorf("%w: payer %d is not in group %d", ErrNotGroupMember, in.PaidBy, in.GroupID)
	}
	for _, target := range in.Inputs {
		if !members[target.MemberID] {
			return nil, nil, false, fmt.Errorf("%w: member %d is not in group %d", ErrNotGroupMember, target.MemberID, in.GroupID)
		}
	}

	shares, err := ComputeSplit(in.Amount, in.SplitMethod, in.Inputs)
	if err != nil {
		return nil, nil, false, err
	}

	// Defense in depth before any debt is written: the shares must
	// reconcile with the expense amount exactly.
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	if !sum.Equal(in.Amount) {
		return nil, nil, false, fmt.Errorf("%w: splits sum to %s, expected %s", ErrInvalidSplitState, sum, in.Amount)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, false, utils.ErrorHandler(err, "failed to start transaction")
	}
	defer tx.Rollback()

	now := time.Now().Format("2006-01-02 15:04:05")
	res, err := tx.ExecContext(ctx, `
		INSERT INTO shared_expenses (expense_ref, group_id, paid_by, amount, expense_date, split_method, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, in.ExpenseRef, in.GroupID, in.PaidBy, in.Amount, nullString(in.ExpenseDate), in.SplitMethod, in.Notes, now)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			// A concurrent or earlier call already created the splits for
			// this expense reference; hand back the existing rows.
			tx.Rollback()
			expense, splits, loadErr := loadSharedExpenseByRef(ctx, db, in.ExpenseRef)
			if loadErr != nil {
				return nil, nil, false, loadErr
			}
			return expense, splits, false, nil
		}
		return nil, nil, false, utils.ErrorHandler(err, "failed to insert shared expense")
	}

	expenseID, err := res.LastInsertId()
	if err != nil {
		return nil, nil, false, utils.ErrorHandler(err, "failed to read shared expense id")
	}

	splitStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shared_expense_splits (shared_expense_id, member_id, amount, is_settled, created_at)
		VALUES (?, ?, ?, FALSE, ?)
	`)
	if err != nil {
		return nil, nil, false, utils.ErrorHandler(err, "failed to prepare split insert")
	}
	defer splitStmt.Close()

	description := in.Notes
	if description == "" {
		description = in.ExpenseRef
	}
	splits := make([]models.SharedExpenseSplit, 0, len(shares))
	for _, share := range shares {
		splitRes, err := splitStmt.ExecContext(ctx, expenseID, share.MemberID, share.Amount, now)
		if err != nil {
			return nil, nil, false, utils.ErrorHandler(err, "failed to insert split")
		}
		splitID, _ := splitRes.LastInsertId()
		splits = append(splits, models.SharedExpenseSplit{
			ID:              int(splitID),
			SharedExpenseID: int(expenseID),
			MemberID:        share.MemberID,
			Amount:          share.Amount,
		})

		// The payer's own share is recorded but never becomes a debt.
		if share.MemberID == in.PaidBy || share.Amount.IsZero() {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO debts (creditor_id, debtor_id, group_id, shared_expense_id, description, amount, paid_amount, status, due_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)
		`, in.PaidBy, share.MemberID, in.GroupID, expenseID,
			fmt.Sprintf("Split for: %s", description), share.Amount,
			models.DebtStatusPending, nullString(in.DueDate), now, now)
		if err != nil {
			return nil, nil, false, utils.ErrorHandler(err, "failed to insert debt")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, false, utils.ErrorHandler(err, "failed to commit shared expense")
	}

	expense := &models.SharedExpense{
		ID:          int(expenseID),
		ExpenseRef:  in.ExpenseRef,
		GroupID:     in.GroupID,
		PaidBy:      in.PaidBy,
		Amount:      in.Amount,
		SplitMethod: in.SplitMethod,
		Notes:       in.Notes,
	}
	if in.ExpenseDate != "" {
		expense.ExpenseDate = sql.NullString{String: in.ExpenseDate, Valid: true}
	}
	return expense, splits, true, nil
}

// DeleteSharedExpense removes a shared expense with its splits and
// derived debts. It is rejected while any derived debt has recorded
// payments: deleting paid history would corrupt the audit trail.
func DeleteSharedExpense(ctx context.Context, db *sql.DB, expenseID int) error {
	var paidCount int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM debts
		WHERE shared_expense_id = ? AND paid_amount > 0
	`, expenseID).Scan(&paidCount)
	if err != nil {
		return utils.ErrorHandler(err, "failed to check debt payment history")
	}
	if paidCount > 0 {
		return fmt.Errorf("%w: %d debt(s) derived from expense %d have payments",
			ErrDeletionConflict, paidCount, expenseID)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return utils.ErrorHandler(err, "failed to start transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE shared_expense_id = ? AND paid_amount = 0", expenseID); err != nil {
		return utils.ErrorHandler(err, "failed to delete derived debts")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM shared_expense_splits WHERE shared_expense_id = ?", expenseID); err != nil {
		return utils.ErrorHandler(err, "failed to delete splits")
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM shared_expenses WHERE id = ?", expenseID)
	if err != nil {
		return utils.ErrorHandler(err, "failed to delete shared expense")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// RecalculateStatus is the status projection of paid vs total: the
// payment ledger stays the ground truth and this is recomputed on every
// mutation rather than trusted from storage.
func RecalculateStatus(amount, paid decimal.Decimal) string {
	switch {
	case paid.IsZero():
		return models.DebtStatusPending
	case paid.LessThan(amount):
		return models.DebtStatusPartial
	default:
		return models.DebtStatusSettled
	}
}

func groupMemberSet(ctx context.Context, db *sql.DB, groupID int) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT user_id FROM group_members WHERE group_id = ?", groupID)
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to fetch group members")
	}
	defer rows.Close()

	members := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, utils.ErrorHandler(err, "failed to scan group member")
		}
		members[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, utils.ErrorHandler(err, "failed to iterate group members")
	}
	return members, nil
}

func loadSharedExpenseByRef(ctx context.Context, db *sql.DB, expenseRef string) (*models.SharedExpense, []models.SharedExpenseSplit, error) {
	expense := &models.SharedExpense{}
	err := db.QueryRowContext(ctx, `
		SELECT id, expense_ref, group_id, paid_by, amount, expense_date, split_method, notes, created_at
		FROM shared_expenses WHERE expense_ref = ?
	`, expenseRef).Scan(&expense.ID, &expense.ExpenseRef, &expense.GroupID, &expense.PaidBy,
		&expense.Amount, &expense.ExpenseDate, &expense.SplitMethod, &expense.Notes, &expense.CreatedAt)
	if err != nil {
		return nil, nil, utils.ErrorHandler(err, "failed to load shared expense")
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, shared_expense_id, member_id, amount, is_settled, created_at
		FROM shared_expense_splits WHERE shared_expense_id = ? ORDER BY member_id
	`, expense.ID)
	if err != nil {
		return nil, nil, utils.ErrorHandler(err, "failed to load splits")
	}
	defer rows.Close()

	var splits []models.SharedExpenseSplit
	for rows.Next() {
		var s models.SharedExpenseSplit
		if err := rows.Scan(&s.ID, &s.SharedExpenseID, &s.MemberID, &s.Amount, &s.IsSettled, &s.CreatedAt); err != nil {
			return nil, nil, utils.ErrorHandler(err, "failed to scan split")
		}
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, utils.ErrorHandler(err, "failed to iterate splits")
	}
	return expense, splits, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
