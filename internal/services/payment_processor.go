package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"splitledger/internal/models"
	"splitledger/pkg/utils"
)

// PaymentInput describes one payment against a debt. Method defaults to
// CASH and Reference is generated when absent.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	Notes     string
}

// ApplyPayment validates a payment against the debt and mutates paid
// amount and status in memory. It is the whole check-then-act step, so
// callers must hold the debt row locked while invoking it.
func ApplyPayment(debt *models.Debt, amount decimal.Decimal) error {
	if _, err := positiveCents(amount); err != nil {
		return err
	}
	outstanding := debt.Outstanding()
	if amount.GreaterThan(outstanding) {
		return fmt.Errorf("%w: payment of %s exceeds outstanding %s on debt %d",
			ErrOverpayment, amount, outstanding, debt.ID)
	}
	debt.PaidAmount = debt.PaidAmount.Add(amount)
	debt.Status = RecalculateStatus(debt.Amount, debt.PaidAmount)
	return nil
}

// AddPayment records a payment against a debt: it appends a DebtPayment
// row, bumps paid_amount and recalculates the status, all inside one
// transaction with the debt row locked so two concurrent payments cannot
// jointly overpay.
func AddPayment(ctx context.Context, db *sql.DB, debtID int, in PaymentInput) (*models.Debt, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to start transaction")
	}
	defer tx.Rollback()

	debt, err := getDebtForUpdate(ctx, tx, debtID)
	if err != nil {
		return nil, err
	}

	if err := recordPayment(ctx, tx, debt, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, utils.ErrorHandler(err, "failed to commit payment")
	}
	return debt, nil
}

// SettleInFull pays off whatever is outstanding on the debt. Settling an
// already-settled debt is a no-op that returns the current state, so
// retries never produce duplicate payment rows.
func SettleInFull(ctx context.Context, db *sql.DB, debtID int, notes string) (*models.Debt, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to start transaction")
	}
	defer tx.Rollback()

	debt, err := getDebtForUpdate(ctx, tx, debtID)
	if err != nil {
		return nil, err
	}
	if debt.Status == models.DebtStatusSettled {
		return debt, nil
	}

	in := PaymentInput{Amount: debt.Outstanding(), Notes: notes}
	if err := recordPayment(ctx, tx, debt, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, utils.ErrorHandler(err, "failed to commit settlement")
	}
	return debt, nil
}

// recordPayment applies the payment to the locked debt row and persists
// both sides: the append-only debt_payments row and the recomputed debt.
func recordPayment(ctx context.Context, tx *sql.Tx, debt *models.Debt, in PaymentInput) error {
	if err := ApplyPayment(debt, in.Amount); err != nil {
		return err
	}

	method := in.Method
	if method == "" {
		method = "CASH"
	}
	reference := in.Reference
	if reference == "" {
		reference = GenerateReference("pay-")
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	_, err := tx.ExecContext(ctx, `
		INSERT INTO debt_payments (debt_id, amount, payment_method, reference, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, debt.ID, in.Amount, method, reference, in.Notes, now)
	if err != nil {
		return utils.ErrorHandler(err, "failed to insert debt payment")
	}

	var settledAt interface{}
	if debt.Status == models.DebtStatusSettled {
		settledAt = now
		debt.SettledAt = sql.NullString{String: now, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE debts SET paid_amount = ?, status = ?, settled_at = COALESCE(?, settled_at), updated_at = ?
		WHERE id = ?
	`, debt.PaidAmount, debt.Status, settledAt, now, debt.ID)
	if err != nil {
		return utils.ErrorHandler(err, "failed to update debt")
	}
	debt.UpdatedAt = sql.NullString{String: now, Valid: true}

	// Splits derived into this debt follow it to settled.
	if debt.Status == models.DebtStatusSettled && debt.SharedExpenseID.Valid {
		_, err = tx.ExecContext(ctx, `
			UPDATE shared_expense_splits SET is_settled = TRUE
			WHERE shared_expense_id = ? AND member_id = ?
		`, debt.SharedExpenseID.Int64, debt.DebtorID)
		if err != nil {
			return utils.ErrorHandler(err, "failed to mark split settled")
		}
	}
	return nil
}

// getDebtForUpdate reads a debt inside the transaction with a row lock,
// serializing all mutations on the same debt id.
func getDebtForUpdate(ctx context.Context, tx *sql.Tx, debtID int) (*models.Debt, error) {
	debt := &models.Debt{}
	err := tx.QueryRowContext(ctx, `
		SELECT id, creditor_id, debtor_id, group_id, shared_expense_id, description,
		       amount, paid_amount, status, due_date, settled_at, created_at, updated_at
		FROM debts WHERE id = ? FOR UPDATE
	`, debtID).Scan(&debt.ID, &debt.CreditorID, &debt.DebtorID, &debt.GroupID, &debt.SharedExpenseID,
		&debt.Description, &debt.Amount, &debt.PaidAmount, &debt.Status, &debt.DueDate,
		&debt.SettledAt, &debt.CreatedAt, &debt.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to load debt")
	}
	return debt, nil
}

// CreateDebt records a manually created debt with no originating split.
func CreateDebt(ctx context.Context, db *sql.DB, debt *models.Debt) (*models.Debt, error) {
	if _, err := positiveCents(debt.Amount); err != nil {
		return nil, err
	}
	if debt.CreditorID == debt.DebtorID {
		return nil, fmt.Errorf("%w: creditor and debtor must differ", ErrInvalidAmount)
	}
	if debt.GroupID.Valid {
		members, err := groupMemberSet(ctx, db, int(debt.GroupID.Int64))
		if err != nil {
			return nil, err
		}
		if !members[debt.CreditorID] || !members[debt.DebtorID] {
			return nil, fmt.Errorf("%w: creditor and debtor must both be in group %d",
				ErrNotGroupMember, debt.GroupID.Int64)
		}
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	res, err := db.ExecContext(ctx, `
		INSERT INTO debts (creditor_id, debtor_id, group_id, shared_expense_id, description, amount, paid_amount, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, NULL, ?, ?, 0, ?, ?, ?, ?)
	`, debt.CreditorID, debt.DebtorID, debt.GroupID, debt.Description, debt.Amount,
		models.DebtStatusPending, debt.DueDate, now, now)
	if err != nil {
		return nil, utils.ErrorHandler(err, "failed to insert debt")
	}
	id, _ := res.LastInsertId()
	debt.ID = int(id)
	debt.PaidAmount = decimal.Zero
	debt.Status = models.DebtStatusPending
	debt.CreatedAt = sql.NullString{String: now, Valid: true}
	debt.UpdatedAt = sql.NullString{String: now, Valid: true}
	return debt, nil
}
