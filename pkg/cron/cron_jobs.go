package cron

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"splitledger/internal/models"
	"splitledger/internal/services"
	"splitledger/pkg/utils"
)

func StartCronJob(db *sql.DB) *cron.Cron {
	c := cron.New()

	// Runs every 6 hours — repair paid_amount/status drift from the
	// payment history, which is the ground truth.
	_, err := c.AddFunc("0 */6 * * *", func() {
		err := ReconcileDebtStatuses(db)
		if err != nil {
			utils.Logger.Errorf("Cron job failed to reconcile debt statuses: %v", err)
		}
	})
	if err != nil {
		utils.Logger.Errorf("Failed to schedule debt reconciliation job: %v", err)
	}

	// Runs daily at midnight — send overdue reminders
	_, err = c.AddFunc("0 0 * * *", func() {
		err := SendOverdueRemindersToDebtors(db)
		if err != nil {
			utils.Logger.Errorf("Cron job failed to send reminder emails: %v", err)
		}
	})
	if err != nil {
		utils.Logger.Errorf("Failed to schedule overdue reminder job: %v", err)
	}

	c.Start()
	utils.Logger.Info("Cron jobs started (debt reconciliation every 6h, overdue reminders daily at midnight)")
	return c
}

// -------------------------------------------------------------
// Reconcile each debt's paid_amount and status with its payments
// -------------------------------------------------------------
func ReconcileDebtStatuses(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT d.id, d.amount, d.paid_amount, d.status, COALESCE(SUM(p.amount), 0) AS paid_total
		FROM debts d
		LEFT JOIN debt_payments p ON p.debt_id = d.id
		GROUP BY d.id, d.amount, d.paid_amount, d.status
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type drifted struct {
		id        int
		paidTotal decimal.Decimal
		status    string
	}

	var repairs []drifted
	for rows.Next() {
		var (
			id                            int
			amount, paidAmount, paidTotal decimal.Decimal
			status                        string
		)
		if err := rows.Scan(&id, &amount, &paidAmount, &status, &paidTotal); err != nil {
			utils.Logger.Errorf("Failed to scan debt row: %v", err)
			continue
		}

		expected := services.RecalculateStatus(amount, paidTotal)
		if !paidAmount.Equal(paidTotal) || status != expected {
			repairs = append(repairs, drifted{id: id, paidTotal: paidTotal, status: expected})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, repair := range repairs {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		now := time.Now().Format("2006-01-02 15:04:05")
		var settledAt interface{}
		if repair.status == models.DebtStatusSettled {
			settledAt = now
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE debts SET paid_amount = ?, status = ?, settled_at = COALESCE(settled_at, ?), updated_at = ?
			WHERE id = ?
		`, repair.paidTotal, repair.status, settledAt, now, repair.id)
		if err != nil {
			tx.Rollback()
			utils.Logger.Errorf("Failed to repair debt %d: %v", repair.id, err)
			continue
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		utils.Logger.Warnf("Repaired drifted debt %d: paid_amount=%s status=%s", repair.id, repair.paidTotal, repair.status)
	}

	if len(repairs) > 0 {
		utils.Logger.Infof("Reconciled %d drifted debts", len(repairs))
	}
	return nil
}

// -------------------------------------------------------------
// Send daily reminders to debtors with overdue debts
// -------------------------------------------------------------
func SendOverdueRemindersToDebtors(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT
			u.email,
			u.first_name,
			c.first_name AS creditor_name,
			d.description,
			d.due_date,
			d.amount - d.paid_amount AS outstanding
		FROM debts d
		JOIN users u ON u.id = d.debtor_id
		JOIN users c ON c.id = d.creditor_id
		WHERE d.status != ?
		  AND d.due_date IS NOT NULL
		  AND d.due_date < DATE(NOW())
	`, models.DebtStatusSettled)
	if err != nil {
		return err
	}
	defer rows.Close()

	var wg sync.WaitGroup
	errChan := make(chan error, 10)

	for rows.Next() {
		var (
			email, firstName, creditorName, description string
			dueDateRaw                                  sql.NullString
			outstanding                                 decimal.Decimal
		)

		if err := rows.Scan(&email, &firstName, &creditorName, &description, &dueDateRaw, &outstanding); err != nil {
			utils.Logger.Errorf("Failed to scan debtor row: %v", err)
			continue
		}
		if !outstanding.IsPositive() {
			continue
		}

		dueDate := time.Now()
		if dueDateRaw.Valid {
			if parsed, err := time.Parse("2006-01-02", dueDateRaw.String); err == nil {
				dueDate = parsed
			}
		}

		wg.Add(1)
		go func(email, firstName, creditorName, description string, outstanding decimal.Decimal, dueDate time.Time) {
			defer wg.Done()

			if err := utils.SendDebtOverdueEmail(
				email,
				firstName,
				outstanding.StringFixed(2),
				creditorName,
				description,
				dueDate,
			); err != nil {
				errChan <- fmt.Errorf("failed to send reminder email to %s: %v", email, err)
				return
			}

			utils.Logger.Infof("Sent overdue reminder to %s (%s) for '%s'", firstName, email, description)
		}(email, firstName, creditorName, description, outstanding, dueDate)
	}

	wg.Wait()
	close(errChan)

	for e := range errChan {
		utils.Logger.Error(e)
	}

	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("Error iterating debtor rows: %v", err)
		return err
	}

	utils.Logger.Info("Finished sending overdue reminder emails")
	return nil
}
