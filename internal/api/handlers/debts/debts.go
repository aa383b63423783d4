package debts

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"splitledger/internal/api/handlers"
	"splitledger/internal/models"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/internal/services"
	"splitledger/pkg/utils"
)

type debtView struct {
	models.Debt
	EffectiveStatus string `json:"effective_status"`
}

func scanDebts(rows *sql.Rows) ([]debtView, error) {
	now := time.Now()
	debts := make([]debtView, 0)
	for rows.Next() {
		var d models.Debt
		if err := rows.Scan(&d.ID, &d.CreditorID, &d.DebtorID, &d.GroupID, &d.SharedExpenseID,
			&d.Description, &d.Amount, &d.PaidAmount, &d.Status, &d.DueDate,
			&d.SettledAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		debts = append(debts, debtView{Debt: d, EffectiveStatus: d.EffectiveStatus(now)})
	}
	return debts, rows.Err()
}

const debtColumns = `id, creditor_id, debtor_id, group_id, shared_expense_id, description,
	amount, paid_amount, status, due_date, settled_at, created_at, updated_at`

func listDebtsHandler(w http.ResponseWriter, r *http.Request, column string) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	rows, err := db.Query(`
		SELECT `+debtColumns+`
		FROM debts WHERE `+column+` = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		utils.Logger.Errorf("error fetching debts: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	debts, err := scanDebts(rows)
	if err != nil {
		utils.Logger.Errorf("error scanning debts: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	response := struct {
		Status string     `json:"status"`
		Count  int        `json:"count"`
		Data   []debtView `json:"data"`
	}{
		Status: "success",
		Count:  len(debts),
		Data:   debts,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// FUNC TO LIST DEBTS THE LOGGED-IN USER OWES
func GetMyDebtsHandler(w http.ResponseWriter, r *http.Request) {
	listDebtsHandler(w, r, "debtor_id")
}

// FUNC TO LIST DEBTS OWED TO THE LOGGED-IN USER
func GetOwedToMeHandler(w http.ResponseWriter, r *http.Request) {
	listDebtsHandler(w, r, "creditor_id")
}

// FUNC TO GET ONE DEBT WITH ITS PAYMENT HISTORY
func GetDebtByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	debtID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid debt ID", http.StatusBadRequest)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var d models.Debt
	err = db.QueryRow(`
		SELECT `+debtColumns+`
		FROM debts WHERE id = ?
	`, debtID).Scan(&d.ID, &d.CreditorID, &d.DebtorID, &d.GroupID, &d.SharedExpenseID,
		&d.Description, &d.Amount, &d.PaidAmount, &d.Status, &d.DueDate,
		&d.SettledAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "debt not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("error fetching debt: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if userID != d.CreditorID && userID != d.DebtorID {
		utils.WriteError(w, "forbidden: you are not a party to this debt", http.StatusForbidden)
		return
	}

	rows, err := db.Query(`
		SELECT id, debt_id, amount, payment_method, reference, notes, created_at
		FROM debt_payments WHERE debt_id = ?
		ORDER BY id
	`, debtID)
	if err != nil {
		utils.Logger.Errorf("error fetching payments: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	payments := make([]models.DebtPayment, 0)
	for rows.Next() {
		var p models.DebtPayment
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.PaymentMethod, &p.Reference, &p.Notes, &p.CreatedAt); err != nil {
			utils.Logger.Errorf("error scanning payment: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("error iterating payments: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"debt":            debtView{Debt: d, EffectiveStatus: d.EffectiveStatus(time.Now())},
			"outstanding":     d.Outstanding(),
			"payment_history": payments,
		},
	})
}

// FUNC TO CREATE A MANUAL DEBT
func CreateDebtHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type request struct {
		DebtorID    int             `json:"debtor_id"`
		GroupID     int             `json:"group_id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		DueDate     string          `json:"due_date"`
	}

	var req request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.DebtorID <= 0 || req.Description == "" {
		utils.WriteError(w, "debtor_id and description are required", http.StatusBadRequest)
		return
	}

	debt := &models.Debt{
		CreditorID:  userID,
		DebtorID:    req.DebtorID,
		Description: req.Description,
		Amount:      req.Amount,
	}
	if req.GroupID > 0 {
		debt.GroupID = sql.NullInt64{Int64: int64(req.GroupID), Valid: true}
	}
	if req.DueDate != "" {
		if _, err := time.Parse("2006-01-02", req.DueDate); err != nil {
			utils.WriteError(w, "due_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		debt.DueDate = sql.NullString{String: req.DueDate, Valid: true}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := services.CreateDebt(ctx, db, debt)
	if err != nil {
		handlers.WriteLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "debt recorded successfully",
		"data":    created,
	})
}

// FUNC TO RECORD A PAYMENT AGAINST A DEBT
func AddDebtPaymentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	debtID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid debt ID", http.StatusBadRequest)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type request struct {
		Amount    decimal.Decimal `json:"amount"`
		Method    string          `json:"method"`
		Reference string          `json:"reference"`
		Notes     string          `json:"notes"`
	}

	var req request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var debtorID, creditorID int
	err = db.QueryRowContext(ctx, "SELECT debtor_id, creditor_id FROM debts WHERE id = ?", debtID).Scan(&debtorID, &creditorID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "debt not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if userID != debtorID && userID != creditorID {
		utils.WriteError(w, "forbidden: you are not a party to this debt", http.StatusForbidden)
		return
	}

	debt, err := services.AddPayment(ctx, db, debtID, services.PaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		handlers.WriteLedgerError(w, err)
		return
	}

	notifyPaymentRecorded(db, debt, req.Amount)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "payment recorded successfully",
		"data":    debtView{Debt: *debt, EffectiveStatus: debt.EffectiveStatus(time.Now())},
	})
}

// FUNC TO SETTLE A DEBT IN FULL
func SettleDebtHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	debtID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid debt ID", http.StatusBadRequest)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type request struct {
		Notes string `json:"notes"`
	}

	var req request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && err != io.EOF {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var debtorID, creditorID int
	err = db.QueryRowContext(ctx, "SELECT debtor_id, creditor_id FROM debts WHERE id = ?", debtID).Scan(&debtorID, &creditorID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "debt not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if userID != debtorID && userID != creditorID {
		utils.WriteError(w, "forbidden: you are not a party to this debt", http.StatusForbidden)
		return
	}

	before := decimal.Zero
	_ = db.QueryRowContext(ctx, "SELECT paid_amount FROM debts WHERE id = ?", debtID).Scan(&before)

	debt, err := services.SettleInFull(ctx, db, debtID, req.Notes)
	if err != nil {
		handlers.WriteLedgerError(w, err)
		return
	}

	if debt.PaidAmount.GreaterThan(before) {
		notifyPaymentRecorded(db, debt, debt.PaidAmount.Sub(before))
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "debt settled successfully",
		"data":    debtView{Debt: *debt, EffectiveStatus: debt.EffectiveStatus(time.Now())},
	})
}

// notifyPaymentRecorded emails the creditor about the payment, and the
// debtor when it closed the debt. Failures are logged, never surfaced.
func notifyPaymentRecorded(db *sql.DB, debt *models.Debt, amount decimal.Decimal) {
	var creditorEmail, debtorEmail, debtorFirst, debtorLast, creditorFirst string
	err := db.QueryRow(`
		SELECT c.email, c.first_name, d.email, d.first_name, d.last_name
		FROM debts dt
		JOIN users c ON c.id = dt.creditor_id
		JOIN users d ON d.id = dt.debtor_id
		WHERE dt.id = ?
	`, debt.ID).Scan(&creditorEmail, &creditorFirst, &debtorEmail, &debtorFirst, &debtorLast)
	if err != nil {
		utils.Logger.Errorf("failed to load notification recipients for debt %d: %v", debt.ID, err)
		return
	}

	groupName := "a personal debt"
	if debt.GroupID.Valid {
		if err := db.QueryRow("SELECT name FROM groups WHERE id = ?", debt.GroupID.Int64).Scan(&groupName); err != nil {
			utils.Logger.Warnf("failed to load group name for debt %d: %v", debt.ID, err)
		}
	}

	payerName := debtorFirst + " " + debtorLast
	settled := debt.Status == models.DebtStatusSettled

	go func(debtID int, amount string) {
		if err := utils.SendPaymentReceivedEmail(creditorEmail, payerName, amount, groupName, debtID, time.Now()); err != nil {
			utils.Logger.Errorf("failed to send payment email to %s: %v", creditorEmail, err)
		}
	}(debt.ID, amount.StringFixed(2))

	if settled {
		go func(debtID int, amount string) {
			if err := utils.SendDebtSettledEmail(debtorEmail, debtorFirst, amount, creditorFirst, debtID, time.Now()); err != nil {
				utils.Logger.Errorf("failed to send settlement email to %s: %v", debtorEmail, err)
			}
		}(debt.ID, debt.Amount.StringFixed(2))
	}
}
