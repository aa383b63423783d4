package groups

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"splitledger/internal/api/handlers"
	"splitledger/internal/models"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/internal/services"
	"splitledger/pkg/utils"
)

type sharedExpenseRequest struct {
	ExpenseRef  string                `json:"expense_ref"`
	GroupID     int                   `json:"group_id"`
	PaidBy      int                   `json:"paid_by"`
	Amount      decimal.Decimal       `json:"amount"`
	ExpenseDate string                `json:"expense_date"`
	SplitMethod string                `json:"split_method"`
	Notes       string                `json:"notes"`
	DueDate     string                `json:"due_date"`
	Splits      []services.SplitInput `json:"splits"`
}

// FUNC TO CREATE A SHARED EXPENSE AND ITS SPLITS
func CreateSharedExpenseHandler(w http.ResponseWriter, r *http.Request) {
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

	var req sharedExpenseRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.GroupID <= 0 {
		utils.WriteError(w, "group_id is required", http.StatusBadRequest)
		return
	}
	req.SplitMethod = strings.ToUpper(strings.TrimSpace(req.SplitMethod))
	if req.PaidBy == 0 {
		req.PaidBy = userID
	}
	if req.ExpenseRef == "" {
		req.ExpenseRef = services.GenerateReference("exp-")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var isMember bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)
	`, req.GroupID, userID).Scan(&isMember)
	if err != nil {
		utils.Logger.Errorf("error checking access: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !isMember {
		utils.WriteError(w, "forbidden: you are not a member of this group", http.StatusForbidden)
		return
	}

	expense, splits, created, err := services.CreateSharedExpense(ctx, db, services.CreateSharedExpenseInput{
		ExpenseRef:  req.ExpenseRef,
		GroupID:     req.GroupID,
		PaidBy:      req.PaidBy,
		Amount:      req.Amount,
		ExpenseDate: req.ExpenseDate,
		SplitMethod: req.SplitMethod,
		Notes:       req.Notes,
		DueDate:     req.DueDate,
		Inputs:      req.Splits,
	})
	if err != nil {
		handlers.WriteLedgerError(w, err)
		return
	}

	status := http.StatusCreated
	message := "shared expense created successfully"
	if !created {
		status = http.StatusOK
		message = "shared expense already exists for this reference"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": message,
		"data": map[string]interface{}{
			"expense": expense,
			"splits":  splits,
		},
	})
}

// FUNC TO PREVIEW A SPLIT WITHOUT PERSISTING ANYTHING
func PreviewSplitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	type previewRequest struct {
		Amount      decimal.Decimal       `json:"amount"`
		SplitMethod string                `json:"split_method"`
		Splits      []services.SplitInput `json:"splits"`
	}

	var req previewRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	shares, err := services.ComputeSplit(req.Amount, strings.ToUpper(strings.TrimSpace(req.SplitMethod)), req.Splits)
	if err != nil {
		handlers.WriteLedgerError(w, err)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data":   shares,
	})
}

// FUNC TO GET ONE SHARED EXPENSE WITH ITS SPLITS
func GetSharedExpenseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	expenseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid expense ID", http.StatusBadRequest)
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

	var expense models.SharedExpense
	err = db.QueryRow(`
		SELECT id, expense_ref, group_id, paid_by, amount, expense_date, split_method, notes, created_at
		FROM shared_expenses WHERE id = ?
	`, expenseID).Scan(&expense.ID, &expense.ExpenseRef, &expense.GroupID, &expense.PaidBy,
		&expense.Amount, &expense.ExpenseDate, &expense.SplitMethod, &expense.Notes, &expense.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "shared expense not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("error fetching shared expense: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var isMember bool
	err = db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)
	`, expense.GroupID, userID).Scan(&isMember)
	if err != nil {
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !isMember {
		utils.WriteError(w, "forbidden: you are not a member of this group", http.StatusForbidden)
		return
	}

	rows, err := db.Query(`
		SELECT id, shared_expense_id, member_id, amount, is_settled, created_at
		FROM shared_expense_splits WHERE shared_expense_id = ?
		ORDER BY member_id
	`, expenseID)
	if err != nil {
		utils.Logger.Errorf("error fetching splits: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	splits := make([]models.SharedExpenseSplit, 0)
	for rows.Next() {
		var split models.SharedExpenseSplit
		if err := rows.Scan(&split.ID, &split.SharedExpenseID, &split.MemberID,
			&split.Amount, &split.IsSettled, &split.CreatedAt); err != nil {
			utils.Logger.Errorf("error scanning split: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("error iterating splits: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"expense": expense,
			"splits":  splits,
		},
	})
}

// FUNC TO LIST A GROUP'S SHARED EXPENSES
func ListGroupSharedExpensesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	groupID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid group ID", http.StatusBadRequest)
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

	var isMember bool
	err = db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)
	`, groupID, userID).Scan(&isMember)
	if err != nil {
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !isMember {
		utils.WriteError(w, "forbidden: you are not a member of this group", http.StatusForbidden)
		return
	}

	rows, err := db.Query(`
		SELECT id, expense_ref, group_id, paid_by, amount, expense_date, split_method, notes, created_at
		FROM shared_expenses WHERE group_id = ?
		ORDER BY created_at DESC, id DESC
	`, groupID)
	if err != nil {
		utils.Logger.Errorf("error fetching shared expenses: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	expenses := make([]models.SharedExpense, 0)
	for rows.Next() {
		var expense models.SharedExpense
		if err := rows.Scan(&expense.ID, &expense.ExpenseRef, &expense.GroupID, &expense.PaidBy,
			&expense.Amount, &expense.ExpenseDate, &expense.SplitMethod, &expense.Notes, &expense.CreatedAt); err != nil {
			utils.Logger.Errorf("error scanning shared expense: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("error iterating shared expenses: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	response := struct {
		Status string                 `json:"status"`
		Count  int                    `json:"count"`
		Data   []models.SharedExpense `json:"data"`
	}{
		Status: "success",
		Count:  len(expenses),
		Data:   expenses,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// FUNC TO UPDATE THE NOTES ON A SHARED EXPENSE
func UpdateSharedExpenseNotesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	expenseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid expense ID", http.StatusBadRequest)
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
	if err = decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(req.Notes) > 500 {
		utils.WriteError(w, "notes too long", http.StatusBadRequest)
		return
	}

	var paidBy int
	err = db.QueryRow("SELECT paid_by FROM shared_expenses WHERE id = ?", expenseID).Scan(&paidBy)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "shared expense not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if paidBy != userID {
		utils.WriteError(w, "forbidden: only the payer can edit the notes", http.StatusForbidden)
		return
	}

	_, err = db.Exec("UPDATE shared_expenses SET notes = ? WHERE id = ?", req.Notes, expenseID)
	if err != nil {
		utils.WriteError(w, "failed to update notes", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "notes updated successfully",
	})
}

// FUNC TO DELETE A SHARED EXPENSE
func DeleteSharedExpenseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	expenseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid expense ID", http.StatusBadRequest)
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var paidBy, groupID int
	err = db.QueryRowContext(ctx, "SELECT paid_by, group_id FROM shared_expenses WHERE id = ?", expenseID).Scan(&paidBy, &groupID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "shared expense not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var adminID int
	err = db.QueryRowContext(ctx, "SELECT admin_id FROM groups WHERE id = ?", groupID).Scan(&adminID)
	if err != nil {
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if userID != paidBy && userID != adminID {
		utils.WriteError(w, "forbidden: only the payer or group admin can delete this expense", http.StatusForbidden)
		return
	}

	if err := services.DeleteSharedExpense(ctx, db, expenseID); err != nil {
		handlers.WriteLedgerError(w, err)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "shared expense and its unpaid debts deleted successfully",
	})
}
