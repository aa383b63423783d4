package groups

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"splitledger/internal/api/handlers"
	"splitledger/internal/models"
	"splitledger/internal/repositories/sqlconnect"
	"splitledger/internal/services"
	"splitledger/pkg/utils"
)

// FUNC TO CREATE A GROUP
func CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	var newGroup models.Group
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&newGroup); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	newGroup.Name = strings.TrimSpace(newGroup.Name)
	if newGroup.Name == "" || newGroup.Description == "" {
		utils.WriteError(w, "group name and description is required", http.StatusBadRequest)
		return
	}

	if len(newGroup.Name) > 100 || len(newGroup.Description) > 500 {
		utils.WriteError(w, "name or description too long", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.Begin()
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now().Format("2006-01-02 15:04:05")
	query := `INSERT INTO groups (name, description, admin_id, is_active, created_at, updated_at) VALUES (?, ?, ?, TRUE, ?, ?)`
	res, err := tx.ExecContext(ctx, query, newGroup.Name, newGroup.Description, userID, now, now)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to create group: %v", err)
		utils.WriteError(w, "failed to create group, try again later!", http.StatusInternalServerError)
		return
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to get last inserted ID: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// The creator is always the group's first member and its admin.
	insertMemberQuery := `INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'admin')`
	_, err = tx.ExecContext(ctx, insertMemberQuery, id, userID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to assign group admin: %v", err)
		utils.WriteError(w, "failed to assign group admin", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"status":  "success",
		"message": "Group created successfully",
		"data": map[string]interface{}{
			"group_id":   id,
			"group_name": newGroup.Name,
			"role":       "admin",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// FUNC TO UPDATE GROUP NAME/DESCRIPTION
func UpdateGroupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	id, err := strconv.Atoi(idStr)
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

	type request struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var req request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Name != "" && strings.TrimSpace(req.Name) == "" {
		utils.WriteError(w, "name cannot be empty or whitespace", http.StatusBadRequest)
		return
	}

	if len(req.Name) > 100 || len(req.Description) > 500 {
		utils.WriteError(w, "name or description too long", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var adminID int
	err = db.QueryRowContext(ctx, "SELECT admin_id FROM groups WHERE id = ?", id).Scan(&adminID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "group not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if adminID != userID {
		utils.WriteError(w, "forbidden: not group admin", http.StatusForbidden)
		return
	}

	fields := []string{}
	args := []interface{}{}

	if req.Name != "" {
		fields = append(fields, "name = ?")
		args = append(args, req.Name)
	}
	if req.Description != "" {
		fields = append(fields, "description = ?")
		args = append(args, req.Description)
	}

	if len(fields) == 0 {
		utils.WriteError(w, "no updates provided", http.StatusBadRequest)
		return
	}

	fields = append(fields, "updated_at = ?")
	args = append(args, time.Now().Format("2006-01-02 15:04:05"), id)

	query := fmt.Sprintf("UPDATE groups SET %s WHERE id = ?", strings.Join(fields, ", "))
	_, err = db.ExecContext(ctx, query, args...)
	if err != nil {
		utils.WriteError(w, "failed to update group", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "Group updated successfully",
	})
}

// FUNC TO GET ALL GROUPS THE LOGGED-IN USER BELONGS TO
func GetMyGroupsHandler(w http.ResponseWriter, r *http.Request) {
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
		SELECT g.id, g.name, g.description, g.admin_id, g.is_active, g.created_at, g.updated_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = ?
		ORDER BY g.created_at DESC
	`, userID)
	if err != nil {
		utils.Logger.Errorf("internal server error: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	groupList := make([]models.Group, 0)
	for rows.Next() {
		var group models.Group
		err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.AdminID, &group.IsActive, &group.CreatedAt, &group.UpdatedAt)
		if err != nil {
			utils.Logger.Errorf("error fetching data: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		groupList = append(groupList, group)
	}

	response := struct {
		Status string         `json:"status"`
		Count  int            `json:"count"`
		Data   []models.Group `json:"data"`
	}{
		Status: "success",
		Count:  len(groupList),
		Data:   groupList,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// FUNC TO GET A SINGLE GROUP AND ITS MEMBERS
func GetGroupByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	groupID, err := strconv.Atoi(idStr)
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

	var exists bool
	err = db.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?
        )
    `, groupID, userID).Scan(&exists)
	if err != nil {
		utils.Logger.Errorf("error checking access: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !exists {
		utils.WriteError(w, "forbidden: you are not a member of this group", http.StatusForbidden)
		return
	}

	var group models.Group
	err = db.QueryRow(`
        SELECT id, name, description, admin_id, is_active, created_at, updated_at
        FROM groups WHERE id = ?
    `, groupID).Scan(
		&group.ID, &group.Name, &group.Description,
		&group.AdminID, &group.IsActive,
		&group.CreatedAt, &group.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "group not found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("error fetching group: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	type MemberDetails struct {
		ID        int    `json:"id"`
		GroupID   int    `json:"group_id"`
		UserID    int    `json:"user_id"`
		Role      string `json:"role"`
		JoinedAt  string `json:"joined_at"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Username  string `json:"username"`
		Email     string `json:"email"`
	}

	rows, err := db.Query(`
        SELECT gm.id, gm.group_id, gm.user_id, gm.role, gm.joined_at,
               u.first_name, u.last_name, u.username, u.email
        FROM group_members gm
        JOIN users u ON u.id = gm.user_id
        WHERE gm.group_id = ?
        ORDER BY gm.id
    `, groupID)
	if err != nil {
		utils.Logger.Errorf("error fetching group members: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	members := make([]MemberDetails, 0)
	for rows.Next() {
		var member MemberDetails
		var joinedAt sql.NullString
		if err := rows.Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role, &joinedAt,
			&member.FirstName, &member.LastName, &member.Username, &member.Email); err != nil {
			utils.Logger.Errorf("error scanning group member: %v", err)
			utils.WriteError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if joinedAt.Valid {
			member.JoinedAt = joinedAt.String
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		utils.Logger.Errorf("error iterating group members: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	response := struct {
		Status  string          `json:"status"`
		Group   models.Group    `json:"group"`
		Members []MemberDetails `json:"members"`
	}{
		Status:  "success",
		Group:   group,
		Members: members,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// FUNC TO ADD A MEMBER TO A GROUP
func AddGroupMemberHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	groupID, err := strconv.Atoi(idStr)
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

	type request struct {
		UserID int `json:"user_id"`
	}

	var req request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.UserID <= 0 {
		utils.WriteError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var adminID int
	err = db.QueryRowContext(ctx, "SELECT admin_id FROM groups WHERE id = ?", groupID).Scan(&adminID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "group not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if adminID != userID {
		utils.WriteError(w, "forbidden: not group admin", http.StatusForbidden)
		return
	}

	var targetExists bool
	err = db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", req.UserID).Scan(&targetExists)
	if err != nil {
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !targetExists {
		utils.WriteError(w, "user not found", http.StatusNotFound)
		return
	}

	_, err = db.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'member')`, groupID, req.UserID)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			utils.WriteError(w, "user is already a group member", http.StatusConflict)
			return
		}
		utils.Logger.Errorf("failed to add group member: %v", err)
		utils.WriteError(w, "failed to add group member", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "member added successfully",
	})
}

// FUNC TO REMOVE A MEMBER FROM A GROUP
func RemoveGroupMemberHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	groupID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid group ID", http.StatusBadRequest)
		return
	}
	memberID, err := strconv.Atoi(r.PathValue("user_id"))
	if err != nil {
		utils.WriteError(w, "invalid user ID", http.StatusBadRequest)
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

	var adminID int
	err = db.QueryRowContext(ctx, "SELECT admin_id FROM groups WHERE id = ?", groupID).Scan(&adminID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "group not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Admins can remove anyone but themselves; members can leave.
	if userID != adminID && userID != memberID {
		utils.WriteError(w, "forbidden: not group admin", http.StatusForbidden)
		return
	}
	if memberID == adminID {
		utils.WriteError(w, "the group admin cannot be removed", http.StatusBadRequest)
		return
	}

	// A member with money still moving in the group cannot be removed.
	var openDebts int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM debts
		WHERE group_id = ? AND status != ? AND (creditor_id = ? OR debtor_id = ?)
	`, groupID, models.DebtStatusSettled, memberID, memberID).Scan(&openDebts)
	if err != nil {
		utils.Logger.Errorf("failed to check open debts: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if openDebts > 0 {
		utils.WriteError(w, "member has unsettled debts in this group", http.StatusConflict)
		return
	}

	res, err := db.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ? AND user_id = ?", groupID, memberID)
	if err != nil {
		utils.Logger.Errorf("failed to remove group member: %v", err)
		utils.WriteError(w, "failed to remove group member", http.StatusInternalServerError)
		return
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		utils.WriteError(w, "member not found in this group", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "member removed successfully",
	})
}

// FUNC TO DELETE A GROUP BY ADMIN
func DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	groupID, err := strconv.Atoi(idStr)
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var adminID int
	err = db.QueryRowContext(ctx, "SELECT admin_id FROM groups WHERE id = ?", groupID).Scan(&adminID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "group not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if adminID != userID {
		utils.WriteError(w, "forbidden: not group admin", http.StatusForbidden)
		return
	}

	// Deleting a group with unsettled debts would erase who owes whom.
	var openDebts int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM debts WHERE group_id = ? AND status != ?
	`, groupID, models.DebtStatusSettled).Scan(&openDebts)
	if err != nil {
		utils.Logger.Errorf("failed to check open debts: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if openDebts > 0 {
		utils.WriteError(w, "group has unsettled debts", http.StatusConflict)
		return
	}

	res, err := db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		utils.Logger.Errorf("error deleting data: %v", err)
		utils.WriteError(w, "error deleting group", http.StatusInternalServerError)
		return
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		utils.WriteError(w, "group not found or already deleted", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "group and its members deleted successfully",
	})
}

// FUNC TO GET A GROUP'S BALANCE SUMMARY
func GroupBalanceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	groupID, err := strconv.Atoi(idStr)
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var exists bool
	err = db.QueryRowContext(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?
        )
    `, groupID, userID).Scan(&exists)
	if err != nil {
		utils.Logger.Errorf("error checking access: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !exists {
		utils.WriteError(w, "forbidden: you are not a member of this group", http.StatusForbidden)
		return
	}

	summary, err := services.GroupBalanceSummary(ctx, db, groupID)
	if err != nil {
		utils.Logger.Errorf("failed to summarize balances: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}
