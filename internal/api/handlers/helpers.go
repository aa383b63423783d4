package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"reflect"

	"splitledger/internal/services"
	"splitledger/pkg/utils"
)

func CheckBlankFields(value interface{}) error {
	val := reflect.ValueOf(value)
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.Kind() == reflect.String && field.String() == "" {
			return utils.ErrorHandler(errors.New("all fields are required"), "all fields are required")
		}
	}
	return nil
}

// UserIDFromContext pulls the authenticated user id set by the JWT
// middleware. The claim travels as a float64 because of JSON decoding.
func UserIDFromContext(r *http.Request) (int, bool) {
	idFloat, ok := r.Context().Value(utils.ContextKey("userId")).(float64)
	if !ok {
		return 0, false
	}
	return int(idFloat), true
}

// WriteLedgerError maps the ledger's error kinds onto HTTP statuses.
func WriteLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		utils.WriteError(w, "not found", http.StatusNotFound)
	case errors.Is(err, services.ErrNotGroupMember):
		utils.WriteError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrOverpayment),
		errors.Is(err, services.ErrDeletionConflict):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrSplitMismatch):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	default:
		utils.Logger.Errorf("ledger operation failed: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
