package routers

import (
	"net/http"

	"splitledger/internal/api/handlers/groups"
)

func sharedExpensesRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/shared-expenses/create", groups.CreateSharedExpenseHandler)

	mux.HandleFunc("/shared-expenses/preview", groups.PreviewSplitHandler)

	mux.HandleFunc("/shared-expenses/{id}", groups.GetSharedExpenseHandler)

	mux.HandleFunc("/shared-expenses/group/{id}", groups.ListGroupSharedExpensesHandler)

	mux.HandleFunc("/shared-expenses/{id}/notes", groups.UpdateSharedExpenseNotesHandler)

	mux.HandleFunc("/shared-expenses/delete/{id}", groups.DeleteSharedExpenseHandler)

	return mux
}
