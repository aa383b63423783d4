package routers

import (
	"net/http"
)

func MainRouter() *http.ServeMux {

	mux := http.NewServeMux()

	uRouter := usersRouter()
	mux.Handle("/users/", uRouter)

	gRouter := groupsRouter()
	mux.Handle("/groups/", gRouter)

	eRouter := sharedExpensesRouter()
	mux.Handle("/shared-expenses/", eRouter)

	dRouter := debtsRouter()
	mux.Handle("/debts/", dRouter)

	return mux
}
