package routers

import (
	"net/http"

	"splitledger/internal/api/handlers/debts"
)

func debtsRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debts/create", debts.CreateDebtHandler)

	mux.HandleFunc("/debts/mine", debts.GetMyDebtsHandler)

	mux.HandleFunc("/debts/owed-to-me", debts.GetOwedToMeHandler)

	mux.HandleFunc("/debts/{id}", debts.GetDebtByIDHandler)

	mux.HandleFunc("/debts/{id}/payments", debts.AddDebtPaymentHandler)

	mux.HandleFunc("/debts/{id}/settle", debts.SettleDebtHandler)

	return mux
}
