package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// User management available without a user
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(requireUser)

	// User management
	api.HandleFunc("/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	api.HandleFunc("/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	api.HandleFunc("/user/{userUid}", deps.UserHandler.DeleteUser).Methods("DELETE")

	// Events
	api.HandleFunc("/event", deps.EventHandler.List).Methods("GET")
	api.HandleFunc("/event", deps.EventHandler.Create).Methods("POST")
	api.HandleFunc("/event/{eventId}", deps.EventHandler.Update).Methods("PATCH")
	api.HandleFunc("/event/{eventId}", deps.EventHandler.Delete).Methods("DELETE")

	// Bank
	api.HandleFunc("/bank/balance", deps.BankHandler.Balance).Methods("GET")
	api.HandleFunc("/bank/transactions", deps.BankHandler.Transactions).Methods("GET")
	api.HandleFunc("/bank/{bankId}/import", deps.BankHandler.Import).Methods("POST")
	api.HandleFunc("/bank/{bankId}", deps.BankHandler.Disconnect).Methods("DELETE")

	// Forecast
	api.HandleFunc("/forecast/calendar", deps.ForecastHandler.Calendar).Methods("GET")
	api.HandleFunc("/forecast/projection", deps.ForecastHandler.Projection).Methods("GET")
	api.HandleFunc("/forecast/recurring", deps.ForecastHandler.Recurring).Methods("GET")
}
