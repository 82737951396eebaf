package bank

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/forecastly/forecastly/internal/rest"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type AccountDTO struct {
	Id      string `json:"id"`
	BankId  string `json:"bankId"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type TransactionDTO struct {
	Id        string `json:"id"`
	BankId    string `json:"bankId"`
	AccountId string `json:"accountId"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
}

type ImportRequest struct {
	Accounts     []AccountDTO     `json:"accounts"`
	Transactions []TransactionDTO `json:"transactions"`
}

type BalanceDTO struct {
	Balance  string       `json:"balance"`
	Accounts []AccountDTO `json:"accounts"`
}

type Handler struct {
	bankService Service
}

func NewHandler(bankService Service) *Handler {
	return &Handler{bankService: bankService}
}

// Import godoc
// @Summary Import a bank snapshot
// @Description Stores accounts and transactions of a bank and re-runs recurring detection
// @Tags Bank
// @Accept json
// @Param bankId path string true "Bank ID"
// @Param snapshot body ImportRequest true "Snapshot"
// @Success 204 "No Content"
// @Failure 400 {object} rest.ErrorResponse "Invalid snapshot"
// @Router /api/bank/{bankId}/import [post]
// @Security XUserId
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	bankId := mux.Vars(r)["bankId"]

	var request ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	snapshot, err := request.toSnapshot()
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid snapshot", err.Error())
		return
	}

	if err := h.bankService.Import(r.Context(), bankId, snapshot); err != nil {
		if errors.Is(err, ErrInvalidSnapshot) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid snapshot", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Disconnect godoc
// @Summary Disconnect a bank
// @Description Removes the bank's accounts, transactions and every event derived from them
// @Tags Bank
// @Param bankId path string true "Bank ID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse "Bank not found"
// @Router /api/bank/{bankId} [delete]
// @Security XUserId
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	bankId := mux.Vars(r)["bankId"]
	log.Debug("Disconnecting bank: ", bankId)

	if err := h.bankService.Disconnect(r.Context(), bankId); err != nil {
		if errors.Is(err, ErrBankNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Bank not found", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transactions godoc
// @Summary List imported bank transactions
// @Tags Bank
// @Produce json
// @Success 200 {array} TransactionDTO
// @Router /api/bank/transactions [get]
// @Security XUserId
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.bankService.Transactions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	response := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		response = append(response, transactionToDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, response)
}

// Balance godoc
// @Summary Current balance across connected accounts
// @Tags Bank
// @Produce json
// @Success 200 {object} BalanceDTO
// @Router /api/bank/balance [get]
// @Security XUserId
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.bankService.Accounts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	response := BalanceDTO{
		Balance:  TotalBalance(accounts).StringFixed(2),
		Accounts: make([]AccountDTO, 0, len(accounts)),
	}
	for _, a := range accounts {
		response.Accounts = append(response.Accounts, accountToDTO(a))
	}
	rest.WriteJSON(w, http.StatusOK, response)
}

func (req ImportRequest) toSnapshot() (Snapshot, error) {
	snapshot := Snapshot{
		Accounts:     make([]Account, 0, len(req.Accounts)),
		Transactions: make([]Transaction, 0, len(req.Transactions)),
	}
	for _, a := range req.Accounts {
		balance, err := decimal.NewFromString(a.Balance)
		if err != nil {
			return Snapshot{}, errors.New("balance of account " + a.Id + " must be a decimal number")
		}
		snapshot.Accounts = append(snapshot.Accounts, Account{Id: a.Id, Name: a.Name, Balance: balance})
	}
	for _, t := range req.Transactions {
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			return Snapshot{}, errors.New("amount of transaction " + t.Id + " must be a decimal number")
		}
		date, err := localdate.ParseIn(t.Date, time.UTC)
		if err != nil {
			return Snapshot{}, errors.New("date of transaction " + t.Id + " must be in YYYY-MM-DD format")
		}
		snapshot.Transactions = append(snapshot.Transactions, Transaction{
			Id:        t.Id,
			AccountId: t.AccountId,
			Name:      t.Name,
			Amount:    amount,
			Date:      date,
		})
	}
	return snapshot, nil
}

func accountToDTO(a Account) AccountDTO {
	return AccountDTO{Id: a.Id, BankId: a.BankId, Name: a.Name, Balance: a.Balance.StringFixed(2)}
}

func transactionToDTO(t Transaction) TransactionDTO {
	return TransactionDTO{
		Id:        t.Id,
		BankId:    t.BankId,
		AccountId: t.AccountId,
		Name:      t.Name,
		Amount:    t.Amount.StringFixed(2),
		Date:      localdate.Format(t.Date),
	}
}
