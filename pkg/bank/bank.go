package bank

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forecastly/forecastly/pkg/event"
	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/forecastly/forecastly/pkg/recurrence"
	"github.com/shopspring/decimal"
)

var ErrBankNotFound = errors.New("bank not found")
var ErrInvalidSnapshot = errors.New("invalid bank snapshot")

type Account struct {
	Id      string
	BankId  string
	Name    string
	Balance decimal.Decimal
}

// Transaction is an imported bank transaction. Amount keeps the feed convention:
// positive means money left the account.
type Transaction struct {
	Id        string
	BankId    string
	AccountId string
	Name      string
	Amount    decimal.Decimal
	Date      time.Time
}

// ForDetection converts the transaction to the detector's input shape.
func (t Transaction) ForDetection() recurrence.Transaction {
	date := ""
	if !t.Date.IsZero() {
		date = localdate.Format(t.Date)
	}
	return recurrence.Transaction{Name: t.Name, Amount: t.Amount, Date: date}
}

func ForDetection(transactions []Transaction) []recurrence.Transaction {
	result := make([]recurrence.Transaction, 0, len(transactions))
	for _, t := range transactions {
		result = append(result, t.ForDetection())
	}
	return result
}

// ToEvents turns imported transactions into one-off events with the feed sign flipped,
// so spending becomes a negative amount. Malformed transactions are reported in skipped.
func ToEvents(transactions []Transaction) (events []event.Event, skipped []error) {
	events = make([]event.Event, 0, len(transactions))
	for _, t := range transactions {
		if err := t.check(); err != nil {
			skipped = append(skipped, err)
			continue
		}
		amount := t.Amount.Neg()
		events = append(events, event.Event{
			Id:         "txn-" + t.Id,
			Title:      t.Name,
			Amount:     amount,
			Type:       event.TypeFromAmount(amount),
			Frequency:  event.Once,
			StartDate:  t.Date,
			Enabled:    true,
			IsBank:     true,
			BankId:     t.BankId,
			Source:     event.SourceBankTransaction,
			SourceIcon: "bank",
		})
	}
	return events, skipped
}

func (t Transaction) check() error {
	switch {
	case strings.TrimSpace(t.Id) == "":
		return fmt.Errorf("%w: transaction id is required", recurrence.ErrMalformedRecord)
	case strings.TrimSpace(t.Name) == "":
		return fmt.Errorf("%w: transaction %s: name is required", recurrence.ErrMalformedRecord, t.Id)
	case t.Date.IsZero():
		return fmt.Errorf("%w: transaction %s: date is required", recurrence.ErrMalformedRecord, t.Id)
	}
	return nil
}

// TotalBalance sums the balances of the given accounts.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}
