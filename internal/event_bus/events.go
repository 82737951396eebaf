package event_bus

import "time"

const (
	TransactionsImportedType EventType = "bank.transactions.imported"
	BankDisconnectedType     EventType = "bank.disconnected"
)

// TransactionsImported is published after a bank snapshot has been stored.
type TransactionsImported struct {
	BankId       string
	Accounts     int
	Transactions int
	ImportedAt   time.Time
}

// BankDisconnected is published after all data of a bank has been removed.
type BankDisconnected struct {
	BankId string
}
