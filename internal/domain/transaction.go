package domain

import (
	"cloud.google.com/go/civil"
)

// TransactionType classifies a cash-flow row.
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction is one storage-ready cash-flow row.
// Account references are external mf ids; the repository maps them to
// internal account ids at write time.
type Transaction struct {
	MfID        string
	Date        civil.Date
	AccountMfID *string // placeholder account when the owner could not be identified
	Category    *string // nil for pure transfers
	SubCategory *string
	Description string
	Amount      int64 // yen, income positive
	Type        TransactionType

	IsTransfer                bool
	IsExcludedFromCalculation bool // transfers and grayed-out rows

	TransferTarget            *string // counterpart text as shown by the source
	TransferTargetAccountMfID *string // resolved counterpart, nil when unidentifiable
}

// ClassifyTransaction derives the transaction type from the transfer flag and sign.
func ClassifyTransaction(isTransfer bool, amount int64) TransactionType {
	switch {
	case isTransfer:
		return TransactionTypeTransfer
	case amount > 0:
		return TransactionTypeIncome
	default:
		return TransactionTypeExpense
	}
}
