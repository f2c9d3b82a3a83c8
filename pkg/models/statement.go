package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement is the account-level summary of one bank export: who the
// statement belongs to, the closing balance and the period it covers.
type Statement struct {
	AccountID  string
	BankID     string
	Currency   string
	EndBalance decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
}

// StatementLine is a single transaction row from the export.
//
// DateUser is the actual purchase date when the bank embedded one in the
// transaction text (card transactions); Date is always the settlement
// date. RefNum mirrors ID.
type StatementLine struct {
	Date     time.Time
	ID       string
	RefNum   string
	Memo     string
	Amount   decimal.Decimal
	DateUser *time.Time
}
