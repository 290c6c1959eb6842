package pdfstatement

import (
	"strings"
)

// unknownPayee replaces blank descriptions.
const unknownPayee = "Unknown Transaction"

// ColumnMap locates transaction fields in a table. Missing columns are -1.
type ColumnMap struct {
	Date        int
	Description int
	Withdrawal  int
	Deposit     int
	Amount      int
	Balance     int

	// HasHeader is set when the first row named at least one column; it is
	// then skipped as data.
	HasHeader bool
}

// MapColumns maps columns by case-insensitive header keywords, checking
// each header against date, description/payee, withdrawal/debit,
// deposit/credit, amount and balance in that order. Unnamed fields fall
// back to positional defaults.
func MapColumns(header []string) ColumnMap {
	m := ColumnMap{Date: -1, Description: -1, Withdrawal: -1, Deposit: -1, Amount: -1, Balance: -1}

	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case h == "":
			continue
		case strings.Contains(h, "date"):
			m.Date = i
		case strings.Contains(h, "description"), strings.Contains(h, "payee"):
			m.Description = i
		case strings.Contains(h, "withdrawal"), strings.Contains(h, "debit"):
			m.Withdrawal = i
		case strings.Contains(h, "deposit"), strings.Contains(h, "credit"):
			m.Deposit = i
		case strings.Contains(h, "amount"):
			m.Amount = i
		case strings.Contains(h, "balance"):
			m.Balance = i
		default:
			continue
		}
		m.HasHeader = true
	}

	// Positional defaults only take columns no named field claimed.
	n := len(header)
	if m.Date < 0 && n >= 1 && !m.claims(0) {
		m.Date = 0
	}
	if m.Description < 0 && n >= 2 && !m.claims(1) {
		m.Description = 1
	}
	if m.Amount < 0 && !m.Split() && n >= 3 && !m.claims(n-2) {
		m.Amount = n - 2
	}
	if m.Balance < 0 && n >= 4 && !m.claims(n-1) {
		m.Balance = n - 1
	}
	return m
}

// claims reports whether any field is mapped to column idx.
func (m ColumnMap) claims(idx int) bool {
	for _, field := range []int{m.Date, m.Description, m.Withdrawal, m.Deposit, m.Amount, m.Balance} {
		if field == idx {
			return true
		}
	}
	return false
}

// Split reports whether the table has separate withdrawal and deposit
// columns.
func (m ColumnMap) Split() bool {
	return m.Withdrawal >= 0 || m.Deposit >= 0
}

// minRowLength is the number of cells a row needs to cover the date,
// description, amount and balance columns.
func (m ColumnMap) minRowLength() int {
	required := -1
	for _, idx := range []int{m.Date, m.Description, m.Amount, m.Balance} {
		if idx > required {
			required = idx
		}
	}
	return required + 1
}

// rowOutcome explains why a row produced no candidate.
type rowOutcome int

const (
	rowCandidate rowOutcome = iota
	rowTooShort
	rowNoDate
	rowNoAmount
)

// Candidate reads a row through the mapping.
func (m ColumnMap) Candidate(row []string, currency string) (TransactionCandidate, rowOutcome) {
	if len(row) < m.minRowLength() || m.Date < 0 {
		return TransactionCandidate{}, rowTooShort
	}

	date := strings.TrimSpace(cellAt(row, m.Date))
	if date == "" {
		return TransactionCandidate{}, rowNoDate
	}

	description := strings.TrimSpace(cellAt(row, m.Description))
	if description == "" {
		description = unknownPayee
	}

	c := TransactionCandidate{
		Date:        date,
		Description: description,
		Balance:     strings.TrimSpace(cellAt(row, m.Balance)),
		Currency:    currency,
		Source:      "table",
	}

	if m.Split() {
		c.Split = true
		c.Withdrawal = strings.TrimSpace(cellAt(row, m.Withdrawal))
		c.Deposit = strings.TrimSpace(cellAt(row, m.Deposit))
		if c.Withdrawal == "" && c.Deposit == "" {
			return TransactionCandidate{}, rowNoAmount
		}
	} else {
		c.Amount = strings.TrimSpace(cellAt(row, m.Amount))
		if c.Amount == "" {
			return TransactionCandidate{}, rowNoAmount
		}
	}

	c.Currency = currencyFromSymbol(currency, c.Amount, c.Withdrawal, c.Deposit, c.Balance)
	return c, rowCandidate
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
