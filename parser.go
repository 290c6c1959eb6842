package pdfstatement

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ParseResult is the parser's output. Errors holds one entry per dropped
// row or line.
type ParseResult struct {
	Transactions []Transaction
	Errors       []*ParseError

	// Units counts tables and text blocks seen; ParsedUnits those that
	// produced at least one transaction.
	Units       int
	ParsedUnits int

	// SkippedRows counts table rows too short for the column mapping.
	SkippedRows int
}

// TransactionParser turns page results into transactions: tables first,
// then line grammars over the page text when the tables yield nothing.
type TransactionParser struct {
	grammars        []Grammar
	inferrer        *TypeInferrer
	defaultCurrency string
	now             func() time.Time
	logger          *slog.Logger
}

// ParserOption configures a TransactionParser.
type ParserOption func(*TransactionParser)

// WithGrammars replaces the line grammars.
func WithGrammars(grammars ...Grammar) ParserOption {
	return func(p *TransactionParser) { p.grammars = grammars }
}

// WithClock sets the clock used to fill in missing years.
func WithClock(now func() time.Time) ParserOption {
	return func(p *TransactionParser) { p.now = now }
}

// NewTransactionParser creates a parser with DefaultGrammars.
func NewTransactionParser(cfg Config, logger *slog.Logger, opts ...ParserOption) *TransactionParser {
	if logger == nil {
		logger = slog.Default()
	}
	p := &TransactionParser{
		grammars:        DefaultGrammars(),
		inferrer:        NewTypeInferrer(),
		defaultCurrency: resolveCurrency(cfg.DefaultCurrency, "USD"),
		now:             time.Now,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse processes pages in order. Failures are scoped to the row or line
// that caused them.
func (p *TransactionParser) Parse(pages []PageResult) ParseResult {
	var result ParseResult

	for _, page := range pages {
		var pageTxns []Transaction
		var text *FreeTextUnit

		for _, unit := range page.Units() {
			switch u := unit.(type) {
			case TableUnit:
				result.Units++
				txns, errs, skipped := p.ParseTable(u)
				result.Errors = append(result.Errors, errs...)
				result.SkippedRows += skipped
				if len(txns) > 0 {
					result.ParsedUnits++
					pageTxns = append(pageTxns, txns...)
				}
			case FreeTextUnit:
				text = &u
			}
		}

		if len(pageTxns) == 0 && text != nil {
			result.Units++
			txns, errs := p.ParseText(*text)
			result.Errors = append(result.Errors, errs...)
			if len(txns) > 0 {
				result.ParsedUnits++
				pageTxns = append(pageTxns, txns...)
			}
		}

		if len(pageTxns) == 0 {
			p.logger.Debug("no transactions found on page", slog.Int("page", page.Page))
		}
		result.Transactions = append(result.Transactions, pageTxns...)
	}

	return result
}

// ParseTable maps a table's columns and converts each data row. It returns
// the transactions, the rows that failed to parse and the number of rows
// skipped as too short.
func (p *TransactionParser) ParseTable(unit TableUnit) ([]Transaction, []*ParseError, int) {
	table := unit.Table
	if len(table) < 2 {
		return nil, nil, 0
	}

	mapping := MapColumns(table[0])
	start := 0
	if mapping.HasHeader {
		start = 1
	}

	var txns []Transaction
	var errs []*ParseError
	skipped := 0

	for i := start; i < len(table); i++ {
		row := table[i]
		candidate, outcome := mapping.Candidate(row, p.defaultCurrency)
		switch outcome {
		case rowTooShort:
			p.logger.Warn("table row too short",
				slog.Int("page", unit.Page), slog.Int("table", unit.Index), slog.Int("row", i), slog.Int("cells", len(row)))
			skipped++
			continue
		case rowNoDate, rowNoAmount:
			continue
		}

		txn, err := p.normalize(candidate, unit.Page)
		if err != nil {
			errs = append(errs, &ParseError{
				Page:   unit.Page,
				Source: candidate.Source,
				Unit:   i,
				Raw:    strings.Join(row, " | "),
				Err:    err,
			})
			continue
		}
		txns = append(txns, txn)
	}

	return txns, errs, skipped
}

// ParseText applies the grammars to every line. The first grammar whose
// candidate normalizes owns the line. A line that grammars matched but
// none could normalize reports the first grammar's error.
func (p *TransactionParser) ParseText(unit FreeTextUnit) ([]Transaction, []*ParseError) {
	var txns []Transaction
	var errs []*ParseError

	for i, line := range strings.Split(unit.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var firstErr *ParseError
		parsed := false
		for _, grammar := range p.grammars {
			candidate, ok := grammar.Match(line)
			if !ok {
				continue
			}

			txn, err := p.normalize(candidate, unit.Page)
			if err != nil {
				if firstErr == nil {
					firstErr = &ParseError{Page: unit.Page, Source: grammar.Name, Unit: i, Raw: line, Err: err}
				}
				continue
			}
			txns = append(txns, txn)
			parsed = true
			break
		}

		if !parsed && firstErr != nil {
			errs = append(errs, firstErr)
		}
	}

	return txns, errs
}

// normalize validates a candidate into a Transaction.
func (p *TransactionParser) normalize(c TransactionCandidate, page int) (Transaction, error) {
	date, err := ParseDate(c.Date, p.now(), c.DayFirst)
	if err != nil {
		return Transaction{}, err
	}

	txn := Transaction{
		Date:     date,
		Payee:    strings.TrimSpace(c.Description),
		Currency: resolveCurrency(currencyFromSymbol(c.Currency, c.Amount, c.Balance), p.defaultCurrency),
		Page:     page,
		Source:   c.Source,
		RawDate:  c.Date,
	}
	if txn.Payee == "" {
		txn.Payee = unknownPayee
	}

	if c.Split {
		switch {
		case c.Withdrawal != "":
			amount, err := parseAmount(c.Withdrawal)
			if err != nil {
				return Transaction{}, errors.Wrap(err, "withdrawal")
			}
			txn.Amount, txn.Type, txn.RawAmount = amount.Abs().Neg(), Debit, c.Withdrawal
		case c.Deposit != "":
			amount, err := parseAmount(c.Deposit)
			if err != nil {
				return Transaction{}, errors.Wrap(err, "deposit")
			}
			txn.Amount, txn.Type, txn.RawAmount = amount.Abs(), Credit, c.Deposit
		default:
			return Transaction{}, errors.New("no withdrawal or deposit")
		}
	} else {
		amount, err := parseAmount(c.Amount)
		if err != nil {
			return Transaction{}, err
		}
		txn.Type = p.inferrer.Infer(txn.Payee)
		txn.RawAmount = c.Amount
		switch {
		case txn.Type == Debit && amount.IsPositive():
			amount = amount.Neg()
		case txn.Type == Credit && amount.IsNegative():
			amount = amount.Neg()
		}
		txn.Amount = amount
	}

	if c.Balance != "" {
		balance, err := parseAmount(c.Balance)
		if err != nil {
			return Transaction{}, errors.Wrap(err, "balance")
		}
		txn.Balance = decimal.NewNullDecimal(balance)
	}

	return txn, nil
}
