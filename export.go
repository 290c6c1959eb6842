package pdfstatement

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// exportRow is the flat form of a Transaction used by WriteCSV.
type exportRow struct {
	Date     string `csv:"date"`
	Payee    string `csv:"payee"`
	Amount   string `csv:"amount"`
	Type     string `csv:"type"`
	Balance  string `csv:"balance"`
	Currency string `csv:"currency"`
	Display  string `csv:"display"`
	Page     int    `csv:"page"`
	Source   string `csv:"source"`
}

func toExportRow(txn Transaction) exportRow {
	row := exportRow{
		Date:     txn.Date.Format(dateLayout),
		Payee:    txn.Payee,
		Amount:   txn.Amount.StringFixed(2),
		Type:     string(txn.Type),
		Currency: txn.Currency,
		Display:  toMoney(txn.Amount, txn.Currency).Display(),
		Page:     txn.Page,
		Source:   txn.Source,
	}
	if txn.Balance.Valid {
		row.Balance = txn.Balance.Decimal.StringFixed(2)
	}
	return row
}

// WriteCSV writes transactions as CSV with a header row.
func WriteCSV(w io.Writer, txns []Transaction) error {
	rows := make([]exportRow, 0, len(txns))
	for _, txn := range txns {
		rows = append(rows, toExportRow(txn))
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return errors.Wrap(err, "failed to write CSV")
	}
	return nil
}

var xlsxHeader = []interface{}{"Date", "Payee", "Amount", "Type", "Balance", "Currency", "Page", "Source"}

// WriteXLSX writes transactions to a single-sheet workbook. Amounts and
// balances are numeric cells.
func WriteXLSX(w io.Writer, txns []Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, "failed to name sheet")
	}

	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	for i, txn := range txns {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to address row")
		}

		amount, _ := txn.Amount.Float64()
		var balance interface{}
		if txn.Balance.Valid {
			balance, _ = txn.Balance.Decimal.Float64()
		}

		row := []interface{}{
			txn.Date.Format(dateLayout),
			txn.Payee,
			amount,
			string(txn.Type),
			balance,
			txn.Currency,
			txn.Page,
			txn.Source,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+2)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}
