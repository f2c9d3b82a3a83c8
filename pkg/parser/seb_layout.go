package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/sebu-dev/sebu/pkg/models"
)

var (
	// First cell of the row closing the account list, e.g.
	// "Datum: 2014-01-01 - 2014-01-31".
	dateRangeRe = regexp.MustCompile(`^Datum: ([0-9]{4}-[0-9]{2}-[0-9]{2}) - ([0-9]{4}-[0-9]{2}-[0-9]{2})$`)

	// Column header labels. SEB hyphenates them across a line break, with
	// a varying amount of whitespace after the hyphen.
	bookingDateRe = regexp.MustCompile(`(?i)^Bokförings-\s*datum$`)
	valueDateRe   = regexp.MustCompile(`(?i)^Valuta-\s*datum$`)
	voucherRe     = regexp.MustCompile(`(?i)^Verifikations-\s*nummer$`)
)

var accountHeaderLabels = []string{"Saldo", "Disponibelt belopp", "Beviljad kredit"}

// sebLayout is what validation learns about a workbook: how many linked
// account rows precede the date range row, plus the header rows it read
// on the way. Extraction and record streaming both derive their offsets
// from it, so the two can never disagree about where the data starts.
type sebLayout struct {
	accounts int
	prefix   [][]string
}

// headerLen is the number of rows before the first transaction: the
// label row, the account rows, the date range row and the two column
// header rows.
func (l *sebLayout) headerLen() int {
	return l.accounts + 4
}

// rangeRow is the index of the date range row.
func (l *sebLayout) rangeRow() int {
	return l.accounts + 1
}

// cellAt returns the trimmed value of column i, or "" when the row has
// fewer columns. Trailing empty cells are simply absent in xlsx rows.
func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// emptyFrom reports whether every column from i on is blank.
func emptyFrom(row []string, i int) bool {
	for ; i < len(row); i++ {
		if strings.TrimSpace(row[i]) != "" {
			return false
		}
	}
	return true
}

// validateSheet checks that the sheet matches the SEB export layout and
// returns the discovered layout. Any mismatch, including running out of
// rows while looking for the date range row, is a *LayoutError.
func validateSheet(f *excelize.File, sheet string, logger *log.Logger) (*sebLayout, error) {
	cursor, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	defer cursor.Close()

	var prefix [][]string
	readRow := func() ([]string, bool, error) {
		if !cursor.Next() {
			return nil, false, cursor.Error()
		}
		cols, err := cursor.Columns()
		if err != nil {
			return nil, false, err
		}
		prefix = append(prefix, cols)
		return cols, true, nil
	}

	header, ok, err := readRow()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, layoutErrorf("sheet has no rows")
	}
	if cellAt(header, 0) == "" {
		return nil, layoutErrorf("row 1: expected an account label in the first column")
	}
	for i, want := range accountHeaderLabels {
		if got := cellAt(header, i+1); got != want {
			return nil, layoutErrorf("row 1 column %d: expected %q, got %q", i+2, want, got)
		}
	}
	if !emptyFrom(header, 4) {
		return nil, layoutErrorf("row 1: unexpected values after the %q column", accountHeaderLabels[2])
	}

	// Scan the account rows until the date range row. The number of
	// linked accounts is not known up front, so this is bounded only by
	// the rows actually present.
	accounts := 0
	var rangeRow []string
	for {
		row, ok, err := readRow()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, layoutErrorf("no date range row found after %d account rows", accounts)
		}
		if dateRangeRe.MatchString(cellAt(row, 0)) {
			rangeRow = row
			break
		}
		accounts++
		logger.Info("detected account", "account", cellAt(row, 0))
	}
	logger.Info("accounts detected", "total", accounts)

	if accounts == 0 {
		return nil, layoutErrorf("row 2: expected at least one account row before the date range row")
	}
	if !emptyFrom(rangeRow, 1) {
		return nil, layoutErrorf("row %d: unexpected values after the date range", len(prefix))
	}

	subHeader, ok, err := readRow()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, layoutErrorf("row %d: missing column header row", len(prefix)+1)
	}
	for i, re := range []*regexp.Regexp{bookingDateRe, valueDateRe, voucherRe} {
		if !re.MatchString(cellAt(subHeader, i)) {
			return nil, layoutErrorf("row %d column %d: %q does not look like a column header", len(prefix), i+1, cellAt(subHeader, i))
		}
	}
	if !emptyFrom(subHeader, 3) {
		return nil, layoutErrorf("row %d: unexpected values after the column headers", len(prefix))
	}

	labels, ok, err := readRow()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, layoutErrorf("row %d: missing transaction label row", len(prefix)+1)
	}
	for i, want := range []string{"", "", "", "Text / mottagare", "Belopp", "Saldo"} {
		if got := cellAt(labels, i); got != want {
			return nil, layoutErrorf("row %d column %d: expected %q, got %q", len(prefix), i+1, want, got)
		}
	}
	if !emptyFrom(labels, 6) {
		return nil, layoutErrorf("row %d: unexpected values after the %q column", len(prefix), "Saldo")
	}

	return &sebLayout{accounts: accounts, prefix: prefix}, nil
}

// extractStatement builds the statement summary from the header rows the
// validator already read. It is a separate pass over the same prefix so
// the two stay independently testable.
func extractStatement(layout *sebLayout) (*models.Statement, error) {
	values := layout.prefix[1]
	accountID := cellAt(values, 0)
	if accountID == "" {
		return nil, layoutErrorf("row 2: account id is empty")
	}
	balance, err := parseAmount(cellAt(values, 1))
	if err != nil {
		return nil, layoutErrorf("row 2: balance %q is not a number", cellAt(values, 1))
	}
	// Columns 3 and 4 hold the disposable amount and granted credit.
	// They are part of the export but not of the statement.

	rangeCell := cellAt(layout.prefix[layout.rangeRow()], 0)
	m := dateRangeRe.FindStringSubmatch(rangeCell)
	if m == nil {
		// Validation matched this row already; not matching here means
		// the two passes disagree.
		return nil, layoutErrorf("row %d: cannot read the statement period from %q", layout.rangeRow()+1, rangeCell)
	}
	start, err := time.Parse(sebDateFormat, m[1])
	if err != nil {
		return nil, layoutErrorf("row %d: bad period start %q", layout.rangeRow()+1, m[1])
	}
	end, err := time.Parse(sebDateFormat, m[2])
	if err != nil {
		return nil, layoutErrorf("row %d: bad period end %q", layout.rangeRow()+1, m[2])
	}
	if end.Before(start) {
		return nil, layoutErrorf("row %d: statement period %s - %s ends before it starts", layout.rangeRow()+1, m[1], m[2])
	}

	return &models.Statement{
		AccountID:  accountID,
		BankID:     sebBankID,
		Currency:   sebCurrency,
		EndBalance: balance,
		StartDate:  start,
		EndDate:    end,
	}, nil
}
