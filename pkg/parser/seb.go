package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/sebu-dev/sebu/pkg/models"
)

// SEBPluginName identifies the SEB xlsx export plugin in the registry.
const SEBPluginName = "seb_xlsx"

const (
	sebBankID   = "SEB"
	sebCurrency = "SEK"

	sebDateFormat     = "2006-01-02"
	sebUserDateFormat = "06-01-02"

	// Columns used from each transaction row: booking date, value date,
	// verification number, text, amount.
	recordColumns = 5
)

// Card transactions carry the purchase date at the end of the text,
// e.g. "WIRSTRÖMS PU/14-12-31". The booking date in the first column is
// the settlement date.
var memoDateRe = regexp.MustCompile(`^(.*)/([0-9]{2}-[0-9]{2}-[0-9]{2})$`)

// SEBPlugin opens SEB Privatkonto xlsx exports.
type SEBPlugin struct {
	logger *log.Logger
}

func NewSEBPlugin(logger *log.Logger) *SEBPlugin {
	return &SEBPlugin{logger: logger}
}

func (p *SEBPlugin) Name() string { return SEBPluginName }

func (p *SEBPlugin) Open(r io.Reader) (StatementParser, error) {
	return NewSEBParser(r, p.logger)
}

// SEBParser parses one SEB xlsx export. The layout is validated and the
// statement summary extracted at construction; transaction rows are
// streamed one at a time through Next.
type SEBParser struct {
	file      *excelize.File
	sheet     string
	logger    *log.Logger
	statement *models.Statement
	headerLen int

	cursor    *excelize.Rows
	row       int
	exhausted bool
	err       error
}

// NewSEBParser opens the workbook, validates its layout and extracts the
// statement summary. A workbook that does not match the expected export
// layout yields a *LayoutError and no parser.
func NewSEBParser(r io.Reader, logger *log.Logger) (*SEBParser, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}

	sheet := f.GetSheetName(0)
	if sheet == "" {
		f.Close()
		return nil, layoutErrorf("workbook has no sheets")
	}

	layout, err := validateSheet(f, sheet, logger)
	if err != nil {
		f.Close()
		return nil, err
	}

	statement, err := extractStatement(layout)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &SEBParser{
		file:      f,
		sheet:     sheet,
		logger:    logger,
		statement: statement,
		headerLen: layout.headerLen(),
	}, nil
}

// Statement returns the summary computed at construction.
func (p *SEBParser) Statement() *models.Statement {
	return p.statement
}

// Next returns the next statement line, or io.EOF once the export is
// exhausted. Exhaustion is permanent for this parser instance. A row
// that cannot be parsed yields a *MalformedRecordError, halts the
// stream, and every later call returns the same error.
func (p *SEBParser) Next() (*models.StatementLine, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.exhausted {
		return nil, io.EOF
	}
	if p.cursor == nil {
		cursor, err := p.file.Rows(p.sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", p.sheet, err)
		}
		for i := 0; i < p.headerLen; i++ {
			if !cursor.Next() {
				cursor.Close()
				p.exhausted = true
				return nil, io.EOF
			}
		}
		p.cursor = cursor
		p.row = p.headerLen
	}

	if !p.cursor.Next() {
		p.exhausted = true
		if err := p.cursor.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	p.row++

	cols, err := p.cursor.Columns()
	if err != nil {
		p.fail(err)
		return nil, err
	}
	line, err := parseLine(cols, p.row)
	if err != nil {
		p.fail(err)
		return nil, err
	}
	return line, nil
}

// fail latches err so the stream cannot resume past a bad row.
func (p *SEBParser) fail(err error) {
	p.err = err
	if p.cursor != nil {
		p.cursor.Close()
		p.cursor = nil
	}
}

// Close releases the workbook. The parser is unusable afterwards.
func (p *SEBParser) Close() error {
	if p.cursor != nil {
		p.cursor.Close()
		p.cursor = nil
	}
	p.exhausted = true
	return p.file.Close()
}

func parseLine(cols []string, rowNum int) (*models.StatementLine, error) {
	if len(cols) < recordColumns {
		return nil, malformedf(rowNum, "expected %d columns, got %d", recordColumns, len(cols))
	}

	date, err := time.Parse(sebDateFormat, cellAt(cols, 0))
	if err != nil {
		return nil, malformedf(rowNum, "bad booking date %q", cellAt(cols, 0))
	}
	// The value date is not kept, but a row without one is not a
	// transaction row.
	if _, err := time.Parse(sebDateFormat, cellAt(cols, 1)); err != nil {
		return nil, malformedf(rowNum, "bad value date %q", cellAt(cols, 1))
	}
	amount, err := parseAmount(cellAt(cols, 4))
	if err != nil {
		return nil, malformedf(rowNum, "bad amount %q", cellAt(cols, 4))
	}

	id := cellAt(cols, 2)
	line := &models.StatementLine{
		Date:   date,
		ID:     id,
		RefNum: id,
		Memo:   cols[3], // kept verbatim, the split rule is anchored
		Amount: amount,
	}

	if m := memoDateRe.FindStringSubmatch(line.Memo); m != nil {
		userDate, err := time.Parse(sebUserDateFormat, m[2])
		if err != nil {
			return nil, malformedf(rowNum, "bad purchase date %q in %q", m[2], line.Memo)
		}
		line.Memo = m[1]
		line.DateUser = &userDate
	}

	return line, nil
}

// parseAmount reads a decimal amount, tolerating Swedish formatting:
// space or NBSP thousands separators and a decimal comma.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}
