package parser

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook renders rows into an in-memory xlsx, one slice per row
// starting at A1.
func buildWorkbook(t *testing.T, rows [][]string) io.Reader {
	t.Helper()

	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func sampleRows() [][]string {
	return [][]string{
		{"Privatkonto", "Saldo", "Disponibelt belopp", "Beviljad kredit"},
		{"12345", "1000.50", "900.00", "2000.00"},
		{"Datum: 2014-01-01 - 2014-01-31"},
		{"Bokförings- datum", "Valuta- datum", "Verifikations- nummer"},
		{"", "", "", "Text / mottagare", "Belopp", "Saldo"},
		{"2014-01-02", "2014-01-02", "5501", "WIRSTRÖMS PU/14-12-31", "-200.00"},
		{"2014-01-05", "2014-01-06", "5502", "GROCERY STORE", "-350.25"},
		{"2014-01-10", "2014-01-10", "5503", "SALARY", "25000.00"},
	}
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestNewSEBParserStatement(t *testing.T) {
	p, err := NewSEBParser(buildWorkbook(t, sampleRows()), testLogger())
	require.NoError(t, err)
	defer p.Close()

	stmt := p.Statement()
	assert.Equal(t, "12345", stmt.AccountID)
	assert.Equal(t, "SEB", stmt.BankID)
	assert.Equal(t, "SEK", stmt.Currency)
	assert.Equal(t, "1000.50", stmt.EndBalance.StringFixed(2))
	assert.Equal(t, time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC), stmt.StartDate)
	assert.Equal(t, time.Date(2014, 1, 31, 0, 0, 0, 0, time.UTC), stmt.EndDate)
}

func TestNewSEBParserRecords(t *testing.T) {
	p, err := NewSEBParser(buildWorkbook(t, sampleRows()), testLogger())
	require.NoError(t, err)
	defer p.Close()

	first, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "WIRSTRÖMS PU", first.Memo)
	assert.Equal(t, "5501", first.ID)
	assert.Equal(t, "5501", first.RefNum)
	assert.Equal(t, "-200.00", first.Amount.StringFixed(2))
	assert.Equal(t, time.Date(2014, 1, 2, 0, 0, 0, 0, time.UTC), first.Date)
	require.NotNil(t, first.DateUser)
	assert.Equal(t, time.Date(2014, 12, 31, 0, 0, 0, 0, time.UTC), *first.DateUser)

	second, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "GROCERY STORE", second.Memo)
	assert.Nil(t, second.DateUser)

	third, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "SALARY", third.Memo)
	assert.True(t, third.Amount.IsPositive())

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
	// The stream does not restart.
	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewSEBParserMultipleAccounts(t *testing.T) {
	rows := [][]string{
		{"Privatkonto", "Saldo", "Disponibelt belopp", "Beviljad kredit"},
		{"12345", "1000.50", "900.00", "2000.00"},
		{"67890", "50.00", "50.00", "0.00"},
		{"Datum: 2014-01-01 - 2014-01-31"},
		{"Bokförings- datum", "Valuta- datum", "Verifikations- nummer"},
		{"", "", "", "Text / mottagare", "Belopp", "Saldo"},
		{"2014-01-02", "2014-01-02", "5501", "GROCERY STORE", "-350.25"},
	}

	p, err := NewSEBParser(buildWorkbook(t, rows), testLogger())
	require.NoError(t, err)
	defer p.Close()

	// The summary comes from the first account row; the record stream
	// must start after the longer header block.
	assert.Equal(t, "12345", p.Statement().AccountID)
	assert.Equal(t, 6, p.headerLen)

	line, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "GROCERY STORE", line.Memo)

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewSEBParserSwedishAmountFormat(t *testing.T) {
	rows := sampleRows()
	rows[1][1] = "12 345,67"
	rows[5][4] = "-1 200,50"

	p, err := NewSEBParser(buildWorkbook(t, rows), testLogger())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "12345.67", p.Statement().EndBalance.StringFixed(2))

	line, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "-1200.50", line.Amount.StringFixed(2))
}

func TestNewSEBParserNoRecords(t *testing.T) {
	p, err := NewSEBParser(buildWorkbook(t, sampleRows()[:5]), testLogger())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewSEBParserMalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{"short row", []string{"2014-01-02", "2014-01-02", "5501"}},
		{"bad booking date", []string{"02/01/2014", "2014-01-02", "5501", "GROCERY STORE", "-350.25"}},
		{"bad value date", []string{"2014-01-02", "", "5501", "GROCERY STORE", "-350.25"}},
		{"bad amount", []string{"2014-01-02", "2014-01-02", "5501", "GROCERY STORE", "n/a"}},
		{"bad purchase date", []string{"2014-01-02", "2014-01-02", "5501", "CARD/14-13-45", "-350.25"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := append(sampleRows()[:5], tt.row)
			p, err := NewSEBParser(buildWorkbook(t, rows), testLogger())
			require.NoError(t, err)
			defer p.Close()

			_, err = p.Next()
			require.Error(t, err)
			var malformed *MalformedRecordError
			assert.ErrorAs(t, err, &malformed)
			assert.Equal(t, 6, malformed.Row)
		})
	}
}

func TestNextHaltsAfterMalformedRecord(t *testing.T) {
	rows := append(sampleRows()[:5],
		[]string{"2014-01-02", "2014-01-02", "5501", "GROCERY STORE", "n/a"},
		[]string{"2014-01-05", "2014-01-06", "5503", "SALARY", "25000.00"},
	)

	p, err := NewSEBParser(buildWorkbook(t, rows), testLogger())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Next()
	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)

	// The valid row behind the bad one must stay unreachable; the
	// stream repeats the failure instead of resuming.
	line, err := p.Next()
	assert.Nil(t, line)
	assert.ErrorAs(t, err, &malformed)
	assert.Equal(t, 6, malformed.Row)
}

func TestNextKeepsMemoVerbatim(t *testing.T) {
	rows := append(sampleRows()[:5],
		[]string{"2014-01-02", "2014-01-02", "5501", "  GROCERY STORE ", "-350.25"},
	)

	p, err := NewSEBParser(buildWorkbook(t, rows), testLogger())
	require.NoError(t, err)
	defer p.Close()

	line, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "  GROCERY STORE ", line.Memo)
	assert.Nil(t, line.DateUser)
}

func TestSEBPluginOpen(t *testing.T) {
	plugin := NewSEBPlugin(testLogger())
	assert.Equal(t, SEBPluginName, plugin.Name())

	sp, err := plugin.Open(buildWorkbook(t, sampleRows()))
	require.NoError(t, err)
	defer sp.Close()
	assert.Equal(t, "12345", sp.Statement().AccountID)
}

func TestRegistryDetect(t *testing.T) {
	registry := NewRegistry(testLogger())

	assert.NotNil(t, registry.Get(SEBPluginName))
	assert.NotNil(t, registry.Detect("kontoutdrag.xlsx"))
	assert.NotNil(t, registry.Detect("EXPORT.XLSX"))
	assert.Nil(t, registry.Detect("statement.xls"))
	assert.Nil(t, registry.Detect("statement.csv"))
}
