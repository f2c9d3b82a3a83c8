package csv

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sebu-dev/sebu/pkg/models"
)

func line(date string, id, memo string, amount string) *models.StatementLine {
	d, _ := time.Parse("2006-01-02", date)
	a, _ := decimal.NewFromString(amount)
	return &models.StatementLine{Date: d, ID: id, RefNum: id, Memo: memo, Amount: a}
}

func TestCreate(t *testing.T) {
	lines := []*models.StatementLine{
		line("2014-01-02", "5501", "WIRSTRÖMS PU", "-200"),
		line("2014-01-05", "5502", "GROCERY STORE", "-350.25"),
	}

	got := string(Create(lines, nil))
	want := "Date,Verification,Memo,Amount\n" +
		"2014-01-02,5501,WIRSTRÖMS PU,-200.00\n" +
		"2014-01-05,5502,GROCERY STORE,-350.25\n"
	assert.Equal(t, want, got)
}

func TestCreateQuotesMemoWithComma(t *testing.T) {
	lines := []*models.StatementLine{
		line("2014-01-02", "5501", "PUB, STOCKHOLM", "-200"),
	}

	got := string(Create(lines, nil))
	want := "Date,Verification,Memo,Amount\n" +
		"2014-01-02,5501,\"PUB, STOCKHOLM\",-200.00\n"
	assert.Equal(t, want, got)
}

func TestCreateWithFilter(t *testing.T) {
	lines := []*models.StatementLine{
		line("2014-01-02", "5501", "WIRSTRÖMS PU", "-200"),
		line("2014-01-05", "5502", "GROCERY STORE", "-350.25"),
	}

	got := string(Create(lines, func(l *models.StatementLine) bool {
		return l.ID == "5502"
	}))
	assert.NotContains(t, got, "5501")
	assert.Contains(t, got, "GROCERY STORE")
}
