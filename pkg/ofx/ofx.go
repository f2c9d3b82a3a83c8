// Package ofx writes statements as OFX 2 (XML) documents.
package ofx

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/sebu-dev/sebu/pkg/models"
)

const dateFormat = "20060102"

const header = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<?OFX OFXHEADER="200" VERSION="202" SECURITY="NONE" OLDFILEUID="NONE" NEWFILEUID="NONE"?>
`

type document struct {
	XMLName xml.Name     `xml:"OFX"`
	Signon  signonMsgSet `xml:"SIGNONMSGSRSV1"`
	Bank    bankMsgSet   `xml:"BANKMSGSRSV1"`
}

type signonMsgSet struct {
	Sonrs sonrs `xml:"SONRS"`
}

type sonrs struct {
	Status   status `xml:"STATUS"`
	DtServer string `xml:"DTSERVER"`
	Language string `xml:"LANGUAGE"`
}

type status struct {
	Code     int    `xml:"CODE"`
	Severity string `xml:"SEVERITY"`
}

type bankMsgSet struct {
	StmtTrnRs stmtTrnRs `xml:"STMTTRNRS"`
}

type stmtTrnRs struct {
	TrnUID string `xml:"TRNUID"`
	Status status `xml:"STATUS"`
	StmtRs stmtRs `xml:"STMTRS"`
}

type stmtRs struct {
	CurDef       string       `xml:"CURDEF"`
	BankAcctFrom bankAcctFrom `xml:"BANKACCTFROM"`
	TranList     tranList     `xml:"BANKTRANLIST"`
	LedgerBal    ledgerBal    `xml:"LEDGERBAL"`
}

type bankAcctFrom struct {
	BankID   string `xml:"BANKID"`
	AcctID   string `xml:"ACCTID"`
	AcctType string `xml:"ACCTTYPE"`
}

type tranList struct {
	DtStart      string        `xml:"DTSTART"`
	DtEnd        string        `xml:"DTEND"`
	Transactions []transaction `xml:"STMTTRN"`
}

type transaction struct {
	TrnType  string `xml:"TRNTYPE"`
	DtPosted string `xml:"DTPOSTED"`
	DtUser   string `xml:"DTUSER,omitempty"`
	TrnAmt   string `xml:"TRNAMT"`
	FitID    string `xml:"FITID"`
	RefNum   string `xml:"REFNUM,omitempty"`
	Memo     string `xml:"MEMO,omitempty"`
}

type ledgerBal struct {
	BalAmt string `xml:"BALAMT"`
	DtAsOf string `xml:"DTASOF"`
}

// Write renders the statement and its lines as one OFX document.
func Write(w io.Writer, stmt *models.Statement, lines []*models.StatementLine) error {
	doc := document{
		Signon: signonMsgSet{
			Sonrs: sonrs{
				Status:   status{Code: 0, Severity: "INFO"},
				DtServer: time.Now().UTC().Format(dateFormat),
				Language: "ENG",
			},
		},
		Bank: bankMsgSet{
			StmtTrnRs: stmtTrnRs{
				TrnUID: "0",
				Status: status{Code: 0, Severity: "INFO"},
				StmtRs: stmtRs{
					CurDef: stmt.Currency,
					BankAcctFrom: bankAcctFrom{
						BankID:   stmt.BankID,
						AcctID:   stmt.AccountID,
						AcctType: "CHECKING",
					},
					TranList: tranList{
						DtStart: stmt.StartDate.Format(dateFormat),
						DtEnd:   stmt.EndDate.Format(dateFormat),
					},
					LedgerBal: ledgerBal{
						BalAmt: stmt.EndBalance.StringFixed(2),
						DtAsOf: stmt.EndDate.Format(dateFormat),
					},
				},
			},
		},
	}

	for _, l := range lines {
		trnType := "CREDIT"
		if l.Amount.IsNegative() {
			trnType = "DEBIT"
		}
		t := transaction{
			TrnType:  trnType,
			DtPosted: l.Date.Format(dateFormat),
			TrnAmt:   l.Amount.StringFixed(2),
			FitID:    l.ID,
			RefNum:   l.RefNum,
			Memo:     l.Memo,
		}
		if l.DateUser != nil {
			t.DtUser = l.DateUser.Format(dateFormat)
		}
		doc.Bank.StmtTrnRs.StmtRs.TranList.Transactions = append(doc.Bank.StmtTrnRs.StmtRs.TranList.Transactions, t)
	}

	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("writing ofx header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding ofx document: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
