package csv

import (
	"bytes"
	"encoding/csv"

	"github.com/sebu-dev/sebu/pkg/models"
)

type FilterFunc func(*models.StatementLine) bool

// Create renders statement lines as CSV, keeping only the lines the
// filter accepts. A nil filter keeps everything.
func Create(lines []*models.StatementLine, filter FilterFunc) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Date", "Verification", "Memo", "Amount"})
	for _, l := range lines {
		if filter == nil || filter(l) {
			_ = w.Write([]string{
				l.Date.Format("2006-01-02"),
				l.ID,
				l.Memo,
				l.Amount.StringFixed(2),
			})
		}
	}
	w.Flush()
	return buf.Bytes()
}
