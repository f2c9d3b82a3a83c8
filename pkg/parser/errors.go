package parser

import "fmt"

// LayoutError reports a workbook whose structure does not match the
// layout this converter was written against. Construction never returns
// a parser alongside one.
type LayoutError struct {
	Reason string
}

func (e *LayoutError) Error() string {
	return "unexpected statement layout: " + e.Reason
}

func layoutErrorf(format string, args ...any) *LayoutError {
	return &LayoutError{Reason: fmt.Sprintf(format, args...)}
}

// MalformedRecordError reports a transaction row that could not be
// parsed into a statement line. It aborts the whole conversion; rows are
// never skipped.
type MalformedRecordError struct {
	Row    int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at row %d: %s", e.Row, e.Reason)
}

func malformedf(row int, format string, args ...any) *MalformedRecordError {
	return &MalformedRecordError{Row: row, Reason: fmt.Sprintf(format, args...)}
}
