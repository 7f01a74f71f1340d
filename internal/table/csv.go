package table

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// CSVMimeType is the content type of exported files.
const CSVMimeType = "text/csv;charset=utf-8"

// Export is a rendered CSV file.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// QuoteField wraps s in double quotes and doubles any quote inside it.
func QuoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteCSV writes a header row and one row per filtered record. Columns
// marked ExcludeFromExport are skipped. Every field is quoted.
func (c *Controller[R]) WriteCSV(w io.Writer) error {
	cols := make([]Column[R], 0, len(c.columns))
	for _, col := range c.columns {
		if !col.ExcludeFromExport {
			cols = append(cols, col)
		}
	}

	bw := bufio.NewWriter(w)
	fields := make([]string, len(cols))
	for i, col := range cols {
		fields[i] = QuoteField(col.Header())
	}
	if _, err := bw.WriteString(strings.Join(fields, ",")); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, rec := range c.filtered {
		for i, col := range cols {
			fields[i] = QuoteField(col.ExportValue(rec))
		}
		if _, err := bw.WriteString("\n" + strings.Join(fields, ",")); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// ExportCSV renders the filtered records as a CSV file named
// <table-id>-<epoch-ms>.csv.
func (c *Controller[R]) ExportCSV(now time.Time) (Export, error) {
	var buf bytes.Buffer
	if err := c.WriteCSV(&buf); err != nil {
		return Export{}, err
	}
	return Export{
		Filename:    fmt.Sprintf("%s-%d.csv", c.id, now.UnixMilli()),
		ContentType: CSVMimeType,
		Data:        buf.Bytes(),
	}, nil
}
