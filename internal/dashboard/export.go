package dashboard

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sifan077/VisitAudit/internal/app/model"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

const csvTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var csvHeader = []string{
	"Timestamp", "Email", "IP Address", "Country", "Region", "City", "Source", "Platform", "User Agent",
}

// ExportFileName returns unsubscribe-logs-YYYY-MM-DD.<format> for now's UTC date.
func ExportFileName(format string, now time.Time) string {
	return fmt.Sprintf("unsubscribe-logs-%s.%s", now.UTC().Format("2006-01-02"), format)
}

// ExportJSON writes records verbatim as an indented JSON array.
func ExportJSON(w io.Writer, records []model.VisitRecord) error {
	if records == nil {
		records = []model.VisitRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// ExportCSV writes the fixed header and one nine-field row per record. The user agent
// is always quoted; other fields are quoted only when they need it.
func ExportCSV(w io.Writer, records []model.VisitRecord) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(csvHeader, ","))
	bw.WriteString("\n")

	for _, r := range records {
		ts := ""
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.UTC().Format(csvTimeLayout)
		}
		fields := []string{
			csvField(ts),
			csvField(r.Email),
			csvField(r.IPAddress),
			csvField(r.Country),
			csvField(r.Region),
			csvField(r.City),
			csvField(r.Source),
			csvField(r.Platform),
			quote(r.UserAgent),
		}
		bw.WriteString(strings.Join(fields, ","))
		bw.WriteString("\n")
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func csvField(v string) string {
	if strings.ContainsAny(v, ",\"\r\n") {
		return quote(v)
	}
	return v
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
