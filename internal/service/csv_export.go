package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// utf8BOM lets spreadsheet tools detect the encoding of exported files.
const utf8BOM = "\ufeff"

func writeCSV(w io.Writer, headers []string, rows [][]string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// exportFileName builds names such as relatorio_engenharia_2024_20240610.csv.
func exportFileName(prefix, title string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s.csv", prefix, sanitizeExportTitle(title), now.Format("20060102"))
}

func sanitizeExportTitle(title string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(title)))

	var b strings.Builder
	lastUnderscore := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r) || r == '_' || r == '.':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "lista"
	}
	return out
}

func formatHours(value float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}
