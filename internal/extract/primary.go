package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	readPrimary    = primaryText
	readStructural = structuralText
)

func openReader(data []byte) (*pdf.Reader, error) {
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// primaryText reads the text layer page by page in reading order.
// The parser panics on some malformed inputs; that is reported as an error.
func primaryText(data []byte) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	r, err := openReader(data)
	if err != nil {
		return "", 0, err
	}
	pages = r.NumPage()

	var buf strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return buf.String(), pages, fmt.Errorf("page %d: %w", i, err)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(pageText)
	}
	return buf.String(), pages, nil
}

// structuralText rebuilds text from the page/row/run structure: run tokens
// are percent-decoded and concatenated per row, rows joined by a space and
// pages by a blank line.
func structuralText(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	r, err := openReader(data)
	if err != nil {
		return "", err
	}

	pageTexts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			var line strings.Builder
			for _, run := range row.Content {
				line.WriteString(decodeToken(run.S))
			}
			if l := strings.TrimSpace(line.String()); l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) > 0 {
			pageTexts = append(pageTexts, strings.Join(lines, " "))
		}
	}
	return strings.Join(pageTexts, "\n\n"), nil
}

// decodeToken percent-decodes a run token, keeping the raw token when it is
// not valid percent-encoding.
func decodeToken(raw string) string {
	if !strings.Contains(raw, "%") {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
