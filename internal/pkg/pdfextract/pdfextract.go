package pdfextract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Limits bounds how much of a document is read. Zero means unlimited.
type Limits struct {
	MaxPages int
	MaxBytes int
}

// Result is the extracted text. Truncated is set when a limit cut it short.
type Result struct {
	Text      string
	Pages     int
	Truncated bool
}

// ExtractText returns the plain text of the PDF in data, page by page,
// stopping once a limit is reached. A PDF without text yields an empty Text.
func ExtractText(data []byte, limits Limits) (*Result, error) {
	if len(data) == 0 {
		return &Result{}, nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	res := &Result{Pages: reader.NumPage()}
	pages := res.Pages
	if limits.MaxPages > 0 && pages > limits.MaxPages {
		pages = limits.MaxPages
		res.Truncated = true
	}

	var out strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, err
		}
		out.WriteString(text)
		if limits.MaxBytes > 0 && out.Len() > limits.MaxBytes {
			res.Text = cut(out.String(), limits.MaxBytes)
			res.Truncated = true
			return res, nil
		}
	}
	res.Text = out.String()
	return res, nil
}

// cut shortens s to at most n bytes on a rune boundary.
func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
