package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfFile extracts per-page text and the information dictionary from a PDF.
// The underlying parser panics on some malformed inputs, so the whole read
// is fenced and surfaced as a per-file extraction error; batch ingestion
// reports it and moves on.
func pdfFile(path string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("corrupt pdf %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corrupt pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that fail to decode are dropped, not the document.
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	meta := pdfMetadata(reader)
	if meta.Title == "" {
		meta.Title = titleFromFilename(path)
	}
	return &Result{Content: strings.Join(pages, "\n\n"), Meta: meta}, nil
}

// pdfMetadata reads title and author from the document information
// dictionary when one is present.
func pdfMetadata(r *pdf.Reader) Metadata {
	meta := Metadata{}
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}
	if title := info.Key("Title"); title.Kind() == pdf.String {
		meta.Title = strings.TrimSpace(title.RawString())
	}
	if author := info.Key("Author"); author.Kind() == pdf.String {
		if name := strings.TrimSpace(author.RawString()); name != "" {
			meta.Authors = []string{name}
		}
	}
	return meta
}
