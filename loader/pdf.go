package loader

import (
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/sanitize"
)

// loadPDF extracts text page by page, discarding (and logging) empty
// pages, and concatenates the rest with blank-line separators.
func loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", ragcore.Wrap(ragcore.KindInternal, "failed to open PDF file", err)
	}
	defer f.Close()

	var pages []string
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("loader: failed to extract PDF page text", "page", i, "error", err)
			continue
		}
		cleaned := sanitize.Text(text)
		if cleaned == "" {
			slog.Warn("loader: empty PDF page", "path", path, "page", i)
			continue
		}
		pages = append(pages, cleaned)
	}

	if len(pages) == 0 {
		return "", ragcore.NewError(ragcore.KindUnprocessable, "PDF file does not contain extractable text")
	}
	slog.Info("loader: loaded PDF dataset", "pages", len(pages), "path", path)
	return strings.Join(pages, "\n\n"), nil
}
