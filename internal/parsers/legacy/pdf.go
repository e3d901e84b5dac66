package legacy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// extractPDF produces one text block per non-empty page.
func extractPDF(filename string, content []byte) (result *domain.ParseResult, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %s: malformed pdf: %v", domain.ErrLoadDocument, filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLoadDocument, filename, err)
	}

	result = &domain.ParseResult{}
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", domain.ErrLoadDocument, filename, i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		result.TextBlocks = append(result.TextBlocks, domain.TextBlock{
			Text:      text,
			PageStart: i,
			PageEnd:   i,
			BlockType: "page",
		})
	}
	return result, nil
}
