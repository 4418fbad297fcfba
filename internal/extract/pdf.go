package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/atlas-learn/atlasai/internal/domain"
	pdf "github.com/ledongthuc/pdf"
)

// PDFText extracts plain text from PDF bytes. A syntactically valid PDF
// that yields no text (scanned images, empty pages) is an extraction error.
func PDFText(data []byte) (string, error) {
	if !isPDF(data) {
		return "", domain.NewDomainError(domain.ErrCodeExtraction, "file is not a pdf")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to read pdf", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to extract pdf text", err)
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to read pdf text", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", domain.ErrNoTextInPDF
	}

	return text, nil
}

func isPDF(b []byte) bool {
	// PDF files start with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}
