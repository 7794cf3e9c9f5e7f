// Package profile extracts the candidate's resume text for the discovery
// prompt. The resume file is also what gets attached to every email.
package profile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"
)

// ExtractText reads the resume at path and returns its plain text. PDF and
// plain-text files are supported; anything unreadable fails loudly so boot
// can abort before any email goes out with a broken attachment.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "read resume %s", path)
		}
		return string(b), nil
	default:
		return "", errors.Newf("unsupported resume format %q (want .pdf, .txt or .md)", filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open resume %s", path)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", errors.Wrapf(err, "extract text from %s", path)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", errors.Wrapf(err, "read text from %s", path)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", errors.Newf("resume %s contains no extractable text", path)
	}
	return text, nil
}
