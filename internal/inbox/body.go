package inbox

import (
	"io"
	"net/mail"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// bodyText pulls a plain-text rendering out of a raw RFC822 message. HTML
// bodies are flattened with goquery; anything unparseable degrades to the
// raw bytes, which is good enough for address extraction.
func bodyText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	body := string(raw)
	if msg, err := mail.ReadMessage(strings.NewReader(body)); err == nil {
		if b, err := io.ReadAll(msg.Body); err == nil {
			body = string(b)
		}
	}

	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<body") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
			return doc.Text()
		}
	}
	return body
}

// extractAddresses returns the distinct email addresses mentioned in text,
// lower-cased (bounce reports name the failed recipient in the body).
func extractAddresses(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range reEmail.FindAllString(text, -1) {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
