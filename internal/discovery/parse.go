package discovery

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
)

// ParseListings extracts the listings array from an LLM response. Models wrap
// JSON in code fences or lead with prose often enough that we cut from the
// first '[' to the last ']' before unmarshalling.
func ParseListings(content string) ([]domain.Listing, error) {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return nil, nil
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, errors.Newf("no JSON array in response (%d bytes)", len(raw))
	}
	raw = raw[start : end+1]

	var listings []domain.Listing
	if err := json.Unmarshal([]byte(raw), &listings); err != nil {
		return nil, errors.Wrap(err, "unmarshal listings")
	}

	// A listing without a company can never be deduped; drop it.
	out := listings[:0]
	for _, l := range listings {
		if strings.TrimSpace(l.Company) == "" {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func normalizeCompany(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
