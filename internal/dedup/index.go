// Package dedup is the derived membership view over the history log.
package dedup

import (
	"strings"

	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
)

// Index answers "already contacted?" for emails and companies. Reads are
// side-effect-free; rebuild the index after history mutates.
type Index struct {
	emails    map[string]struct{}
	companies map[string]struct{}
}

func NewIndex(h *domain.History) *Index {
	ix := &Index{
		emails:    make(map[string]struct{}, len(h.SentEmails)),
		companies: make(map[string]struct{}, len(h.SentCompanies)),
	}
	for _, e := range h.SentEmails {
		ix.emails[strings.ToLower(e)] = struct{}{}
	}
	for _, c := range h.SentCompanies {
		ix.companies[strings.ToLower(c)] = struct{}{}
	}
	return ix
}

// IsEmailContacted is a case-insensitive exact-match lookup. No fuzzy
// matching, no normalization beyond lower-casing.
func (ix *Index) IsEmailContacted(email string) bool {
	_, ok := ix.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func (ix *Index) IsCompanyContacted(company string) bool {
	_, ok := ix.companies[strings.ToLower(strings.TrimSpace(company))]
	return ok
}

// FilterNew drops listings whose company or HR email was ever attempted,
// sent or failed alike.
func (ix *Index) FilterNew(listings []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if ix.IsCompanyContacted(l.Company) {
			continue
		}
		if l.HREmail != "" && ix.IsEmailContacted(l.HREmail) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Companies returns the contacted-company list for discovery exclusion.
func (ix *Index) Companies() []string {
	out := make([]string, 0, len(ix.companies))
	for c := range ix.companies {
		out = append(out, c)
	}
	return out
}
