package rank

import (
	"sort"
	"strings"

	"github.com/AnkanSaha/auto-jobhunter/internal/domain"
)

// Additive point system. The score only orders queue insertion, it never
// filters a listing out.
const (
	weightRemote = 100
	weightHybrid = 50
	weightOnsite = 10

	bonusForeign = 40
	bonusStartup = 30
	bonusFamous  = 25
	bonusSkill   = 15

	bonusSeriesBC = 20
	bonusSeriesA  = 15
)

// WeightScorer scores a listing against the candidate's skill set.
// Deterministic and pure.
type WeightScorer struct {
	Skills []string
}

func (s WeightScorer) Score(l domain.Listing) int {
	score := 0

	switch strings.ToLower(strings.TrimSpace(l.WorkType)) {
	case domain.WorkRemote:
		score += weightRemote
	case domain.WorkHybrid:
		score += weightHybrid
	case domain.WorkOnsite:
		score += weightOnsite
	}

	companyType := strings.ToLower(l.CompanyType)
	if strings.Contains(companyType, "foreign") || strings.Contains(companyType, "international") {
		score += bonusForeign
	}
	if strings.Contains(companyType, "startup") {
		score += bonusStartup
	}

	if l.IsFamous {
		score += bonusFamous
	}

	// One concatenated haystack: each skill contributes at most once even if
	// it appears in several fields.
	text := strings.ToLower(l.Role + " " + l.Snippet + " " + l.Requirements)
	for _, skill := range s.Skills {
		needle := strings.ToLower(strings.TrimSpace(skill))
		if needle == "" {
			continue
		}
		if strings.Contains(text, needle) {
			score += bonusSkill
		}
	}

	// First match wins: series b/c beats series a.
	funding := strings.ToLower(l.FundingStage)
	switch {
	case strings.Contains(funding, "series b"), strings.Contains(funding, "series c"):
		score += bonusSeriesBC
	case strings.Contains(funding, "series a"):
		score += bonusSeriesA
	}

	return score
}

// ScoreAndSort attaches scores and orders listings best-first. Stable so
// equal scores keep their discovery order.
func ScoreAndSort(s Scorer, listings []domain.Listing) []domain.Listing {
	for i := range listings {
		listings[i].Score = s.Score(listings[i])
	}
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Score > listings[j].Score
	})
	return listings
}
