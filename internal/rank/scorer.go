package rank

import "github.com/AnkanSaha/auto-jobhunter/internal/domain"

type Scorer interface {
	Score(l domain.Listing) int
}
