package domain

import (
	"strings"
	"time"
)

// Work types as they come back from discovery. Anything else scores zero.
const (
	WorkRemote = "remote"
	WorkHybrid = "hybrid"
	WorkOnsite = "onsite"
)

// Listing is a discovered job opportunity together with the outreach
// content generated for it. Company is the dedup key.
type Listing struct {
	ID                 string    `json:"id"`
	Company            string    `json:"company"`
	Role               string    `json:"role"`
	Snippet            string    `json:"snippet,omitempty"`
	Requirements       string    `json:"requirements,omitempty"`
	WorkType           string    `json:"workType,omitempty"`
	CompanyType        string    `json:"companyType,omitempty"`
	IsFamous           bool      `json:"isFamous,omitempty"`
	FundingStage       string    `json:"fundingStage,omitempty"`
	Location           string    `json:"location,omitempty"`
	HREmail            string    `json:"hrEmail,omitempty"`
	DecisionMakerEmail string    `json:"decisionMakerEmail,omitempty"`
	DecisionMakerName  string    `json:"decisionMakerName,omitempty"`
	EmailSubject       string    `json:"emailSubject,omitempty"`
	EmailBody          string    `json:"emailBody,omitempty"`
	Score              int       `json:"score"`
	Attempts           int       `json:"attempts,omitempty"`
	DiscoveredAt       time.Time `json:"discoveredAt,omitempty"`
}

// Recipients returns the addresses a send attempt goes to: HR email plus
// the decision maker if present. Empty means the listing is not dispatchable.
func (l Listing) Recipients() []string {
	var out []string
	if strings.TrimSpace(l.HREmail) != "" {
		out = append(out, strings.TrimSpace(l.HREmail))
	}
	if strings.TrimSpace(l.DecisionMakerEmail) != "" {
		out = append(out, strings.TrimSpace(l.DecisionMakerEmail))
	}
	return out
}

// RenderBody unescapes the literal \n sequences the generator leaves in the
// email body template.
func (l Listing) RenderBody() string {
	return strings.ReplaceAll(l.EmailBody, `\n`, "\n")
}
