package domain

import (
	"strings"
	"time"
)

// Outcome of a send attempt. A listing ends up in exactly one terminal record
// per attempt; abandoned and replied close the retry loop for good.
type Status string

const (
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusAbandoned Status = "abandoned"
	StatusReplied   Status = "replied"
)

// HistoryRecord is a Listing annotated with its outcome.
type HistoryRecord struct {
	Listing
	Status       Status     `json:"status"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	FailedAt     *time.Time `json:"failedAt,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// History is the append-only log of every attempt plus the dedup sets.
// Emails and companies are stored lower-cased; membership is monotonic.
type History struct {
	Jobs          []HistoryRecord `json:"jobs"`
	SentEmails    []string        `json:"sentEmails"`
	SentCompanies []string        `json:"sentCompanies"`
}

// NewHistory returns the empty default structure written by store.Init.
func NewHistory() *History {
	return &History{
		Jobs:          []HistoryRecord{},
		SentEmails:    []string{},
		SentCompanies: []string{},
	}
}

// RecordSent appends a sent record and adds every recipient email and the
// company to the dedup sets.
func (h *History) RecordSent(l Listing, at time.Time) {
	t := at
	h.Jobs = append(h.Jobs, HistoryRecord{Listing: l, Status: StatusSent, SentAt: &t})
	for _, addr := range l.Recipients() {
		h.addEmail(addr)
	}
	h.addCompany(l.Company)
}

// RecordFailed appends a failed record. The company joins the dedup set so it
// is never rediscovered; the recipient emails do not, the attempt never
// reached them.
func (h *History) RecordFailed(l Listing, at time.Time, errMsg string) {
	t := at
	h.Jobs = append(h.Jobs, HistoryRecord{Listing: l, Status: StatusFailed, FailedAt: &t, ErrorMessage: errMsg})
	h.addCompany(l.Company)
}

// RecordAbandoned closes out a listing that exhausted its retry budget.
func (h *History) RecordAbandoned(l Listing, at time.Time, errMsg string) {
	t := at
	h.Jobs = append(h.Jobs, HistoryRecord{Listing: l, Status: StatusAbandoned, FailedAt: &t, ErrorMessage: errMsg})
	h.addCompany(l.Company)
}

// RecordReplied notes that a contacted company wrote back.
func (h *History) RecordReplied(l Listing, at time.Time) {
	t := at
	h.Jobs = append(h.Jobs, HistoryRecord{Listing: l, Status: StatusReplied, SentAt: &t})
	h.addCompany(l.Company)
}

func (h *History) addEmail(addr string) {
	key := strings.ToLower(strings.TrimSpace(addr))
	if key == "" {
		return
	}
	for _, e := range h.SentEmails {
		if e == key {
			return
		}
	}
	h.SentEmails = append(h.SentEmails, key)
}

func (h *History) addCompany(name string) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return
	}
	for _, c := range h.SentCompanies {
		if c == key {
			return
		}
	}
	h.SentCompanies = append(h.SentCompanies, key)
}
