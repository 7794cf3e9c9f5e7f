package discovery

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a job-search agent for a software engineer looking for work.
Search the web for currently open positions matching the candidate and the search focus.
For each position, draft a short personalized cold email to the hiring contact.

Respond ONLY with a JSON array. Each element must have these fields:
  company, role, snippet, requirements, workType (remote|hybrid|onsite),
  companyType (e.g. foreign_startup, indian_startup, mnc), isFamous (boolean),
  fundingStage, location, hrEmail, decisionMakerEmail, decisionMakerName,
  emailSubject, emailBody.
Use empty strings for unknown fields. Do not invent email addresses: only include
addresses actually published for the company. Do not wrap the array in markdown.`

const maxResumeChars = 6000

func buildUserPrompt(p Profile, search string, excludedCompanies []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Search focus: %s\n\n", search)
	if p.Name != "" {
		fmt.Fprintf(&b, "Candidate: %s", p.Name)
		if p.Headline != "" {
			fmt.Fprintf(&b, " (%s)", p.Headline)
		}
		b.WriteString("\n")
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.Skills, ", "))
	}

	if resume := strings.TrimSpace(p.ResumeText); resume != "" {
		if len(resume) > maxResumeChars {
			resume = resume[:maxResumeChars]
		}
		fmt.Fprintf(&b, "\nResume:\n%s\n", resume)
	}

	if len(excludedCompanies) > 0 {
		fmt.Fprintf(&b, "\nAlready contacted, exclude these companies: %s\n",
			strings.Join(excludedCompanies, ", "))
	}

	b.WriteString("\nReturn up to 10 listings as the JSON array described in the system prompt.")
	return b.String()
}
