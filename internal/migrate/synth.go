package migrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/internmap/internal/profile"
)

const (
	// DefaultStartOffset is how far before now a synthesized start date falls.
	DefaultStartOffset = 90 * 24 * time.Hour
	// DefaultDuration is the length of a synthesized date range.
	DefaultDuration = 120 * 24 * time.Hour
)

// narrative is the placeholder text for the three required answers.
type narrative struct {
	category string
	keywords []string
	answers  [3]string
}

// narratives are tried in order; the first whose keyword appears in the
// lowercased field or company wins. %s is replaced by the company name.
var narratives = []narrative{
	{
		category: "library",
		keywords: []string{"librar", "educat", "school", "tutor", "teach"},
		answers: [3]string{
			"I helped run programs for students and families at %s.",
			"Explaining something simply takes real preparation.",
			"Yes, especially for anyone interested in education.",
		},
	},
	{
		category: "health",
		keywords: []string{"health", "medic", "hospital", "clinic", "therap", "care"},
		answers: [3]string{
			"I supported patient-facing staff at %s.",
			"Small details matter when people are relying on you.",
			"Yes, it is a close look at how care really works.",
		},
	},
	{
		category: "art",
		keywords: []string{"art", "design", "museum", "writ", "journal", "media"},
		answers: [3]string{
			"I worked on creative projects with the team at %s.",
			"Drafts get better with every round of feedback.",
			"Yes, if you want a portfolio piece by the end.",
		},
	},
	{
		category: "tech",
		keywords: []string{"tech", "robot", "computer", "software", "engineer", "code", "data"},
		answers: [3]string{
			"I built and tested software tools at %s.",
			"Reading existing code is half the job.",
			"Yes, you ship real work that people use.",
		},
	},
	{
		category: "remote",
		keywords: []string{"remote", "consult", "virtual"},
		answers: [3]string{
			"I worked remotely on research and client projects for %s.",
			"Clear written updates keep a remote team together.",
			"Yes, if you are comfortable managing your own time.",
		},
	},
}

var genericNarrative = narrative{
	category: "general",
	answers: [3]string{
		"I assisted the team at %s with day-to-day projects.",
		"Asking questions early saves everyone time.",
		"Yes, it is a solid first professional experience.",
	},
}

// narrativeFor picks the placeholder category for p.
func narrativeFor(p profile.Profile) narrative {
	text := strings.ToLower(p.Field + " " + p.Company)
	for _, n := range narratives {
		for _, kw := range n.keywords {
			if strings.Contains(text, kw) {
				return n
			}
		}
	}
	if p.IsRemote {
		return narratives[len(narratives)-1]
	}
	return genericNarrative
}

// Synthesize fills any missing required narrative answer and date of p with
// deterministic placeholder content. Present values are never replaced. It
// reports whether anything changed.
func Synthesize(p *profile.Profile, now time.Time) bool {
	changed := false
	n := narrativeFor(*p)
	company := p.Company
	if company == "" {
		company = "this organization"
	}

	answers := []*string{&p.Question1, &p.Question2, &p.Question3}
	for i, a := range answers {
		if *a != "" {
			continue
		}
		text := n.answers[i]
		if strings.Contains(text, "%s") {
			text = fmt.Sprintf(text, company)
		}
		*a = text
		changed = true
	}

	if p.StartDate == "" {
		start := now.Add(-DefaultStartOffset)
		if end, err := time.Parse(profile.DateLayout, p.EndDate); err == nil {
			start = end.Add(-DefaultDuration)
		}
		p.StartDate = start.Format(profile.DateLayout)
		changed = true
	}
	if p.EndDate == "" {
		start, err := time.Parse(profile.DateLayout, p.StartDate)
		if err != nil {
			start = now.Add(-DefaultStartOffset)
		}
		p.EndDate = start.Add(DefaultDuration).Format(profile.DateLayout)
		changed = true
	}
	return changed
}
