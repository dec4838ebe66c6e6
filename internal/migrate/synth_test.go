package migrate

import (
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/internmap/internal/profile"
)

func TestSynthesize_CategoryByKeyword(t *testing.T) {
	tests := []struct {
		field, company string
		remote         bool
		want           string
	}{
		{"Education", "Somewhere", false, "library"},
		{"Other", "Kirkland Public Library", false, "library"},
		{"Healthcare", "Evergreen", false, "health"},
		{"Other", "Sound Physical Therapy", false, "health"},
		{"Arts & Design", "Studio", false, "art"},
		{"Computer Science", "Initech", false, "tech"},
		{"Engineering", "Redmond Robotics", false, "tech"},
		{"Business", "Greenbridge Consulting", true, "remote"},
		{"Business", "Northwind", true, "remote"},
		{"Business", "Northwind", false, "general"},
	}
	for _, tt := range tests {
		p := profile.Profile{Field: tt.field, Company: tt.company, IsRemote: tt.remote}
		if got := narrativeFor(p).category; got != tt.want {
			t.Errorf("narrativeFor(%q, %q, remote=%v) = %s, want %s",
				tt.field, tt.company, tt.remote, got, tt.want)
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	a := profile.Profile{Field: "Healthcare", Company: "Overlake"}
	b := a

	Synthesize(&a, now)
	Synthesize(&b, now)
	if a.Question1 != b.Question1 {
		t.Errorf("non-deterministic: %q vs %q", a.Question1, b.Question1)
	}
	for i, q := range []string{a.Question1, a.Question2, a.Question3} {
		if strings.TrimSpace(q) == "" {
			t.Errorf("question%d empty", i+1)
		}
	}
}

func TestSynthesize_KeepsPresentValues(t *testing.T) {
	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	p := profile.Profile{
		Company:   "Acme",
		Question1: "mine",
		Question2: "also mine",
		Question3: "still mine",
		StartDate: "2024-01-01",
		EndDate:   "2024-02-01",
	}
	if Synthesize(&p, now) {
		t.Error("Synthesize reported a change on a complete record")
	}
	if p.Question1 != "mine" || p.StartDate != "2024-01-01" {
		t.Errorf("present values replaced: %+v", p)
	}
}

func TestSynthesize_DateDefaults(t *testing.T) {
	now := time.Date(2025, 4, 10, 15, 0, 0, 0, time.UTC)

	p := profile.Profile{Company: "Acme"}
	Synthesize(&p, now)
	if p.StartDate != "2025-01-10" || p.EndDate != "2025-05-10" {
		t.Errorf("dates = %s..%s", p.StartDate, p.EndDate)
	}

	onlyStart := profile.Profile{Company: "Acme", StartDate: "2024-06-01"}
	Synthesize(&onlyStart, now)
	if onlyStart.EndDate != "2024-09-29" {
		t.Errorf("EndDate = %s, want 2024-09-29", onlyStart.EndDate)
	}

	onlyEnd := profile.Profile{Company: "Acme", EndDate: "2024-09-29"}
	Synthesize(&onlyEnd, now)
	if onlyEnd.StartDate != "2024-06-01" {
		t.Errorf("StartDate = %s, want 2024-06-01", onlyEnd.StartDate)
	}
}

func TestSynthesize_EmptyCompany(t *testing.T) {
	p := profile.Profile{}
	Synthesize(&p, time.Now())
	if !strings.Contains(p.Question1, "this organization") {
		t.Errorf("Question1 = %q", p.Question1)
	}
}
