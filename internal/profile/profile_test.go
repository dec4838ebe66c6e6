package profile

import (
	"strings"
	"testing"
	"time"
)

func TestIsReference(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"sample-anchor-kcls", true},
		{"sample-1", true},
		{"profile-01HZX", false},
		{"samples", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsReference(tt.id); got != tt.want {
			t.Errorf("IsReference(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestNewID(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	a, err := NewID(now)
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	b, err := NewID(now)
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}

	if !strings.HasPrefix(a, UserPrefix) {
		t.Errorf("id %q missing prefix %q", a, UserPrefix)
	}
	if IsReference(a) {
		t.Errorf("user id %q classified as reference", a)
	}
	if a == b {
		t.Errorf("NewID returned duplicate %q", a)
	}
	if len(a) != len(UserPrefix)+26 {
		t.Errorf("len(id) = %d, want %d", len(a), len(UserPrefix)+26)
	}
}

func TestTravelTime_Known(t *testing.T) {
	var nilTT *TravelTime
	if nilTT.Known() {
		t.Error("nil travel time reported known")
	}
	if (&TravelTime{}).Known() {
		t.Error("zero travel time reported known")
	}
	if !(&TravelTime{Bus: 12}).Known() {
		t.Error("bus-only travel time reported unknown")
	}
}

func TestTravelTime_Minutes(t *testing.T) {
	tt := &TravelTime{Driving: 10, Walking: 40, Bus: 25}
	if got := tt.Minutes("driving"); got != 10 {
		t.Errorf("driving = %d", got)
	}
	if got := tt.Minutes("walking"); got != 40 {
		t.Errorf("walking = %d", got)
	}
	if got := tt.Minutes("bus"); got != 25 {
		t.Errorf("bus = %d", got)
	}
	if got := tt.Minutes("cycling"); got != 0 {
		t.Errorf("unknown mode = %d, want 0", got)
	}

	var nilTT *TravelTime
	if got := nilTT.Minutes("driving"); got != 0 {
		t.Errorf("nil.Minutes = %d, want 0", got)
	}
}

func TestClone_IsDeep(t *testing.T) {
	p := validPhysical()
	p.Photos = []string{"data:image/png;base64,AAAA"}

	c := p.Clone()
	c.Address.City = "Redmond"
	c.Coordinates.Lat = 0
	c.TravelTime.Driving = 99
	c.Photos[0] = "changed"

	if p.Address.City != "Bellevue" {
		t.Error("Clone shares Address")
	}
	if p.Coordinates.Lat == 0 {
		t.Error("Clone shares Coordinates")
	}
	if p.TravelTime.Driving == 99 {
		t.Error("Clone shares TravelTime")
	}
	if p.Photos[0] == "changed" {
		t.Error("Clone shares Photos")
	}
}

func TestCloneAll_Nil(t *testing.T) {
	out := CloneAll(nil)
	if out == nil || len(out) != 0 {
		t.Errorf("CloneAll(nil) = %#v, want empty slice", out)
	}
}

func TestFullName(t *testing.T) {
	p := Profile{FirstName: "Maya", LastName: "Chen"}
	if got := p.FullName(); got != "Maya Chen" {
		t.Errorf("FullName() = %q", got)
	}
	p.LastName = ""
	if got := p.FullName(); got != "Maya" {
		t.Errorf("FullName() = %q", got)
	}
}

func TestIsField(t *testing.T) {
	if !IsField("Computer Science") {
		t.Error("Computer Science not recognized")
	}
	if IsField("computer science") {
		t.Error("field tags are case-sensitive")
	}
	if IsField("") {
		t.Error("empty tag recognized")
	}
}

func TestAnswers_SkipsEmpty(t *testing.T) {
	p := validPhysical()
	p.Question2 = ""
	p.Question5 = "Ask questions early."

	got := p.Answers()
	if len(got) != 3 {
		t.Fatalf("len(Answers) = %d, want 3", len(got))
	}
	if got[0].Question != Questions[0] || got[0].Text != p.Question1 {
		t.Errorf("Answers[0] = %+v", got[0])
	}
	if got[2].Question != Questions[4] {
		t.Errorf("Answers[2].Question = %q, want %q", got[2].Question, Questions[4])
	}
}
