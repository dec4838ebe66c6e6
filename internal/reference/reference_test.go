package reference

import (
	"testing"

	"github.com/hpungsan/internmap/internal/profile"
)

func TestLoad_EmbeddedSamplesAreValid(t *testing.T) {
	d, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Len() == 0 {
		t.Fatal("no reference profiles")
	}

	for _, p := range d.Profiles() {
		if !p.IsReference() {
			t.Errorf("%s: missing reference prefix", p.ID)
		}
		if err := profile.Validate(p); err != nil {
			t.Errorf("%s: %v", p.ID, err)
		}
		if !p.IsRemote && !p.HasTravelTime() {
			t.Errorf("%s: physical sample without travel time", p.ID)
		}
	}
}

func TestLoad_HasAnchorAndRemote(t *testing.T) {
	d, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	anchor, ok := d.Anchor()
	if !ok {
		t.Fatal("anchor missing")
	}
	if anchor.ID != AnchorID || anchor.Company != AnchorCompany {
		t.Errorf("anchor = %s/%s", anchor.ID, anchor.Company)
	}

	remote := d.Remote()
	if len(remote) == 0 {
		t.Fatal("no remote samples")
	}
	for _, p := range remote {
		if !p.IsRemote {
			t.Errorf("%s: Remote() returned physical record", p.ID)
		}
	}
}

func TestNew_RejectsBadIDs(t *testing.T) {
	if _, err := New([]profile.Profile{{ID: "profile-1"}}); err == nil {
		t.Error("accepted id without reference prefix")
	}
	if _, err := New([]profile.Profile{{ID: "sample-1"}, {ID: "sample-1"}}); err == nil {
		t.Error("accepted duplicate ids")
	}
}

func TestProfiles_ReturnsCopies(t *testing.T) {
	d, err := New([]profile.Profile{{ID: "sample-1", Company: "A"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ps := d.Profiles()
	ps[0].Company = "changed"

	p, _ := d.ByID("sample-1")
	if p.Company != "A" {
		t.Errorf("dataset mutated through Profiles(): %q", p.Company)
	}
}

func TestAnchor_FallsBackToCompany(t *testing.T) {
	d, err := New([]profile.Profile{{ID: "sample-kcls-old", Company: AnchorCompany}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p, ok := d.Anchor()
	if !ok || p.ID != "sample-kcls-old" {
		t.Errorf("Anchor() = %s, %v", p.ID, ok)
	}
}

func physical(id, company string, lat, lng float64) profile.Profile {
	return profile.Profile{ID: id, Company: company, Coordinates: &profile.Coordinates{Lat: lat, Lng: lng}}
}

func remote(id, company string) profile.Profile {
	return profile.Profile{ID: id, Company: company, IsRemote: true}
}

func TestMatch(t *testing.T) {
	refs := []profile.Profile{
		physical("sample-a", "Acme", 47.6000, -122.2000),
		physical("sample-b", "Acme", 47.6080, -122.2000),
		physical("sample-c", "Globex", 47.7000, -122.1000),
		remote("sample-r1", "Remote Co"),
		remote("sample-r2", "Twin Co"),
		remote("sample-r3", "Twin Co"),
	}

	tests := []struct {
		name   string
		p      profile.Profile
		wantID string
	}{
		{"exact id", physical("sample-c", "Renamed", 0, 0), "sample-c"},
		{"id wins over company", physical("sample-b", "Acme", 47.6000, -122.2000), "sample-b"},
		{"company and coords", physical("profile-1", "Globex", 47.7050, -122.1050), "sample-c"},
		{"closest candidate", physical("profile-2", "Acme", 47.6070, -122.2000), "sample-b"},
		{"outside tolerance", physical("profile-3", "Globex", 47.7200, -122.1000), ""},
		{"just beyond tolerance", physical("profile-4", "Globex", 47.7000, -122.0899), ""},
		{"company differs", physical("profile-5", "acme", 47.6000, -122.2000), ""},
		{"physical without coords", profile.Profile{ID: "profile-6", Company: "Acme"}, ""},
		{"unique remote company", remote("profile-7", "Remote Co"), "sample-r1"},
		{"ambiguous remote company", remote("profile-8", "Twin Co"), ""},
		{"remote does not match physical", remote("profile-9", "Globex"), ""},
		{"physical does not match remote", physical("profile-10", "Remote Co", 47.6, -122.2), ""},
		{"empty company", physical("profile-11", "", 47.6, -122.2), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.p, refs)
			if tt.wantID == "" {
				if ok {
					t.Errorf("matched %s, want no match", got.ID)
				}
				return
			}
			if !ok || got.ID != tt.wantID {
				t.Errorf("Match() = %s, %v, want %s", got.ID, ok, tt.wantID)
			}
		})
	}
}
