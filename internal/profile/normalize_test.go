package profile

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  ASDF ", "asdf"},
		{"King  County\tLibrary", "king county library"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_TrimsAndLowercasesEmail(t *testing.T) {
	p := validPhysical()
	p.FirstName = "  Maya "
	p.Email = " Maya@Example.COM "
	p.SupervisorEmail = "Boss@Example.com"

	got := Normalize(p)
	if got.FirstName != "Maya" {
		t.Errorf("FirstName = %q", got.FirstName)
	}
	if got.Email != "maya@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
	if got.SupervisorEmail != "boss@example.com" {
		t.Errorf("SupervisorEmail = %q", got.SupervisorEmail)
	}
	if p.FirstName != "  Maya " {
		t.Error("Normalize mutated its input")
	}
}

func TestNormalize_RemoteClearsLocation(t *testing.T) {
	p := validPhysical()
	p.IsRemote = true

	got := Normalize(p)
	if got.Address != nil || got.Coordinates != nil || got.TravelTime != nil {
		t.Errorf("remote record kept location: %+v %+v %+v", got.Address, got.Coordinates, got.TravelTime)
	}
	if p.Address == nil {
		t.Error("Normalize mutated its input")
	}
}

func TestNormalize_ComposesFullAddress(t *testing.T) {
	p := validPhysical()
	p.Address.FullAddress = ""

	got := Normalize(p)
	want := "1111 110th Ave NE, Bellevue, WA 98004"
	if got.Address.FullAddress != want {
		t.Errorf("FullAddress = %q, want %q", got.Address.FullAddress, want)
	}
}

func TestNormalize_EmptyAddressBecomesNil(t *testing.T) {
	p := validPhysical()
	p.Address = &Address{Street: "  "}

	if got := Normalize(p); got.Address != nil {
		t.Errorf("Address = %+v, want nil", got.Address)
	}
}

func TestNormalize_UnknownTravelTimeBecomesNil(t *testing.T) {
	p := validPhysical()
	p.TravelTime = &TravelTime{}

	if got := Normalize(p); got.TravelTime != nil {
		t.Errorf("TravelTime = %+v, want nil", got.TravelTime)
	}
}

func TestComposeAddress(t *testing.T) {
	tests := []struct {
		street, city, state, zip string
		want                     string
	}{
		{"1 Main St", "Kirkland", "WA", "98033", "1 Main St, Kirkland, WA 98033"},
		{"", "Kirkland", "WA", "", "Kirkland, WA"},
		{"", "", "", "98033", "98033"},
		{"", "", "", "", ""},
	}
	for _, tt := range tests {
		if got := ComposeAddress(tt.street, tt.city, tt.state, tt.zip); got != tt.want {
			t.Errorf("ComposeAddress(%q,%q,%q,%q) = %q, want %q",
				tt.street, tt.city, tt.state, tt.zip, got, tt.want)
		}
	}
}
