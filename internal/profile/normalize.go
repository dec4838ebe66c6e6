package profile

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeKey trims, lowercases and collapses internal whitespace.
// Used for case-insensitive keyword and marker comparisons.
func NormalizeKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// Normalize returns a cleaned copy of p ready for validation:
//   - free-text fields are trimmed and the email is lowercased
//   - remote records lose address, coordinates and travel time
//   - a missing full-text address is composed from its parts
func Normalize(p Profile) Profile {
	p = p.Clone()

	p.ID = strings.TrimSpace(p.ID)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Company = strings.TrimSpace(p.Company)
	p.Field = strings.TrimSpace(p.Field)
	p.SupervisorName = strings.TrimSpace(p.SupervisorName)
	p.SupervisorEmail = strings.ToLower(strings.TrimSpace(p.SupervisorEmail))
	p.StartDate = strings.TrimSpace(p.StartDate)
	p.EndDate = strings.TrimSpace(p.EndDate)
	p.Question1 = strings.TrimSpace(p.Question1)
	p.Question2 = strings.TrimSpace(p.Question2)
	p.Question3 = strings.TrimSpace(p.Question3)
	p.Question4 = strings.TrimSpace(p.Question4)
	p.Question5 = strings.TrimSpace(p.Question5)
	p.Question6 = strings.TrimSpace(p.Question6)
	p.RatingComment = strings.TrimSpace(p.RatingComment)

	if p.IsRemote {
		p.Address = nil
		p.Coordinates = nil
		p.TravelTime = nil
		return p
	}

	if p.Address != nil {
		a := p.Address
		a.Street = strings.TrimSpace(a.Street)
		a.City = strings.TrimSpace(a.City)
		a.State = strings.TrimSpace(a.State)
		a.Zip = strings.TrimSpace(a.Zip)
		a.FullAddress = strings.TrimSpace(a.FullAddress)
		if a.FullAddress == "" {
			a.FullAddress = ComposeAddress(a.Street, a.City, a.State, a.Zip)
		}
		if *a == (Address{}) {
			p.Address = nil
		}
	}

	if p.TravelTime != nil && !p.TravelTime.Known() {
		p.TravelTime = nil
	}

	return p
}

// ComposeAddress joins address parts as "street, city, state zip", skipping blanks.
func ComposeAddress(street, city, state, zip string) string {
	stateZip := strings.TrimSpace(strings.TrimSpace(state) + " " + strings.TrimSpace(zip))
	var parts []string
	for _, s := range []string{strings.TrimSpace(street), strings.TrimSpace(city), stateZip} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
