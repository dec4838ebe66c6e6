package profile

import (
	"slices"
	"time"
)

// Profile is one internship-experience record pinned to a location.
// JSON keys match the persisted browser schema so existing arrays load unchanged.
type Profile struct {
	// ID is unique within the store. ReferencePrefix marks bundled sample records.
	ID string `json:"id"`

	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`

	Company         string `json:"company" validate:"required"`
	Field           string `json:"field" validate:"required,fieldtag"`
	SupervisorName  string `json:"supervisorName,omitempty"`
	SupervisorEmail string `json:"supervisorEmail,omitempty" validate:"omitempty,email"`

	IsRemote    bool         `json:"isRemote"`
	Address     *Address     `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`

	// Question1-3 are required narrative answers; 4-6 are optional.
	Question1 string `json:"question1" validate:"required"`
	Question2 string `json:"question2" validate:"required"`
	Question3 string `json:"question3" validate:"required"`
	Question4 string `json:"question4,omitempty"`
	Question5 string `json:"question5,omitempty"`
	Question6 string `json:"question6,omitempty"`

	// Rating is 1-5. Zero only appears on records written before ratings existed.
	Rating        int    `json:"rating,omitempty" validate:"required,min=1,max=5"`
	RatingComment string `json:"ratingComment,omitempty" validate:"required"`

	TravelTime *TravelTime `json:"travelTime,omitempty"`

	// Photos are inline data URLs. They live in memory for the session only.
	Photos []string `json:"photos,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Address is the structured street address of a physical internship.
type Address struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	FullAddress string `json:"fullAddress"`
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TravelTime holds minutes from the fixed origin. Zero means unknown.
type TravelTime struct {
	Driving int `json:"driving,omitempty"`
	Walking int `json:"walking,omitempty"`
	Bus     int `json:"bus,omitempty"`
}

// Known reports whether any component is a positive number of minutes.
func (t *TravelTime) Known() bool {
	return t != nil && (t.Driving > 0 || t.Walking > 0 || t.Bus > 0)
}

// Minutes returns the component for mode ("driving", "walking", "bus"), 0 if unknown.
func (t *TravelTime) Minutes(mode string) int {
	if t == nil {
		return 0
	}
	switch mode {
	case "driving":
		return t.Driving
	case "walking":
		return t.Walking
	case "bus":
		return t.Bus
	}
	return 0
}

// HasTravelTime reports whether p carries a usable travel-time triple.
func (p *Profile) HasTravelTime() bool {
	return p.TravelTime.Known()
}

// IsReference reports whether p is a bundled sample record.
func (p *Profile) IsReference() bool {
	return IsReference(p.ID)
}

// FullName returns "First Last".
func (p *Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	if p.Address != nil {
		a := *p.Address
		p.Address = &a
	}
	if p.Coordinates != nil {
		c := *p.Coordinates
		p.Coordinates = &c
	}
	if p.TravelTime != nil {
		tt := *p.TravelTime
		p.TravelTime = &tt
	}
	p.Photos = slices.Clone(p.Photos)
	return p
}

// CloneAll deep-copies a slice of profiles. A nil input yields an empty slice.
func CloneAll(ps []Profile) []Profile {
	out := make([]Profile, len(ps))
	for i := range ps {
		out[i] = ps[i].Clone()
	}
	return out
}
