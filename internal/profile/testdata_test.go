package profile

import "time"

// validPhysical returns a complete in-person profile for tests.
func validPhysical() Profile {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return Profile{
		ID:        "profile-01HZX",
		FirstName: "Maya",
		LastName:  "Chen",
		Email:     "maya@example.com",
		Company:   "Bellevue Public Library",
		Field:     "Education",
		Address: &Address{
			Street:      "1111 110th Ave NE",
			City:        "Bellevue",
			State:       "WA",
			Zip:         "98004",
			FullAddress: "1111 110th Ave NE, Bellevue, WA 98004",
		},
		Coordinates:   &Coordinates{Lat: 47.6196, Lng: -122.1937},
		StartDate:     "2024-06-15",
		EndDate:       "2024-08-30",
		Question1:     "Shelving and story time.",
		Question2:     "Patience.",
		Question3:     "Yes.",
		Rating:        4,
		RatingComment: "Friendly staff",
		TravelTime:    &TravelTime{Driving: 6, Walking: 20},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
