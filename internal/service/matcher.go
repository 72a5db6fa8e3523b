package service

import (
	"strings"

	"github.com/sundeep8967/zerobroker/internal/domain"
)

// Matches reports whether a listing satisfies a user's preference profile.
// Every dimension left unset (zero rent bound, empty slice) imposes no
// constraint; a user with no preferences matches every listing.
func Matches(user domain.User, property domain.Property) bool {
	prefs := user.Preferences

	if prefs.MaxRent > 0 && property.Rent > prefs.MaxRent {
		return false
	}
	if prefs.MinRent > 0 && property.Rent < prefs.MinRent {
		return false
	}

	if len(prefs.PropertyTypes) > 0 && !contains(prefs.PropertyTypes, property.PropertyType) {
		return false
	}

	if len(prefs.PreferredAreas) > 0 {
		address := strings.ToLower(property.Location.Address)
		matched := false
		for _, area := range prefs.PreferredAreas {
			area = strings.ToLower(strings.TrimSpace(area))
			if area != "" && strings.Contains(address, area) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
