package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sundeep8967/zerobroker/internal/domain"
)

// Dataset groups the generated marketplace entities.
type Dataset struct {
	Users      []domain.User
	Properties []domain.Property
}

var (
	areas = []string{
		"Indiranagar", "Koramangala", "HSR Layout", "Whitefield",
		"Jayanagar", "Malleshwaram", "Electronic City", "Marathahalli",
	}
	propertyTypes = []string{"apartment", "independent_house", "pg", "studio"}
	firstNames    = []string{"Aarav", "Diya", "Ishaan", "Meera", "Rohan", "Sanya", "Kabir", "Anaya"}
	lastNames     = []string{"Sharma", "Iyer", "Patel", "Reddy", "Khan", "Nair", "Gupta", "Das"}
)

// Generate produces a deterministic dataset for the provided configuration.
func Generate(cfg Config) Dataset {
	rng := rand.New(rand.NewSource(cfg.Seed))
	now := time.Now().UTC()

	dataset := Dataset{
		Users:      make([]domain.User, 0, cfg.NumUsers),
		Properties: make([]domain.Property, 0, cfg.NumProperties),
	}

	for i := 0; i < cfg.NumUsers; i++ {
		dataset.Users = append(dataset.Users, generateUser(rng, cfg, i, now))
	}
	for i := 0; i < cfg.NumProperties; i++ {
		dataset.Properties = append(dataset.Properties, generateProperty(rng, cfg, i, now))
	}

	return dataset
}

func generateUser(rng *rand.Rand, cfg Config, idx int, now time.Time) domain.User {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]

	user := domain.User{
		FullName:  first + " " + last,
		Email:     fmt.Sprintf("%s.%s%d@example.com", first, last, idx),
		IsActive:  rng.Float64() < cfg.ActiveUserChance,
		CreatedAt: now.AddDate(0, 0, -rng.Intn(365)),
	}

	if rng.Float64() < cfg.PreferenceChance {
		minRent := float64(5000 + rng.Intn(10)*1000)
		user.Preferences = domain.Preferences{
			MinRent:        minRent,
			MaxRent:        minRent + float64(5000+rng.Intn(20)*1000),
			PropertyTypes:  pickSome(rng, propertyTypes),
			PreferredAreas: pickSome(rng, areas),
		}
	}

	if rng.Float64() < cfg.DeviceTokenChance {
		tokens := 1 + rng.Intn(2)
		for t := 0; t < tokens; t++ {
			user.FCMTokens = append(user.FCMTokens, fmt.Sprintf("fcm-token-%d-%d", idx, t))
		}
	}

	return user
}

func generateProperty(rng *rand.Rand, cfg Config, idx int, now time.Time) domain.Property {
	area := areas[rng.Intn(len(areas))]
	propertyType := propertyTypes[rng.Intn(len(propertyTypes))]

	return domain.Property{
		OwnerID:      fmt.Sprintf("owner-%d", rng.Intn(cfg.NumUsers+1)),
		Title:        fmt.Sprintf("%d BHK %s in %s", 1+rng.Intn(3), propertyType, area),
		Rent:         float64(6000 + rng.Intn(40)*1000),
		PropertyType: propertyType,
		Location: domain.Location{
			Address: fmt.Sprintf("%d, %d Main Road, %s, Bengaluru", 1+rng.Intn(200), 1+rng.Intn(20), area),
			City:    "Bengaluru",
			Pincode: fmt.Sprintf("5600%02d", rng.Intn(99)),
		},
		IsActive:  true,
		CreatedAt: now.AddDate(0, 0, -rng.Intn(45)),
	}
}

// pickSome returns a random non-empty subset preserving input order.
func pickSome(rng *rand.Rand, values []string) []string {
	var picked []string
	for _, v := range values {
		if rng.Float64() < 0.3 {
			picked = append(picked, v)
		}
	}
	if len(picked) == 0 {
		picked = append(picked, values[rng.Intn(len(values))])
	}
	return picked
}
