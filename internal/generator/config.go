package generator

// Config drives the synthetic marketplace data generator.
type Config struct {
	NumUsers          int
	NumProperties     int
	ActiveUserChance  float64
	PreferenceChance  float64
	DeviceTokenChance float64
	Seed              int64
}

// DefaultConfig returns baseline settings for a local development dataset.
func DefaultConfig() Config {
	return Config{
		NumUsers:          200,
		NumProperties:     500,
		ActiveUserChance:  0.85,
		PreferenceChance:  0.7,
		DeviceTokenChance: 0.6,
		Seed:              42,
	}
}
