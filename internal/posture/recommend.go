package posture

// Tier names the severity bracket of a recommendation.
type Tier string

const (
	TierIntensive   Tier = "intensive"
	TierModerate    Tier = "moderate"
	TierMaintenance Tier = "maintenance"
)

// Score breakpoints between tiers. A score equal to a breakpoint belongs to the milder tier.
const (
	ModerateFrom    = 50
	MaintenanceFrom = 75
)

// Recommendation is a corrective session prescription.
type Recommendation struct {
	Tier            Tier     `json:"tier"`
	Exercises       []string `json:"exercises"`
	DurationMinutes int      `json:"duration_minutes"`
	Frequency       string   `json:"frequency"`
}

// Recommend maps a walking posture score to a session prescription.
func Recommend(score int) Recommendation {
	switch {
	case score < ModerateFrom:
		return Recommendation{
			Tier:            TierIntensive,
			Exercises:       []string{"Chin tucks", "Wall angels", "Glute bridges", "Hip flexor stretch"},
			DurationMinutes: 20,
			Frequency:       "Daily for 2–3 weeks",
		}
	case score < MaintenanceFrom:
		return Recommendation{
			Tier:            TierModerate,
			Exercises:       []string{"Wall angels", "Glute bridges", "Bird dog"},
			DurationMinutes: 15,
			Frequency:       "4–5 times per week",
		}
	default:
		return Recommendation{
			Tier:            TierMaintenance,
			Exercises:       []string{"Brisk walking with posture checks", "Thoracic extensions"},
			DurationMinutes: 10,
			Frequency:       "2–3 times per week",
		}
	}
}
