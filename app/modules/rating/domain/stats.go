package ratingdomain

// Placements is the number of finishing positions tracked in statistics.
const Placements = 4

// GameRecord is one match as seen by a single participant.
type GameRecord struct {
	Points    int64
	Placement int
	Change    int64
}

// UserEventStats summarises a user's games in one event. Ratings and changes are descaled.
type UserEventStats struct {
	UserID               int64               `json:"user_id"`
	EventID              int64               `json:"event_id"`
	GamesPlayed          int                 `json:"games_played"`
	TotalPoints          int64               `json:"total_points"`
	MinPoints            int64               `json:"min_points"`
	MaxPoints            int64               `json:"max_points"`
	AveragePoints        float64             `json:"average_points"`
	AverageRatingChange  float64             `json:"average_rating_change"`
	AveragePlacement     float64             `json:"average_placement"`
	PlacementPercentages [Placements]float64 `json:"placement_percentages"`
	NegativePointsPct    float64             `json:"negative_points_pct"`
	EventGamesPct        float64             `json:"event_games_pct"`
	HasMinimumGames      bool                `json:"has_minimum_games"`
	GamesUntilRated      int                 `json:"games_until_rated"`
	CurrentRating        float64             `json:"current_rating"`
	Rank                 int                 `json:"rank"`
}

// AggregateStats derives per-user statistics. ok is false when games is empty;
// callers must treat that as no participation rather than a zeroed record.
func AggregateStats(games []GameRecord, eventGames int, rules RuleSet) (stats UserEventStats, ok bool) {
	if len(games) == 0 {
		return UserEventStats{}, false
	}

	n := len(games)
	stats.GamesPlayed = n
	stats.MinPoints = games[0].Points
	stats.MaxPoints = games[0].Points

	var changeSum int64
	var placementSum, negatives int
	var buckets [Placements]int
	for _, g := range games {
		stats.TotalPoints += g.Points
		stats.MinPoints = min(stats.MinPoints, g.Points)
		stats.MaxPoints = max(stats.MaxPoints, g.Points)
		changeSum += g.Change
		placementSum += g.Placement
		if g.Placement >= 1 && g.Placement <= Placements {
			buckets[g.Placement-1]++
		}
		if g.Points < 0 {
			negatives++
		}
	}

	stats.AveragePoints = float64(stats.TotalPoints) / float64(n)
	stats.AverageRatingChange = Descale(changeSum) / float64(n)
	stats.AveragePlacement = float64(placementSum) / float64(n)
	for i, c := range buckets {
		stats.PlacementPercentages[i] = percent(c, n)
	}
	stats.NegativePointsPct = percent(negatives, n)
	if eventGames > 0 {
		stats.EventGamesPct = percent(n, eventGames)
	}

	stats.HasMinimumGames = n >= rules.MinimumGamesForRating
	if !stats.HasMinimumGames {
		stats.GamesUntilRated = rules.MinimumGamesForRating - n
	}
	return stats, true
}

func percent(part, whole int) float64 {
	return float64(part) * 100 / float64(whole)
}
