package ratingdomain

// Placement is 1 plus the number of other participants with strictly more points.
// Tied participants share a placement, so placements need not be contiguous.
func Placement(userID int64, participants []Participant) int {
	var mine int64
	found := false
	for _, p := range participants {
		if p.UserID == userID {
			mine = p.Points
			found = true
			break
		}
	}
	if !found {
		return 0
	}

	place := 1
	for _, p := range participants {
		if p.UserID != userID && p.Points > mine {
			place++
		}
	}
	return place
}
