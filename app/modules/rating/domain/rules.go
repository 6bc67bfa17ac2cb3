package ratingdomain

import (
	"time"

	"github.com/google/uuid"
)

// Scale separates displayed ratings from the integral values stored in the ledger.
const Scale = 1000

// RuleSet is the fixed scoring configuration of an event.
type RuleSet struct {
	NumberOfParticipants  int
	UmaTable              []int64
	StartingPoints        int64
	ReturnPoints          int64 // points a player must exceed to gain; 0 means StartingPoints
	StartingRating        int64
	MinimumGamesForRating int
}

// TargetPoints is the point total that yields a zero gain.
func (r RuleSet) TargetPoints() int64 {
	if r.ReturnPoints != 0 {
		return r.ReturnPoints
	}
	return r.StartingPoints
}

// BaselineRating is the running rating a user starts from, in scaled units.
func (r RuleSet) BaselineRating() int64 {
	return r.StartingRating * Scale
}

// Participant is one seat of a finished match.
type Participant struct {
	UserID int64 `json:"user_id"`
	Points int64 `json:"points"`
}

// Match is a validated match result.
type Match struct {
	ID           uuid.UUID     `json:"id"`
	EventID      int64         `json:"event_id"`
	PlayedAt     time.Time     `json:"played_at"`
	Participants []Participant `json:"participants"`
}

// Descale converts a stored integral value to its displayed form.
func Descale(v int64) float64 {
	return float64(v) / Scale
}
