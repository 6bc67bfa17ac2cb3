package ratingservice

import (
	"time"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	"github.com/google/uuid"
)

// RatingChange is one participant's outcome of an applied match.
type RatingChange struct {
	UserID int64   `json:"user_id"`
	Points int64   `json:"points"`
	Uma    float64 `json:"uma"`
	Change float64 `json:"change"`
	Rating float64 `json:"rating"`
}

// RatingView is a user's current rating in an event.
type RatingView struct {
	UserID     int64     `json:"user_id"`
	Rating     float64   `json:"rating"`
	LastPlayed time.Time `json:"last_played"`
}

// HistoryPoint is the user's rating right after one game.
type HistoryPoint struct {
	GameID   uuid.UUID `json:"game_id"`
	PlayedAt time.Time `json:"played_at"`
	Rating   float64   `json:"rating"`
	Change   float64   `json:"change"`
}

// Standing is a ranked RatingView.
type Standing struct {
	Rank int `json:"rank"`
	RatingView
}

// UserViolation is a chain violation attributed to a user.
type UserViolation struct {
	UserID int64 `json:"user_id"`
	ratingdomain.ChainViolation
}

// LedgerReport is the outcome of verifying one event's ledger.
type LedgerReport struct {
	EventID          int64           `json:"event_id"`
	UsersChecked     int             `json:"users_checked"`
	EntriesChecked   int             `json:"entries_checked"`
	SharedTimestamps int             `json:"shared_timestamps"`
	Violations       []UserViolation `json:"violations,omitempty"`
}

// ledgerTime normalises a match timestamp to what the store keeps, so strict
// comparisons against stored rows behave the same before and after a round trip.
func ledgerTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
