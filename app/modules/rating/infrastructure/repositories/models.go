package ratingdb

import (
	"time"

	ratingdomain "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LedgerEntry is one user's rating contribution from one game.
// RatingChange never changes after insert; RunningRating is shifted by propagation.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:rating_ledger,alias:rl"`

	UserID        int64     `bun:"user_id,pk"`
	EventID       int64     `bun:"event_id,pk"`
	GameID        uuid.UUID `bun:"game_id,pk,type:uuid"`
	RatingChange  int64     `bun:"rating_change,notnull"`
	RunningRating int64     `bun:"running_rating,notnull"`
	PlayedAt      time.Time `bun:"played_at,notnull"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// ChainEntry projects the entry onto the fields the chain invariant covers.
func (e *LedgerEntry) ChainEntry() ratingdomain.ChainEntry {
	return ratingdomain.ChainEntry{
		GameID:   e.GameID,
		PlayedAt: e.PlayedAt,
		Change:   e.RatingChange,
		Running:  e.RunningRating,
	}
}

// Event holds the rule set a rating ledger is computed under.
type Event struct {
	bun.BaseModel `bun:"table:rating_events,alias:re"`

	ID                    int64   `bun:"id,pk,autoincrement"`
	Name                  string  `bun:"name,notnull"`
	NumberOfParticipants  int     `bun:"number_of_participants,notnull,default:4"`
	UmaTable              []int64 `bun:"uma_table,array,notnull"`
	StartingPoints        int64   `bun:"starting_points,notnull"`
	ReturnPoints          int64   `bun:"return_points,notnull,default:0"`
	StartingRating        int64   `bun:"starting_rating,notnull"`
	MinimumGamesForRating int     `bun:"minimum_games_for_rating,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Rules returns the event's rule set.
func (e *Event) Rules() ratingdomain.RuleSet {
	return ratingdomain.RuleSet{
		NumberOfParticipants:  e.NumberOfParticipants,
		UmaTable:              e.UmaTable,
		StartingPoints:        e.StartingPoints,
		ReturnPoints:          e.ReturnPoints,
		StartingRating:        e.StartingRating,
		MinimumGamesForRating: e.MinimumGamesForRating,
	}
}

// Match is a finished game as recorded by the match service.
type Match struct {
	bun.BaseModel `bun:"table:rating_matches,alias:rm"`

	ID           uuid.UUID           `bun:"id,pk,type:uuid"`
	EventID      int64               `bun:"event_id,notnull"`
	PlayedAt     time.Time           `bun:"played_at,notnull"`
	Participants []*MatchParticipant `bun:"rel:has-many,join:id=match_id"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// MatchParticipant is one seat of a match.
type MatchParticipant struct {
	bun.BaseModel `bun:"table:rating_match_participants,alias:rmp"`

	MatchID uuid.UUID `bun:"match_id,pk,type:uuid"`
	UserID  int64     `bun:"user_id,pk"`
	Points  int64     `bun:"points,notnull"`
}

// ToDomain converts the stored match to the value the engine consumes.
func (m *Match) ToDomain() ratingdomain.Match {
	participants := make([]ratingdomain.Participant, 0, len(m.Participants))
	for _, p := range m.Participants {
		participants = append(participants, ratingdomain.Participant{UserID: p.UserID, Points: p.Points})
	}
	return ratingdomain.Match{
		ID:           m.ID,
		EventID:      m.EventID,
		PlayedAt:     m.PlayedAt,
		Participants: participants,
	}
}

// PeriodChange is the summed rating change of one user over a time range.
type PeriodChange struct {
	UserID int64 `bun:"user_id"`
	Total  int64 `bun:"total"`
}
