package ratingservice

import "errors"

var (
	// ErrEventNotFound is returned when the referenced event does not exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrMatchNotFound is returned when a match is unknown in the event or has not been rated.
	ErrMatchNotFound = errors.New("match not found")

	// ErrNoParticipation is returned when a user has no games in the event.
	ErrNoParticipation = errors.New("user has not played in this event")

	// ErrInternalConsistency means the ledger disagrees with the match history.
	// It is never recovered from inside the service.
	ErrInternalConsistency = errors.New("rating ledger internal consistency failure")
)
