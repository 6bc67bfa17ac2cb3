package ratingdomain

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ErrChainBroken is returned when a running rating disagrees with its history.
var ErrChainBroken = errors.New("rating chain broken")

// ChainEntry is the part of a ledger row that the chain invariant covers.
type ChainEntry struct {
	GameID   uuid.UUID
	PlayedAt time.Time
	Change   int64
	Running  int64
}

// ChainViolation describes one entry whose running rating is off.
type ChainViolation struct {
	GameID   uuid.UUID
	PlayedAt time.Time
	Expected int64
	Actual   int64
}

func (v ChainViolation) Error() string {
	return fmt.Sprintf("game %s at %s: running rating %d, expected %d",
		v.GameID, v.PlayedAt.Format(time.RFC3339Nano), v.Actual, v.Expected)
}

func (v ChainViolation) Unwrap() error { return ErrChainBroken }

// VerifyChain checks one user's entries in one event against the chain invariant.
//
// Entries sharing a timestamp never see each other: each one chains from the
// running rating in force strictly before that timestamp, and the next timestamp
// chains from that rating plus every change of the group.
func VerifyChain(entries []ChainEntry, baseline int64) []ChainViolation {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b ChainEntry) int {
		return a.PlayedAt.Compare(b.PlayedAt)
	})

	var violations []ChainViolation
	running := baseline
	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && sorted[end].PlayedAt.Equal(sorted[start].PlayedAt) {
			end++
		}
		groupSum := int64(0)
		for _, e := range sorted[start:end] {
			if want := running + e.Change; e.Running != want {
				violations = append(violations, ChainViolation{
					GameID:   e.GameID,
					PlayedAt: e.PlayedAt,
					Expected: want,
					Actual:   e.Running,
				})
			}
			groupSum += e.Change
		}
		running += groupSum
		start = end
	}
	return violations
}

// SharedTimestamps lists timestamps held by more than one entry, ascending.
func SharedTimestamps(entries []ChainEntry) []time.Time {
	counts := make(map[int64]int, len(entries))
	byNano := make(map[int64]time.Time, len(entries))
	for _, e := range entries {
		k := e.PlayedAt.UnixNano()
		counts[k]++
		byNano[k] = e.PlayedAt
	}
	var shared []time.Time
	for k, n := range counts {
		if n > 1 {
			shared = append(shared, byNano[k])
		}
	}
	slices.SortFunc(shared, func(a, b time.Time) int { return cmp.Compare(a.UnixNano(), b.UnixNano()) })
	return shared
}
