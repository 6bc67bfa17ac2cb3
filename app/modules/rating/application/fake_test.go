package ratingservice

import (
	"cmp"
	"context"
	"slices"
	"time"

	ratingdb "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Rating Repo
// ------------------------

type ledgerKey struct {
	userID  int64
	eventID int64
	gameID  uuid.UUID
}

// FakeRatingRepo keeps an in-memory ledger with the same ordering and strict
// comparison rules as the postgres repository. Any <Method>Func overrides it.
type FakeRatingRepo struct {
	trace []string

	entries map[ledgerKey]*ratingdb.LedgerEntry
	events  map[int64]*ratingdb.Event
	matches map[uuid.UUID]*ratingdb.Match

	RatingBeforeFunc          func(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time) (int64, bool, error)
	CountEntriesAtFunc        func(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time) (int, error)
	InsertEntryFunc           func(ctx context.Context, db bun.IDB, entry *ratingdb.LedgerEntry) error
	ShiftRunningAfterFunc     func(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time, delta int64) (int64, error)
	GetEntryFunc              func(ctx context.Context, db bun.IDB, userID, eventID int64, gameID uuid.UUID) (*ratingdb.LedgerEntry, error)
	DeleteEntriesForGameFunc  func(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int64, error)
	ListEntriesForUserFunc    func(ctx context.Context, db bun.IDB, userID, eventID int64) ([]*ratingdb.LedgerEntry, error)
	ListEntriesForEventFunc   func(ctx context.Context, db bun.IDB, eventID int64) ([]*ratingdb.LedgerEntry, error)
	LatestEntriesForEventFunc func(ctx context.Context, db bun.IDB, eventID int64) ([]*ratingdb.LedgerEntry, error)
	SumChangesBetweenFunc     func(ctx context.Context, db bun.IDB, eventID int64, from, to time.Time) ([]ratingdb.PeriodChange, error)
	GetEventFunc              func(ctx context.Context, db bun.IDB, eventID int64) (*ratingdb.Event, error)
	ListEventIDsFunc          func(ctx context.Context, db bun.IDB) ([]int64, error)
	GetMatchFunc              func(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*ratingdb.Match, error)
	ListUserMatchesFunc       func(ctx context.Context, db bun.IDB, userID, eventID int64) ([]*ratingdb.Match, error)
	CountEventMatchesFunc     func(ctx context.Context, db bun.IDB, eventID int64) (int, error)
}

func NewFakeRatingRepo() *FakeRatingRepo {
	return &FakeRatingRepo{
		trace:   []string{},
		entries: map[ledgerKey]*ratingdb.LedgerEntry{},
		events:  map[int64]*ratingdb.Event{},
		matches: map[uuid.UUID]*ratingdb.Match{},
	}
}

func (f *FakeRatingRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Seeding helpers ---

func (f *FakeRatingRepo) AddEvent(e *ratingdb.Event) { f.events[e.ID] = e }

func (f *FakeRatingRepo) AddMatch(m *ratingdb.Match) { f.matches[m.ID] = m }

// Snapshot returns copies of every ledger entry in a stable order.
func (f *FakeRatingRepo) Snapshot() []ratingdb.LedgerEntry {
	out := make([]ratingdb.LedgerEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, compareEntries)
	return out
}

func compareEntries(a, b ratingdb.LedgerEntry) int {
	if c := cmp.Compare(a.EventID, b.EventID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
		return c
	}
	if c := a.PlayedAt.Compare(b.PlayedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.GameID.String(), b.GameID.String())
}

func (f *FakeRatingRepo) userEntries(userID, eventID int64) []*ratingdb.LedgerEntry {
	var out []*ratingdb.LedgerEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.EventID == eventID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *ratingdb.LedgerEntry) int { return compareEntries(*a, *b) })
	return out
}

// --- Repository Interface Implementation ---

func (f *FakeRatingRepo) RatingBefore(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time) (int64, bool, error) {
	f.record("RatingBefore")
	if f.RatingBeforeFunc != nil {
		return f.RatingBeforeFunc(ctx, db, userID, eventID, at)
	}
	var earlier []*ratingdb.LedgerEntry
	for _, e := range f.userEntries(userID, eventID) {
		if e.PlayedAt.Before(at) {
			earlier = append(earlier, e)
		}
	}
	if len(earlier) == 0 {
		return 0, false, nil
	}
	return groupRating(earlier, earlier[len(earlier)-1]), true, nil
}

// groupRating is the rating after every entry of entries sharing last's timestamp.
func groupRating(entries []*ratingdb.LedgerEntry, last *ratingdb.LedgerEntry) int64 {
	rating := last.RunningRating - last.RatingChange
	for _, e := range entries {
		if e.PlayedAt.Equal(last.PlayedAt) {
			rating += e.RatingChange
		}
	}
	return rating
}

func (f *FakeRatingRepo) CountEntriesAt(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time) (int, error) {
	f.record("CountEntriesAt")
	if f.CountEntriesAtFunc != nil {
		return f.CountEntriesAtFunc(ctx, db, userID, eventID, at)
	}
	n := 0
	for _, e := range f.userEntries(userID, eventID) {
		if e.PlayedAt.Equal(at) {
			n++
		}
	}
	return n, nil
}

func (f *FakeRatingRepo) InsertEntry(ctx context.Context, db bun.IDB, entry *ratingdb.LedgerEntry) error {
	f.record("InsertEntry")
	if f.InsertEntryFunc != nil {
		return f.InsertEntryFunc(ctx, db, entry)
	}
	cp := *entry
	f.entries[ledgerKey{entry.UserID, entry.EventID, entry.GameID}] = &cp
	return nil
}

func (f *FakeRatingRepo) ShiftRunningAfter(ctx context.Context, db bun.IDB, userID, eventID int64, at time.Time, delta int64) (int64, error) {
	f.record("ShiftRunningAfter")
	if f.ShiftRunningAfterFunc != nil {
		return f.ShiftRunningAfterFunc(ctx, db, userID, eventID, at, delta)
	}
	var n int64
	for _, e := range f.userEntries(userID, eventID) {
		if e.PlayedAt.After(at) {
			e.RunningRating += delta
			n++
		}
	}
	return n, nil
}

func (f *FakeRatingRepo) GetEntry(ctx context.Context, db bun.IDB, userID, eventID int64, gameID uuid.UUID) (*ratingdb.LedgerEntry, error) {
	f.record("GetEntry")
	if f.GetEntryFunc != nil {
		return f.GetEntryFunc(ctx, db, userID, eventID, gameID)
	}
	e, ok := f.entries[ledgerKey{userID, eventID, gameID}]
	if !ok {
		return nil, ratingdb.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *FakeRatingRepo) DeleteEntriesForGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int64, error) {
	f.record("DeleteEntriesForGame")
	if f.DeleteEntriesForGameFunc != nil {
		return f.DeleteEntriesForGameFunc(ctx, db, gameID)
	}
	var n int64
	for k := range f.entries {
		if k.gameID == gameID {
			delete(f.entries, k)
			n++
		}
	}
	return n, nil
}

func (f *FakeRatingRepo) ListEntriesForUser(ctx context.Context, db bun.IDB, userID, eventID int64) ([]*ratingdb.LedgerEntry, error) {
	f.record("ListEntriesForUser")
	if f.ListEntriesForUserFunc != nil {
		return f.ListEntriesForUserFunc(ctx, db, userID, eventID)
	}
	var out []*ratingdb.LedgerEntry
	for _, e := range f.userEntries(userID, eventID) {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (f *FakeRatingRepo) ListEntriesForEvent(ctx context.Context, db bun.IDB, eventID int64) ([]*ratingdb.LedgerEntry, error) {
	f.record("ListEntriesForEvent")
	if f.ListEntriesForEventFunc != nil {
		return f.ListEntriesForEventFunc(ctx, db, eventID)
	}
	var out []*ratingdb.LedgerEntry
	for _, e := range f.Snapshot() {
		if e.EventID == eventID {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeRatingRepo) LatestEntriesForEvent(ctx context.Context, db bun.IDB, eventID int64) ([]*ratingdb.LedgerEntry, error) {
	f.record("LatestEntriesForEvent")
	if f.LatestEntriesForEventFunc != nil {
		return f.LatestEntriesForEventFunc(ctx, db, eventID)
	}
	latest := map[int64]ratingdb.LedgerEntry{}
	for _, e := range f.Snapshot() {
		if e.EventID == eventID {
			latest[e.UserID] = e
		}
	}
	out := make([]*ratingdb.LedgerEntry, 0, len(latest))
	for userID, e := range latest {
		cp := e
		cp.RunningRating = groupRating(f.userEntries(userID, eventID), &e)
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *ratingdb.LedgerEntry) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, nil
}

func (f *FakeRatingRepo) SumChangesBetween(ctx context.Context, db bun.IDB, eventID int64, from, to time.Time) ([]ratingdb.PeriodChange, error) {
	f.record("SumChangesBetween")
	if f.SumChangesBetweenFunc != nil {
		return f.SumChangesBetweenFunc(ctx, db, eventID, from, to)
	}
	totals := map[int64]int64{}
	for _, e := range f.entries {
		if e.EventID == eventID && !e.PlayedAt.Before(from) && !e.PlayedAt.After(to) {
			totals[e.UserID] += e.RatingChange
		}
	}
	out := make([]ratingdb.PeriodChange, 0, len(totals))
	for userID, total := range totals {
		out = append(out, ratingdb.PeriodChange{UserID: userID, Total: total})
	}
	slices.SortFunc(out, func(a, b ratingdb.PeriodChange) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, nil
}

func (f *FakeRatingRepo) GetEvent(ctx context.Context, db bun.IDB, eventID int64) (*ratingdb.Event, error) {
	f.record("GetEvent")
	if f.GetEventFunc != nil {
		return f.GetEventFunc(ctx, db, eventID)
	}
	e, ok := f.events[eventID]
	if !ok {
		return nil, ratingdb.ErrNotFound
	}
	return e, nil
}

func (f *FakeRatingRepo) ListEventIDs(ctx context.Context, db bun.IDB) ([]int64, error) {
	f.record("ListEventIDs")
	if f.ListEventIDsFunc != nil {
		return f.ListEventIDsFunc(ctx, db)
	}
	seen := map[int64]bool{}
	var ids []int64
	for _, e := range f.Snapshot() {
		if !seen[e.EventID] {
			seen[e.EventID] = true
			ids = append(ids, e.EventID)
		}
	}
	return ids, nil
}

func (f *FakeRatingRepo) GetMatch(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*ratingdb.Match, error) {
	f.record("GetMatch")
	if f.GetMatchFunc != nil {
		return f.GetMatchFunc(ctx, db, matchID)
	}
	m, ok := f.matches[matchID]
	if !ok {
		return nil, ratingdb.ErrNotFound
	}
	return m, nil
}

func (f *FakeRatingRepo) ListUserMatches(ctx context.Context, db bun.IDB, userID, eventID int64) ([]*ratingdb.Match, error) {
	f.record("ListUserMatches")
	if f.ListUserMatchesFunc != nil {
		return f.ListUserMatchesFunc(ctx, db, userID, eventID)
	}
	var out []*ratingdb.Match
	for _, m := range f.matches {
		if m.EventID != eventID {
			continue
		}
		for _, p := range m.Participants {
			if p.UserID == userID {
				out = append(out, m)
				break
			}
		}
	}
	slices.SortFunc(out, func(a, b *ratingdb.Match) int { return a.PlayedAt.Compare(b.PlayedAt) })
	return out, nil
}

func (f *FakeRatingRepo) CountEventMatches(ctx context.Context, db bun.IDB, eventID int64) (int, error) {
	f.record("CountEventMatches")
	if f.CountEventMatchesFunc != nil {
		return f.CountEventMatchesFunc(ctx, db, eventID)
	}
	n := 0
	for _, m := range f.matches {
		if m.EventID == eventID {
			n++
		}
	}
	return n, nil
}

// --- Accessors for assertions ---

func (f *FakeRatingRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ ratingdb.Repository = (*FakeRatingRepo)(nil)
