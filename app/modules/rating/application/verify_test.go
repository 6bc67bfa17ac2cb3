package ratingservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent ledger", func(t *testing.T) {
		repo, svc := statsFixture(t)

		report, err := svc.VerifyLedger(ctx, testEventID)
		require.NoError(t, err)
		assert.Equal(t, 5, report.UsersChecked)
		assert.Equal(t, len(repo.Snapshot()), report.EntriesChecked)
		assert.Empty(t, report.Violations)
	})

	t.Run("corrupted running rating", func(t *testing.T) {
		repo, svc := statsFixture(t)
		for _, e := range repo.entries {
			if e.UserID == 3 {
				e.RunningRating += 7
				break
			}
		}

		report, err := svc.VerifyLedger(ctx, testEventID)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInternalConsistency)
		require.NotNil(t, report)
		require.NotEmpty(t, report.Violations)
		assert.Equal(t, int64(3), report.Violations[0].UserID)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, svc := statsFixture(t)
		_, err := svc.VerifyLedger(ctx, 404)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestAuditedEvents(t *testing.T) {
	_, svc := statsFixture(t)
	ids, err := svc.AuditedEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{testEventID}, ids)
}
