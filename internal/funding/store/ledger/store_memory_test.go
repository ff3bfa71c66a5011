package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "givepool/pkg/domain"
)

func TestRecord_AccumulatesTotals(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	donor := id.AccountID(uuid.New())

	require.NoError(t, store.Record(ctx, donor, 10_000))
	require.NoError(t, store.Record(ctx, donor, 5_000))

	total, err := store.DonorTotal(ctx, donor)
	require.NoError(t, err)
	assert.Equal(t, int64(15_000), total)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.DonationCount)
	assert.Equal(t, int64(15_000), stats.TotalRaised)
	assert.Equal(t, int64(1), stats.DonorCount)
}

func TestSnapshot_PreservesFirstDonationOrder(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	first := id.AccountID(uuid.New())
	second := id.AccountID(uuid.New())

	require.NoError(t, store.Record(ctx, first, 1_000))
	require.NoError(t, store.Record(ctx, second, 2_000))
	// Repeat donation must not reorder the distinct list.
	require.NoError(t, store.Record(ctx, first, 3_000))

	order, totals, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, first, order[0])
	assert.Equal(t, second, order[1])
	assert.Equal(t, int64(4_000), totals[first])
	assert.Equal(t, int64(2_000), totals[second])
}

func TestSnapshot_IsACopy(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	donor := id.AccountID(uuid.New())
	require.NoError(t, store.Record(ctx, donor, 1_000))

	order, totals, err := store.Snapshot(ctx)
	require.NoError(t, err)
	order[0] = id.AccountID(uuid.New())
	totals[donor] = 999_999

	fresh, freshTotals, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, donor, fresh[0])
	assert.Equal(t, int64(1_000), freshTotals[donor])
}

func TestDonorTotal_UnknownDonorIsZero(t *testing.T) {
	store := NewInMemory()

	total, err := store.DonorTotal(context.Background(), id.AccountID(uuid.New()))
	require.NoError(t, err)
	assert.Zero(t, total)
}
