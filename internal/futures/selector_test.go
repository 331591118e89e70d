package futures

import (
	"context"
	"testing"

	"github.com/flowcore/sdk-go/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sleepFuture(ctx context.Context, index uint32, ready bool) *SleepFuture {
	ch := make(chan struct{})
	if ready {
		close(ch)
	}
	return NewSleepFuture(ctx, &wire.SleepEntryMessage{}, index, ch)
}

func TestSelectorSelectsReadyChildrenInAnyOrder(t *testing.T) {
	ctx := context.Background()
	a := sleepFuture(ctx, 1, true)
	b := sleepFuture(ctx, 2, true)

	sel := NewSelector(ctx, a, b)
	require.Equal(t, 2, sel.Remaining())

	first, err := sel.Select()
	require.NoError(t, err)
	require.Equal(t, 1, sel.Remaining())

	second, err := sel.Select()
	require.NoError(t, err)
	require.Equal(t, 0, sel.Remaining())

	got := map[uint32]bool{first.Index(): true, second.Index(): true}
	assert.True(t, got[1])
	assert.True(t, got[2])
}

func TestSelectorSuspendsWhenNothingCanResolve(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	a := sleepFuture(ctx, 1, false)
	b := sleepFuture(ctx, 3, false)
	sel := NewSelector(ctx, a, b)

	cancel(context.Canceled)

	assert.PanicsWithValue(t, &wire.SuspensionPanic{Err: context.Canceled, EntryIndexes: []uint32{1, 3}}, func() {
		_, _ = sel.Select()
	})
}

func TestAllWaitsForEveryFuture(t *testing.T) {
	ctx := context.Background()
	a := sleepFuture(ctx, 1, true)
	b := sleepFuture(ctx, 2, true)

	require.NoError(t, All(ctx, a, b))
}

func TestRaceReturnsFirstReady(t *testing.T) {
	ctx := context.Background()
	a := sleepFuture(ctx, 1, false)
	b := sleepFuture(ctx, 2, true)

	winner, err := Race(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), winner.Index())
}

func TestAllSettledReturnsEveryFuture(t *testing.T) {
	ctx := context.Background()
	a := sleepFuture(ctx, 1, true)
	b := sleepFuture(ctx, 2, true)

	settled, err := AllSettled(ctx, a, b)
	require.NoError(t, err)
	assert.Len(t, settled, 2)
}

func TestSelectorOnEmptyReturnsCanceled(t *testing.T) {
	sel := NewSelector(context.Background())
	_, err := sel.Select()
	assert.ErrorIs(t, err, context.Canceled)
}
