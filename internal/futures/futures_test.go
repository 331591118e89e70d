package futures

import (
	"context"
	"testing"

	"github.com/flowcore/sdk-go/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func TestResponseFutureResolvesValue(t *testing.T) {
	entry := &wire.CallEntryMessage{Value: []byte("ok")}
	f := NewResponseFuture(context.Background(), entry, 3, closedChan())

	v, err := f.Response()
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), v)
	assert.Equal(t, uint32(3), f.Index())
}

func TestResponseFutureResolvesFailure(t *testing.T) {
	entry := &wire.CallEntryMessage{Failure: &wire.Failure{Code: 500, Message: "nope"}}
	f := NewResponseFuture(context.Background(), entry, 1, closedChan())

	_, err := f.Response()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestResponseFutureSuspendsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(context.Canceled)

	f := NewResponseFuture(ctx, &wire.CallEntryMessage{}, 5, make(chan struct{}))

	assert.Panics(t, func() {
		_, _ = f.Response()
	})
}

func TestNewFailedResponseFutureReturnsErrImmediately(t *testing.T) {
	f := NewFailedResponseFuture(assert.AnError)
	_, err := f.Response()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSleepFutureWait(t *testing.T) {
	f := NewSleepFuture(context.Background(), &wire.SleepEntryMessage{}, 2, closedChan())
	assert.NoError(t, f.Wait())
}

func TestAwakeableFutureResult(t *testing.T) {
	entry := &wire.AwakeableEntryMessage{Value: []byte("resolved")}
	f := NewAwakeableFuture(context.Background(), entry, 4, closedChan())

	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, []byte("resolved"), v)
}

func TestRunFutureWait(t *testing.T) {
	f := NewRunFuture(context.Background(), 6, closedChan())
	assert.NoError(t, f.Wait())
}

func TestTimeoutErrorMessage(t *testing.T) {
	var err error = TimeoutError{}
	assert.Equal(t, "timeout", err.Error())
}
