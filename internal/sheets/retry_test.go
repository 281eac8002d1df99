package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

func TestRetryPolicy_RecoversAfterAPIErrors(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), zap.NewNop(), "copy views", func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: 429, Message: "rate limit exceeded"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_BoundedAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}

	calls := 0
	apiErr := &googleapi.Error{Code: 429}
	err := policy.Do(context.Background(), zap.NewNop(), "write data", func() error {
		calls++
		return apiErr
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, apiErr)
}

func TestRetryPolicy_NonAPIErrorNotRetried(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond}

	calls := 0
	boom := errors.New("boom")
	err := policy.Do(context.Background(), zap.NewNop(), "write data", func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ContextCancelStopsWaiting(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, Delay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, zap.NewNop(), "copy views", func() error {
		return &googleapi.Error{Code: 429}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 30, p.MaxAttempts)
	assert.Equal(t, 10*time.Second, p.Delay)
}
