package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Until_AcceptedOnFirstAttempt(t *testing.T) {
	calls := 0
	attempt := func(_ context.Context) (bool, error) {
		calls++
		return true, nil
	}

	res, err := Until(context.Background(), time.Millisecond, attempt)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 0, res.Retries())
	assert.Equal(t, time.Duration(0), res.TotalDelay)
}

func Test_Until_RetriesRejectionsWithFixedWait(t *testing.T) {
	calls := 0
	attempt := func(_ context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	}
	var rejected []int

	res, err := Until(context.Background(), 2*time.Millisecond, attempt,
		WithOnReject(func(n int) { rejected = append(rejected, n) }),
	)

	assert.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 2, res.Retries())
	assert.Equal(t, 4*time.Millisecond, res.TotalDelay)
	assert.Equal(t, []int{1, 2}, rejected)
}

func Test_Until_ErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	attempt := func(_ context.Context) (bool, error) {
		calls++
		return false, boom
	}

	res, err := Until(context.Background(), time.Millisecond, attempt)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, res.Attempts)
}

func Test_Until_MaxAttemptsReached(t *testing.T) {
	attempt := func(_ context.Context) (bool, error) { return false, nil }

	res, err := Until(context.Background(), 0, attempt, WithMaxAttempts(4))

	assert.ErrorIs(t, err, ErrMaxAttemptsReached)
	assert.Equal(t, 4, res.Attempts)
}

func Test_Until_StopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	attempt := func(_ context.Context) (bool, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return false, nil
	}

	res, err := Until(ctx, time.Hour, attempt)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, res.Attempts)
}

func Test_Until_CancelledContextMakesNoAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false

	res, err := Until(ctx, time.Millisecond, func(context.Context) (bool, error) {
		called = true
		return true, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Zero(t, res.Attempts)
}

func Test_Until_InvalidOptions(t *testing.T) {
	attempt := func(_ context.Context) (bool, error) { return true, nil }

	_, err := Until(context.Background(), -time.Second, attempt)
	assert.ErrorIs(t, err, ErrNegativeWait)

	_, err = Until(context.Background(), time.Millisecond, attempt, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func Test_Sleep_ReturnsEarlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Minute)
}

func Test_Sleep_ZeroDuration(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
}
