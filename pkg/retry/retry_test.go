package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(maxRetries int) *Retrier {
	return NewRetrier(&Config{
		MaxRetries:    maxRetries,
		BackoffFactor: 2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
	})
}

func TestRetry_SuccessOnFirstTry(t *testing.T) {
	counter := 0
	err := fastRetrier(3).Do(context.Background(), func() error {
		counter++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, counter)
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	counter := 0
	err := fastRetrier(3).Do(context.Background(), func() error {
		counter++
		if counter < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, counter)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	counter := 0
	want := errors.New("still failing")
	err := fastRetrier(2).Do(context.Background(), func() error {
		counter++
		return want
	})
	require.ErrorIs(t, err, want)
	assert.Equal(t, 3, counter)
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	counter := 0
	want := errors.New("bad request")
	err := fastRetrier(5).Do(context.Background(), func() error {
		counter++
		return Permanent(want)
	})
	require.ErrorIs(t, err, want)
	assert.Equal(t, 1, counter)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrier(&Config{MaxRetries: 5, BackoffFactor: 1, InitialDelay: time.Second})
	counter := 0
	err := r.Do(ctx, func() error {
		counter++
		cancel()
		return errors.New("temporary")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, counter)
}
