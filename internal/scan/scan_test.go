package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows_VisitsEveryIndex(t *testing.T) {
	tests := []struct {
		name     string
		parallel bool
		workers  int
	}{
		{"sequential", false, 4},
		{"single worker", true, 1},
		{"parallel", true, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int, 50)
			err := Rows(context.Background(), len(seen), tt.parallel, tt.workers, func(i int) error {
				seen[i]++
				return nil
			})
			require.NoError(t, err)
			for i, n := range seen {
				assert.Equal(t, 1, n, "row %d", i)
			}
		})
	}
}

func TestRows_StopsOnError(t *testing.T) {
	boom := errors.New("boom")

	var calls atomic.Int32
	err := Rows(context.Background(), 10, false, 1, func(i int) error {
		calls.Add(1)
		if i == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), calls.Load())

	err = Rows(context.Background(), 10, true, 3, func(i int) error {
		if i == 5 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRows_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallel := range []bool{false, true} {
		var calls atomic.Int32
		err := Rows(ctx, 10, parallel, 4, func(int) error {
			calls.Add(1)
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls.Load())
	}
}
