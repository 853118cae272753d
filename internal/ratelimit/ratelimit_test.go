package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerFirstWaitIsImmediate(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacerSpacesActions(t *testing.T) {
	p := NewPacer(30*time.Millisecond, 30*time.Millisecond)

	require.NoError(t, p.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestPacerHonoursContext(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)
}

func TestNewPacerClampsBounds(t *testing.T) {
	tests := []struct {
		name             string
		min, max         time.Duration
		wantMin, wantMax time.Duration
	}{
		{"ordered", time.Second, 2 * time.Second, time.Second, 2 * time.Second},
		{"inverted", 2 * time.Second, time.Second, 2 * time.Second, 2 * time.Second},
		{"negative", -time.Second, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPacer(tt.min, tt.max)
			assert.Equal(t, tt.wantMin, p.min)
			assert.Equal(t, tt.wantMax, p.max)
		})
	}
}

func TestPacerGapStaysInRange(t *testing.T) {
	p := NewPacer(10*time.Millisecond, 20*time.Millisecond)

	for i := 0; i < 200; i++ {
		g := p.gap()
		assert.GreaterOrEqual(t, g, 10*time.Millisecond)
		assert.LessOrEqual(t, g, 20*time.Millisecond)
	}
}
