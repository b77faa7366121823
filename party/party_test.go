package party

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-commander/actuator"
	"voice-commander/actuator/fake"
)

func newEngine(t *testing.T, steps int, dwell time.Duration) *Engine {
	t.Helper()

	e, err := New(&Config{
		Steps:  steps,
		Dwell:  dwell,
		Rand:   rand.New(rand.NewPCG(1, 2)),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	return e
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(&Config{})
	require.NoError(t, err)

	assert.Equal(t, DefaultSteps, e.steps)
	assert.Equal(t, DefaultDwell, e.dwell)
	assert.Equal(t, DefaultAnnouncement, e.announcement)
	assert.Equal(t, DefaultClip, e.clip)

	_, err = New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Steps: -1})
	assert.Error(t, err)
}

func TestRun_TwentyColorUpdatesAndFullJoin(t *testing.T) {
	tests := []struct {
		name       string
		speakDelay time.Duration
		playDelay  time.Duration
		dwell      time.Duration
	}{
		{"announcement finishes first", 0, 0, 5 * time.Millisecond},
		{"announcement finishes last", 50 * time.Millisecond, 100 * time.Millisecond, time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := fake.New()
			act.SpeakDelay = tt.speakDelay
			act.PlayDelay = tt.playDelay

			e := newEngine(t, 20, tt.dwell)

			require.NoError(t, e.Run(context.Background(), act))

			assert.Len(t, act.Colors(), 20)
			assert.Equal(t, []string{DefaultAnnouncement}, act.Spoken())
			assert.Equal(t, []string{DefaultClip}, act.Played())
		})
	}
}

func TestRun_AnnouncementOrder(t *testing.T) {
	act := fake.New()
	e := newEngine(t, 3, time.Millisecond)

	require.NoError(t, e.Run(context.Background(), act))

	var announcement []string
	for _, event := range act.Events() {
		if event != "color" {
			announcement = append(announcement, event)
		}
	}

	assert.Equal(t, []string{"speak:" + DefaultAnnouncement, "play:" + DefaultClip}, announcement)
}

func TestRun_SeededColorsAreRepeatable(t *testing.T) {
	first := fake.New()
	second := fake.New()

	require.NoError(t, newEngine(t, 5, time.Millisecond).Run(context.Background(), first))
	require.NoError(t, newEngine(t, 5, time.Millisecond).Run(context.Background(), second))

	assert.Equal(t, first.Colors(), second.Colors())
}

func TestRun_SurfacesBothFailures(t *testing.T) {
	ledDown := errors.New("led driver gone")
	audioDown := errors.New("no audio device")

	act := fake.New()
	act.ColorErr = ledDown
	act.PlayErr = audioDown

	err := newEngine(t, 20, time.Millisecond).Run(context.Background(), act)

	assert.ErrorIs(t, err, ledDown)
	assert.ErrorIs(t, err, audioDown)
	assert.Contains(t, err.Error(), "announcement")
	assert.Contains(t, err.Error(), "colors")
}

func TestRun_ColorFailureStillWaitsForAnnouncement(t *testing.T) {
	act := fake.New()
	act.ColorErr = errors.New("led driver gone")
	act.PlayDelay = 30 * time.Millisecond

	err := newEngine(t, 20, time.Millisecond).Run(context.Background(), act)

	require.Error(t, err)
	assert.Equal(t, []string{DefaultClip}, act.Played())
}

func TestRun_RejectsOverlap(t *testing.T) {
	act := fake.New()
	act.PlayDelay = 100 * time.Millisecond

	e := newEngine(t, 2, time.Millisecond)

	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		close(started)
		assert.NoError(t, e.Run(context.Background(), act))
	}()

	<-started
	require.Eventually(t, func() bool { return e.running.Load() }, time.Second, time.Millisecond)

	assert.ErrorIs(t, e.Run(context.Background(), act), ErrAlreadyRunning)

	wg.Wait()
}

func TestRun_Cancelled(t *testing.T) {
	act := fake.New()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := newEngine(t, 1000, 10*time.Millisecond).Run(ctx, act)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, len(act.Colors()), 1000)
}

type panickingActuator struct {
	*fake.Actuator
}

func (panickingActuator) SetLEDColor(actuator.Color) error {
	panic("bad color")
}

func TestRun_WorkerPanicIsRaisedAfterJoin(t *testing.T) {
	act := panickingActuator{Actuator: fake.New()}

	e := newEngine(t, 1, time.Millisecond)

	assert.Panics(t, func() { e.Run(context.Background(), act) })
	assert.Equal(t, []string{DefaultClip}, act.Played())
	assert.False(t, e.running.Load())
}
