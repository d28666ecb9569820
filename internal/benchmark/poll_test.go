package benchmark

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vgbench/internal/measure"
	"vgbench/internal/monitor"
	"vgbench/internal/telemetry"
)

func TestNextTickDelay(t *testing.T) {
	p := 10 * time.Millisecond
	tests := []struct {
		elapsed time.Duration
		want    time.Duration
	}{
		{0, 10 * time.Millisecond},
		{3 * time.Millisecond, 7 * time.Millisecond},
		{10 * time.Millisecond, 10 * time.Millisecond},
		{47 * time.Millisecond, 3 * time.Millisecond},
		{-2 * time.Millisecond, 12 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextTickDelay(tt.elapsed, p), "elapsed %v", tt.elapsed)
	}
	assert.Zero(t, nextTickDelay(5*time.Millisecond, 0))
}

func TestMissedTicks(t *testing.T) {
	start := time.Unix(0, 0)
	p := 10 * time.Millisecond
	at := func(ms int) time.Time { return start.Add(time.Duration(ms) * time.Millisecond) }

	assert.Equal(t, 0, missedTicks(start, at(10), at(15), p))
	assert.Equal(t, 0, missedTicks(start, at(18), at(22), p), "crossing a boundary within one period is not a miss")
	assert.Equal(t, 3, missedTicks(start, at(10), at(45), p))
	assert.Equal(t, 1, missedTicks(start, at(10), at(21), p))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestPollerCorrectsDriftAndCountsMissed(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	start := clock.Now()
	var complete atomic.Bool
	calls := 0

	mon := &monitor.Func{
		Meta: monitor.Metadata{Name: "slow", Frequency: monitor.Every(10 * time.Millisecond)},
		PollFn: func() (measure.Value, error) {
			calls++
			switch calls {
			case 1:
				clock.Advance(35 * time.Millisecond)
			case 2:
				clock.Advance(time.Millisecond)
			default:
				complete.Store(true)
			}
			return measure.Int(int64(calls)), nil
		},
	}

	p := newPoller("bench", mon, mon.Meta, start, telemetry.Discard(), nil)
	p.now = clock.Now
	p.sleep = clock.Advance

	history, missed := p.run(newBarrier(1), &complete)

	assert.Equal(t, 3, missed)
	require.Equal(t, 2, history.Len(), "the poll observing completion is discarded")
	samples := history.Samples()
	assert.Equal(t, int64(1), samples[0].Tick)
	assert.Equal(t, 10*time.Millisecond, samples[0].Elapsed)
	// After the slow poll the loop realigns to the 50ms boundary rather than sleeping a full period.
	assert.Equal(t, int64(5), samples[1].Tick)
	assert.Equal(t, 50*time.Millisecond, samples[1].Elapsed)
	assert.Equal(t, 3, calls)
}

func TestPollerHoldsPeriodUnderVariablePollTime(t *testing.T) {
	const polls = 20
	period := 10 * time.Millisecond
	delays := []time.Duration{0, 3 * time.Millisecond, 6700 * time.Microsecond, 9 * time.Millisecond, 1500 * time.Microsecond}

	clock := &fakeClock{now: time.Unix(100, 0)}
	start := clock.Now()
	var complete atomic.Bool
	calls := 0

	mon := &monitor.Func{
		Meta: monitor.Metadata{Name: "jittery", Frequency: monitor.Every(period)},
		PollFn: func() (measure.Value, error) {
			clock.Advance(delays[calls%len(delays)])
			calls++
			if calls > polls {
				complete.Store(true)
			}
			return measure.Int(int64(calls)), nil
		},
	}

	p := newPoller("bench", mon, mon.Meta, start, telemetry.Discard(), nil)
	p.now = clock.Now
	p.sleep = clock.Advance

	history, missed := p.run(newBarrier(1), &complete)
	assert.Zero(t, missed)
	require.Equal(t, polls, history.Len())

	samples := history.Samples()
	var total time.Duration
	for i := 1; i < len(samples); i++ {
		assert.Equal(t, samples[i-1].Tick+1, samples[i].Tick)
		total += samples[i].Elapsed - samples[i-1].Elapsed
	}
	assert.Equal(t, period, total/time.Duration(len(samples)-1))
	assert.Equal(t, time.Duration(polls)*period, samples[polls-1].Elapsed)
}

func TestPollerSkipsFailedPolls(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0)}
	var complete atomic.Bool
	calls := 0

	mon := &monitor.Func{
		Meta: monitor.Metadata{Name: "flaky", Frequency: monitor.Every(time.Millisecond)},
		PollFn: func() (measure.Value, error) {
			calls++
			if calls == 4 {
				complete.Store(true)
			}
			if calls%2 == 0 {
				return measure.Value{}, assert.AnError
			}
			return measure.Float(float64(calls)), nil
		},
	}

	p := newPoller("bench", mon, mon.Meta, clock.Now(), telemetry.Discard(), nil)
	p.now = clock.Now
	p.sleep = clock.Advance

	history, missed := p.run(newBarrier(1), &complete)
	assert.Zero(t, missed)
	assert.Equal(t, 2, history.Len())
}

func TestBarrierReleasesTogether(t *testing.T) {
	b := newBarrier(3)
	var passed atomic.Int32
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Wait()
			passed.Add(1)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, passed.Load(), "no goroutine passes before the last arrives")

	b.Wait()
	wg.Wait()
	assert.Equal(t, int32(2), passed.Load())
}

func TestBarrierZero(t *testing.T) {
	done := make(chan struct{})
	go func() {
		newBarrier(0).Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("empty barrier blocked")
	}
}
