package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/gwillem/roomba/pkg/sequence"
)

// motionLog records primitive calls without any wire encoding.
type motionLog struct {
	mu    sync.Mutex
	calls []string
}

func (m *motionLog) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	return nil
}

func (m *motionLog) Forward() error   { return m.record("w") }
func (m *motionLog) Reverse() error   { return m.record("s") }
func (m *motionLog) TurnLeft() error  { return m.record("a") }
func (m *motionLog) TurnRight() error { return m.record("d") }
func (m *motionLog) AboutFace() error { return m.record("f") }
func (m *motionLog) Stop() error      { return m.record("x") }
func (m *motionLog) Velocity() int    { return 0 }

func (m *motionLog) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out string
	for _, c := range m.calls {
		out += c
	}
	return out
}

func startQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

func collect(results chan Result, n int, t *testing.T) []Result {
	t.Helper()
	var out []Result
	for i := 0; i < n; i++ {
		select {
		case r := <-results:
			out = append(out, r)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for result %d", i)
		}
	}
	return out
}

func TestQueue_RunsInOrder(t *testing.T) {
	m := &motionLog{}
	results := make(chan Result, 4)
	q := NewQueue(New(m), WithResultHandler(func(r Result) { results <- r }))

	a, err := q.Submit("w0a\n")
	require.NoError(t, err)
	b, err := q.Submit("s0df")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "w0a", a.Raw, "terminator stripped")

	startQueue(t, q)
	got := collect(results, 2, t)

	assert.Equal(t, a.ID, got[0].Task.ID)
	assert.Equal(t, b.ID, got[1].Task.ID)
	assert.NoError(t, got[0].Err)
	assert.NoError(t, got[1].Err)
	assert.Equal(t, "wxasxdf", m.String())
}

func TestQueue_RejectsMalformed(t *testing.T) {
	q := NewQueue(New(&motionLog{}))

	_, err := q.Submit("w")
	require.ErrorIs(t, err, sequence.ErrMissingDuration)
	assert.Equal(t, 0, len(q.tasks))
}

func TestQueue_Full(t *testing.T) {
	q := NewQueue(New(&motionLog{}), WithQueueSize(1))

	_, err := q.Submit("a")
	require.NoError(t, err)
	_, err = q.Submit("d")
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueue_CustomParser(t *testing.T) {
	q := NewQueue(New(&motionLog{}), WithParser(sequence.Parser{Limits: sequence.Limits{MaxCommands: 1}}))

	_, err := q.Submit("aa")
	assert.ErrorIs(t, err, sequence.ErrTooManyCommands)
}

func TestQueue_CancelPending(t *testing.T) {
	m := &motionLog{}
	results := make(chan Result, 4)
	q := NewQueue(New(m), WithResultHandler(func(r Result) { results <- r }))

	first, err := q.Submit("a")
	require.NoError(t, err)
	second, err := q.Submit("d")
	require.NoError(t, err)
	assert.True(t, q.Cancel(second.ID))
	assert.False(t, q.Cancel("no-such-task"))

	startQueue(t, q)
	got := collect(results, 2, t)

	assert.Equal(t, first.ID, got[0].Task.ID)
	assert.NoError(t, got[0].Err)
	assert.True(t, errors.Is(got[1].Err, context.Canceled))
	assert.Equal(t, "a", m.String(), "cancelled task never reaches the robot")
}

func TestQueue_CancelRunning(t *testing.T) {
	m := &motionLog{}
	fc := testingclock.NewFakeClock(time.Now())
	results := make(chan Result, 1)
	q := NewQueue(New(m, WithClock(fc)), WithResultHandler(func(r Result) { results <- r }))

	task, err := q.Submit("w30a")
	require.NoError(t, err)
	startQueue(t, q)

	require.Eventually(t, func() bool { return q.Running() == task.ID && fc.HasWaiters() }, time.Second, time.Millisecond)
	assert.True(t, q.Cancel(task.ID))

	got := collect(results, 1, t)
	require.ErrorIs(t, got[0].Err, context.Canceled)
	assert.Equal(t, "wx", m.String(), "forward, forced stop, no turn")
	assert.Eventually(t, func() bool { return q.Running() == "" }, time.Second, time.Millisecond)
}

func TestQueue_TimingFollowsClock(t *testing.T) {
	m := &motionLog{}
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fc := testingclock.NewFakeClock(start)
	results := make(chan Result, 1)
	q := NewQueue(New(m, WithClock(fc)), WithResultHandler(func(r Result) { results <- r }))

	task, err := q.Submit("w3")
	require.NoError(t, err)
	assert.Equal(t, start, task.Received)
	startQueue(t, q)

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	fc.Step(3 * time.Second)

	got := collect(results, 1, t)
	require.NoError(t, got[0].Err)
	assert.Equal(t, start, got[0].Started)
	assert.Equal(t, start.Add(3*time.Second), got[0].Finished)
}
