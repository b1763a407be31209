package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gwillem/roomba/pkg/metrics"
	"github.com/gwillem/roomba/pkg/sequence"
)

// ErrQueueFull is returned by Submit when the backlog is at capacity.
var ErrQueueFull = errors.New("sequence queue full")

// DefaultQueueSize is the number of sequences that may wait behind the
// running one.
const DefaultQueueSize = 8

// Task is one accepted sequence.
type Task struct {
	ID       string
	Raw      string
	Commands []sequence.Command
	Received time.Time
}

// Result is the outcome of a task.
type Result struct {
	Task     Task
	Started  time.Time
	Finished time.Time
	Err      error
}

// Queue serializes sequences: any number of producers may Submit, a single
// consumer executes them one at a time.
type Queue struct {
	dispatcher *Dispatcher
	parser     sequence.Parser
	tasks      chan Task
	log        *zap.Logger
	onResult   func(Result)

	mu      sync.Mutex
	running string
	cancel  context.CancelFunc
	// pending maps waiting task IDs to whether they were cancelled.
	pending map[string]bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithQueueSize sets the backlog capacity.
func WithQueueSize(n int) QueueOption {
	return func(q *Queue) { q.tasks = make(chan Task, n) }
}

// WithParser overrides the sequence parser limits.
func WithParser(p sequence.Parser) QueueOption {
	return func(q *Queue) { q.parser = p }
}

// WithResultHandler registers a callback run after every task.
func WithResultHandler(fn func(Result)) QueueOption {
	return func(q *Queue) { q.onResult = fn }
}

// WithQueueLogger sets the logger.
func WithQueueLogger(l *zap.Logger) QueueOption {
	return func(q *Queue) { q.log = l }
}

// NewQueue creates a queue feeding d.
func NewQueue(d *Dispatcher, opts ...QueueOption) *Queue {
	q := &Queue{
		dispatcher: d,
		parser:     sequence.Parser{Limits: sequence.DefaultLimits},
		tasks:      make(chan Task, DefaultQueueSize),
		log:        zap.NewNop(),
		onResult:   func(Result) {},
		pending:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Submit parses raw and enqueues it. Malformed sequences are rejected here
// and never reach the robot.
func (q *Queue) Submit(raw string) (Task, error) {
	raw = sequence.Normalize(raw)
	cmds, err := q.parser.Parse(raw)
	if err != nil {
		metrics.SequencesTotal.WithLabelValues(metrics.ResultRejected).Inc()
		q.log.Warn("sequence rejected", zap.String("sequence", raw), zap.Error(err))
		return Task{}, err
	}

	task := Task{
		ID:       uuid.NewString(),
		Raw:      raw,
		Commands: cmds,
		Received: q.dispatcher.clock.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case q.tasks <- task:
		q.pending[task.ID] = false
		metrics.QueueDepth.Set(float64(len(q.tasks)))
		q.log.Info("sequence queued", zap.String("task", task.ID), zap.String("sequence", raw))
		return task, nil
	default:
		metrics.SequencesTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return Task{}, ErrQueueFull
	}
}

// Cancel aborts the task with the given ID, whether it is running or still
// waiting. It reports whether the task was found.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running == id && q.cancel != nil {
		q.cancel()
		return true
	}
	if _, ok := q.pending[id]; ok {
		q.pending[id] = true
		return true
	}
	return false
}

// Running returns the ID of the executing task, or "".
func (q *Queue) Running() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Run executes queued tasks until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-q.tasks:
			metrics.QueueDepth.Set(float64(len(q.tasks)))
			q.run(ctx, task)
		}
	}
}

func (q *Queue) run(ctx context.Context, task Task) {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q.mu.Lock()
	skip := q.pending[task.ID]
	delete(q.pending, task.ID)
	q.running = task.ID
	q.cancel = cancel
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.running = ""
		q.cancel = nil
		q.mu.Unlock()
	}()

	res := Result{Task: task, Started: q.dispatcher.clock.Now()}
	if skip {
		res.Err = context.Canceled
	} else {
		res.Err = q.dispatcher.Execute(taskCtx, task.Commands)
	}
	res.Finished = q.dispatcher.clock.Now()

	result := metrics.ResultOK
	switch {
	case errors.Is(res.Err, context.Canceled):
		result = metrics.ResultCanceled
	case res.Err != nil:
		result = metrics.ResultFailed
	}
	metrics.SequencesTotal.WithLabelValues(result).Inc()
	metrics.SequenceDuration.Observe(res.Finished.Sub(res.Started).Seconds())

	if res.Err != nil {
		q.log.Error("sequence failed", zap.String("task", task.ID), zap.Error(res.Err))
	} else {
		q.log.Info("sequence done", zap.String("task", task.ID), zap.Duration("elapsed", res.Finished.Sub(res.Started)))
	}
	q.onResult(res)
}
