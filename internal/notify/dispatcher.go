package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
	DefaultTimeout   = 30 * time.Second
)

const (
	channelEmail = "email"
	channelEvent = "event"
)

// Options configures the worker pool. Zero values fall back to the defaults.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Logger    *zap.SugaredLogger
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Enqueued  uint64 `json:"enqueued"`
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

type task struct {
	channel string
	event   Event
	run     func(ctx context.Context) error
}

// Dispatcher runs notification tasks on a fixed pool of workers fed by a
// buffered channel. A task that finds the buffer full gets its own goroutine.
// Failures are logged and counted, never retried and never returned.
type Dispatcher struct {
	email   Notifier
	events  Publisher
	timeout time.Duration
	log     *zap.SugaredLogger

	tasks    chan task
	mu       sync.RWMutex
	closed   bool
	workers  sync.WaitGroup
	overflow sync.WaitGroup

	enqueued  atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher starts the workers. Either collaborator may be nil, in which
// case its tasks are skipped.
func NewDispatcher(email Notifier, events Publisher, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	d := &Dispatcher{
		email:   email,
		events:  events,
		timeout: opts.Timeout,
		log:     opts.Logger,
		tasks:   make(chan task, opts.QueueSize),
	}
	d.workers.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.workers.Done()
	for t := range d.tasks {
		d.run(t)
	}
}

// Dispatch hands ev to the pool and returns immediately.
func (d *Dispatcher) Dispatch(ev Event) {
	tasks := d.fanOut(ev)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(uint64(len(tasks)))
		d.log.Warnw("dispatcher closed, dropping event", "event_id", ev.ID, "kind", ev.Kind, "account_id", ev.AccountID)
		return
	}
	for _, t := range tasks {
		d.enqueued.Add(1)
		select {
		case d.tasks <- t:
		default:
			d.overflow.Add(1)
			go func(t task) {
				defer d.overflow.Done()
				d.run(t)
			}(t)
		}
	}
}

func (d *Dispatcher) fanOut(ev Event) []task {
	var out []task
	switch ev.Kind {
	case KindWelcome:
		if d.email != nil {
			out = append(out, task{channel: channelEmail, event: ev, run: func(ctx context.Context) error {
				return d.email.SendWelcome(ctx, ev.Recipient())
			}})
		}
	case KindActivation:
		if d.email != nil {
			out = append(out, task{channel: channelEmail, event: ev, run: func(ctx context.Context) error {
				return d.email.SendActivation(ctx, ev.Recipient())
			}})
		}
		if d.events != nil {
			out = append(out, task{channel: channelEvent, event: ev, run: func(ctx context.Context) error {
				return d.events.PublishActivated(ctx, ParticipantMessage{AccountID: ev.AccountID, Email: ev.Email})
			}})
		}
	default:
		d.log.Warnw("unknown event kind", "event_id", ev.ID, "kind", ev.Kind)
	}
	return out
}

func (d *Dispatcher) run(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.safeRun(ctx, t)
	if err == nil {
		d.delivered.Add(1)
		d.log.Debugw("notification delivered", "channel", t.channel, "event_id", t.event.ID, "kind", t.event.Kind)
		return
	}
	d.failed.Add(1)
	nerr := &apperr.NotificationError{Channel: t.channel, Event: string(t.event.Kind), Err: err}
	d.log.Errorw("notification failed",
		"channel", t.channel,
		"event_id", t.event.ID,
		"kind", t.event.Kind,
		"account_id", t.event.AccountID,
		"error", nerr,
	)
}

func (d *Dispatcher) safeRun(ctx context.Context, t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.run(ctx)
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued:  d.enqueued.Load(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Close stops intake and waits for queued and in-flight tasks, or for ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		d.overflow.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
