package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
)

type fakeNotifier struct {
	mu          sync.Mutex
	welcomes    []Recipient
	activations []Recipient
	err         error
	panicMsg    string
	block       chan struct{}
}

func (f *fakeNotifier) wait(ctx context.Context) error {
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, to Recipient) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, to)
	return f.err
}

func (f *fakeNotifier) SendActivation(ctx context.Context, to Recipient) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activations = append(f.activations, to)
	return f.err
}

func (f *fakeNotifier) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.welcomes), len(f.activations)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []ParticipantMessage
	err  error
}

func (p *fakePublisher) PublishActivated(ctx context.Context, msg ParticipantMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func closeNow(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
}

func TestDispatch_WelcomeSendsOneEmail(t *testing.T) {
	n := &fakeNotifier{}
	p := &fakePublisher{}
	d := NewDispatcher(n, p, Options{Workers: 2, QueueSize: 4})

	d.Dispatch(NewEvent(KindWelcome, 7, "salma@example.com", "Salma", "Idrissi"))
	closeNow(t, d)

	w, a := n.counts()
	assert.Equal(t, 1, w)
	assert.Equal(t, 0, a)
	assert.Empty(t, p.msgs)
	assert.Equal(t, "salma@example.com", n.welcomes[0].Email)
	assert.Equal(t, Stats{Enqueued: 1, Delivered: 1}, d.Stats())
}

func TestDispatch_ActivationFansOutToEmailAndEvent(t *testing.T) {
	n := &fakeNotifier{}
	p := &fakePublisher{}
	d := NewDispatcher(n, p, Options{Workers: 2, QueueSize: 4})

	d.Dispatch(NewEvent(KindActivation, 7, "salma@example.com", "Salma", "Idrissi"))
	closeNow(t, d)

	_, a := n.counts()
	assert.Equal(t, 1, a)
	require.Len(t, p.msgs, 1)
	assert.Equal(t, ParticipantMessage{AccountID: 7, Email: "salma@example.com"}, p.msgs[0])
	assert.Equal(t, uint64(2), d.Stats().Delivered)
}

func TestDispatch_EmailFailureDoesNotStopEvent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := &fakeNotifier{err: errors.New("smtp: 550 mailbox unavailable")}
	p := &fakePublisher{}
	d := NewDispatcher(n, p, Options{Workers: 1, QueueSize: 4, Logger: zap.New(core).Sugar()})

	d.Dispatch(NewEvent(KindActivation, 7, "salma@example.com", "Salma", "Idrissi"))
	closeNow(t, d)

	assert.Len(t, p.msgs, 1)
	st := d.Stats()
	assert.Equal(t, uint64(1), st.Failed)
	assert.Equal(t, uint64(1), st.Delivered)

	failed := logs.FilterMessage("notification failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "email", failed[0].ContextMap()["channel"])
	assert.Contains(t, failed[0].ContextMap()["error"], "mailbox unavailable")
	assert.Contains(t, failed[0].ContextMap()["error"], apperr.ErrNotification.Error())
}

func TestDispatch_RecoversPanics(t *testing.T) {
	n := &fakeNotifier{panicMsg: "template exploded"}
	d := NewDispatcher(n, nil, Options{Workers: 1, QueueSize: 1})

	d.Dispatch(NewEvent(KindWelcome, 1, "a@example.com", "A", "B"))
	d.Dispatch(NewEvent(KindWelcome, 2, "b@example.com", "A", "B"))
	closeNow(t, d)

	assert.Equal(t, uint64(2), d.Stats().Failed)
}

func TestDispatch_TimeoutUsesBackgroundContext(t *testing.T) {
	n := &fakeNotifier{block: make(chan struct{})}
	d := NewDispatcher(n, nil, Options{Workers: 1, QueueSize: 1, Timeout: 20 * time.Millisecond})

	d.Dispatch(NewEvent(KindWelcome, 1, "a@example.com", "A", "B"))
	closeNow(t, d)

	assert.Equal(t, Stats{Enqueued: 1, Failed: 1}, d.Stats())
}

func TestDispatch_FullQueueNeverBlocks(t *testing.T) {
	n := &fakeNotifier{block: make(chan struct{})}
	d := NewDispatcher(n, nil, Options{Workers: 1, QueueSize: 1, Timeout: 5 * time.Second})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Dispatch(NewEvent(KindWelcome, int64(i), "a@example.com", "A", "B"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	close(n.block)
	closeNow(t, d)

	w, _ := n.counts()
	assert.Equal(t, 10, w)
	assert.Equal(t, Stats{Enqueued: 10, Delivered: 10}, d.Stats())
}

func TestDispatch_AfterCloseDrops(t *testing.T) {
	n := &fakeNotifier{}
	p := &fakePublisher{}
	d := NewDispatcher(n, p, Options{})
	closeNow(t, d)
	closeNow(t, d)

	d.Dispatch(NewEvent(KindActivation, 1, "a@example.com", "A", "B"))

	w, a := n.counts()
	assert.Zero(t, w+a)
	assert.Equal(t, uint64(2), d.Stats().Dropped)
}

func TestClose_HonoursContext(t *testing.T) {
	n := &fakeNotifier{block: make(chan struct{})}
	d := NewDispatcher(n, nil, Options{Workers: 1, Timeout: time.Minute})
	d.Dispatch(NewEvent(KindWelcome, 1, "a@example.com", "A", "B"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(n.block)
}

func TestNewEventStampsID(t *testing.T) {
	a := NewEvent(KindWelcome, 1, "a@example.com", "A", "B")
	b := NewEvent(KindWelcome, 1, "a@example.com", "A", "B")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, Recipient{AccountID: 1, Email: "a@example.com", FirstName: "A", LastName: "B"}, a.Recipient())
}
