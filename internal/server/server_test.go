package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stopOrder struct {
	mu    sync.Mutex
	steps []string
}

func (o *stopOrder) add(step string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step)
}

func (o *stopOrder) get() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.steps...)
}

type fakeHTTP struct {
	order     *stopOrder
	listenErr error
	stopped   chan struct{}
	once      sync.Once
}

func newFakeHTTP(order *stopOrder) *fakeHTTP {
	return &fakeHTTP{order: order, stopped: make(chan struct{})}
}

func (f *fakeHTTP) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeHTTP) Shutdown(context.Context) error {
	// In-flight handlers are still committing and publishing here.
	time.Sleep(20 * time.Millisecond)
	f.order.add("http")
	f.once.Do(func() { close(f.stopped) })
	return nil
}

type fakeRunner struct {
	name  string
	order *stopOrder
}

func (r *fakeRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	r.order.add(r.name)
	return nil
}

func TestRunLifecycleStopsDispatcherAfterHTTP(t *testing.T) {
	order := &stopOrder{}
	srv := newFakeHTTP(order)
	hub := &fakeRunner{name: "hub", order: order}
	dispatcher := &fakeRunner{name: "dispatcher", order: order}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runLifecycle(ctx, srv, hub, dispatcher, zerolog.Nop()) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lifecycle did not stop")
	}
	assert.Equal(t, []string{"http", "dispatcher", "hub"}, order.get())
}

func TestRunLifecycleStopsEverythingWhenListenFails(t *testing.T) {
	order := &stopOrder{}
	srv := newFakeHTTP(order)
	srv.listenErr = errors.New("address already in use")

	err := runLifecycle(context.Background(), srv,
		&fakeRunner{name: "hub", order: order},
		&fakeRunner{name: "dispatcher", order: order},
		zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
	assert.Equal(t, []string{"http", "dispatcher", "hub"}, order.get())
}
