package reconcile

import (
	"context"
	"sync"
)

type passFunc func(ctx context.Context, session string) (Result, error)

type call struct {
	ctx  context.Context
	done chan struct{}
	res  Result
	err  error
}

type flight struct {
	pending *call
}

// flights serializes passes per session. While a pass runs, later callers
// join a single pending re-run and all receive its result. The re-run
// carries the context of the last caller to join.
type flights struct {
	mu       sync.Mutex
	inflight map[string]*flight
	run      passFunc
	onJoin   func()
}

func newFlights(run passFunc, onJoin func()) *flights {
	return &flights{inflight: make(map[string]*flight), run: run, onJoin: onJoin}
}

func (f *flights) do(ctx context.Context, session string) (Result, error) {
	f.mu.Lock()
	fl, running := f.inflight[session]
	if !running {
		f.inflight[session] = &flight{}
		f.mu.Unlock()

		defer f.finish(session)
		return f.run(ctx, session)
	}

	c := fl.pending
	if c == nil {
		c = &call{done: make(chan struct{})}
		fl.pending = c
	}
	// the re-run is attributed to the newest trigger that joined it
	c.ctx = context.WithoutCancel(ctx)
	f.mu.Unlock()
	if f.onJoin != nil {
		f.onJoin()
	}

	select {
	case <-c.done:
		return c.res, c.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (f *flights) finish(session string) {
	f.mu.Lock()
	fl := f.inflight[session]
	if fl == nil || fl.pending == nil {
		delete(f.inflight, session)
		f.mu.Unlock()
		return
	}
	c := fl.pending
	fl.pending = nil
	f.mu.Unlock()

	go func() {
		c.res, c.err = f.run(c.ctx, session)
		close(c.done)
		f.finish(session)
	}()
}

func (f *flights) active(session string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.inflight[session]
	return ok
}

// sessionLocks holds one mutex per session with a pending or running
// holder. Entries are dropped once the last holder unlocks.
type sessionLocks struct {
	mu   sync.Mutex
	held map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(session string) func() {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[string]*sessionLock)
	}
	sl, ok := l.held[session]
	if !ok {
		sl = &sessionLock{}
		l.held[session] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.held, session)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
