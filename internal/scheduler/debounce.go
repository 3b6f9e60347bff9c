package scheduler

import (
	"context"

	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
)

// Pending is the handle of one debounced trigger.
type Pending struct {
	done    chan struct{}
	outcome Outcome
	err     error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(out Outcome, err error) {
	p.outcome = out
	p.err = err
	close(p.done)
}

// Done is closed once the trigger ran, was superseded or was cancelled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the trigger resolves or ctx ends.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, p.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Schedule replaces the session's pending debounced trigger with a new one
// that fires after the window. The replaced handle resolves as superseded.
func (s *Scheduler) Schedule(ctx context.Context, session string, trigger enums.TriggerKind) *Pending {
	handle := newPending()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		handle.resolve(Outcome{Trigger: trigger}, ErrStopped)
		return handle
	}

	if prev, ok := s.pending[session]; ok {
		prev.timer.Stop()
		prev.handle.resolve(Outcome{Trigger: prev.trigger, Superseded: true}, nil)
		s.metrics.IncSuperseded()
	}

	s.seq++
	seq := s.seq
	e := &entry{
		seq:     seq,
		ctx:     context.WithoutCancel(ctx),
		trigger: trigger,
		handle:  handle,
	}
	s.pending[session] = e
	e.timer = s.after(s.window, func() { s.fire(session, seq) })
	return handle
}

func (s *Scheduler) fire(session string, seq uint64) {
	s.mu.Lock()
	e, ok := s.pending[session]
	if !ok || e.seq != seq {
		s.mu.Unlock()
		return
	}
	delete(s.pending, session)
	s.mu.Unlock()

	e.handle.resolve(s.run(e.ctx, session, e.trigger), nil)
}

// HasPending reports whether session has an outstanding debounced trigger.
func (s *Scheduler) HasPending(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[session]
	return ok
}

// Stop cancels every pending timer. Later schedules resolve with ErrStopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for session, e := range s.pending {
		e.timer.Stop()
		e.handle.resolve(Outcome{Trigger: e.trigger}, ErrStopped)
		delete(s.pending, session)
	}
}
