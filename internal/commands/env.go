package commands

import (
	"taskdeck/internal/cache"
	"taskdeck/internal/session"
)

// Env bundles the live session and task collection a command operates on.
// The task collection follows the session: it binds to whatever identity
// the session resolves to and empties when the session goes anonymous.
type Env struct {
	Session *session.Manager
	Tasks   *cache.Cache

	stop func()
}

// NewEnv wires the task collection to the session's state feed. The initial
// binding happens before NewEnv returns, so an already-hydrated session is
// usable immediately.
func NewEnv(mgr *session.Manager, tasks *cache.Cache) *Env {
	env := &Env{Session: mgr, Tasks: tasks}

	states, cancel := mgr.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for st := range states {
			env.bind(st)
		}
	}()
	env.stop = func() {
		cancel()
		<-done
	}

	env.bind(mgr.Current())
	return env
}

func (e *Env) bind(st session.State) {
	if st.Loading {
		return
	}
	if st.Authenticated() {
		e.Tasks.SetOwner(st.Identity.ID)
		return
	}
	e.Tasks.Reset()
}

// Close stops following the session. The session manager itself is owned
// by the caller.
func (e *Env) Close() {
	if e.stop != nil {
		e.stop()
		e.stop = nil
	}
}
