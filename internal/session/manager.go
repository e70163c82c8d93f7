// Package session owns the authenticated-user identity and keeps it in
// step with the persisted credential, including credentials written by
// other client processes sharing the same store.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"taskdeck/internal/credstore"
	"taskdeck/internal/service"
)

// State is the session snapshot handed to subscribers.
//
// Loading is true only during the initial hydration or a re-hydration
// triggered by a credential change; once settled it stays false until the
// next change.
type State struct {
	Identity *service.User
	Loading  bool
}

// Authenticated reports whether an identity is resolved.
func (s State) Authenticated() bool { return s.Identity != nil }

// Manager tracks the session through three phases: unknown (initial,
// loading), authenticated, and anonymous. There is one Manager per process;
// cross-process consistency comes from the credential store watch.
type Manager struct {
	store credstore.Store
	gw    service.Gateway
	log   zerolog.Logger

	mu       sync.Mutex
	state    State
	lastCred string
	subs     map[int]chan State
	nextSub  int

	stopWatch func()
	watchDone chan struct{}
}

// NewManager creates a manager in the unknown phase. Call Init to hydrate.
func NewManager(store credstore.Store, gw service.Gateway, log zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		gw:    gw,
		log:   log,
		state: State{Loading: true},
		subs:  make(map[int]chan State),
	}
}

// Init hydrates the identity from the stored credential and starts watching
// the store for changes made elsewhere. Hydration failures resolve to an
// anonymous session, never to an error: a corrupt or expired credential
// must not break startup.
func (m *Manager) Init(ctx context.Context) {
	m.hydrate(ctx)

	ch, stop, err := m.store.Watch()
	if err != nil {
		m.log.Warn().Err(err).Msg("credential watch unavailable")
		return
	}
	m.stopWatch = stop
	m.watchDone = make(chan struct{})
	go m.watchLoop(ctx, ch)
}

// Close stops the store watch. The session state remains readable.
func (m *Manager) Close() {
	if m.stopWatch != nil {
		m.stopWatch()
		<-m.watchDone
		m.stopWatch = nil
	}
}

// Current returns the session state.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a feed of session state transitions and a cancel
// function. This is the same-process notification channel; other processes
// learn about credential changes through the store watch instead.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan State, 16)
	m.subs[id] = ch
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// SignIn exchanges credentials for a bearer token, persists it, and
// re-hydrates the identity before returning, so callers can proceed to
// protected actions immediately. Failure messages come from the server
// verbatim; the server keeps them generic.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*service.User, error) {
	return m.authenticate(ctx, email, password, m.gw.SignIn)
}

// SignUp registers a new account and signs it in.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*service.User, error) {
	return m.authenticate(ctx, email, password, m.gw.SignUp)
}

func (m *Manager) authenticate(ctx context.Context, email, password string, call func(context.Context, service.Credentials) (service.AuthResult, error)) (*service.User, error) {
	creds := service.Credentials{Email: email, Password: password}
	if err := service.Validate(creds); err != nil {
		return nil, err
	}

	res, err := call(ctx, creds)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		// A success without a token is a failure. Discard the partial
		// state rather than leaving it inconsistent.
		if clearErr := m.store.Clear(); clearErr != nil {
			m.log.Warn().Err(clearErr).Msg("clear credential")
		}
		return nil, service.ErrMissingCredential
	}

	// Record the value before writing it so the store watch recognizes
	// this manager's own write and does not hydrate a second time.
	m.mu.Lock()
	prev := m.lastCred
	m.lastCred = res.Token
	m.mu.Unlock()

	if err := m.store.Set(res.Token); err != nil {
		m.mu.Lock()
		m.lastCred = prev
		m.mu.Unlock()
		return nil, fmt.Errorf("persist credential: %w", err)
	}

	// Re-hydrate from the new credential before returning; subscribers
	// hear about it through the state broadcast.
	m.hydrate(ctx)

	st := m.Current()
	if !st.Authenticated() {
		return nil, service.ErrUnauthorized
	}
	return st.Identity, nil
}

// SignOut clears the credential and settles anonymous. No network call.
func (m *Manager) SignOut() {
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("clear credential")
	}
	m.setState(State{}, "")
}

// hydrate resolves the stored credential into an identity. Any failure, a
// bad credential included, ends anonymous with the credential cleared.
func (m *Manager) hydrate(ctx context.Context) {
	cred, err := m.store.Get()
	if err != nil || cred == "" {
		if err != nil {
			m.log.Warn().Err(err).Msg("credential unreadable")
		}
		m.setState(State{}, "")
		return
	}

	m.setLoading()
	user, err := m.gw.Me(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("hydration failed")
		if clearErr := m.store.Clear(); clearErr != nil {
			m.log.Warn().Err(clearErr).Msg("clear credential")
		}
		m.setState(State{}, "")
		return
	}

	m.log.Debug().Str("user_id", user.ID).Msg("session hydrated")
	m.setState(State{Identity: &user}, cred)
}

// watchLoop reacts to credential changes observed through the store. A
// value this manager just wrote is skipped; it already hydrated.
func (m *Manager) watchLoop(ctx context.Context, ch <-chan credstore.Change) {
	defer close(m.watchDone)
	for change := range ch {
		m.mu.Lock()
		seen := m.lastCred
		m.mu.Unlock()

		if change.Present {
			if change.Credential == seen {
				continue
			}
			m.log.Debug().Msg("credential appeared in another context")
			m.hydrate(ctx)
			continue
		}
		if seen == "" {
			continue
		}
		m.log.Debug().Msg("credential removed in another context")
		m.setState(State{}, "")
	}
}

func (m *Manager) setLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Loading = true
	m.broadcast(m.state)
}

func (m *Manager) setState(st State, cred string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
	m.lastCred = cred
	m.broadcast(st)
}

// broadcast delivers a state to every subscriber. Callers hold m.mu, which
// serializes against cancel closing a channel mid-send. Sends never block;
// a subscriber 16 transitions behind misses the oldest.
func (m *Manager) broadcast(st State) {
	for _, ch := range m.subs {
		select {
		case ch <- st:
		default:
		}
	}
}
