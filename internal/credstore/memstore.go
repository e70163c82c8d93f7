package credstore

import "sync"

// MemStore is an in-process Store. Several session managers sharing one
// MemStore model several tabs over the same browser storage: every Set and
// Clear is broadcast to all watchers, the writer's included.
type MemStore struct {
	mu       sync.Mutex
	cred     string
	watchers map[int]chan Change
	nextID   int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{watchers: make(map[int]chan Change)}
}

// Get implements Store.
func (s *MemStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, nil
}

// Set implements Store.
func (s *MemStore) Set(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = credential
	s.broadcast(Change{Credential: credential, Present: true})
	return nil
}

// Clear implements Store.
func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = ""
	s.broadcast(Change{})
	return nil
}

// Watch implements Store.
func (s *MemStore) Watch() (<-chan Change, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan Change, 16)
	s.watchers[id] = ch
	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if w, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(w)
		}
	}
	return ch, stop, nil
}

// broadcast delivers a change to every watcher. Callers hold s.mu, which
// also serializes against stop closing a channel mid-send. A watcher that
// has fallen 16 changes behind misses the update.
func (s *MemStore) broadcast(change Change) {
	for _, ch := range s.watchers {
		select {
		case ch <- change:
		default:
		}
	}
}
