package credstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileStore keeps the credential in a single file with mode 0600.
// The containing directory is watched with fsnotify so writes from other
// processes of the same profile surface as Change events.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get reads the stored credential. A missing file means no credential.
func (s *FileStore) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Set persists the credential, creating the directory if needed.
func (s *FileStore) Set(credential string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(credential), 0600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Clear removes the credential. Clearing an absent credential is not an
// error.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}

// Watch starts watching the credential file. The directory is watched
// rather than the file itself: the file may not exist yet, and a remove
// would drop a file-level watch.
func (s *FileStore) Watch() (<-chan Change, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("watch credential: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("create credential dir: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("watch credential: %w", err)
	}

	ch := make(chan Change, 1)
	done := make(chan struct{})
	go func() {
		defer close(ch)
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				change, ok := s.changeFor(ev)
				if !ok {
					continue
				}
				select {
				case ch <- change:
				case <-done:
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	stop := func() {
		close(done)
		watcher.Close()
	}
	return ch, stop, nil
}

func (s *FileStore) changeFor(ev fsnotify.Event) (Change, bool) {
	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		return Change{}, true
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		cred, err := s.Get()
		if err != nil || cred == "" {
			return Change{}, false
		}
		return Change{Credential: cred, Present: true}, true
	}
	return Change{}, false
}
