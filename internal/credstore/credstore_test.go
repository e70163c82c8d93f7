package credstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credential"))

	cred, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, cred, "fresh store should have no credential")

	require.NoError(t, store.Set("tok-abc123"))

	cred, err = store.Get()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc123", cred)

	require.NoError(t, store.Clear())

	cred, err = store.Get()
	require.NoError(t, err)
	assert.Empty(t, cred)
}

func TestFileStore_ClearAbsent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credential"))
	require.NoError(t, store.Clear())
}

func TestFileStore_Overwrite(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "credential"))

	require.NoError(t, store.Set("first"))
	require.NoError(t, store.Set("second"))

	cred, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "second", cred)
}

func TestFileStore_WatchSeesSetAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential")
	store := NewFileStore(path)

	ch, stop, err := store.Watch()
	require.NoError(t, err)
	defer stop()

	// A second store over the same file models another process.
	other := NewFileStore(path)
	require.NoError(t, other.Set("tok-xyz"))

	change := waitChange(t, ch)
	assert.True(t, change.Present)
	assert.Equal(t, "tok-xyz", change.Credential)

	require.NoError(t, other.Clear())

	for {
		change = waitChange(t, ch)
		if !change.Present {
			break
		}
	}
}

func TestMemStore_RoundTrip(t *testing.T) {
	store := NewMemStore()

	cred, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, cred)

	require.NoError(t, store.Set("tok-1"))
	cred, _ = store.Get()
	assert.Equal(t, "tok-1", cred)

	require.NoError(t, store.Clear())
	cred, _ = store.Get()
	assert.Empty(t, cred)
}

func TestMemStore_WatchersObserveWrites(t *testing.T) {
	store := NewMemStore()

	ch1, stop1, err := store.Watch()
	require.NoError(t, err)
	defer stop1()
	ch2, stop2, err := store.Watch()
	require.NoError(t, err)
	defer stop2()

	require.NoError(t, store.Set("tok-shared"))

	for _, ch := range []<-chan Change{ch1, ch2} {
		change := waitChange(t, ch)
		assert.True(t, change.Present)
		assert.Equal(t, "tok-shared", change.Credential)
	}

	require.NoError(t, store.Clear())
	change := waitChange(t, ch1)
	assert.False(t, change.Present)
}

func TestMemStore_StopUnsubscribes(t *testing.T) {
	store := NewMemStore()

	ch, stop, err := store.Watch()
	require.NoError(t, err)
	stop()

	require.NoError(t, store.Set("tok-after-stop"))

	_, open := <-ch
	assert.False(t, open, "stopped watcher channel should be closed")
}

func waitChange(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case change, ok := <-ch:
		if !ok {
			t.Fatal("watch channel closed")
		}
		return change
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for credential change")
	}
	return Change{}
}
