// Package credstore persists the single opaque bearer credential and
// exposes a change feed over it.
//
// The credential is the one piece of state shared across client processes of
// the same profile. Writes are last-write-wins; callers re-read rather than
// cache the value when freshness matters.
package credstore

// Change describes an observed transition of the stored credential.
type Change struct {
	// Credential is the value after the change, "" when cleared.
	Credential string

	// Present is false when the credential was removed.
	Present bool
}

// Store holds at most one opaque credential.
//
// Get returns "" with a nil error when no credential is stored. Set persists
// durably and must be observable by other watchers of the same underlying
// storage. The credential's contents are never inspected.
type Store interface {
	Get() (string, error)
	Set(credential string) error
	Clear() error

	// Watch returns a feed of credential changes and a stop function.
	// Implementations may deliver the watcher's own writes as well;
	// consumers dedupe by value.
	Watch() (<-chan Change, func(), error)
}
