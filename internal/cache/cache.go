// Package cache holds the per-session task collection and applies
// mutations optimistically: local change first, then the remote call, then
// either the server's authoritative result or a rollback to the
// pre-mutation state.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"taskdeck/internal/service"
)

// Task is a cache-resident task. Pending entries exist only between an
// optimistic create and its confirmation; their ClientID stands in for the
// server id they do not yet have.
type Task struct {
	service.Task

	// Pending marks a task awaiting server confirmation.
	Pending bool

	// ClientID identifies a pending task; empty once persisted.
	ClientID string
}

// Cache is the owner-scoped in-memory task collection, newest first.
//
// Mutations are atomic with respect to the collection, but the cache does
// not serialize overlapping operations on the same task: if two such
// mutations are in flight at once, the last one to resolve wins.
// Operations on different tasks are independent.
type Cache struct {
	gw  service.Gateway
	log zerolog.Logger
	now func() time.Time

	mu      sync.Mutex
	owner   string
	epoch   uint64
	tasks   []Task
	loading bool
	lastErr error
}

// New creates an empty, unbound cache.
func New(gw service.Gateway, log zerolog.Logger) *Cache {
	return &Cache{gw: gw, log: log, now: time.Now}
}

// SetOwner binds the cache to an identity, discarding any resident state.
// An in-flight call started under the previous owner resolves into nothing:
// its result must not land in a collection it no longer belongs to.
func (c *Cache) SetOwner(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == ownerID {
		return
	}
	c.owner = ownerID
	c.epoch++
	c.tasks = nil
	c.loading = false
	c.lastErr = nil
}

// Reset unbinds the cache, as when the owning identity goes away.
func (c *Cache) Reset() {
	c.SetOwner("")
}

// Owner returns the identity the cache is bound to, or "" when unbound.
func (c *Cache) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// Tasks returns a copy of the resident collection, newest first.
func (c *Cache) Tasks() []Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTasks(c.tasks)
}

// Loading reports whether a List fetch is in flight.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the recorded list failure, if any. Mutation failures are
// returned to the caller instead, after rollback.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// List fetches the owner's tasks and replaces the collection. A failure is
// recorded on the cache for display rather than returned, leaving an empty
// collection; Retry re-runs the same fetch.
func (c *Cache) List(ctx context.Context) {
	c.mu.Lock()
	if c.owner == "" {
		c.lastErr = service.ErrNotAuthenticated
		c.mu.Unlock()
		return
	}
	owner, epoch := c.owner, c.epoch
	c.loading = true
	c.lastErr = nil
	c.mu.Unlock()

	res, err := c.gw.ListTasks(ctx, owner)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.loading = false
	if err != nil {
		c.log.Debug().Err(err).Str("owner", owner).Msg("list tasks failed")
		c.tasks = nil
		c.lastErr = err
		return
	}
	tasks := make([]Task, len(res.Tasks))
	for i, t := range res.Tasks {
		tasks[i] = Task{Task: t}
	}
	c.tasks = tasks
	c.log.Debug().Int("count", len(tasks)).Msg("task collection replaced")
}

// Retry re-runs the last fetch.
func (c *Cache) Retry(ctx context.Context) {
	c.List(ctx)
}

// Get fetches a single task from the server and refreshes the resident
// copy, if there is one.
func (c *Cache) Get(ctx context.Context, taskID int64) (Task, error) {
	c.mu.Lock()
	if c.owner == "" {
		c.mu.Unlock()
		return Task{}, service.ErrNotAuthenticated
	}
	owner, epoch := c.owner, c.epoch
	c.mu.Unlock()

	fetched, err := c.gw.GetTask(ctx, owner, taskID)
	if err != nil {
		return Task{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch {
		c.replace(taskID, fetched)
	}
	return Task{Task: fetched}, nil
}

// Create validates the input, shows a pending placeholder immediately, and
// reconciles it with the server's task. On failure the placeholder is
// removed and the error returned.
func (c *Cache) Create(ctx context.Context, in service.TaskCreate) (Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := service.Validate(in); err != nil {
		return Task{}, err
	}

	c.mu.Lock()
	if c.owner == "" {
		c.mu.Unlock()
		return Task{}, service.ErrNotAuthenticated
	}
	owner, epoch := c.owner, c.epoch

	clientID := ulid.Make().String()
	now := c.now().UTC()
	pending := Task{
		Task: service.Task{
			OwnerID:     owner,
			Title:       in.Title,
			Description: cloneString(in.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Pending:  true,
		ClientID: clientID,
	}
	c.tasks = append([]Task{pending}, c.tasks...)
	c.mu.Unlock()

	created, err := c.gw.CreateTask(ctx, owner, in)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		// The cache was rebound mid-flight; the placeholder is gone and
		// the result must not land here.
		if err != nil {
			return Task{}, err
		}
		return Task{Task: created}, nil
	}
	if err != nil {
		c.log.Debug().Err(err).Msg("create rolled back")
		c.removeClient(clientID)
		return Task{}, err
	}
	for i := range c.tasks {
		if c.tasks[i].ClientID == clientID {
			c.tasks[i] = Task{Task: created}
			break
		}
	}
	return Task{Task: created}, nil
}

// Update merges the provided fields into the task, then reconciles with the
// server's version. On failure the entire pre-mutation snapshot is
// restored, not just the one task: overlapping operations on other tasks
// may have applied since, and a targeted undo could interleave with them
// unpredictably.
func (c *Cache) Update(ctx context.Context, taskID int64, in service.TaskUpdate) (Task, error) {
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}
	if err := service.Validate(in); err != nil {
		return Task{}, err
	}

	c.mu.Lock()
	if c.owner == "" {
		c.mu.Unlock()
		return Task{}, service.ErrNotAuthenticated
	}
	owner, epoch := c.owner, c.epoch
	snapshot := cloneTasks(c.tasks)
	for i := range c.tasks {
		if c.tasks[i].ID == taskID && !c.tasks[i].Pending {
			if in.Title != nil {
				c.tasks[i].Title = *in.Title
			}
			if in.Description != nil {
				c.tasks[i].Description = cloneString(in.Description)
			}
			c.tasks[i].UpdatedAt = c.now().UTC()
			break
		}
	}
	c.mu.Unlock()

	updated, err := c.gw.UpdateTask(ctx, owner, taskID, in)

	return c.settle(taskID, epoch, updated, err, snapshot)
}

// Delete removes the task immediately and restores the snapshot if the
// server rejects the call. On success there is nothing left to do.
func (c *Cache) Delete(ctx context.Context, taskID int64) error {
	c.mu.Lock()
	if c.owner == "" {
		c.mu.Unlock()
		return service.ErrNotAuthenticated
	}
	owner, epoch := c.owner, c.epoch
	snapshot := cloneTasks(c.tasks)
	filtered := make([]Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		if t.ID != taskID || t.Pending {
			filtered = append(filtered, t)
		}
	}
	c.tasks = filtered
	c.mu.Unlock()

	err := c.gw.DeleteTask(ctx, owner, taskID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return err
	}
	if err != nil {
		c.log.Debug().Err(err).Int64("task_id", taskID).Msg("delete rolled back")
		c.tasks = snapshot
		return err
	}
	return nil
}

// Toggle flips completion locally and asks the server to toggle; the
// server's answer wins, which reconciles races where another client
// changed the task first.
func (c *Cache) Toggle(ctx context.Context, taskID int64) (Task, error) {
	c.mu.Lock()
	if c.owner == "" {
		c.mu.Unlock()
		return Task{}, service.ErrNotAuthenticated
	}
	owner, epoch := c.owner, c.epoch
	snapshot := cloneTasks(c.tasks)
	for i := range c.tasks {
		if c.tasks[i].ID == taskID && !c.tasks[i].Pending {
			c.tasks[i].IsComplete = !c.tasks[i].IsComplete
			c.tasks[i].UpdatedAt = c.now().UTC()
			break
		}
	}
	c.mu.Unlock()

	toggled, err := c.gw.ToggleComplete(ctx, owner, taskID)

	return c.settle(taskID, epoch, toggled, err, snapshot)
}

// settle commits the server's version of a mutated task, or restores the
// snapshot on failure. Results from a stale epoch leave the cache alone.
func (c *Cache) settle(taskID int64, epoch uint64, result service.Task, err error, snapshot []Task) (Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		if err != nil {
			return Task{}, err
		}
		return Task{Task: result}, nil
	}
	if err != nil {
		c.log.Debug().Err(err).Int64("task_id", taskID).Msg("mutation rolled back")
		c.tasks = snapshot
		return Task{}, err
	}
	c.replace(taskID, result)
	return Task{Task: result}, nil
}

// replace swaps the resident entry for taskID with the server's version.
// A task no longer resident (dropped by a concurrent refresh) is left out.
func (c *Cache) replace(taskID int64, t service.Task) {
	for i := range c.tasks {
		if c.tasks[i].ID == taskID && !c.tasks[i].Pending {
			c.tasks[i] = Task{Task: t}
			return
		}
	}
}

func (c *Cache) removeClient(clientID string) {
	filtered := make([]Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		if t.ClientID != clientID {
			filtered = append(filtered, t)
		}
	}
	c.tasks = filtered
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		out[i].Description = cloneString(out[i].Description)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
