package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/cache"
	"taskdeck/internal/credstore"
	"taskdeck/internal/service"
	"taskdeck/internal/testutil"
)

func newCache(t *testing.T) (*cache.Cache, *testutil.FakeGateway) {
	t.Helper()
	gw := testutil.NewFakeGateway(credstore.NewMemStore())
	c := cache.New(gw, zerolog.Nop())
	c.SetOwner("u1")
	return c, gw
}

func titles(tasks []cache.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestList(t *testing.T) {
	c, gw := newCache(t)
	gw.AddTask("u1", "older")
	gw.AddTask("u1", "newer")

	c.List(context.Background())

	require.NoError(t, c.Err())
	assert.Equal(t, []string{"newer", "older"}, titles(c.Tasks()))
	assert.False(t, c.Loading())
}

func TestList_FailureRecordedAndRetryable(t *testing.T) {
	c, gw := newCache(t)
	gw.AddTask("u1", "survivor")
	gw.ListTasksErr = errors.New("backend down")

	c.List(context.Background())
	assert.EqualError(t, c.Err(), "backend down")
	assert.Empty(t, c.Tasks(), "a failed fetch leaves an empty collection")

	gw.ListTasksErr = nil
	c.Retry(context.Background())
	require.NoError(t, c.Err())
	assert.Equal(t, []string{"survivor"}, titles(c.Tasks()))
}

func TestList_NotBound(t *testing.T) {
	gw := testutil.NewFakeGateway(credstore.NewMemStore())
	c := cache.New(gw, zerolog.Nop())

	c.List(context.Background())

	assert.ErrorIs(t, c.Err(), service.ErrNotAuthenticated)
	assert.Zero(t, gw.CallCount("ListTasks"))
}

func TestCreate_OptimisticVisibility(t *testing.T) {
	c, gw := newCache(t)
	release := make(chan struct{})
	gw.OnCreateTask = func(string, service.TaskCreate) { <-release }

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Create(context.Background(), service.TaskCreate{Title: "Write report"})
		assert.NoError(t, err)
	}()

	// The placeholder is visible while the call is still in flight.
	require.Eventually(t, func() bool {
		tasks := c.Tasks()
		return len(tasks) == 1 && tasks[0].Pending && tasks[0].Title == "Write report"
	}, 5*time.Second, time.Millisecond)

	close(release)
	<-done

	tasks := c.Tasks()
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Pending, "confirmation replaces the placeholder")
	assert.NotZero(t, tasks[0].ID)
	assert.Empty(t, tasks[0].ClientID)
}

func TestCreate_RollbackRemovesPlaceholder(t *testing.T) {
	c, gw := newCache(t)
	gw.AddTask("u1", "existing")
	c.List(context.Background())
	before := c.Tasks()

	gw.CreateTaskErr = errors.New("boom")
	_, err := c.Create(context.Background(), service.TaskCreate{Title: "doomed"})
	require.Error(t, err)

	assert.Equal(t, before, c.Tasks(), "failed create leaves the collection untouched")
}

func TestCreate_EmptyTitleRejectedLocally(t *testing.T) {
	c, gw := newCache(t)

	_, err := c.Create(context.Background(), service.TaskCreate{Title: "   "})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, gw.CallCount("CreateTask"), "validation failures never reach the network")
	assert.Empty(t, c.Tasks())
}

func TestUpdate_CommitsServerVersion(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "draft")
	c.List(context.Background())

	title := "final"
	updated, err := c.Update(context.Background(), seeded.ID, service.TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)

	tasks := c.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "final", tasks[0].Title)
	assert.Equal(t, gw.TasksFor("u1")[0].UpdatedAt, tasks[0].UpdatedAt, "server timestamp wins")
}

func TestUpdate_RollbackRestoresSnapshot(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "keep me")
	gw.AddTask("u1", "bystander")
	c.List(context.Background())
	before := c.Tasks()

	gw.UpdateTaskErr = errors.New("boom")
	title := "mangled"
	_, err := c.Update(context.Background(), seeded.ID, service.TaskUpdate{Title: &title})
	require.Error(t, err)

	assert.Equal(t, before, c.Tasks(), "failed update restores the pre-mutation collection")
}

func TestDelete_Success(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "condemned")
	gw.AddTask("u1", "bystander")
	c.List(context.Background())

	require.NoError(t, c.Delete(context.Background(), seeded.ID))
	assert.Equal(t, []string{"bystander"}, titles(c.Tasks()))
}

func TestDelete_RollbackRestoresSnapshot(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "survivor")
	c.List(context.Background())
	before := c.Tasks()

	gw.DeleteTaskErr = errors.New("boom")
	require.Error(t, c.Delete(context.Background(), seeded.ID))
	assert.Equal(t, before, c.Tasks())
}

func TestToggle_RoundTripRestoresState(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "flip me")
	c.List(context.Background())

	first, err := c.Toggle(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.True(t, first.IsComplete)

	second, err := c.Toggle(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, second.IsComplete, "two toggles land back where they started")
	assert.False(t, c.Tasks()[0].IsComplete)
}

func TestToggle_ServerAnswerWins(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "contested")
	c.List(context.Background())

	// Another client toggled first, so the server flips back to false while
	// the local optimistic flip says true. The server's answer must win.
	gw.ToggleComplete(context.Background(), "u1", seeded.ID)

	got, err := c.Toggle(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, got.IsComplete)
	assert.Equal(t, gw.TasksFor("u1")[0].IsComplete, c.Tasks()[0].IsComplete)
}

func TestToggle_RollbackOnFailure(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "stuck")
	c.List(context.Background())
	before := c.Tasks()

	gw.ToggleErr = errors.New("boom")
	_, err := c.Toggle(context.Background(), seeded.ID)
	require.Error(t, err)
	assert.Equal(t, before, c.Tasks())
}

func TestGet_RefreshesResidentCopy(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "stale locally")
	c.List(context.Background())

	// The server copy moved on since the list fetch.
	title := "fresh"
	gw.UpdateTask(context.Background(), "u1", seeded.ID, service.TaskUpdate{Title: &title})

	got, err := c.Get(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)
	assert.Equal(t, "fresh", c.Tasks()[0].Title)
}

func TestStaleResponseDiscardedAfterReset(t *testing.T) {
	c, gw := newCache(t)
	gw.AddTask("u1", "old owner's task")

	release := make(chan struct{})
	gw.OnListTasks = func(string) { <-release }

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.List(context.Background())
	}()

	require.Eventually(t, func() bool { return gw.CallCount("ListTasks") == 1 }, 5*time.Second, time.Millisecond)
	c.Reset()
	close(release)
	<-done

	assert.Empty(t, c.Tasks(), "a fetch from before the rebind must not land")
	assert.NoError(t, c.Err())
}

func TestSameTaskOverlap_LastToResolveWins(t *testing.T) {
	c, gw := newCache(t)
	seeded := gw.AddTask("u1", "contested")
	c.List(context.Background())

	gates := make(chan chan struct{}, 2)
	gw.OnUpdateTask = func(_ string, _ int64, _ service.TaskUpdate) {
		gate := make(chan struct{})
		gates <- gate
		<-gate
	}

	results := make(chan string, 2)
	start := func(title string) {
		go func() {
			got, err := c.Update(context.Background(), seeded.ID, service.TaskUpdate{Title: &title})
			if err != nil {
				results <- "error"
				return
			}
			results <- got.Title
		}()
	}

	start("first")
	firstGate := <-gates
	start("second")
	secondGate := <-gates

	// Release in reverse order: the first update resolves last and wins.
	close(secondGate)
	require.Equal(t, "second", <-results)
	close(firstGate)
	require.Equal(t, "first", <-results)

	assert.Equal(t, "first", c.Tasks()[0].Title)
}
