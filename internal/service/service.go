package service

import "context"

// Gateway is the typed boundary to the remote task API.
// The session manager and the task cache never issue HTTP requests directly;
// everything goes through this interface.
type Gateway interface {
	// SignUp registers a new account. The result carries the bearer token.
	SignUp(ctx context.Context, creds Credentials) (AuthResult, error)

	// SignIn exchanges credentials for a bearer token.
	SignIn(ctx context.Context, creds Credentials) (AuthResult, error)

	// Me resolves the stored credential into the authenticated identity.
	// Returns ErrUnauthorized for an invalid or expired credential.
	Me(ctx context.Context) (User, error)

	// ListTasks returns all tasks owned by ownerID.
	ListTasks(ctx context.Context, ownerID string) (TaskList, error)

	// CreateTask persists a new task and returns the server's version.
	CreateTask(ctx context.Context, ownerID string, in TaskCreate) (Task, error)

	// GetTask fetches a single task.
	GetTask(ctx context.Context, ownerID string, taskID int64) (Task, error)

	// UpdateTask applies a partial update and returns the server's version.
	UpdateTask(ctx context.Context, ownerID string, taskID int64, in TaskUpdate) (Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, ownerID string, taskID int64) error

	// ToggleComplete flips completion server-side and returns the new
	// version. Takes no body; the server decides the resulting state.
	ToggleComplete(ctx context.Context, ownerID string, taskID int64) (Task, error)
}
