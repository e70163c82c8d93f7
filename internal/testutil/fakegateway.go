// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"taskdeck/internal/credstore"
	"taskdeck/internal/service"
)

type fakeAccount struct {
	user     service.User
	password string
}

// FakeGateway is an in-memory implementation of service.Gateway for
// testing. It reads the bearer credential from the same store the real
// gateway would, so session flows behave like they do against the server.
type FakeGateway struct {
	mu      sync.Mutex
	store   credstore.Store
	nextUID int
	nextTID int64
	nextTok int
	users   map[string]*fakeAccount   // email -> account
	tokens  map[string]string         // token -> email
	tasks   map[string][]service.Task // ownerID -> tasks, newest first
	calls   map[string]int

	// Error injection for testing.
	SignUpErr     error
	SignInErr     error
	MeErr         error
	ListTasksErr  error
	CreateTaskErr error
	GetTaskErr    error
	UpdateTaskErr error
	DeleteTaskErr error
	ToggleErr     error

	// TokenlessAuth makes sign-in and sign-up succeed without a token.
	TokenlessAuth bool

	// Hooks run before the operation is applied, outside the lock.
	// Tests use them to hold a call in flight.
	OnListTasks  func(ownerID string)
	OnCreateTask func(ownerID string, in service.TaskCreate)
	OnUpdateTask func(ownerID string, taskID int64, in service.TaskUpdate)
	OnDeleteTask func(ownerID string, taskID int64)
	OnToggle     func(ownerID string, taskID int64)
}

// NewFakeGateway creates a FakeGateway validating bearer credentials
// against store.
func NewFakeGateway(store credstore.Store) *FakeGateway {
	return &FakeGateway{
		store:  store,
		users:  make(map[string]*fakeAccount),
		tokens: make(map[string]string),
		tasks:  make(map[string][]service.Task),
		calls:  make(map[string]int),
	}
}

// AddUser registers an account and returns its identity.
func (f *FakeGateway) AddUser(email, password string) service.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(email, password)
}

func (f *FakeGateway) addUserLocked(email, password string) service.User {
	f.nextUID++
	now := time.Now().UTC().Truncate(time.Second)
	user := service.User{
		ID:        fmt.Sprintf("user-%d", f.nextUID),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.users[email] = &fakeAccount{user: user, password: password}
	return user
}

// IssueToken mints a valid token for email, as if the server had issued it
// to another client.
func (f *FakeGateway) IssueToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueTokenLocked(email)
}

func (f *FakeGateway) issueTokenLocked(email string) string {
	f.nextTok++
	token := fmt.Sprintf("tok-%d", f.nextTok)
	f.tokens[token] = email
	return token
}

// AddTask seeds a task for ownerID and returns it.
func (f *FakeGateway) AddTask(ownerID, title string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := f.newTaskLocked(ownerID, service.TaskCreate{Title: title})
	f.tasks[ownerID] = append([]service.Task{task}, f.tasks[ownerID]...)
	return task
}

// TasksFor returns a copy of ownerID's tasks as the server holds them.
func (f *FakeGateway) TasksFor(ownerID string) []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks[ownerID]))
	copy(out, f.tasks[ownerID])
	return out
}

// CallCount returns how many times the named operation was invoked.
func (f *FakeGateway) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeGateway) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

// SignUp implements service.Gateway.
func (f *FakeGateway) SignUp(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	f.count("SignUp")
	if f.SignUpErr != nil {
		return service.AuthResult{}, f.SignUpErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[creds.Email]; exists {
		return service.AuthResult{}, &service.RequestError{StatusCode: http.StatusBadRequest, Message: "Email already registered"}
	}
	user := f.addUserLocked(creds.Email, creds.Password)
	res := service.AuthResult{User: user}
	if !f.TokenlessAuth {
		res.Token = f.issueTokenLocked(creds.Email)
	}
	return res, nil
}

// SignIn implements service.Gateway. Rejections carry the same generic
// message whether the account is unknown or the password is wrong.
func (f *FakeGateway) SignIn(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	f.count("SignIn")
	if f.SignInErr != nil {
		return service.AuthResult{}, f.SignInErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.users[creds.Email]
	if !ok || account.password != creds.Password {
		return service.AuthResult{}, &service.RequestError{StatusCode: http.StatusUnauthorized, Message: "Incorrect email or password"}
	}
	res := service.AuthResult{User: account.user}
	if !f.TokenlessAuth {
		res.Token = f.issueTokenLocked(creds.Email)
	}
	return res, nil
}

// Me implements service.Gateway.
func (f *FakeGateway) Me(ctx context.Context) (service.User, error) {
	f.count("Me")
	if f.MeErr != nil {
		return service.User{}, f.MeErr
	}
	cred, err := f.store.Get()
	if err != nil {
		return service.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.tokens[cred]
	if cred == "" || !ok {
		return service.User{}, &service.RequestError{StatusCode: http.StatusUnauthorized, Message: "Could not validate credentials"}
	}
	return f.users[email].user, nil
}

// RevokeTokens invalidates every issued token, as if they had expired.
func (f *FakeGateway) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

// ListTasks implements service.Gateway.
func (f *FakeGateway) ListTasks(ctx context.Context, ownerID string) (service.TaskList, error) {
	f.count("ListTasks")
	if f.OnListTasks != nil {
		f.OnListTasks(ownerID)
	}
	if f.ListTasksErr != nil {
		return service.TaskList{}, f.ListTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks[ownerID]))
	copy(out, f.tasks[ownerID])
	return service.TaskList{Tasks: out, Count: len(out)}, nil
}

// CreateTask implements service.Gateway.
func (f *FakeGateway) CreateTask(ctx context.Context, ownerID string, in service.TaskCreate) (service.Task, error) {
	f.count("CreateTask")
	if f.OnCreateTask != nil {
		f.OnCreateTask(ownerID, in)
	}
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	task := f.newTaskLocked(ownerID, in)
	f.tasks[ownerID] = append([]service.Task{task}, f.tasks[ownerID]...)
	return task, nil
}

// GetTask implements service.Gateway.
func (f *FakeGateway) GetTask(ctx context.Context, ownerID string, taskID int64) (service.Task, error) {
	f.count("GetTask")
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks[ownerID] {
		if t.ID == taskID {
			return t, nil
		}
	}
	return service.Task{}, notFound()
}

// UpdateTask implements service.Gateway.
func (f *FakeGateway) UpdateTask(ctx context.Context, ownerID string, taskID int64, in service.TaskUpdate) (service.Task, error) {
	f.count("UpdateTask")
	if f.OnUpdateTask != nil {
		f.OnUpdateTask(ownerID, taskID, in)
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := f.tasks[ownerID]
	for i := range tasks {
		if tasks[i].ID == taskID {
			if in.Title != nil {
				tasks[i].Title = *in.Title
			}
			if in.Description != nil {
				d := *in.Description
				tasks[i].Description = &d
			}
			tasks[i].UpdatedAt = time.Now().UTC().Truncate(time.Second)
			return tasks[i], nil
		}
	}
	return service.Task{}, notFound()
}

// DeleteTask implements service.Gateway.
func (f *FakeGateway) DeleteTask(ctx context.Context, ownerID string, taskID int64) error {
	f.count("DeleteTask")
	if f.OnDeleteTask != nil {
		f.OnDeleteTask(ownerID, taskID)
	}
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := f.tasks[ownerID]
	for i := range tasks {
		if tasks[i].ID == taskID {
			f.tasks[ownerID] = append(tasks[:i:i], tasks[i+1:]...)
			return nil
		}
	}
	return notFound()
}

// ToggleComplete implements service.Gateway.
func (f *FakeGateway) ToggleComplete(ctx context.Context, ownerID string, taskID int64) (service.Task, error) {
	f.count("ToggleComplete")
	if f.OnToggle != nil {
		f.OnToggle(ownerID, taskID)
	}
	if f.ToggleErr != nil {
		return service.Task{}, f.ToggleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := f.tasks[ownerID]
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].IsComplete = !tasks[i].IsComplete
			tasks[i].UpdatedAt = time.Now().UTC().Truncate(time.Second)
			return tasks[i], nil
		}
	}
	return service.Task{}, notFound()
}

func (f *FakeGateway) newTaskLocked(ownerID string, in service.TaskCreate) service.Task {
	f.nextTID++
	now := time.Now().UTC().Truncate(time.Second)
	task := service.Task{
		ID:         f.nextTID,
		OwnerID:    ownerID,
		Title:      in.Title,
		IsComplete: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.Description != nil {
		d := *in.Description
		task.Description = &d
	}
	return task
}

func notFound() error {
	return &service.RequestError{StatusCode: http.StatusNotFound, Message: "Task not found"}
}
