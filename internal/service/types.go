// Package service defines the shared types and the gateway contract for the
// task API.
package service

import "time"

// User is the authenticated identity as returned by the auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a task as held by the server of record.
type Task struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsComplete  bool      `json:"is_complete"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskList is the response to a list call.
type TaskList struct {
	Tasks []Task `json:"tasks"`
	Count int    `json:"count"`
}

// TaskCreate is the input for creating a task.
type TaskCreate struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

// TaskUpdate is the input for updating a task. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty"`
}

// Credentials is the input for sign-in and sign-up. The password length
// policy is enforced server-side.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is the response to a successful sign-in or sign-up. Token may
// be empty; the session layer treats that as a failure.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
