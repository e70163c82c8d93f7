// Package taskapi implements service.Gateway against the task-tracking
// HTTP API.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"taskdeck/internal/credstore"
	"taskdeck/internal/service"
)

// errNoCredential aborts a protected call before it reaches the network.
var errNoCredential = errors.New("no stored credential")

// storeSource adapts the credential store to oauth2.TokenSource. Token is
// called by oauth2.Transport on every request, so the store is re-read per
// call and a credential written by another process is picked up immediately.
type storeSource struct {
	store credstore.Store
}

func (s storeSource) Token() (*oauth2.Token, error) {
	cred, err := s.store.Get()
	if err != nil {
		return nil, err
	}
	if cred == "" {
		return nil, errNoCredential
	}
	return &oauth2.Token{AccessToken: cred, TokenType: "Bearer"}, nil
}

// Client implements service.Gateway over HTTP. The auth endpoints use a
// plain client; everything else goes through an oauth2.Transport that
// injects the stored bearer credential.
type Client struct {
	baseURL string
	plain   *http.Client
	authed  *http.Client
}

// New creates a gateway for the API at baseURL, reading bearer credentials
// from store.
func New(baseURL string, store credstore.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		plain:   &http.Client{},
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: storeSource{store: store}},
		},
	}
}

// SignUp implements service.Gateway.
func (c *Client) SignUp(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	var res service.AuthResult
	if err := c.do(ctx, c.plain, http.MethodPost, "/api/auth/signup", creds, &res); err != nil {
		return service.AuthResult{}, err
	}
	return res, nil
}

// SignIn implements service.Gateway.
func (c *Client) SignIn(ctx context.Context, creds service.Credentials) (service.AuthResult, error) {
	var res service.AuthResult
	if err := c.do(ctx, c.plain, http.MethodPost, "/api/auth/signin", creds, &res); err != nil {
		return service.AuthResult{}, err
	}
	return res, nil
}

// Me implements service.Gateway.
func (c *Client) Me(ctx context.Context) (service.User, error) {
	var user service.User
	if err := c.do(ctx, c.authed, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// ListTasks implements service.Gateway.
func (c *Client) ListTasks(ctx context.Context, ownerID string) (service.TaskList, error) {
	var list service.TaskList
	if err := c.do(ctx, c.authed, http.MethodGet, tasksPath(ownerID), nil, &list); err != nil {
		return service.TaskList{}, err
	}
	return list, nil
}

// CreateTask implements service.Gateway.
func (c *Client) CreateTask(ctx context.Context, ownerID string, in service.TaskCreate) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, c.authed, http.MethodPost, tasksPath(ownerID), in, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// GetTask implements service.Gateway.
func (c *Client) GetTask(ctx context.Context, ownerID string, taskID int64) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, c.authed, http.MethodGet, taskPath(ownerID, taskID), nil, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// UpdateTask implements service.Gateway.
func (c *Client) UpdateTask(ctx context.Context, ownerID string, taskID int64, in service.TaskUpdate) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, c.authed, http.MethodPut, taskPath(ownerID, taskID), in, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// DeleteTask implements service.Gateway.
func (c *Client) DeleteTask(ctx context.Context, ownerID string, taskID int64) error {
	return c.do(ctx, c.authed, http.MethodDelete, taskPath(ownerID, taskID), nil, nil)
}

// ToggleComplete implements service.Gateway.
func (c *Client) ToggleComplete(ctx context.Context, ownerID string, taskID int64) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, c.authed, http.MethodPatch, taskPath(ownerID, taskID)+"/complete", nil, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

func tasksPath(ownerID string) string {
	return fmt.Sprintf("/api/%s/tasks", url.PathEscape(ownerID))
}

func taskPath(ownerID string, taskID int64) string {
	return fmt.Sprintf("/api/%s/tasks/%d", url.PathEscape(ownerID), taskID)
}

// do issues one request and decodes the JSON response into out. out may be
// nil for calls whose success carries no body; a 204 is treated the same
// way regardless.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, errNoCredential) {
			// Nothing to attach; the server would answer 401, so fail
			// with the same class without the round-trip.
			return service.ErrUnauthorized
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorFromResponse builds the typed error for a non-success status, using
// the server-supplied detail message when one parses.
func errorFromResponse(resp *http.Response) error {
	reqErr := &service.RequestError{StatusCode: resp.StatusCode}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		reqErr.Message = body.Detail
	}
	return reqErr
}
