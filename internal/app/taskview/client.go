// Package taskview keeps client-side task collections consistent with the
// server using fetch-and-invalidate: views cache query results, apply
// updates optimistically, and requery whenever a mutation may have changed
// what they show. There is no push; another client's writes are noticed on
// the next interaction through the task revision header.
package taskview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

// API is the task service as seen by a view. Every call reports the
// collection revision the server answered with.
type API interface {
	List(ctx context.Context, f models.TaskFilter) ([]models.Task, int64, error)
	Create(ctx context.Context, d models.TaskDraft) (models.Task, int64, error)
	Update(ctx context.Context, id string, p models.TaskPatch) (models.Task, int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Is lets callers test with apperr sentinels.
func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == apperr.ErrNotFound
	case http.StatusBadRequest:
		return target == apperr.ErrValidation
	}
	return false
}

// Client talks to the HTTP task API. Give it an http.Client with a cookie
// jar when the server requires a session.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient returns a Client for the server at baseURL. A nil hc uses a
// client with a 30s timeout.
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: u, http: hc}, nil
}

// Login starts a session for email.
func (c *Client) Login(ctx context.Context, email string) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	_, err := c.do(ctx, http.MethodPost, "/login", nil, map[string]string{"email": email}, &out)
	return out.User, err
}

// List queries the task collection.
func (c *Client) List(ctx context.Context, f models.TaskFilter) ([]models.Task, int64, error) {
	var out []models.Task
	rev, err := c.do(ctx, http.MethodGet, "/tasks", filterQuery(f), nil, &out)
	return out, rev, err
}

// Get fetches one task.
func (c *Client) Get(ctx context.Context, id string) (models.Task, error) {
	var out models.Task
	_, err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// Options fetches the advisory field values.
func (c *Client) Options(ctx context.Context) (models.TaskOptions, error) {
	var out models.TaskOptions
	_, err := c.do(ctx, http.MethodGet, "/tasks/options", nil, nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, d models.TaskDraft) (models.Task, int64, error) {
	var out struct {
		Task models.Task `json:"task"`
	}
	rev, err := c.do(ctx, http.MethodPost, "/tasks", nil, d, &out)
	return out.Task, rev, err
}

func (c *Client) Update(ctx context.Context, id string, p models.TaskPatch) (models.Task, int64, error) {
	var out models.Task
	rev, err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), nil, p, &out)
	return out, rev, err
}

func (c *Client) Delete(ctx context.Context, id string) (int64, error) {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil)
}

func filterQuery(f models.TaskFilter) url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.From != nil {
		q.Set("from", f.From.UTC().Format(time.RFC3339Nano))
	}
	if f.To != nil {
		q.Set("to", f.To.UTC().Format(time.RFC3339Nano))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) (int64, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	rev, _ := strconv.ParseInt(resp.Header.Get(models.TasksRevisionHeader), 10, 64)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
		if eb.Error == "" {
			eb.Error = http.StatusText(resp.StatusCode)
		}
		return rev, &APIError{Status: resp.StatusCode, Message: eb.Error}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return rev, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return rev, nil
}
