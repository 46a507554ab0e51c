package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"projectboard/internal/model"
	"projectboard/pkg/trace"
)

// minSearchLength suppresses noise-level title searches: queries with a
// shorter title filter never hit the network.
const minSearchLength = 3

// ErrSearchTooShort reports a suppressed search; no request was issued.
var ErrSearchTooShort = errors.New("task title filter shorter than minimum search length")

// TaskQuery mirrors the GET /tasks parameters.
type TaskQuery struct {
	ProjectID  int
	TaskTitle  string
	Statuses   []string
	Priorities []string
	StartDate  string
	EndDate    string
}

// key serializes the query canonically; it doubles as the cache key.
func (q TaskQuery) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tasks?projectId=%d", q.ProjectID)
	if q.TaskTitle != "" {
		fmt.Fprintf(&b, "&taskName=%s", url.QueryEscape(q.TaskTitle))
	}
	if len(q.Statuses) > 0 {
		fmt.Fprintf(&b, "&statuses=%s", url.QueryEscape(strings.Join(q.Statuses, ",")))
	}
	if len(q.Priorities) > 0 {
		fmt.Fprintf(&b, "&priorities=%s", url.QueryEscape(strings.Join(q.Priorities, ",")))
	}
	if q.StartDate != "" {
		fmt.Fprintf(&b, "&startDate=%s", url.QueryEscape(q.StartDate))
	}
	if q.EndDate != "" {
		fmt.Fprintf(&b, "&endDate=%s", url.QueryEscape(q.EndDate))
	}
	return b.String()
}

type inflight struct {
	done  chan struct{}
	tasks []model.Task
	err   error
}

// Client is an API client with a normalized, tag-invalidated query cache.
// Concurrent requests for the same key are collapsed into one fetch.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	cache *queryCache

	mu       sync.Mutex
	inFlight map[string]*inflight
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:   logger,
		cache:    newQueryCache(),
		inFlight: make(map[string]*inflight),
	}
}

// GetTasks returns the filtered task list, served from cache when fresh.
// Searches with a title filter shorter than minSearchLength are suppressed
// and return ErrSearchTooShort without touching the network.
func (c *Client) GetTasks(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	if q.TaskTitle != "" && len([]rune(q.TaskTitle)) < minSearchLength {
		return nil, ErrSearchTooShort
	}

	key := q.key()

	if tasks, ok := c.cache.get(key); ok {
		c.logger.Debug("Task query served from cache", zap.String("key", key))
		return tasks, nil
	}

	// Collapse concurrent fetches for the same key into one request.
	c.mu.Lock()
	if f, ok := c.inFlight[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.tasks, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &inflight{done: make(chan struct{})}
	c.inFlight[key] = f
	c.mu.Unlock()

	tasks, err := c.fetchTasks(ctx, key)

	f.tasks, f.err = tasks, err
	close(f.done)

	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	c.cache.set(key, tasks, taskTags(tasks))
	return tasks, nil
}

func (c *Client) fetchTasks(ctx context.Context, key string) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.doJSON(ctx, http.MethodGet, "/"+key, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetUserTasks returns tasks the user authored or is assigned to. Results
// are not cached; the dashboard views refetch on navigation.
func (c *Client) GetUserTasks(ctx context.Context, userID int) ([]model.Task, error) {
	var tasks []model.Task
	err := c.doJSON(ctx, http.MethodGet, "/tasks/user/"+strconv.Itoa(userID), nil, &tasks)
	return tasks, err
}

// CreateTask creates a task and invalidates every cached task list.
func (c *Client) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	var created model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/tasks", task, &created); err != nil {
		return model.Task{}, err
	}
	c.cache.invalidate(typeTag("Tasks"))
	return created, nil
}

// UpdateTaskStatus moves a task to a new status and invalidates every cached
// list containing it.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID int, status string) (model.Task, error) {
	body := map[string]string{"status": status}
	var updated model.Task
	err := c.doJSON(ctx, http.MethodPatch, "/tasks/"+strconv.Itoa(taskID)+"/status", body, &updated)
	if err != nil {
		return model.Task{}, err
	}
	c.cache.invalidate(Tag{Type: "Tasks", ID: taskID})
	return updated, nil
}

// UpdateTask applies a partial update. The server strips empty-string
// values, so clearing a form field leaves the persisted value alone.
func (c *Client) UpdateTask(ctx context.Context, taskID int, patch map[string]any) (model.Task, error) {
	var updated model.Task
	err := c.doJSON(ctx, http.MethodPatch, "/tasks/update/"+strconv.Itoa(taskID), patch, &updated)
	if err != nil {
		return model.Task{}, err
	}
	c.cache.invalidate(Tag{Type: "Tasks", ID: taskID})
	return updated, nil
}

// DeleteTask removes a task and invalidates every cached task list.
func (c *Client) DeleteTask(ctx context.Context, taskID int) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/tasks/"+strconv.Itoa(taskID), nil, nil); err != nil {
		return err
	}
	c.cache.invalidate(typeTag("Tasks"))
	return nil
}

// AddComment adds a comment and returns it flattened with the author's
// display fields.
func (c *Client) AddComment(ctx context.Context, taskID, userID int, text string) (model.FlatComment, error) {
	body := map[string]string{"text": text}
	var comment model.FlatComment
	path := fmt.Sprintf("/tasks/%d/%d/comments", taskID, userID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &comment); err != nil {
		return model.FlatComment{}, err
	}
	c.cache.invalidate(Tag{Type: "Tasks", ID: taskID})
	return comment, nil
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := trace.FromContext(ctx); requestID != "" {
		req.Header.Set(trace.HeaderName(), requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
