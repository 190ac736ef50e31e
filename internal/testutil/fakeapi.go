package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/backend"
)

const (
	// TestUser and TestPassword are registered on every FakeAPI.
	TestUser     = "alice"
	TestPassword = "secret"
	// TestToken is the token issued to TestUser.
	TestToken = "test-token"

	noCompletedSummary = "You haven't completed any tasks yet today. Get to work!"
)

// RecordedRequest is one request seen by the FakeAPI
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Body          string
	Authorization string
	CacheControl  string
	RequestID     string
}

// FakeAPI is an in-memory task service speaking the same wire format as the
// real backend: every response is an envelope {statusCode, message, data}.
type FakeAPI struct {
	mu       sync.Mutex
	server   *httptest.Server
	tasks    map[int64]backend.Task
	nextID   int64
	users    map[string]string // username -> password
	tokens   map[string]string // token -> username
	requests []RecordedRequest
	failNext map[string]int // method -> status
	summary  string
}

type envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

// NewFakeAPI starts a FakeAPI and stops it when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeAPI{
		tasks:    make(map[int64]backend.Task),
		nextID:   1,
		users:    map[string]string{TestUser: TestPassword},
		tokens:   map[string]string{TestToken: TestUser},
		failNext: make(map[string]int),
		summary:  "Great job today! You finished everything you set out to do.",
	}

	f.server = httptest.NewServer(f.routes())
	t.Cleanup(f.server.Close)
	return f
}

func (f *FakeAPI) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), f.record(), f.injectFailure())

	auth := r.Group("/api/auth")
	auth.POST("/login", f.login)
	auth.POST("/register", f.register)

	tasks := r.Group("/api/tasks", f.requireToken())
	tasks.GET("", f.listTasks)
	tasks.POST("", f.createTask)
	tasks.PUT("", f.updateTask)
	// status, priority and summary share the :id segment; see getView
	tasks.GET("/:id", f.getView)
	tasks.DELETE("/:id", f.deleteTask)

	return r
}

// BaseURL is the task collection URL
func (f *FakeAPI) BaseURL() string { return f.server.URL + "/api/tasks" }

// AuthURL is the auth endpoint base
func (f *FakeAPI) AuthURL() string { return f.server.URL + "/api/auth" }

// Seed stores tasks as if they had been created earlier. Ids are assigned when zero.
func (f *FakeAPI) Seed(tasks ...backend.Task) []backend.Task {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]backend.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == 0 {
			t.ID = f.nextID
		}
		if t.ID >= f.nextID {
			f.nextID = t.ID + 1
		}
		if t.Priority == "" {
			t.Priority = backend.PriorityMedium
		}
		f.tasks[t.ID] = t
		out = append(out, t)
	}
	return out
}

// Tasks returns the stored tasks, newest first
func (f *FakeAPI) Tasks() []backend.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked()
}

// Expire invalidates every issued token
func (f *FakeAPI) Expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

// FailNext makes the next request with the given method answer status
func (f *FakeAPI) FailNext(method string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[method] = status
}

// SetSummary sets the text returned by the summary endpoint
func (f *FakeAPI) SetSummary(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary = text
}

// Requests returns every request received so far
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// CountRequests counts requests with the given method
func (f *FakeAPI) CountRequests(method string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log
func (f *FakeAPI) ResetRequests() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
}

// =============================================================================
// Middleware
// =============================================================================

func (f *FakeAPI) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Query:         c.Request.URL.RawQuery,
			Body:          string(body),
			Authorization: c.GetHeader("Authorization"),
			CacheControl:  c.GetHeader("Cache-Control"),
			RequestID:     c.GetHeader("X-Request-ID"),
		})
		f.mu.Unlock()

		c.Next()
	}
}

func (f *FakeAPI) injectFailure() gin.HandlerFunc {
	return func(c *gin.Context) {
		f.mu.Lock()
		status, ok := f.failNext[c.Request.Method]
		if ok {
			delete(f.failNext, c.Request.Method)
		}
		f.mu.Unlock()

		if ok {
			c.AbortWithStatusJSON(status, envelope{StatusCode: status, Message: http.StatusText(status)})
			return
		}
		c.Next()
	}
}

func (f *FakeAPI) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		f.mu.Lock()
		_, valid := f.tokens[token]
		f.mu.Unlock()

		if !found || !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"})
			return
		}
		c.Next()
	}
}

// =============================================================================
// Handlers
// =============================================================================

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (f *FakeAPI) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.users[req.Username]; !ok || pw != req.Password {
		c.JSON(http.StatusUnauthorized, envelope{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"})
		return
	}

	token := TestToken
	if req.Username != TestUser {
		token = "token-" + req.Username
	}
	f.tokens[token] = req.Username
	c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Message: "login successful", Data: token})
}

func (f *FakeAPI) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: "username and password are required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.Username]; exists {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: "Username already taken"})
		return
	}
	f.users[req.Username] = req.Password
	c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Message: "user registered sucessfully"})
}

func (f *FakeAPI) listTasks(c *gin.Context) {
	c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Message: "Tasks retrieved successfully", Data: f.Tasks()})
}

func (f *FakeAPI) getView(c *gin.Context) {
	switch c.Param("id") {
	case "summary":
		f.getSummary(c)
		return
	case "status":
		f.listByStatus(c)
		return
	case "priority":
		f.listByPriority(c)
		return
	}

	c.JSON(http.StatusNotFound, envelope{StatusCode: http.StatusNotFound, Message: "Tasks not found"})
}

func (f *FakeAPI) listByStatus(c *gin.Context) {
	completed, err := strconv.ParseBool(c.Query("completed"))
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: "completed must be a boolean"})
		return
	}
	f.listWhere(c, func(t backend.Task) bool { return t.Completed == completed })
}

func (f *FakeAPI) listByPriority(c *gin.Context) {
	p, err := backend.ParsePriority(c.Query("priority"))
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}
	f.listWhere(c, func(t backend.Task) bool { return t.Priority == p })
}

func (f *FakeAPI) listWhere(c *gin.Context, keep func(backend.Task) bool) {
	var out []backend.Task
	for _, t := range f.Tasks() {
		if keep(t) {
			out = append(out, t)
		}
	}
	if out == nil {
		out = []backend.Task{}
	}
	c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Data: out})
}

func (f *FakeAPI) getSummary(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tasks {
		if t.Completed {
			c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Message: "AI Summary Generated", Data: f.summary})
			return
		}
	}
	c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Message: "No completed tasks to summarize.", Data: noCompletedSummary})
}

func (f *FakeAPI) createTask(c *gin.Context) {
	var task backend.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}
	if strings.TrimSpace(task.Title) == "" {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: "Title is required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC().Format("2006-01-02T15:04:05")
	task.ID = f.nextID
	f.nextID++
	task.CreatedAt, task.UpdatedAt = now, now
	f.tasks[task.ID] = task
	c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Message: "Task Created Successfully", Data: task})
}

// updateTask applies the non-null fields of the body, like the real service.
func (f *FakeAPI) updateTask(c *gin.Context) {
	var patch backend.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[patch.ID]
	if !ok {
		c.JSON(http.StatusNotFound, envelope{StatusCode: http.StatusNotFound, Message: "Tasks not found"})
		return
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.DueDate != nil {
		d := *patch.DueDate
		task.DueDate = &d
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = time.Now().UTC().Format("2006-01-02T15:04:05")
	f.tasks[task.ID] = task
	c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Message: "Task updated successfully", Data: task})
}

func (f *FakeAPI) deleteTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, envelope{StatusCode: http.StatusBadRequest, Message: "invalid id"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		c.JSON(http.StatusNotFound, envelope{StatusCode: http.StatusNotFound, Message: "Task does not exists"})
		return
	}
	delete(f.tasks, id)
	c.JSON(http.StatusOK, envelope{StatusCode: http.StatusOK, Message: "task deleted successfully"})
}

func (f *FakeAPI) sortedLocked() []backend.Task {
	out := make([]backend.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
