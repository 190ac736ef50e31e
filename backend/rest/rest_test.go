package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"taskboard/backend"
	"taskboard/internal/testutil"
)

func newTestBackend(t *testing.T, api *testutil.FakeAPI, token string) *Backend {
	t.Helper()
	b, err := New(Config{
		BaseURL:     api.BaseURL(),
		AuthURL:     api.AuthURL(),
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestNewRequiresTokenSource(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestListTasksSendsCacheBusterAndBearer(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Seed(backend.Task{Title: "first"}, backend.Task{Title: "second", Priority: backend.PriorityHigh})
	b := newTestBackend(t, api, testutil.TestToken)
	b.now = func() time.Time { return time.UnixMilli(1700000000123) }

	tasks, err := b.ListTasks(context.Background(), backend.Filter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "second", tasks[0].Title, "newest first")

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "t=1700000000123", reqs[0].Query)
	assert.Equal(t, "no-store", reqs[0].CacheControl)
	assert.Equal(t, "Bearer "+testutil.TestToken, reqs[0].Authorization)
	assert.NotEmpty(t, reqs[0].RequestID)
}

func TestListTasksEmptyIsNotNil(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	b := newTestBackend(t, api, testutil.TestToken)

	tasks, err := b.ListTasks(context.Background(), backend.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestListTasksFiltered(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Seed(
		backend.Task{Title: "a", Priority: backend.PriorityHigh, Completed: true},
		backend.Task{Title: "b", Priority: backend.PriorityHigh},
		backend.Task{Title: "c", Priority: backend.PriorityLow, Completed: true},
	)
	b := newTestBackend(t, api, testutil.TestToken)
	ctx := context.Background()
	done := true

	tasks, err := b.ListTasks(ctx, backend.Filter{Completed: &done})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = b.ListTasks(ctx, backend.Filter{Priority: backend.PriorityHigh})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = b.ListTasks(ctx, backend.Filter{Completed: &done, Priority: backend.PriorityHigh})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Title)

	paths := []string{}
	for _, r := range api.Requests() {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/api/tasks/status", "/api/tasks/priority", "/api/tasks/status"}, paths)
}

func TestCreateTaskBody(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	b := newTestBackend(t, api, testutil.TestToken)

	err := b.CreateTask(context.Background(), backend.Task{ID: 99, Title: "Buy milk", Priority: backend.PriorityHigh})
	require.NoError(t, err)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.JSONEq(t, `{"title":"Buy milk","description":"","dueDate":null,"priority":"HIGH","completed":false}`, reqs[0].Body)
	assert.Empty(t, reqs[0].Query, "only GET requests carry the cache buster")

	stored := api.Tasks()
	require.Len(t, stored, 1)
	assert.Equal(t, int64(1), stored[0].ID, "server assigns the id")
}

func TestUpdateTaskPartial(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seeded := api.Seed(backend.Task{Title: "keep", Description: "me"})
	b := newTestBackend(t, api, testutil.TestToken)

	done := true
	require.NoError(t, b.UpdateTask(context.Background(), backend.TaskPatch{ID: seeded[0].ID, Completed: &done}))

	task := backend.FindTask(api.Tasks(), seeded[0].ID)
	require.NotNil(t, task)
	assert.True(t, task.Completed)
	assert.Equal(t, "keep", task.Title)
	assert.Equal(t, "me", task.Description)
}

func TestUpdateTaskRequiresID(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	b := newTestBackend(t, api, testutil.TestToken)

	err := b.UpdateTask(context.Background(), backend.TaskPatch{})
	require.ErrorIs(t, err, backend.ErrValidation)
	assert.Zero(t, len(api.Requests()))
}

func TestDeleteTask(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seeded := api.Seed(backend.Task{Title: "gone"})
	b := newTestBackend(t, api, testutil.TestToken)

	require.NoError(t, b.DeleteTask(context.Background(), seeded[0].ID))
	assert.Empty(t, api.Tasks())

	err := b.DeleteTask(context.Background(), seeded[0].ID)
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "Task does not exists", statusErr.Message)
}

func TestUnauthorizedOnEveryOperation(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	seeded := api.Seed(backend.Task{Title: "x"})
	b := newTestBackend(t, api, "stale-token")
	ctx := context.Background()
	done := true

	ops := map[string]func() error{
		"list": func() error { _, err := b.ListTasks(ctx, backend.Filter{}); return err },
		"create": func() error {
			return b.CreateTask(ctx, backend.Task{Title: "y", Priority: backend.PriorityLow})
		},
		"update":  func() error { return b.UpdateTask(ctx, backend.TaskPatch{ID: seeded[0].ID, Completed: &done}) },
		"delete":  func() error { return b.DeleteTask(ctx, seeded[0].ID) },
		"summary": func() error { _, err := b.Summary(ctx); return err },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.Error(t, err)
			assert.True(t, backend.IsUnauthorized(err), "got %v", err)
		})
	}
}

func TestForbiddenIsUnauthorized(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.FailNext(http.MethodGet, http.StatusForbidden)
	b := newTestBackend(t, api, testutil.TestToken)

	_, err := b.ListTasks(context.Background(), backend.Filter{})
	assert.True(t, backend.IsUnauthorized(err))
}

func TestServerErrorIsStatusError(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.FailNext(http.MethodPost, http.StatusInternalServerError)
	b := newTestBackend(t, api, testutil.TestToken)

	err := b.CreateTask(context.Background(), backend.Task{Title: "x", Priority: backend.PriorityLow})
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.False(t, backend.IsUnauthorized(err))
	assert.Empty(t, api.Tasks())
}

func TestSummary(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	b := newTestBackend(t, api, testutil.TestToken)

	text, err := b.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "You haven't completed any tasks yet today. Get to work!", text)

	api.Seed(backend.Task{Title: "done", Completed: true})
	api.SetSummary("<b>not markup</b> shown as is")
	text, err = b.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<b>not markup</b> shown as is", text)
}

func TestSummaryTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	b, err := New(Config{
		BaseURL:     server.URL + "/api/tasks",
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"}),
	})
	require.NoError(t, err)

	_, err = b.Summary(context.Background())
	require.Error(t, err)
	var statusErr *backend.StatusError
	assert.False(t, errors.As(err, &statusErr), "transport errors are not status errors")
}

func TestTokenSourceConsultedPerRequest(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	src := &switchableSource{token: "stale"}
	b, err := New(Config{BaseURL: api.BaseURL(), AuthURL: api.AuthURL(), TokenSource: src})
	require.NoError(t, err)

	_, err = b.ListTasks(context.Background(), backend.Filter{})
	require.True(t, backend.IsUnauthorized(err))

	src.token = testutil.TestToken
	_, err = b.ListTasks(context.Background(), backend.Filter{})
	require.NoError(t, err)
}

type switchableSource struct{ token string }

func (s *switchableSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.token}, nil
}

func TestLoginAndRegister(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	b := newTestBackend(t, api, "")
	ctx := context.Background()

	token, err := b.Login(ctx, testutil.TestUser, testutil.TestPassword)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestToken, token)

	login := api.Requests()[0]
	assert.Empty(t, login.Authorization, "login is anonymous")
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(login.Body), &body))
	assert.Equal(t, testutil.TestUser, body["username"])

	_, err = b.Login(ctx, testutil.TestUser, "wrong")
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "Invalid credentials", statusErr.Message)

	require.NoError(t, b.Register(ctx, "bob", "pw"))
	token, err = b.Login(ctx, "bob", "pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "token-"))

	err = b.Register(ctx, "bob", "pw")
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
}
