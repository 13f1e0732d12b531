package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	json "github.com/bytedance/sonic"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/fastygo/projecthub/api/handler"
	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/internal/infrastructure/llm"
	"github.com/fastygo/projecthub/internal/infrastructure/monitor"
	"github.com/fastygo/projecthub/internal/middleware"
	"github.com/fastygo/projecthub/pkg/httpcontext"
	"github.com/fastygo/projecthub/pkg/password"
	"github.com/fastygo/projecthub/pkg/token"
	redisRepo "github.com/fastygo/projecthub/repository/redis"
	"github.com/fastygo/projecthub/repository/sqlite"
	activityUC "github.com/fastygo/projecthub/usecase/activity"
	authUC "github.com/fastygo/projecthub/usecase/auth"
	dashboardUC "github.com/fastygo/projecthub/usecase/dashboard"
	projectUC "github.com/fastygo/projecthub/usecase/project"
	storyUC "github.com/fastygo/projecthub/usecase/story"
	taskUC "github.com/fastygo/projecthub/usecase/task"
	userUC "github.com/fastygo/projecthub/usecase/user"
)

type fakeGenerator struct {
	stories []string
	err     error
}

func (f *fakeGenerator) GenerateStories(context.Context, string) ([]string, error) {
	return f.stories, f.err
}

type recorder struct {
	mu      sync.Mutex
	entries []domain.Activity
}

func (r *recorder) Record(_ context.Context, a domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, a)
	return nil
}

func (r *recorder) byAction(action string) []domain.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Activity
	for _, a := range r.entries {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}

type fixedStatus monitor.Status

func (s fixedStatus) GetStatus() monitor.Status { return monitor.Status(s) }

type server struct {
	t      *testing.T
	client *fasthttp.Client
	auth   *authUC.UseCase
	gen    *fakeGenerator
	rec    *recorder
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := db.Store()

	mr := miniredis.RunT(t)
	rdb := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	adapter := httpcontext.NewAdapter(5 * time.Second)
	tokens := token.NewManager("test-secret", "projecthub", time.Hour)
	auth := authUC.New(store.Users, redisRepo.NewSessionRepository(rdb, time.Hour), tokens, password.NewHasher(bcrypt.MinCost), nil)
	gen := &fakeGenerator{}
	rec := &recorder{}

	r := New(Handlers{
		Auth:      apiHandler.NewAuthHandler(auth, adapter, nil),
		Project:   apiHandler.NewProjectHandler(projectUC.New(store, rec, nil), adapter, nil),
		Task:      apiHandler.NewTaskHandler(taskUC.New(store, nil, nil), adapter, nil),
		Dashboard: apiHandler.NewDashboardHandler(dashboardUC.New(store, nil), adapter, nil),
		Story:     apiHandler.NewStoryHandler(storyUC.New(store, gen, rec, nil), adapter, nil),
		User:      apiHandler.NewUserHandler(userUC.New(store.Users, nil), activityUC.New(store.Activity), adapter, nil),
		Health:    apiHandler.NewHealthHandler(fixedStatus{Store: true, Redis: true, Buffer: true}, adapter, nil),
	}, middleware.JWTAuth(auth, adapter, nil), middleware.OptionalJWTAuth(auth, adapter, nil), nil)

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: middleware.Chain(r.Handler, middleware.AccessLog(nil), middleware.CORS([]string{"*"}))}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	client := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}
	return &server{t: t, client: client, auth: auth, gen: gen, rec: rec}
}

type response struct {
	status int
	body   []byte
	header *fasthttp.ResponseHeader
}

func (r response) decode(t *testing.T, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, target), string(r.body))
}

func (r response) errorMessage(t *testing.T) string {
	var body struct {
		Error string `json:"error"`
	}
	r.decode(t, &body)
	return body.Error
}

func (s *server) do(method, path, tokenValue string, body any) response {
	s.t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://projecthub.test" + path)
	if tokenValue != "" {
		req.Header.Set("Authorization", "Bearer "+tokenValue)
	}
	switch b := body.(type) {
	case nil:
	case string:
		req.SetBodyString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		req.SetBody(raw)
	}
	req.Header.SetContentType("application/json")

	require.NoError(s.t, s.client.Do(req, resp))
	header := &fasthttp.ResponseHeader{}
	resp.Header.CopyTo(header)
	return response{
		status: resp.StatusCode(),
		body:   append([]byte(nil), resp.Body()...),
		header: header,
	}
}

// login registers the user when needed and returns a bearer token.
func (s *server) login(username, role string) string {
	s.t.Helper()
	res := s.do("POST", "/register", "", map[string]string{"username": username, "password": "secret1", "role": role})
	require.Contains(s.t, []int{fasthttp.StatusCreated, fasthttp.StatusBadRequest}, res.status)

	res = s.do("POST", "/login", "", map[string]string{"username": username, "password": "secret1"})
	require.Equal(s.t, fasthttp.StatusOK, res.status, string(res.body))
	var out struct {
		Token string `json:"token"`
	}
	res.decode(s.t, &out)
	return out.Token
}

func TestScenario_RegisterToDashboard(t *testing.T) {
	s := newServer(t)

	res := s.do("POST", "/register", "", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, fasthttp.StatusCreated, res.status)
	var registered struct {
		Message string `json:"message"`
		ID      int64  `json:"id"`
	}
	res.decode(t, &registered)
	assert.Equal(t, "User created successfully", registered.Message)
	assert.NotEmpty(t, res.header.Peek("X-Request-ID"))

	res = s.do("POST", "/login", "", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, fasthttp.StatusOK, res.status)
	var login struct {
		Token string `json:"token"`
		User  struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	res.decode(t, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "developer", login.User.Role)

	res = s.do("POST", "/projects", login.Token, map[string]string{"name": "P1"})
	require.Equal(t, fasthttp.StatusCreated, res.status)
	assert.JSONEq(t, `{"id":1,"name":"P1"}`, string(res.body))

	res = s.do("POST", "/tasks", login.Token, map[string]any{"title": "T1", "project_id": 1})
	require.Equal(t, fasthttp.StatusCreated, res.status)

	res = s.do("GET", "/dashboard", login.Token, nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	var dash struct {
		Stats struct {
			TotalProjects int `json:"total_projects"`
			TotalTasks    int `json:"total_tasks"`
			Todo          int `json:"todo"`
			Overdue       int `json:"overdue"`
		} `json:"stats"`
		RecentTasks  []map[string]any `json:"recent_tasks"`
		OverdueTasks []map[string]any `json:"overdue_tasks"`
	}
	res.decode(t, &dash)
	assert.Equal(t, 1, dash.Stats.TotalProjects)
	assert.Equal(t, 1, dash.Stats.TotalTasks)
	assert.Equal(t, 1, dash.Stats.Todo)
	assert.Equal(t, 0, dash.Stats.Overdue)
	assert.Len(t, dash.RecentTasks, 1)
	assert.NotNil(t, dash.OverdueTasks)
}

func TestRegisterAndLoginErrors(t *testing.T) {
	s := newServer(t)

	cases := []struct {
		body    any
		message string
	}{
		{nil, "No data provided"},
		{`{"username":`, "invalid payload"},
		{map[string]string{"password": "secret1"}, "username is required"},
		{map[string]string{"username": "bob"}, "password is required"},
		{map[string]string{"username": "bob", "password": "12345"}, "Password must be at least 6 characters"},
		{map[string]string{"username": "bob", "password": "secret1", "role": "owner"}, "role must be one of"},
	}
	for _, tc := range cases {
		res := s.do("POST", "/register", "", tc.body)
		assert.Equal(t, fasthttp.StatusBadRequest, res.status, tc.message)
		assert.Contains(t, res.errorMessage(t), tc.message)
	}

	s.login("bob", "")
	res := s.do("POST", "/register", "", map[string]string{"username": "bob", "password": "secret1"})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	assert.Equal(t, "Username already exists", res.errorMessage(t))

	res = s.do("POST", "/login", "", nil)
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	assert.Equal(t, "Username and password are required", res.errorMessage(t))

	wrong := s.do("POST", "/login", "", map[string]string{"username": "bob", "password": "nope-nope"})
	unknown := s.do("POST", "/login", "", map[string]string{"username": "ghost", "password": "nope-nope"})
	assert.Equal(t, fasthttp.StatusUnauthorized, wrong.status)
	assert.Equal(t, wrong.status, unknown.status)
	assert.Equal(t, string(wrong.body), string(unknown.body))
}

func TestTokenHandling(t *testing.T) {
	s := newServer(t)

	res := s.do("GET", "/projects", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
	assert.Equal(t, "Authentication required", res.errorMessage(t))

	res = s.do("GET", "/projects", "not-a-jwt", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
	assert.Equal(t, "Invalid token", res.errorMessage(t))

	expired := token.NewManager("test-secret", "projecthub", time.Nanosecond)
	raw, _, err := expired.Issue(1, "sid")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	res = s.do("GET", "/projects", raw, nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
	assert.Equal(t, "Token has expired", res.errorMessage(t))

	tok := s.login("carol", "manager")
	require.Equal(t, fasthttp.StatusOK, s.do("GET", "/projects", tok, nil).status)
	require.Equal(t, fasthttp.StatusNoContent, s.do("POST", "/logout", tok, nil).status)
	res = s.do("GET", "/projects", tok, nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, res.status)
	assert.Equal(t, "Invalid token", res.errorMessage(t))
}

func TestRoleGates(t *testing.T) {
	s := newServer(t)
	dev := s.login("dan", "developer")
	manager := s.login("mia", "manager")
	admin := s.login("root", "admin")

	res := s.do("GET", "/users", dev, nil)
	assert.Equal(t, fasthttp.StatusForbidden, res.status)
	assert.Equal(t, "Insufficient permissions", res.errorMessage(t))

	res = s.do("GET", "/users", manager, nil)
	require.Equal(t, fasthttp.StatusOK, res.status)
	var users []struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	res.decode(t, &users)
	require.Len(t, users, 3)
	assert.Equal(t, "dan", users[0].Username)
	assert.NotContains(t, string(res.body), "password")

	assert.Equal(t, fasthttp.StatusForbidden, s.do("GET", "/activity", manager, nil).status)
	res = s.do("GET", "/activity?limit=5", admin, nil)
	assert.Equal(t, fasthttp.StatusOK, res.status)
	assert.JSONEq(t, `[]`, string(res.body))
}

func TestProjectAndTaskLifecycle(t *testing.T) {
	s := newServer(t)
	manager := s.login("mia", "manager")
	dev := s.login("dan", "developer")
	other := s.login("oscar", "manager")

	res := s.do("POST", "/projects", manager, map[string]string{"name": "Apollo", "description": "moon"})
	require.Equal(t, fasthttp.StatusCreated, res.status)
	var project struct {
		ID int64 `json:"id"`
	}
	res.decode(t, &project)
	projectPath := fmt.Sprintf("/projects/%d", project.ID)

	res = s.do("POST", projectPath+"/members", manager, map[string]any{})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	res = s.do("POST", "/projects/999/members", manager, map[string]any{"user_id": 2})
	assert.Equal(t, fasthttp.StatusNotFound, res.status)
	for i := 0; i < 2; i++ {
		res = s.do("POST", projectPath+"/members", manager, map[string]any{"user_id": 2})
		require.Equal(t, fasthttp.StatusOK, res.status)
		assert.JSONEq(t, `{"message":"Member added"}`, string(res.body))
	}

	res = s.do("GET", "/projects", other, nil)
	assert.JSONEq(t, `[]`, string(res.body))
	res = s.do("GET", "/projects", dev, nil)
	var listed []struct {
		TaskCount   int `json:"task_count"`
		TeamMembers []struct {
			Username string `json:"username"`
		} `json:"team_members"`
	}
	res.decode(t, &listed)
	require.Len(t, listed, 1)
	require.Len(t, listed[0].TeamMembers, 1)
	assert.Equal(t, "dan", listed[0].TeamMembers[0].Username)

	res = s.do("POST", "/tasks", manager, map[string]any{
		"title": "Launch", "project_id": project.ID, "assigned_to": 2, "deadline": "2020-01-01",
	})
	require.Equal(t, fasthttp.StatusCreated, res.status)
	var created struct {
		ID int64 `json:"id"`
	}
	res.decode(t, &created)
	taskPath := fmt.Sprintf("/tasks/%d", created.ID)

	res = s.do("POST", "/tasks", manager, map[string]any{"title": "x", "project_id": project.ID, "status": "blocked"})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	res = s.do("POST", "/tasks", manager, map[string]any{"title": "x", "project_id": 999})
	assert.Equal(t, fasthttp.StatusNotFound, res.status)
	res = s.do("POST", "/tasks", manager, map[string]any{"title": "x", "project_id": project.ID, "deadline": "tomorrow"})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)

	res = s.do("GET", "/tasks", dev, nil)
	var tasks []struct {
		Title        string  `json:"title"`
		ProjectName  *string `json:"project_name"`
		AssigneeName *string `json:"assignee_name"`
		Overdue      bool    `json:"overdue"`
	}
	res.decode(t, &tasks)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Overdue)
	require.NotNil(t, tasks[0].ProjectName)
	assert.Equal(t, "Apollo", *tasks[0].ProjectName)

	res = s.do("POST", taskPath+"/comments", dev, map[string]string{"content": ""})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	res = s.do("POST", taskPath+"/comments", dev, map[string]string{"content": "on it"})
	assert.Equal(t, fasthttp.StatusCreated, res.status)
	res = s.do("POST", "/tasks/999/comments", dev, map[string]string{"content": "hm"})
	assert.Equal(t, fasthttp.StatusNotFound, res.status)

	res = s.do("PUT", taskPath, manager, `{"status":"done","assigned_to":null}`)
	require.Equal(t, fasthttp.StatusOK, res.status)
	var detail struct {
		Status     string     `json:"status"`
		AssignedTo *int64     `json:"assigned_to"`
		Deadline   *time.Time `json:"deadline"`
		Comments   []struct {
			Content string `json:"content"`
			User    string `json:"user"`
		} `json:"comments"`
	}
	res.decode(t, &detail)
	assert.Equal(t, "done", detail.Status)
	assert.Nil(t, detail.AssignedTo)
	require.NotNil(t, detail.Deadline)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), detail.Deadline.UTC())
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "dan", detail.Comments[0].User)

	res = s.do("PUT", projectPath, manager, map[string]string{"name": ""})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	res = s.do("PUT", projectPath, manager, map[string]string{"status": "archived"})
	require.Equal(t, fasthttp.StatusOK, res.status)
	var projectDetail struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Tasks  []any  `json:"tasks"`
	}
	res.decode(t, &projectDetail)
	assert.Equal(t, "Apollo", projectDetail.Name)
	assert.Equal(t, "archived", projectDetail.Status)
	assert.Len(t, projectDetail.Tasks, 1)

	require.Equal(t, fasthttp.StatusNoContent, s.do("DELETE", projectPath, manager, nil).status)
	assert.Equal(t, fasthttp.StatusNotFound, s.do("GET", projectPath, manager, nil).status)
	assert.Equal(t, fasthttp.StatusNotFound, s.do("GET", taskPath, manager, nil).status)
	res = s.do("GET", "/tasks", manager, nil)
	assert.JSONEq(t, `[]`, string(res.body))
}

func TestGenerateStories(t *testing.T) {
	s := newServer(t)

	res := s.do("POST", "/ai/generate-user-stories", "", map[string]string{"projectDescription": ""})
	assert.Equal(t, fasthttp.StatusBadRequest, res.status)
	assert.Equal(t, "Description required", res.errorMessage(t))

	s.gen.stories = []string{"As a user, I want A, so that B."}
	res = s.do("POST", "/ai/generate-user-stories", "", map[string]string{"projectDescription": "shop"})
	require.Equal(t, fasthttp.StatusOK, res.status)
	assert.JSONEq(t, `["As a user, I want A, so that B."]`, string(res.body))

	res = s.do("POST", "/ai/generate-user-stories", "", map[string]any{"projectDescription": "shop", "projectId": 42})
	assert.Equal(t, fasthttp.StatusNotFound, res.status)

	s.gen.err = llm.ErrNotConfigured
	res = s.do("POST", "/ai/generate-user-stories", "", map[string]string{"projectDescription": "shop"})
	assert.Equal(t, fasthttp.StatusInternalServerError, res.status)
	assert.Equal(t, "GROQ API key not configured", res.errorMessage(t))

	s.gen.err = errors.New("groq returned status 503")
	res = s.do("POST", "/ai/generate-user-stories", "", map[string]string{"projectDescription": "shop"})
	assert.Equal(t, fasthttp.StatusBadGateway, res.status)
	assert.Equal(t, "AI service error: groq returned status 503", res.errorMessage(t))
}

func TestGenerateStories_RecordsActor(t *testing.T) {
	s := newServer(t)
	s.gen.stories = []string{"As a user, I want A, so that B.", "As an admin, I want C, so that D."}
	tok := s.login("bob", "manager")

	res := s.do("POST", "/projects", tok, map[string]string{"name": "Shop"})
	require.Equal(t, fasthttp.StatusCreated, res.status)
	var project struct {
		ID int64 `json:"id"`
	}
	res.decode(t, &project)

	res = s.do("POST", "/ai/generate-user-stories", tok, map[string]any{"projectDescription": "shop", "projectId": project.ID})
	require.Equal(t, fasthttp.StatusOK, res.status, string(res.body))

	created := s.rec.byAction(domain.ActionProjectCreated)
	generated := s.rec.byAction(domain.ActionStoriesGenerated)
	require.Len(t, created, 1)
	require.Len(t, generated, 1)
	require.NotNil(t, created[0].ActorID)
	require.NotNil(t, generated[0].ActorID)
	assert.Equal(t, *created[0].ActorID, *generated[0].ActorID)

	res = s.do("POST", "/ai/generate-user-stories", "", map[string]any{"projectDescription": "shop", "projectId": project.ID})
	require.Equal(t, fasthttp.StatusOK, res.status)
	res = s.do("POST", "/ai/generate-user-stories", "not-a-jwt", map[string]any{"projectDescription": "shop", "projectId": project.ID})
	require.Equal(t, fasthttp.StatusOK, res.status)

	generated = s.rec.byAction(domain.ActionStoriesGenerated)
	require.Len(t, generated, 3)
	assert.Nil(t, generated[1].ActorID)
	assert.Nil(t, generated[2].ActorID)
}

func TestFallbacks(t *testing.T) {
	s := newServer(t)

	res := s.do("GET", "/nope", "", nil)
	assert.Equal(t, fasthttp.StatusNotFound, res.status)
	assert.Equal(t, "Resource not found", res.errorMessage(t))

	tok := s.login("mia", "manager")
	res = s.do("GET", "/projects/abc", tok, nil)
	assert.Equal(t, fasthttp.StatusNotFound, res.status)

	res = s.do("GET", "/health", "", nil)
	assert.Equal(t, fasthttp.StatusOK, res.status)
	var health struct {
		Status string `json:"status"`
	}
	res.decode(t, &health)
	assert.Equal(t, "ok", health.Status)
}

func TestHealthDegraded(t *testing.T) {
	h := apiHandler.NewHealthHandler(fixedStatus{Store: true, Redis: false}, nil, nil)
	ctx := &fasthttp.RequestCtx{}
	h.Check(ctx)
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"degraded"`)
}

func TestPanicHandler(t *testing.T) {
	r := New(Handlers{
		Auth:      apiHandler.NewAuthHandler(nil, nil, nil),
		Project:   apiHandler.NewProjectHandler(nil, nil, nil),
		Task:      apiHandler.NewTaskHandler(nil, nil, nil),
		Dashboard: apiHandler.NewDashboardHandler(nil, nil, nil),
		Story:     apiHandler.NewStoryHandler(nil, nil, nil),
		User:      apiHandler.NewUserHandler(nil, nil, nil, nil),
		Health:    apiHandler.NewHealthHandler(panicStatus{}, nil, nil),
	}, passThrough, passThrough, nil)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/health")
	r.Handler(ctx)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "Internal server error")
}

func passThrough(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }

type panicStatus struct{}

func (panicStatus) GetStatus() monitor.Status { panic("monitor exploded") }
