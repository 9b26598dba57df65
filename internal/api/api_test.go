package api

import (
	"bufio"
	"bug_tracker/internal/config"
	"bug_tracker/internal/db"
	"bug_tracker/internal/domain"
	"bug_tracker/internal/realtime"
	"bug_tracker/internal/storage"
	"bug_tracker/internal/store"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	gdb    *gorm.DB
	mr     *miniredis.Miniredis
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(&config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "tracker.db")})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	objects, err := storage.NewLocalStore(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	router := NewRouter(Deps{
		Store:          store.New(gdb, realtime.NewPublisher(rdb)),
		Redis:          rdb,
		Bridge:         realtime.NewBridge(rdb),
		Objects:        objects,
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"*"},
	})
	return &testEnv{t: t, router: router, gdb: gdb, mr: mr}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(email, name string) {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "correct-horse", "full_name": name})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
}

func (e *testEnv) login(email string) AuthResponse {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// userWithRole registers a user, sets its role and returns a fresh login
func (e *testEnv) userWithRole(email, name string, role domain.Role) AuthResponse {
	e.t.Helper()
	e.register(email, name)
	if role != domain.RoleDeveloper {
		require.NoError(e.t, db.PromoteUser(e.gdb, email, role))
	}
	return e.login(email)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["code"]
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	e.register("ada@example.com", "Ada Lovelace")

	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "ADA@example.com", "password": "another-one", "full_name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeDuplicateUser, errorCode(t, w))

	w = e.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "not-an-email", "password": "correct-horse", "full_name": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidation, errorCode(t, w))

	w = e.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "b@example.com", "password": "short", "full_name": "B"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterIgnoresRequestedRole(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "sneaky@example.com", "password": "correct-horse", "full_name": "Sneaky", "role": "admin"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, domain.RoleDeveloper, e.login("sneaky@example.com").User.Role)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.register("ada@example.com", "Ada Lovelace")

	resp := e.login("ada@example.com")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Ada Lovelace", resp.User.FullName)
	assert.Equal(t, domain.RoleDeveloper, resp.User.Role)

	w := e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidCredentials, errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "token")

	w = e.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@example.com", "password": "whatever"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidCredentials, errorCode(t, w))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/api/projects", "/api/users", "/api/tickets/p1", "/api/comments/t1"} {
		w := e.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := e.do(http.MethodGet, "/api/projects", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectLifecycle(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev", domain.RoleDeveloper)
	admin := e.userWithRole("admin@example.com", "Admin", domain.RoleAdmin)
	viewer := e.userWithRole("viewer@example.com", "Viewer", domain.RoleViewer)

	w := e.do(http.MethodPost, "/api/projects", dev.Token, gin.H{"name": "Apollo", "description": "moon"})
	require.Equal(t, http.StatusCreated, w.Code)
	project := decode[domain.Project](t, w)
	assert.NotEmpty(t, project.ID)

	w = e.do(http.MethodPost, "/api/projects", viewer.Token, gin.H{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/projects", dev.Token, gin.H{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/projects", viewer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Project](t, w), 1)
	assert.True(t, e.mr.Exists("projects:all"))

	w = e.do(http.MethodDelete, "/api/projects/"+project.ID, dev.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodDelete, "/api/projects/"+project.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, e.mr.Exists("projects:all"), "delete invalidates the list cache")

	w = e.do(http.MethodDelete, "/api/projects/"+project.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, "/api/projects", viewer.Token, nil)
	assert.Empty(t, decode[[]domain.Project](t, w))
}

func createProject(t *testing.T, e *testEnv, token string) domain.Project {
	t.Helper()
	w := e.do(http.MethodPost, "/api/projects", token, gin.H{"name": "Board"})
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[domain.Project](t, w)
}

func TestTicketLifecycle(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev Eloper", domain.RoleDeveloper)
	other := e.userWithRole("other@example.com", "Other Person", domain.RoleDeveloper)
	project := createProject(t, e, dev.Token)

	w := e.do(http.MethodPost, "/api/tickets", dev.Token, gin.H{
		"title":       "Crash on save",
		"project_id":  project.ID,
		"assignee_id": other.User.ID, // ignored: creator is auto-assigned
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ticket := decode[domain.Ticket](t, w)
	assert.Equal(t, domain.StatusTodo, ticket.Status)
	assert.Equal(t, domain.PriorityLow, ticket.Priority)
	assert.Equal(t, dev.User.ID, ticket.CreatedBy)
	require.NotNil(t, ticket.AssigneeID)
	assert.Equal(t, dev.User.ID, *ticket.AssigneeID)

	w = e.do(http.MethodPut, "/api/tickets/"+ticket.ID, dev.Token, gin.H{"status": "inprogress", "assignee_id": other.User.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[domain.Ticket](t, w)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, "Other Person", updated.Assignee.FullName)

	w = e.do(http.MethodPut, "/api/tickets/"+ticket.ID, dev.Token, gin.H{"assignee_id": nil})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[domain.Ticket](t, w).AssigneeID)

	w = e.do(http.MethodPut, "/api/tickets/"+ticket.ID, dev.Token, gin.H{"status": "blocked"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, "/api/tickets/"+ticket.ID, dev.Token, gin.H{"title": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, "/api/tickets/missing", dev.Token, gin.H{"status": "done"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, "/api/tickets/"+project.ID, dev.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tickets := decode[[]domain.Ticket](t, w)
	require.Len(t, tickets, 1)
	require.NotNil(t, tickets[0].Creator)
	assert.Equal(t, "Dev Eloper", tickets[0].Creator.FullName)

	w = e.do(http.MethodDelete, "/api/tickets/"+ticket.ID, dev.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodDelete, "/api/tickets/"+ticket.ID, dev.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTicketValidation(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev", domain.RoleDeveloper)
	project := createProject(t, e, dev.Token)

	w := e.do(http.MethodPost, "/api/tickets", dev.Token, gin.H{"project_id": project.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/tickets", dev.Token, gin.H{"title": "x", "project_id": project.ID, "priority": "urgent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/tickets", dev.Token, gin.H{"title": "x", "project_id": "missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestViewerCannotMutateTickets(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev", domain.RoleDeveloper)
	viewer := e.userWithRole("viewer@example.com", "Viewer", domain.RoleViewer)
	project := createProject(t, e, dev.Token)

	w := e.do(http.MethodPost, "/api/tickets", dev.Token, gin.H{"title": "read only", "project_id": project.ID})
	require.Equal(t, http.StatusOK, w.Code)
	ticket := decode[domain.Ticket](t, w)

	w = e.do(http.MethodPost, "/api/tickets", viewer.Token, gin.H{"title": "x", "project_id": project.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(http.MethodPut, "/api/tickets/"+ticket.ID, viewer.Token, gin.H{"status": "done"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeForbidden, errorCode(t, w))
	w = e.do(http.MethodDelete, "/api/tickets/"+ticket.ID, viewer.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/api/tickets/"+project.ID, viewer.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestComments(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev", domain.RoleDeveloper)
	viewer := e.userWithRole("viewer@example.com", "Vera Viewer", domain.RoleViewer)
	project := createProject(t, e, dev.Token)
	w := e.do(http.MethodPost, "/api/tickets", dev.Token, gin.H{"title": "talk", "project_id": project.ID})
	ticket := decode[domain.Ticket](t, w)

	w = e.do(http.MethodPost, "/api/comments", dev.Token, gin.H{"content": "first", "ticket_id": ticket.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	time.Sleep(10 * time.Millisecond)
	w = e.do(http.MethodPost, "/api/comments", viewer.Token, gin.H{"content": "second", "ticket_id": ticket.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode[domain.Comment](t, w)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "Vera Viewer", comment.Author.FullName)

	w = e.do(http.MethodPost, "/api/comments", dev.Token, gin.H{"content": "  ", "ticket_id": ticket.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/comments/"+ticket.ID, viewer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[[]domain.Comment](t, w)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
}

func TestListUsers(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev", domain.RoleDeveloper)

	w := e.do(http.MethodGet, "/api/users", dev.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]UserSummary](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, "dev@example.com", users[0].Email)
	assert.NotContains(t, w.Body.String(), "password")
	assert.True(t, e.mr.Exists("users:all"))

	e.register("new@example.com", "Newcomer")
	assert.False(t, e.mr.Exists("users:all"), "registration invalidates the users cache")
	w = e.do(http.MethodGet, "/api/users", dev.Token, nil)
	assert.Len(t, decode[[]UserSummary](t, w), 2)
}

func TestUploadAttachment(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev", domain.RoleDeveloper)
	viewer := e.userWithRole("viewer@example.com", "Viewer", domain.RoleViewer)

	upload := func(token string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "trace.log")
		require.NoError(t, err)
		_, _ = part.Write([]byte("stack trace"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/attachments", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusForbidden, upload(viewer.Token).Code)

	w := upload(dev.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[map[string]string](t, w)
	assert.True(t, strings.HasSuffix(body["name"], ".log"))
	assert.Equal(t, "http://files.test/attachments/"+body["name"], body["url"])

	w = e.do(http.MethodGet, "/attachments/"+body["name"], "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stack trace", w.Body.String())
	assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestUploadAttachmentTooLarge(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev", domain.RoleDeveloper)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "core.dump")
	require.NoError(t, err)
	_, _ = part.Write(bytes.Repeat([]byte("x"), MaxAttachmentBytes+1))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+dev.Token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, CodeValidation, errorCode(t, w))
}

func TestRealtimeRelay(t *testing.T) {
	e := newEnv(t)
	dev := e.userWithRole("dev@example.com", "Dev", domain.RoleDeveloper)
	project := createProject(t, e, dev.Token)

	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/realtime/tickets?access_token=" + dev.Token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	waitFor := func(prefix string) string {
		t.Helper()
		deadline := time.After(3 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", prefix)
				if strings.HasPrefix(line, prefix) {
					return line
				}
			case <-deadline:
				t.Fatalf("no %q line", prefix)
			}
		}
	}
	waitFor("event:ready")

	w := e.do(http.MethodPost, "/api/tickets", dev.Token, gin.H{"title": "live", "project_id": project.ID})
	require.Equal(t, http.StatusOK, w.Code)

	waitFor("event:change")
	data := waitFor("data:")
	var ev realtime.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data:")), &ev))
	assert.Equal(t, realtime.Insert, ev.EventType)
	assert.Contains(t, string(ev.New), `"title":"live"`)
}
