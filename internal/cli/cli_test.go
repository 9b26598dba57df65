package cli

import (
	"bug_tracker/internal/client"
	"bug_tracker/internal/domain"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes trackerctl against apiURL with a session for role
func run(t *testing.T, apiURL string, role domain.Role, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	sessionFile := filepath.Join(dir, "session.yaml")
	if role != "" {
		sessions, err := client.OpenSessionStore(sessionFile)
		require.NoError(t, err)
		require.NoError(t, sessions.Save(client.Session{Token: "tok", User: client.User{ID: "u1", FullName: "Test User", Role: role}}))
	}

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "none.yaml"), "--api", apiURL, "--session", sessionFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestViewerEditIsRefusedLocally(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	t.Cleanup(srv.Close)

	for _, args := range [][]string{
		{"ticket", "edit", "t1", "--status", "done"},
		{"ticket", "move", "t1", "done", "--project", "p1"},
		{"ticket", "delete", "t1"},
		{"ticket", "create", "--project", "p1", "--title", "x"},
		{"projects", "create", "--name", "x"},
	} {
		_, err := run(t, srv.URL, domain.RoleViewer, args...)
		assert.ErrorIs(t, err, client.ErrForbidden, args)
	}
	assert.Zero(t, hits.Load(), "nothing was sent to the server")
}

func TestProjectDeleteNeedsAdminLocally(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	_, err := run(t, srv.URL, domain.RoleDeveloper, "projects", "delete", "p1")
	assert.ErrorIs(t, err, client.ErrForbidden)
	assert.Zero(t, hits.Load())

	out, err := run(t, srv.URL, domain.RoleAdmin, "projects", "delete", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted project p1")
	assert.Equal(t, int32(1), hits.Load())
}

func TestCommandsNeedLogin(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := run(t, srv.URL, "", "board", "p1")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestBoardCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tickets/p1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]domain.Ticket{
			{ID: "t1", Title: "Login crash", Status: domain.StatusTodo, Priority: domain.PriorityHigh, ProjectID: "p1"},
			{ID: "t2", Title: "Slow page", Status: domain.StatusDone, Priority: domain.PriorityLow, ProjectID: "p1"},
		})
	}))
	t.Cleanup(srv.Close)

	out, err := run(t, srv.URL, domain.RoleViewer, "board", "p1", "--query", "crash")
	require.NoError(t, err)
	assert.Contains(t, out, "Login crash")
	assert.NotContains(t, out, "Slow page")
	assert.Contains(t, out, "To Do (1)")
}

func TestMoveRejectedReportsCurrentColumn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode([]domain.Ticket{{ID: "t1", Title: "Login crash", Status: domain.StatusTodo, ProjectID: "p1"}})
		case http.MethodPut:
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "db down", "code": "internal"})
		}
	}))
	t.Cleanup(srv.Close)

	out, err := run(t, srv.URL, domain.RoleDeveloper, "ticket", "move", "t1", "done", "--project", "p1")
	assert.ErrorIs(t, err, client.ErrTransient)
	assert.Contains(t, out, `"Login crash" is still in To Do`)
}

func TestLogoutClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	out, err := run(t, srv.URL, domain.RoleDeveloper, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")
}
