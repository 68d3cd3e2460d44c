package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portside/battleship/internal/services/lobby"
	"github.com/portside/battleship/internal/services/session"
	"github.com/portside/battleship/internal/testutil"
)

func newTestAdmin(t *testing.T) (http.Handler, *Registry, *lobby.Lobby) {
	t.Helper()
	registry := NewRegistry()
	factory := func(string, session.MessageSink, string, session.MessageSink) *session.Session {
		return nil
	}
	lb := lobby.New(factory, testutil.NopLogger())
	return newAdminRouter(registry, lb, testutil.NopLogger()), registry, lb
}

func TestAdminHealthz(t *testing.T) {
	router, _, _ := newTestAdmin(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAdminLobby(t *testing.T) {
	router, _, lb := newTestAdmin(t)
	lb.Join("alice", nopSink{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lobby", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Waiting []string `json:"waiting"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"alice"}, body.Waiting)
}

func TestAdminSessionsEmpty(t *testing.T) {
	router, _, _ := newTestAdmin(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAdminMethodNotAllowed(t *testing.T) {
	router, _, _ := newTestAdmin(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
