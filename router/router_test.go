package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"writer/internal/document/repository"
	"writer/internal/document/service"
	"writer/internal/view"
	"writer/socket"
)

func newServer(t *testing.T, opts Options) (*httptest.Server, *socket.Hub) {
	t.Helper()
	store, err := repository.OpenBadgerStore(context.Background(), repository.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	hub := socket.NewHub()
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	handler := Setup(service.NewDocumentService(store, hub), hub, view.MustRouter(view.DefaultRoutes), opts)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, hub
}

func TestSaveIsAnnouncedOnFeed(t *testing.T) {
	server, _ := newServer(t, Options{})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ack socket.WSMessage
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, socket.SubscribedType, ack.Type)

	resp, err := http.Post(server.URL+"/api/documents/save", "application/json",
		strings.NewReader(`{"title":"Draft","content":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var saved struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, int64(1), saved.ID)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var event socket.WSMessage
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, socket.SavedType, event.Type)
	assert.Equal(t, "1", event.DocID)
	assert.JSONEq(t, `{"id":1,"title":"Draft"}`, string(event.Payload))
}

func TestShellAndRouteResolution(t *testing.T) {
	server, _ := newServer(t, Options{})

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/routes/resolve?location=%23%2Fwriter")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var match view.Match
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&match))
	assert.Equal(t, view.Writer, match.Name)
	assert.False(t, match.Redirected)
}

func TestAuthProtectsAPIButNotShell(t *testing.T) {
	const secret = "router-secret"
	server, _ := newServer(t, Options{JWTSecret: secret, CORSOrigin: "http://localhost:3000"})

	resp, err := http.Get(server.URL + "/api/documents")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte(secret))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/documents", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownServerPathIsNotFound(t *testing.T) {
	server, _ := newServer(t, Options{})

	resp, err := http.Get(server.URL + "/writer")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "views are addressed by fragment, not by server path")
}
