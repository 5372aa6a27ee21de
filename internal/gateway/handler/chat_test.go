package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChat(t *testing.T, env *testEnv, sessionID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.mux)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat?session_id=" + sessionID
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestChatWSPingPong(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.ts": "export const a = 1;\n"})
	conn := dialChat(t, env, env.sess.ID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	var out chatWSOutbound
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "pong", out.Type)
}

func TestChatWSAnswersSend(t *testing.T) {
	env := newTestEnv(t, map[string]string{"auth.ts": "export function login() {}\n"})
	env.model.Reply = "chat answer"
	conn := dialChat(t, env, env.sess.ID)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type": "send",
		"text": "what does login in auth.ts do",
	}))
	var out chatWSOutbound
	require.NoError(t, conn.ReadJSON(&out))
	require.Equal(t, "answer", out.Type, "message: %+v", out)
	assert.Equal(t, "chat answer", out.Text)
	assert.NotEmpty(t, out.RunID)
	assert.NotEmpty(t, out.Files)
}

func TestChatWSRejectsEmptyText(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.ts": "export const a = 1;\n"})
	conn := dialChat(t, env, env.sess.ID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "send", "text": "  "}))
	var out chatWSOutbound
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "error", out.Type)
	assert.Equal(t, "invalid_argument", out.Code)
}

func TestChatWSUnsupportedType(t *testing.T) {
	env := newTestEnv(t, map[string]string{"a.ts": "export const a = 1;\n"})
	conn := dialChat(t, env, env.sess.ID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))
	var out chatWSOutbound
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "error", out.Type)
	assert.Equal(t, "invalid_argument", out.Code)
}

func TestChatWSUnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.mux)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat?session_id=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
