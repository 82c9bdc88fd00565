package wshost

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/navroute/pkg/host"
)

// startServer upgrades one connection and hands the handshaken Host to the
// test. The Host's ReadLoop runs in the handler goroutine.
func startServer(t *testing.T) (*websocket.Conn, <-chan *Host, <-chan error) {
	t.Helper()

	hosts := make(chan *Host, 1)
	errs := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := DefaultConfig()
		cfg.HandshakeTimeout = 2 * time.Second
		h, err := Upgrade(w, r, cfg)
		if err != nil {
			errs <- err
			return
		}
		hosts <- h
		h.ReadLoop()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, hosts, errs
}

func connect(t *testing.T, initial host.Location) (*websocket.Conn, *Host) {
	t.Helper()

	conn, hosts, errs := startServer(t)
	require.NoError(t, conn.WriteJSON(Message{Type: TypeLocation, Location: &initial}))

	select {
	case h := <-hosts:
		t.Cleanup(h.Close)
		return conn, h
	case err := <-errs:
		t.Fatalf("handshake failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handshake")
	}
	return nil, nil
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandshake(t *testing.T) {
	_, h := connect(t, host.Location{Path: "/app", Query: "x=1", Fragment: "/user/1"})

	assert.Equal(t, host.Location{Path: "/app", Query: "x=1", Fragment: "/user/1"}, h.Location())
}

func TestHandshakeNormalizesEmptyPath(t *testing.T) {
	_, h := connect(t, host.Location{})

	assert.Equal(t, "/", h.Location().Path)
}

func TestHandshakeRejectsOtherFrames(t *testing.T) {
	conn, _, errs := startServer(t)
	require.NoError(t, conn.WriteJSON(Message{Type: TypePush, Path: "/x"}))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrHandshake)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handshake error")
	}
}

func TestPush(t *testing.T) {
	conn, h := connect(t, host.Location{Path: "/", Fragment: "old"})

	h.Push("/user/1?tab=x")

	msg := readMessage(t, conn)
	assert.Equal(t, TypePush, msg.Type)
	assert.Equal(t, "/user/1?tab=x", msg.Path)
	assert.Equal(t, host.Location{Path: "/user/1", Query: "tab=x"}, h.Location())
}

func TestSetFragment(t *testing.T) {
	conn, h := connect(t, host.Location{Path: "/", Fragment: "/a"})

	// Unchanged fragment: nothing is sent, so the next frame is the push.
	h.SetFragment("/a")
	h.SetFragment("/b")

	msg := readMessage(t, conn)
	assert.Equal(t, TypeHash, msg.Type)
	assert.Equal(t, "/b", msg.Fragment)
	assert.Equal(t, "/b", h.Location().Fragment)
}

func TestClientEventsNotifyListeners(t *testing.T) {
	conn, h := connect(t, host.Location{Path: "/"})

	hashes := make(chan host.Location, 1)
	pops := make(chan host.Location, 1)
	h.Listen(host.EventHashChange, func(loc host.Location) { hashes <- loc })
	cancel := h.Listen(host.EventPopState, func(loc host.Location) { pops <- loc })

	require.NoError(t, conn.WriteJSON(Message{Type: TypeHashChange, Location: &host.Location{Path: "/", Fragment: "/user/2"}}))
	select {
	case loc := <-hashes:
		assert.Equal(t, "/user/2", loc.Fragment)
	case <-time.After(2 * time.Second):
		t.Fatal("hashchange listener not called")
	}
	assert.Equal(t, "/user/2", h.Location().Fragment)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePopState, Location: &host.Location{Path: "/about"}}))
	select {
	case loc := <-pops:
		assert.Equal(t, "/about", loc.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("popstate listener not called")
	}

	cancel()
	require.NoError(t, conn.WriteJSON(Message{Type: TypePopState, Location: &host.Location{Path: "/other"}}))
	require.NoError(t, conn.WriteJSON(Message{Type: TypeHashChange, Location: &host.Location{Path: "/other", Fragment: "/x"}}))
	select {
	case <-hashes:
	case <-time.After(2 * time.Second):
		t.Fatal("hashchange listener not called")
	}
	select {
	case loc := <-pops:
		t.Fatalf("cancelled listener called with %v", loc)
	default:
	}
}

func TestCloseEndsReadLoop(t *testing.T) {
	conn, h := connect(t, host.Location{Path: "/"})

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("host not closed after client close")
	}

	// Writes after close are dropped.
	h.Push("/late")
}

func TestUpgradeHonorsContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	srvConn := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		srvConn <- conn
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	conn := <-srvConn
	h := New(conn, DefaultConfig())
	defer h.Close()

	start := time.Now()
	err = h.Handshake(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNotify(t *testing.T) {
	conn, h := connect(t, host.Location{Path: "/"})

	require.NoError(t, h.Notify(map[string]string{"pattern": "/about"}))

	msg := readMessage(t, conn)
	assert.Equal(t, TypeState, msg.Type)
	assert.JSONEq(t, `{"pattern":"/about"}`, string(msg.State))
}
