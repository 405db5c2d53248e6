package stream

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/protocol"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// app drives a patcher over a stream backend one step at a time.
type app struct {
	t    *testing.T
	b    *Backend
	p    *vdom.Patcher
	prev *vdom.VNode
}

func newApp(t *testing.T, sink Sink) *app {
	t.Helper()
	b := New(WithSink(sink), WithLogger(quiet))
	return &app{t: t, b: b, p: vdom.NewPatcher(b, vdom.WithLogger(quiet))}
}

func (a *app) step(items ...string) {
	a.t.Helper()
	next := todoList(items...)
	if _, err := a.p.Patch(a.prev, next, a.b.Root()); err != nil {
		a.t.Fatalf("Patch: %v", err)
	}
	if err := a.b.Flush(context.Background()); err != nil {
		a.t.Fatalf("Flush: %v", err)
	}
	a.prev = next
}

// viewer is a websocket client rebuilding the stream into a memtree.
type viewer struct {
	t    *testing.T
	conn *websocket.Conn
	tree *memtree.Tree
	r    *Replayer
}

func dial(t *testing.T, srv *httptest.Server) *viewer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	tree := memtree.NewStrict()
	return &viewer{t: t, conn: conn, tree: tree, r: NewReplayer(tree, tree.Root)}
}

// read applies the next frame and returns it.
func (v *viewer) read() *protocol.Frame {
	v.t.Helper()
	v.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := v.conn.ReadMessage()
	if err != nil {
		v.t.Fatalf("ReadMessage: %v", err)
	}
	f, err := protocol.DecodeFrame(msg)
	if err != nil {
		v.t.Fatalf("DecodeFrame: %v", err)
	}
	if err := v.r.ApplyFrame(f); err != nil {
		v.t.Fatalf("ApplyFrame: %v", err)
	}
	return f
}

func TestHubReplaysHistoryToNewClients(t *testing.T) {
	hub := NewHub(WithHubLogger(quiet), WithHubSession("demo"))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := newApp(t, hub)
	a.step("a", "b", "c")
	a.step("c", "a", "b")

	v := dial(t, srv)
	if f := v.read(); f.Type != protocol.FrameHello {
		t.Fatalf("first frame = %s, want Hello", f)
	}
	for i := 0; i < 2; i++ {
		if f := v.read(); !f.Flags.Has(protocol.FlagReplay) {
			t.Errorf("history frame %d not flagged as replay", i)
		}
	}
	if v.r.Session() != "demo" {
		t.Errorf("Session = %q", v.r.Session())
	}
	if hub.Clients() != 1 {
		t.Errorf("Clients = %d, want 1", hub.Clients())
	}

	a.step("c", "x", "b")
	if f := v.read(); f.Flags.Has(protocol.FlagReplay) {
		t.Error("live frame flagged as replay")
	}

	if diff := cmp.Diff(hub.Dump(), v.tree.Root.Dump()); diff != "" {
		t.Errorf("viewer differs from hub mirror (-hub +viewer):\n%s", diff)
	}
	if hub.History().Count() != 3 {
		t.Errorf("history count = %d, want 3", hub.History().Count())
	}
}

func TestHubSendsSnapshotWhenHistoryWrapped(t *testing.T) {
	hub := NewHub(WithHubLogger(quiet), WithHistorySize(1))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := newApp(t, hub)
	for _, step := range todoSteps {
		a.step(step...)
	}

	v := dial(t, srv)
	v.read() // hello
	snap := v.read()
	if !snap.Flags.Has(protocol.FlagReplay) {
		t.Error("snapshot not flagged as replay")
	}
	if v.r.Seq() != uint64(len(todoSteps)) {
		t.Errorf("viewer seq = %d, want %d", v.r.Seq(), len(todoSteps))
	}

	a.step("z", "w", "y")
	v.read()
	if diff := cmp.Diff(hub.Dump(), v.tree.Root.Dump()); diff != "" {
		t.Errorf("viewer differs from hub mirror (-hub +viewer):\n%s", diff)
	}
}

func TestHubLogReplays(t *testing.T) {
	for _, size := range []int{16, 1} {
		hub := NewHub(WithHubLogger(quiet), WithHistorySize(size))
		a := newApp(t, hub)
		for _, step := range todoSteps {
			a.step(step...)
		}

		var buf bytes.Buffer
		for _, fr := range hub.Log() {
			buf.Write(fr)
		}
		tree := memtree.NewStrict()
		r, err := Replay(&buf, tree, tree.Root)
		if err != nil {
			t.Fatalf("history %d: Replay: %v", size, err)
		}
		if r.Seq() != uint64(len(todoSteps)) {
			t.Errorf("history %d: seq = %d, want %d", size, r.Seq(), len(todoSteps))
		}
		if diff := cmp.Diff(hub.Dump(), tree.Root.Dump()); diff != "" {
			t.Errorf("history %d: replayed log differs (-hub +log):\n%s", size, diff)
		}
		hub.Close()
	}
}

func TestHubFirstClientBeforeAnyFrame(t *testing.T) {
	hub := NewHub(WithHubLogger(quiet))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	v := dial(t, srv)
	h, err := protocol.DecodeHello(v.read())
	if err != nil {
		t.Fatal(err)
	}
	if h.Seq != 1 {
		t.Errorf("hello seq = %d, want 1", h.Seq)
	}

	a := newApp(t, hub)
	a.step("only")
	v.read()
	if got := v.tree.Root.TextContent(); got != "Todosonly" {
		t.Errorf("text = %q", got)
	}

	hub.Close()
	if err := hub.Send(context.Background(), protocol.BatchFrame(&protocol.Batch{Seq: 2})); err != ErrHubClosed {
		t.Errorf("Send after Close = %v", err)
	}
}

func TestWebSocketSinkAndFollow(t *testing.T) {
	received := make(chan *protocol.Frame, 8)
	mirror := memtree.NewStrict()
	done := make(chan error, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		done <- Follow(r.Context(), conn, NewReplayer(mirror, mirror.Root), func(f *protocol.Frame) { received <- f })
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	sink := NewWebSocketSink(conn, time.Second)
	a := newApp(t, sink)
	a.step("a", "b")
	a.step("b", "a")

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatalf("frame %d not received", i)
		}
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Follow: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return")
	}
	if got := mirror.Root.TextContent(); got != "Todosba" {
		t.Errorf("text = %q, want Todosba", got)
	}
}
