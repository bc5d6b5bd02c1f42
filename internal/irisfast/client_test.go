package irisfast

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"sync"
	"testing"

	"github.com/valyala/fasthttp"
)

type recordedRequest struct {
	path   string
	userID string
	body   ReplyRequest
}

type fakeIris struct {
	mu       sync.Mutex
	requests []recordedRequest
	failures int
	status   int
}

func (f *fakeIris) handle(ctx *fasthttp.RequestCtx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := recordedRequest{path: string(ctx.Path()), userID: string(ctx.Request.Header.Peek("X-User-Id"))}
	_ = json.Unmarshal(ctx.PostBody(), &rec.body)
	f.requests = append(f.requests, rec)
	if f.failures > 0 {
		f.failures--
		ctx.SetStatusCode(f.status)
		ctx.SetBodyString("busy")
		return
	}
	if rec.path == "/config" {
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"bot_http_port":3000,"web_server_endpoint":"http://iris"}`)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
}

func (f *fakeIris) snapshot() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func startFakeIris(t *testing.T, f *fakeIris) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &fasthttp.Server{Handler: f.handle}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return "http://" + ln.Addr().String()
}

func TestSendMessageWithHeaders(t *testing.T) {
	f := &fakeIris{}
	c := NewClient(startFakeIris(t, f)+"/", WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-User-Id": "bot", "X-Empty": " "}
	}))
	if err := c.SendMessage(context.Background(), "room1", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	reqs := f.snapshot()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	got := reqs[0]
	if got.path != "/reply" || got.userID != "bot" || got.body.Type != "text" || got.body.Room != "room1" || got.body.Data != "hello" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestSendImageEncodesBase64(t *testing.T) {
	f := &fakeIris{}
	c := NewClient(startFakeIris(t, f))
	png := []byte{0x89, 'P', 'N', 'G'}
	if err := c.SendImage(context.Background(), "room1", png); err != nil {
		t.Fatalf("SendImage: %v", err)
	}
	body := f.snapshot()[0].body
	raw, err := base64.StdEncoding.DecodeString(body.Data)
	if err != nil || string(raw) != string(png) || body.Type != "image" {
		t.Fatalf("unexpected image body: %+v err=%v", body, err)
	}
}

func TestGetConfigRetriesServerErrors(t *testing.T) {
	f := &fakeIris{failures: 2, status: fasthttp.StatusServiceUnavailable}
	c := NewClient(startFakeIris(t, f), WithRetry(3))
	cfg, err := c.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg.Port != 3000 || cfg.WebserverEndpoint != "http://iris" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if n := len(f.snapshot()); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestRepliesAreNotRetried(t *testing.T) {
	f := &fakeIris{failures: 1, status: fasthttp.StatusBadGateway}
	c := NewClient(startFakeIris(t, f), WithRetry(3))
	if err := c.SendMessage(context.Background(), "room1", "hello"); err == nil {
		t.Fatalf("expected error on 502")
	}
	if n := len(f.snapshot()); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestClientErrorStatusNotRetried(t *testing.T) {
	f := &fakeIris{failures: 1, status: fasthttp.StatusBadRequest}
	c := NewClient(startFakeIris(t, f), WithRetry(3))
	if _, err := c.GetConfig(context.Background()); err == nil {
		t.Fatalf("expected error on 400")
	}
	if n := len(f.snapshot()); n != 1 {
		t.Fatalf("4xx should not be retried, got %d attempts", n)
	}
}

func TestAutoEgressFallsBackToHTTP(t *testing.T) {
	f := &fakeIris{}
	c := NewClient(startFakeIris(t, f))
	ws := NewWebSocket("ws://127.0.0.1:1/ws", 0, 0)
	eg := NewEgress(ModeAuto, c, ws, nil)
	if err := eg.SendText(context.Background(), "room1", "via http"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if err := eg.SendImage(context.Background(), "room1", []byte("img")); err != nil {
		t.Fatalf("SendImage: %v", err)
	}
	if n := len(f.snapshot()); n != 2 {
		t.Fatalf("expected 2 http replies, got %d", n)
	}

	wsOnly := NewEgress(ModeWS, c, ws, nil)
	if err := wsOnly.SendText(context.Background(), "room1", "x"); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
