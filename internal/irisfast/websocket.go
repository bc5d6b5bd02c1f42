package irisfast

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var ErrNotConnected = errors.New("websocket not connected")

type MessageCallback func(message *Message)

type StateCallback func(state WebSocketState)

// WebSocket receives chat events from the bridge and reconnects with backoff
// when the stream drops.
type WebSocket struct {
	wsURL   string
	headers HeaderProvider
	logger  *zap.Logger

	mu    sync.RWMutex
	conn  *websocket.Conn
	state WebSocketState

	writeMu sync.Mutex

	cbMu     sync.RWMutex
	nextID   int
	msgCbs   map[int]MessageCallback
	stateCbs map[int]StateCallback

	maxReconnect   int
	reconnectDelay time.Duration
	pingInterval   time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewWebSocket(wsURL string, maxReconnect int, reconnectDelay time.Duration) *WebSocket {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocket{
		wsURL:          wsURL,
		logger:         zap.NewNop(),
		state:          WSStateDisconnected,
		msgCbs:         map[int]MessageCallback{},
		stateCbs:       map[int]StateCallback{},
		maxReconnect:   maxReconnect,
		reconnectDelay: reconnectDelay,
		pingInterval:   30 * time.Second,
		stopCh:         make(chan struct{}),
		rootCtx:        ctx,
		rootCancel:     cancel,
	}
}

func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) { ws.headers = h }

func (ws *WebSocket) SetLogger(l *zap.Logger) {
	if l != nil {
		ws.logger = l
	}
}

func (ws *WebSocket) State() WebSocketState {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

// Connected reports whether frames can be written right now.
func (ws *WebSocket) Connected() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.conn != nil && ws.state == WSStateConnected
}

// Connect dials once. On failure a background reconnect loop is started.
func (ws *WebSocket) Connect(ctx context.Context) error {
	switch ws.State() {
	case WSStateConnected, WSStateConnecting:
		return nil
	}
	ws.setState(WSStateConnecting)
	if err := ws.dial(ctx); err != nil {
		ws.logger.Warn("ws_connect_error", zap.String("url", ws.wsURL), zap.Error(err))
		ws.setState(WSStateFailed)
		ws.scheduleReconnect()
		return err
	}
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	if err != nil {
		return err
	}
	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()
	ws.setState(WSStateConnected)

	ws.wg.Add(2)
	go ws.listen(conn)
	go ws.pingLoop(conn)
	return nil
}

func (ws *WebSocket) listen(conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		var msg Message
		if err := wsjson.Read(ws.rootCtx, conn, &msg); err != nil {
			if ws.isStopping() {
				return
			}
			ws.logger.Warn("ws_read_error", zap.Error(err))
			ws.drop(conn, "reconnect")
			ws.scheduleReconnect()
			return
		}
		ws.cbMu.RLock()
		callbacks := make([]MessageCallback, 0, len(ws.msgCbs))
		for _, cb := range ws.msgCbs {
			callbacks = append(callbacks, cb)
		}
		ws.cbMu.RUnlock()
		for _, cb := range callbacks {
			cb(&msg)
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ws.stopCh:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures < 2 {
				continue
			}
			// the read loop sees the closed conn and reconnects
			ws.logger.Warn("ws_ping_failure", zap.Error(err))
			_ = conn.Close(websocket.StatusGoingAway, "ping failure")
			return
		}
	}
}

func (ws *WebSocket) scheduleReconnect() {
	if ws.maxReconnect <= 0 || ws.isStopping() {
		return
	}
	ws.setState(WSStateReconnecting)
	go func() {
		for attempt := 1; attempt <= ws.maxReconnect; attempt++ {
			select {
			case <-ws.stopCh:
				return
			case <-time.After(ws.reconnectDelay + backoffDuration(attempt)):
			}
			if err := ws.dial(ws.rootCtx); err != nil {
				ws.logger.Warn("ws_reconnect_error", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			ws.logger.Info("ws_reconnected", zap.Int("attempt", attempt))
			return
		}
		ws.setState(WSStateFailed)
	}()
}

// WriteJSON sends one frame. Writes are serialised.
func (ws *WebSocket) WriteJSON(ctx context.Context, v any) error {
	ws.mu.RLock()
	conn, state := ws.conn, ws.state
	ws.mu.RUnlock()
	if conn == nil || state != WSStateConnected {
		return ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return wsjson.Write(ctx, conn, v)
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
	ws.cbMu.Lock()
	defer ws.cbMu.Unlock()
	ws.nextID++
	ws.msgCbs[ws.nextID] = cb
	return ws.nextID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
	ws.cbMu.Lock()
	delete(ws.msgCbs, id)
	ws.cbMu.Unlock()
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbMu.Lock()
	defer ws.cbMu.Unlock()
	ws.nextID++
	ws.stateCbs[ws.nextID] = cb
	return ws.nextID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbMu.Lock()
	delete(ws.stateCbs, id)
	ws.cbMu.Unlock()
}

func (ws *WebSocket) setState(state WebSocketState) {
	ws.mu.Lock()
	ws.state = state
	ws.mu.Unlock()

	ws.cbMu.RLock()
	callbacks := make([]StateCallback, 0, len(ws.stateCbs))
	for _, cb := range ws.stateCbs {
		callbacks = append(callbacks, cb)
	}
	ws.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(state)
	}
}

// drop forgets conn if it is still the current connection.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string) {
	ws.mu.Lock()
	current := ws.conn == conn
	if current {
		ws.conn = nil
		ws.state = WSStateDisconnected
	}
	ws.mu.Unlock()
	_ = conn.Close(websocket.StatusGoingAway, reason)
	if current {
		ws.setState(WSStateDisconnected)
	}
}

// Close stops reconnecting and waits for the reader to exit or ctx to expire.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })
	ws.mu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	ws.rootCancel()

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		ws.setState(WSStateDisconnected)
		return nil
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headers == nil {
		return hdr
	}
	for k, v := range ws.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
