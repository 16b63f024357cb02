package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 10
)

var errSubscriptionClosed = errors.New("subscription closed")

// sessionState 连接生命周期：Connecting → Joined → Active → Closing → Closed
type sessionState int

const (
	stateConnecting sessionState = iota
	stateJoined
	stateActive
	stateClosing
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateJoined:
		return "joined"
	case stateActive:
		return "active"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// session 一个连接对应一个玩家：写协程只转发快照，读协程只解析输入，二者互不越界
type session struct {
	ws      *websocket.Conn
	world   *World
	hub     *Hub
	msgType int

	id    PlayerID
	sub   *Subscription
	state sessionState
}

func (s *session) transition(next sessionState) {
	Log.Debugf("session %s: %s -> %s", s.id, s.state, next)
	s.state = next
}

// run 驱动整个状态机，返回时玩家一定已经从世界中移除
func (s *session) run(ctx context.Context) {
	defer s.ws.Close()

	id, err := s.world.Join()
	if err != nil {
		Log.Warnf("join rejected from %s: %v", s.ws.RemoteAddr(), err)
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server full")
		_ = s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		s.transition(stateClosed)
		return
	}
	s.id = id
	s.transition(stateJoined)
	s.sub = s.hub.Subscribe()
	Log.Infof("player %s joined from %s", id, s.ws.RemoteAddr())

	s.transition(stateActive)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.writePump(gctx) })
	g.Go(func() error { return s.readPump() })
	err = g.Wait()

	s.transition(stateClosing)
	s.world.Leave(id)
	s.sub.Close()
	s.transition(stateClosed)

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		Log.Infof("player %s left", id)
	} else {
		Log.Infof("player %s left: %v", id, err)
	}
}

// writePump 从订阅中取快照写出；退出时关闭底层连接，让阻塞中的 readPump 立即返回
func (s *session) writePump(ctx context.Context) error {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = s.ws.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return ctx.Err()
		case b, ok := <-s.sub.C():
			if !ok {
				return errSubscriptionClosed
			}
			_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(s.msgType, b); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
		case <-ping.C:
			if err := s.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

// readPump 读取客户端输入并作用到世界；无法识别的输入直接丢弃，不断开连接
func (s *session) readPump() error {
	s.ws.SetReadLimit(maxMessageSize)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error { return s.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := s.ws.ReadMessage()
		if err != nil {
			return err
		}
		_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
		ev := Decode(payload)
		if ev == InputUnrecognized {
			Log.Debugf("player %s: ignored input %q", s.id, payload)
		}
		s.world.ApplyInput(s.id, ev)
	}
}

// HandleWS WebSocket 接入：每个连接加入一个新玩家
func (g *Game) HandleWS(w http.ResponseWriter, r *http.Request) {
	if !g.acquireSession() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer g.sessions.Done()

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	s := &session{
		ws:      ws,
		world:   g.world,
		hub:     g.hub,
		msgType: g.codec.MessageType(),
		state:   stateConnecting,
	}
	s.run(g.ctx)
}
