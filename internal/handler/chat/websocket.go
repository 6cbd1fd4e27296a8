package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatService "github.com/nexa-ai/nexa-chat/internal/service/chat"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocketHandler 会话的双向 WebSocket 通道
type WebSocketHandler struct {
	chat     *Handler
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器，checkOrigin 为空时允许所有来源
func NewWebSocketHandler(chat *Handler, checkOrigin func(r *http.Request) bool) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WebSocketHandler{
		chat: chat,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId,omitempty"`
	Session   *SessionView `json:"session,omitempty"`
	Turn      *TurnView    `json:"turn,omitempty"`
	InFlight  *bool        `json:"inFlight,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(msg outgoingMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	controller, err := h.chat.chatSvc.Controller(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}

	log.Printf("[ws] new connection for session=%s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := controller.Subscribe()
	defer unsubscribe()

	snapshot := h.chat.sessionView(controller.Snapshot())
	if err := conn.writeJSON(outgoingMessage{Type: "snapshot", SessionID: sessionID, Session: &snapshot}); err != nil {
		log.Printf("[ws] write snapshot failed: %v", err)
		return
	}

	raw.SetReadDeadline(time.Now().Add(wsReadTimeout))
	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	go h.writeLoop(ctx, cancel, conn, controller, events)

	var cycles sync.WaitGroup
	defer cycles.Wait()

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error session=%s: %v", sessionID, err)
			}
			return
		}
		raw.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch msg.Type {
		case "submit":
			// 提交在后台执行，读循环继续接收草稿更新。
			cycles.Add(1)
			go func(text string) {
				defer cycles.Done()
				h.submit(ctx, conn, controller, text)
			}(msg.Text)
		case "draft":
			controller.SetDraft(msg.Text)
		default:
			h.sendRejected(conn, sessionID, "unsupported message type: "+msg.Type)
		}
	}
}

func (h *WebSocketHandler) submit(ctx context.Context, conn *wsConn, controller *chatService.Controller, text string) {
	if _, err := controller.Submit(ctx, text); err != nil {
		reason := "submit failed"
		switch {
		case errors.Is(err, chatService.ErrEmptyQuestion):
			reason = "empty"
		case errors.Is(err, chatService.ErrCycleInFlight):
			reason = "busy"
		case errors.Is(err, chatService.ErrSessionNotFound):
			reason = "gone"
		}
		h.sendRejected(conn, controller.ID(), reason)
	}
}

// writeLoop 转发会话事件并定期发送 ping
func (h *WebSocketHandler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *wsConn, controller *chatService.Controller, events <-chan chatService.Event) {
	// 关闭连接以唤醒阻塞在 ReadJSON 上的读循环。
	defer func() {
		cancel()
		conn.conn.Close()
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			view := h.chat.eventView(event)
			inFlight := view.InFlight
			msg := outgoingMessage{
				Type:      view.Type,
				SessionID: view.SessionID,
				Turn:      view.Turn,
				InFlight:  &inFlight,
			}
			if err := conn.writeJSON(msg); err != nil {
				log.Printf("[ws] write event failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
			controller.Touch()
		}
	}
}

func (h *WebSocketHandler) sendRejected(conn *wsConn, sessionID, reason string) {
	if err := conn.writeJSON(outgoingMessage{Type: "rejected", SessionID: sessionID, Reason: reason}); err != nil {
		log.Printf("[ws] write rejection failed: %v", err)
	}
}
