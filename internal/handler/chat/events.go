package chat

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	chatService "github.com/nexa-ai/nexa-chat/internal/service/chat"
	"github.com/nexa-ai/nexa-chat/pkg/utils"
)

// heartbeatInterval 控制 SSE 心跳频率
const heartbeatInterval = 15 * time.Second

// EventView 推送给浏览器的会话事件
type EventView struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	Turn      *TurnView `json:"turn,omitempty"`
	InFlight  bool      `json:"inFlight"`
}

func (h *Handler) eventView(event chatService.Event) EventView {
	view := EventView{
		Type:      string(event.Type),
		SessionID: event.SessionID,
		InFlight:  event.InFlight,
	}
	if event.Turn != nil {
		turn := h.turnView(*event.Turn)
		view.Turn = &turn
	}
	return view
}

// handleEvents 以 Server-Sent Events 推送会话变化
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	controller, err := h.chatSvc.Controller(sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	events, unsubscribe := controller.Subscribe()
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	// 先推送快照，之后只推送增量事件。
	if err := utils.SendSSEEvent(w, flusher, "snapshot", h.sessionView(controller.Snapshot())); err != nil {
		log.Printf("[sse] session=%s: %v", sessionID, err)
		return
	}

	ctx := r.Context()
	log.Printf("[sse] opening event stream for session=%s", sessionID)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing event stream for session=%s", sessionID)
			return
		case event, ok := <-events:
			if !ok {
				log.Printf("[sse] session=%s closed", sessionID)
				return
			}
			view := h.eventView(event)
			if err := utils.SendSSEEvent(w, flusher, view.Type, view); err != nil {
				log.Printf("[sse] session=%s: %v", sessionID, err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
			controller.Touch()
		}
	}
}
