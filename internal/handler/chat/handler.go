package chat

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nexa-ai/nexa-chat/internal/model/chat"
	"github.com/nexa-ai/nexa-chat/internal/render"
	chatService "github.com/nexa-ai/nexa-chat/internal/service/chat"
	"github.com/nexa-ai/nexa-chat/pkg/utils"
)

// Handler 聊天会话的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	markdown *render.Markdown
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, markdown *render.Markdown) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		markdown: markdown,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(s chi.Router) {
		s.Get("/", h.handleGetSession)
		s.Put("/draft", h.handleSetDraft)
		s.Post("/submit", h.handleSubmit)
		s.Get("/events", h.handleEvents)
	})
}

// TurnView 附带渲染后 HTML 的对话轮次
type TurnView struct {
	chat.Turn
	HTML string `json:"html,omitempty"`
}

// SessionView 会话快照的响应结构
type SessionView struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	InFlight  bool       `json:"inFlight"`
	Draft     string     `json:"draft"`
	Turns     []TurnView `json:"turns"`
}

// CycleView 一次提问的结果
type CycleView struct {
	Question TurnView `json:"question"`
	Answer   TurnView `json:"answer"`
	Failed   bool     `json:"failed"`
}

type textPayload struct {
	Text string `json:"text"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("[session] created session=%s", session.ID)
	utils.RespondJSON(w, http.StatusCreated, h.sessionView(session))
}

// handleGetSession 获取会话快照
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.sessionView(session))
}

// handleSetDraft 同步输入框中的草稿
func (h *Handler) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	var payload textPayload
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	controller, err := h.chatSvc.Controller(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	controller.SetDraft(payload.Text)
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit 提交问题并等待回答
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload textPayload
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cycle, err := h.chatSvc.Submit(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, CycleView{
		Question: h.turnView(cycle.Question),
		Answer:   h.turnView(cycle.Answer),
		Failed:   cycle.Failed,
	})
}

func (h *Handler) sessionView(session chat.Session) SessionView {
	turns := make([]TurnView, 0, len(session.Turns))
	for _, turn := range session.Turns {
		turns = append(turns, h.turnView(turn))
	}
	return SessionView{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		InFlight:  session.InFlight,
		Draft:     session.Draft,
		Turns:     turns,
	}
}

func (h *Handler) turnView(turn chat.Turn) TurnView {
	view := TurnView{Turn: turn}
	if h.markdown == nil {
		return view
	}

	html, err := h.markdown.HTML(turn.Text)
	if err != nil {
		log.Printf("[session] render turn %d failed: %v", turn.Index, err)
		return view
	}
	view.HTML = html
	return view
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrEmptyQuestion):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrCycleInFlight):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
