package welcome

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexa-ai/nexa-chat/internal/model/welcome"
	"github.com/nexa-ai/nexa-chat/pkg/utils"
)

// Handler 欢迎面板的HTTP处理器
type Handler struct {
	topics welcome.Store
}

// New 创建欢迎面板处理器
func New(topics welcome.Store) *Handler {
	return &Handler{
		topics: topics,
	}
}

// RegisterRoutes 注册欢迎面板相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/welcome", h.handleGreeting)
}

// handleGreeting 返回欢迎文案与话题卡片
func (h *Handler) handleGreeting(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, welcome.DefaultGreeting(h.topics.List()))
}
