package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nexa-ai/nexa-chat/internal/handler/chat"
	"github.com/nexa-ai/nexa-chat/internal/handler/welcome"
	middlewarePkg "github.com/nexa-ai/nexa-chat/internal/middleware"
	welcomeModel "github.com/nexa-ai/nexa-chat/internal/model/welcome"
	"github.com/nexa-ai/nexa-chat/internal/render"
	chatService "github.com/nexa-ai/nexa-chat/internal/service/chat"
	"github.com/nexa-ai/nexa-chat/pkg/utils"
)

// Options 路由的可选配置
type Options struct {
	AllowedOrigins []string
	// Static 为空时不挂载页面
	Static http.Handler
}

// NewRouter wires HTTP routes to core services.
func NewRouter(topics welcomeModel.Store, chatSvc *chatService.Service, markdown *render.Markdown, opts Options) http.Handler {
	allowedOrigins := opts.AllowedOrigins

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	welcomeHandler := welcome.New(topics)
	chatHandler := chat.New(chatSvc, markdown)
	wsHandler := chat.NewWebSocketHandler(chatHandler, sameOriginOr(allowedOrigins))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		welcomeHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	if opts.Static != nil {
		r.Handle("/*", opts.Static)
	}

	return r
}

// sameOriginOr accepts WebSocket upgrades from the serving host or from any
// configured origin.
func sameOriginOr(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
			return true
		}
		return middlewarePkg.OriginAllowed(allowedOrigins, origin)
	}
}
