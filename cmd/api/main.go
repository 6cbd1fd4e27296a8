package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nexa-ai/nexa-chat/internal/config"
	"github.com/nexa-ai/nexa-chat/internal/handler"
	"github.com/nexa-ai/nexa-chat/internal/model/welcome"
	"github.com/nexa-ai/nexa-chat/internal/render"
	"github.com/nexa-ai/nexa-chat/internal/service/ai"
	"github.com/nexa-ai/nexa-chat/internal/service/chat"
	"github.com/nexa-ai/nexa-chat/web"
)

// evictionInterval 空闲会话的清理周期
const evictionInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.Completion.Provider == config.ProviderGemini && cfg.Completion.APIKey == "" {
		log.Println("warning: GEMINI_API_KEY 未配置，所有提问都会得到兜底回复")
	}

	completer, err := ai.NewCompleter(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize completion client: %v", err)
	}
	log.Printf("completion provider %q initialized", cfg.Completion.Provider)

	chatService := chat.NewService(completer)
	go chatService.RunEviction(ctx, evictionInterval, cfg.Server.SessionTTL)

	topicStore := welcome.NewMemoryStore(welcome.Seed())

	router := handler.NewRouter(topicStore, chatService, render.NewMarkdown(), handler.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Static:         web.SPAHandler(),
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Nexa chat listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
