package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/z-scheduler/backend/internal/handler/chat"
	middlewarePkg "github.com/zhouzirui/z-scheduler/backend/internal/middleware"
	chatService "github.com/zhouzirui/z-scheduler/backend/internal/service/chat"
	"github.com/zhouzirui/z-scheduler/backend/pkg/utils"
)

// NewRouter wires HTTP routes to the scheduling service.
func NewRouter(chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(chatSvc)

	r.Get("/health", handleHealth)
	// Legacy path used by the first web client.
	r.Post("/chat", chatHandler.HandleChat)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)
		chatHandler.RegisterRoutes(api)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
