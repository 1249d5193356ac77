package chat

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-scheduler/backend/internal/model/chat"
	chatService "github.com/zhouzirui/z-scheduler/backend/internal/service/chat"
	"github.com/zhouzirui/z-scheduler/backend/pkg/utils"
)

// Handler serves the scheduling conversation over HTTP.
type Handler struct {
	chatSvc *chatService.Service
	ws      *WebSocketHandler
}

// New creates the chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		ws:      NewWebSocketHandler(chatSvc),
	}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Get("/ws/{sessionID}", h.ws.handleWebSocket)
}

// HandleChat runs one turn for the posted message.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondDecodeError(w, err)
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.chatSvc.HandleMessage(r.Context(), payload.SessionID, payload.Message)
	if err != nil {
		log.Printf("[chat] turn failed session=%s: %v", payload.SessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}
