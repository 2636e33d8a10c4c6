package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/assistant"
	"github.com/camden-git/eventmealsbackend/models"
)

// ChatbotHandler exposes the assistant to anonymous session-keyed clients
// and to signed-in admins.
type ChatbotHandler struct {
	Orchestrator *assistant.Orchestrator
	Logger       *zap.Logger
}

type ChatPayload struct {
	Message        string `json:"message"`
	ConversationID *uint  `json:"conversation_id"`
	SessionID      string `json:"session_id"`
}

type ChatResponse struct {
	ConversationID uint   `json:"conversation_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	SessionID      string `json:"session_id,omitempty"`
}

type HistoryMessage struct {
	Role      models.MessageRole `json:"role"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"created_at"`
}

type HistoryResponse struct {
	ConversationID uint             `json:"conversation_id"`
	Title          string           `json:"title"`
	Messages       []HistoryMessage `json:"messages"`
}

type ConversationSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// Send runs one public chat turn. Clients that do not send a session_id get
// a new one back and should reuse it.
func (h *ChatbotHandler) Send(w http.ResponseWriter, r *http.Request) {
	var payload ChatPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" && payload.ConversationID == nil {
		sessionID = uuid.NewString()
	}

	result, err := h.Orchestrator.HandleTurn(r.Context(), assistant.TurnRequest{
		ConversationID: payload.ConversationID,
		Message:        payload.Message,
		Owner:          assistant.SessionOwner(sessionID),
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: result.ConversationID,
		Title:          result.Title,
		Message:        result.Reply,
		SessionID:      sessionID,
	})
}

func (h *ChatbotHandler) History(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, assistant.SessionOwner(r.URL.Query().Get("session_id")))
}

func (h *ChatbotHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	h.conversations(w, r, assistant.SessionOwner(r.URL.Query().Get("session_id")))
}

// AdminSend starts a new admin conversation, or continues the one named in
// the URL.
func (h *ChatbotHandler) AdminSend(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var payload ChatPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		writeError(w, h.Logger, apperrors.Invalid("", "Message cannot be empty"))
		return
	}

	req := assistant.TurnRequest{
		Message:  payload.Message,
		Owner:    assistant.AdminOwner(admin.ID),
		UserName: admin.Name(),
	}
	if chi.URLParam(r, "conversation_id") != "" {
		id, err := idParam(r, "conversation_id")
		if err != nil {
			writeError(w, h.Logger, err)
			return
		}
		req.ConversationID = &id
	}

	result, err := h.Orchestrator.HandleTurn(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: result.ConversationID,
		Title:          result.Title,
		Message:        result.Reply,
	})
}

func (h *ChatbotHandler) AdminHistory(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	h.history(w, r, assistant.AdminOwner(admin.ID))
}

func (h *ChatbotHandler) AdminConversations(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	h.conversations(w, r, assistant.AdminOwner(admin.ID))
}

func (h *ChatbotHandler) history(w http.ResponseWriter, r *http.Request, owner assistant.Owner) {
	id, err := idParam(r, "conversation_id")
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	conv, err := h.Orchestrator.History(r.Context(), id, owner)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	resp := HistoryResponse{ConversationID: conv.ID, Title: conv.Title, Messages: make([]HistoryMessage, 0, len(conv.Messages))}
	for _, m := range conv.Messages {
		resp.Messages = append(resp.Messages, HistoryMessage{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChatbotHandler) conversations(w http.ResponseWriter, r *http.Request, owner assistant.Owner) {
	convs, err := h.Orchestrator.ListConversations(r.Context(), owner)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	resp := ConversationsResponse{Conversations: make([]ConversationSummary, 0, len(convs))}
	for _, c := range convs {
		resp.Conversations = append(resp.Conversations, ConversationSummary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}
