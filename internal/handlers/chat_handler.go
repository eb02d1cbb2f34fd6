// File: internal/handlers/chat_handler.go
package handlers

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/iyunix/go-docchat/internal/domain"
	"github.com/iyunix/go-docchat/internal/dtos"
	"github.com/iyunix/go-docchat/internal/middleware"
	"github.com/iyunix/go-docchat/internal/services"
	chatservice "github.com/iyunix/go-docchat/internal/services/chat"
)

// markdown renders assistant replies for transcript display. User
// messages are left as plain text.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

type ChatHandler struct {
	ChatService *services.ChatService
}

func NewChatHandler(cs *services.ChatService) *ChatHandler {
	return &ChatHandler{ChatService: cs}
}

// GetUserChats returns the user's chats, most recently active first.
func (h *ChatHandler) GetUserChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chats, err := h.ChatService.GetUserChats(r.Context(), userID)
	if err != nil {
		log.Printf("[ChatHandler] List chats failed: %v", err)
		writeError(w, "Could not retrieve chats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dtos.ChatListFromDomain(chats))
}

// CreateChat creates a new chat for the user.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req dtos.CreateChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	chat, err := h.ChatService.CreateChat(r.Context(), userID, req.Title)
	if err != nil {
		log.Printf("[ChatHandler] Create chat failed: %v", err)
		writeError(w, "Could not create chat", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, dtos.ChatFromDomain(chat))
}

// GetChatMessages returns the full transcript of one chat, oldest first.
func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	messages, err := h.ChatService.GetChatMessages(r.Context(), userID, chatID)
	if err != nil {
		writeChatError(w, err)
		return
	}

	out := make([]dtos.MessageResponse, len(messages))
	for i := range messages {
		out[i] = messageResponse(&messages[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteChat removes a chat and its messages.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	if err := h.ChatService.DeleteChat(r.Context(), userID, chatID); err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.StatusResponse{Success: true, Message: "Chat deleted"})
}

// RenameChat updates a chat's title without touching its thread or
// transcript.
func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	var req dtos.RenameChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ChatService.RenameChat(r.Context(), userID, chatID, req.Title); err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.StatusResponse{Success: true, Message: "Chat renamed"})
}

// CreateThread provisions an assistant thread. With no body (or no
// chat_id) it returns an unattached thread; with a chat_id the thread
// is created for that chat ahead of its first message and persisted.
func (h *ChatHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ChatID uint `json:"chat_id"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var (
		threadID string
		err      error
	)
	if req.ChatID != 0 {
		threadID, err = h.ChatService.CreateThread(r.Context(), userID, req.ChatID)
	} else {
		threadID, err = h.ChatService.NewThread(r.Context())
	}
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.ThreadResponse{ThreadID: threadID})
}

// SendMessage relays one user message and returns the assistant's reply
// together with the authoritative thread id.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req dtos.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := h.ChatService.SendMessage(r.Context(), userID, req.ChatID, req.ThreadID, req.Message)
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.SendMessageResponse{
		Reply:    outcome.Reply,
		ThreadID: outcome.ThreadID,
	})
}

// Health reports liveness.
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func chatIDFromPath(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	return uint(id), err
}

func messageResponse(m *domain.Message) dtos.MessageResponse {
	resp := dtos.MessageResponse{
		ID:           m.ID,
		Role:         m.Role,
		Content:      m.Content,
		OutOfContext: m.OutOfContext,
		Timestamp:    m.CreatedAt.Format(time.RFC3339),
	}
	if m.Role == domain.RoleAssistant {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(m.Content), &buf); err == nil {
			resp.ContentHTML = buf.String()
		}
	}
	return resp
}

// writeChatError maps service errors onto HTTP statuses.
func writeChatError(w http.ResponseWriter, err error) {
	var chatErr *chatservice.ChatError
	if errors.As(err, &chatErr) {
		switch chatErr.Type {
		case chatservice.ErrTypeUnauthorized:
			writeError(w, "Chat not found or unauthorized", http.StatusForbidden)
			return
		case chatservice.ErrTypeNotFound:
			writeError(w, "Not found", http.StatusNotFound)
			return
		case chatservice.ErrTypeValidation:
			writeError(w, chatErr.Message, http.StatusBadRequest)
			return
		case chatservice.ErrTypeThread:
			writeError(w, "Assistant service unavailable", http.StatusBadGateway)
			return
		}
	}
	log.Printf("[ChatHandler] Unexpected error: %v", err)
	writeError(w, "Internal server error", http.StatusInternalServerError)
}
