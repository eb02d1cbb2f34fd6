// File: internal/services/chat_service.go
package services

import (
	"context"
	"strings"

	"github.com/iyunix/go-docchat/internal/conversation"
	"github.com/iyunix/go-docchat/internal/domain"
	"github.com/iyunix/go-docchat/internal/repository/chat"
	"github.com/iyunix/go-docchat/internal/repository/message"
	"github.com/iyunix/go-docchat/internal/services/assistant"
	chatservice "github.com/iyunix/go-docchat/internal/services/chat"
)

const maxChatTitleLength = 200

// ExchangeOutcome is the result of relaying one user message.
type ExchangeOutcome struct {
	Reply        string
	ThreadID     string
	OutOfContext bool
}

type ChatService struct {
	chatRepo    chat.ChatRepository
	messageRepo message.MessageRepository
	provider    assistant.Provider
	logger      Logger
}

func NewChatService(
	chatRepo chat.ChatRepository,
	messageRepo message.MessageRepository,
	provider assistant.Provider,
	logger Logger,
) (*ChatService, error) {
	if chatRepo == nil {
		return nil, chatservice.NewValidationError("constructor", "chat repository is required")
	}
	if messageRepo == nil {
		return nil, chatservice.NewValidationError("constructor", "message repository is required")
	}
	if provider == nil {
		return nil, chatservice.NewValidationError("constructor", "assistant provider is required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	return &ChatService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		provider:    provider,
		logger:      logger,
	}, nil
}

// CreateChat creates a chat for the user. An empty title falls back to
// the default so the sidebar never shows a nameless entry.
func (s *ChatService) CreateChat(ctx context.Context, userID uint, title string) (*domain.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = conversation.DefaultChatTitle
	}
	if len(title) > maxChatTitleLength {
		title = title[:maxChatTitleLength]
	}

	newChat := &domain.Chat{UserID: userID, Title: title}
	createdChat, err := s.chatRepo.Create(ctx, newChat)
	if err != nil {
		return nil, chatservice.NewStorageError("create_chat", "could not create chat", err)
	}

	s.logger.Info("chat created", "chat_id", createdChat.ID, "user_id", userID)
	return createdChat, nil
}

// GetUserChats returns the user's chats, most recently active first.
// A user with no chats gets a default one so there is always somewhere
// to type.
func (s *ChatService) GetUserChats(ctx context.Context, userID uint) ([]domain.Chat, error) {
	chats, err := s.chatRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, chatservice.NewStorageError("list_chats", "could not list chats", err)
	}
	if len(chats) == 0 {
		created, err := s.CreateChat(ctx, userID, conversation.DefaultChatTitle)
		if err != nil {
			return nil, err
		}
		chats = []domain.Chat{*created}
	}
	return chats, nil
}

func (s *ChatService) GetChatMessages(ctx context.Context, userID, chatID uint) ([]domain.Message, error) {
	if _, err := s.authorizeChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, chatservice.NewStorageError("get_messages", "could not load messages", err)
	}
	return messages, nil
}

// DeleteChat removes a chat and its transcript.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID uint) error {
	if _, err := s.authorizeChat(ctx, userID, chatID); err != nil {
		return err
	}
	if err := s.messageRepo.DeleteByChatID(ctx, chatID); err != nil {
		return chatservice.NewStorageError("delete_chat", "could not delete chat messages", err)
	}
	if err := s.chatRepo.Delete(ctx, chatID, userID); err != nil {
		return chatservice.NewStorageError("delete_chat", "could not delete chat", err)
	}
	s.logger.Info("chat deleted", "chat_id", chatID, "user_id", userID)
	return nil
}

// RenameChat updates a chat title. Metadata only: the thread and
// messages are untouched.
func (s *ChatService) RenameChat(ctx context.Context, userID, chatID uint, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return chatservice.NewValidationError("rename_chat", "chat title cannot be empty")
	}
	if len(title) > maxChatTitleLength {
		title = title[:maxChatTitleLength]
	}
	if _, err := s.authorizeChat(ctx, userID, chatID); err != nil {
		return err
	}
	if err := s.chatRepo.UpdateTitle(ctx, chatID, userID, title); err != nil {
		return chatservice.NewStorageError("rename_chat", "could not rename chat", err)
	}
	return nil
}

// CreateThread provisions a provider thread for a chat ahead of its
// first message and persists it on the chat record.
func (s *ChatService) CreateThread(ctx context.Context, userID, chatID uint) (string, error) {
	chatRecord, err := s.authorizeChat(ctx, userID, chatID)
	if err != nil {
		return "", err
	}
	if chatRecord.ThreadID != "" {
		return chatRecord.ThreadID, nil
	}

	threadID, err := s.provider.CreateThread(ctx)
	if err != nil {
		return "", chatservice.NewThreadError("create_thread", "could not create assistant thread", err)
	}
	if err := s.chatRepo.UpdateThreadID(ctx, chatID, threadID); err != nil {
		return "", chatservice.NewStorageError("create_thread", "could not persist thread id", err)
	}

	s.logger.Info("thread created", "chat_id", chatID, "thread_id", threadID)
	return threadID, nil
}

// NewThread provisions a provider thread not yet attached to any chat.
// It becomes a chat's thread once the client sends a message with it.
func (s *ChatService) NewThread(ctx context.Context) (string, error) {
	threadID, err := s.provider.CreateThread(ctx)
	if err != nil {
		return "", chatservice.NewThreadError("new_thread", "could not create assistant thread", err)
	}
	s.logger.Info("thread created", "thread_id", threadID)
	return threadID, nil
}

// SendMessage relays one user message through the hosted assistant and
// persists both sides of the exchange. The chat's thread is created
// lazily on the first message. A provider failure still settles the
// exchange: the fallback reply is stored and returned in place of an
// answer, flagged out-of-context so the transcript renders it the same
// way on reload.
func (s *ChatService) SendMessage(ctx context.Context, userID, chatID uint, threadID, content string) (*ExchangeOutcome, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, chatservice.NewValidationError("send_message", "message cannot be empty")
	}

	chatRecord, err := s.authorizeChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	// The client's thread hint wins when present; otherwise fall back to
	// the persisted one.
	if threadID == "" {
		threadID = chatRecord.ThreadID
	}
	if threadID == "" {
		threadID, err = s.provider.CreateThread(ctx)
		if err != nil {
			return nil, chatservice.NewThreadError("send_message", "could not create assistant thread", err)
		}
	}
	if threadID != chatRecord.ThreadID {
		if err := s.chatRepo.UpdateThreadID(ctx, chatID, threadID); err != nil {
			return nil, chatservice.NewStorageError("send_message", "could not persist thread id", err)
		}
	}

	reply, relayErr := s.provider.SendMessage(ctx, threadID, content)
	if relayErr != nil {
		s.logger.Error("assistant relay failed",
			"error", relayErr,
			"chat_id", chatID,
			"thread_id", threadID)
		reply = assistant.FallbackErrorReply
	}
	outOfContext := relayErr != nil || conversation.IsOutOfContext(reply)

	if _, err := s.messageRepo.Create(ctx, &domain.Message{
		ChatID:  chatID,
		Role:    domain.RoleUser,
		Content: content,
	}); err != nil {
		return nil, chatservice.NewStorageError("send_message", "could not save user message", err)
	}
	if _, err := s.messageRepo.Create(ctx, &domain.Message{
		ChatID:       chatID,
		Role:         domain.RoleAssistant,
		Content:      reply,
		OutOfContext: outOfContext,
	}); err != nil {
		return nil, chatservice.NewStorageError("send_message", "could not save assistant message", err)
	}
	if err := s.chatRepo.RecordMessage(ctx, chatID); err != nil {
		s.logger.Warn("failed to update chat activity", "error", err, "chat_id", chatID)
	}

	return &ExchangeOutcome{
		Reply:        reply,
		ThreadID:     threadID,
		OutOfContext: outOfContext,
	}, nil
}

// UploadDocument pushes one grounding document into the assistant's
// vector store and returns the provider file id.
func (s *ChatService) UploadDocument(ctx context.Context, filename string, data []byte) (string, error) {
	fileID, err := s.provider.UploadDocument(ctx, filename, data)
	if err != nil {
		return "", chatservice.NewThreadError("upload_document", "could not upload document", err)
	}
	s.logger.Info("document uploaded", "filename", filename, "file_id", fileID)
	return fileID, nil
}

func (s *ChatService) authorizeChat(ctx context.Context, userID, chatID uint) (*domain.Chat, error) {
	chatRecord, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil || chatRecord.UserID != userID {
		return nil, chatservice.NewUnauthorizedError(userID, chatID)
	}
	return chatRecord, nil
}
