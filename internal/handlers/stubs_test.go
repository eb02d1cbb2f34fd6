// File: internal/handlers/stubs_test.go
package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/iyunix/go-docchat/internal/domain"
	"github.com/iyunix/go-docchat/internal/services"
)

// stubChatRepo is an in-memory chat store for handler tests.
type stubChatRepo struct {
	nextID uint
	chats  map[uint]*domain.Chat
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{nextID: 1, chats: make(map[uint]*domain.Chat)}
}

func (r *stubChatRepo) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	stored := *chat
	stored.ID = r.nextID
	r.nextID++
	r.chats[stored.ID] = &stored
	return &stored, nil
}

func (r *stubChatRepo) FindByID(ctx context.Context, id uint) (*domain.Chat, error) {
	chat, ok := r.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat %d not found", id)
	}
	return chat, nil
}

func (r *stubChatRepo) FindByUserID(ctx context.Context, userID uint) ([]domain.Chat, error) {
	var out []domain.Chat
	for _, chat := range r.chats {
		if chat.UserID == userID {
			out = append(out, *chat)
		}
	}
	return out, nil
}

func (r *stubChatRepo) Delete(ctx context.Context, chatID uint, userID uint) error {
	delete(r.chats, chatID)
	return nil
}

func (r *stubChatRepo) UpdateTitle(ctx context.Context, chatID uint, userID uint, title string) error {
	if chat, ok := r.chats[chatID]; ok {
		chat.Title = title
	}
	return nil
}

func (r *stubChatRepo) UpdateThreadID(ctx context.Context, chatID uint, threadID string) error {
	chat, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("chat %d not found", chatID)
	}
	chat.ThreadID = threadID
	return nil
}

func (r *stubChatRepo) RecordMessage(ctx context.Context, chatID uint) error {
	if chat, ok := r.chats[chatID]; ok {
		chat.MessageCount++
	}
	return nil
}

func (r *stubChatRepo) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	chats, _ := r.FindByUserID(ctx, userID)
	return int64(len(chats)), nil
}

type stubMessageRepo struct {
	messages map[uint][]domain.Message
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{messages: make(map[uint][]domain.Message)}
}

func (r *stubMessageRepo) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	stored := *message
	stored.ID = uint(len(r.messages[message.ChatID]) + 1)
	r.messages[message.ChatID] = append(r.messages[message.ChatID], stored)
	return &stored, nil
}

func (r *stubMessageRepo) FindByChatID(ctx context.Context, chatID uint) ([]domain.Message, error) {
	return append([]domain.Message(nil), r.messages[chatID]...), nil
}

func (r *stubMessageRepo) CountByChatID(ctx context.Context, chatID uint) (int64, error) {
	return int64(len(r.messages[chatID])), nil
}

func (r *stubMessageRepo) DeleteByChatID(ctx context.Context, chatID uint) error {
	delete(r.messages, chatID)
	return nil
}

// stubProvider hands out sequential thread and file ids.
type stubProvider struct {
	threads int
	files   int
	reply   string
}

func (p *stubProvider) CreateThread(ctx context.Context) (string, error) {
	p.threads++
	return fmt.Sprintf("thread_%d", p.threads), nil
}

func (p *stubProvider) SendMessage(ctx context.Context, threadID, message string) (string, error) {
	return p.reply, nil
}

func (p *stubProvider) UploadDocument(ctx context.Context, filename string, data []byte) (string, error) {
	p.files++
	return fmt.Sprintf("file_%d", p.files), nil
}

func newTestChatService(t *testing.T, chatRepo *stubChatRepo, provider *stubProvider) *services.ChatService {
	t.Helper()
	svc, err := services.NewChatService(chatRepo, newStubMessageRepo(), provider, nil)
	if err != nil {
		t.Fatalf("NewChatService: %v", err)
	}
	return svc
}
