package chat

import (
	"context"

	"github.com/iyunix/go-docchat/internal/domain"
)

// ChatRepository handles chat data operations.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, id uint) (*domain.Chat, error)
	// FindByUserID returns the user's chats ordered most-recent-first by
	// last_message_at, falling back to created_at for chats without messages.
	FindByUserID(ctx context.Context, userID uint) ([]domain.Chat, error)
	Delete(ctx context.Context, chatID uint, userID uint) error
	UpdateTitle(ctx context.Context, chatID uint, userID uint, title string) error
	UpdateThreadID(ctx context.Context, chatID uint, threadID string) error
	// RecordMessage advances last_message_at and the message counter after a
	// completed exchange.
	RecordMessage(ctx context.Context, chatID uint) error
	CountByUserID(ctx context.Context, userID uint) (int64, error)
}
