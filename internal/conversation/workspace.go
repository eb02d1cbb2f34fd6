// File: internal/conversation/workspace.go
package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultChatTitle is used for chats created automatically so the user
// always has somewhere to type.
const DefaultChatTitle = "New Chat"

// ChatSummary is the registry's view of one chat.
type ChatSummary struct {
	ID            uint
	Title         string
	ThreadID      string
	MessageCount  int
	CreatedAt     time.Time
	LastMessageAt *time.Time
}

// Registry is the chat store behind a workspace. The server keeps the
// list ordered by recency, newest first.
type Registry interface {
	ListChats(ctx context.Context) ([]ChatSummary, error)
	CreateChat(ctx context.Context, title string) (*ChatSummary, error)
	DeleteChat(ctx context.Context, chatID uint) error
	RenameChat(ctx context.Context, chatID uint, title string) error
	LoadMessages(ctx context.Context, chatID uint) ([]Message, error)
}

// Workspace combines a chat registry with a single active Session and
// enforces the lifecycle rules around them: there is always at least one
// chat, deleting the selected chat moves the selection to another one,
// and renaming never disturbs the transcript.
type Workspace struct {
	registry Registry
	session  *Session

	mu    sync.Mutex
	chats []ChatSummary
}

func NewWorkspace(registry Registry, relay Relay) *Workspace {
	return &Workspace{
		registry: registry,
		session:  NewSession(relay),
	}
}

// Session exposes the active session for transcript and banner access.
func (w *Workspace) Session() *Session {
	return w.session
}

// Init loads the chat list, creating a default chat when the user has
// none, and selects the most recent one.
func (w *Workspace) Init(ctx context.Context) error {
	chats, err := w.registry.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	if len(chats) == 0 {
		created, err := w.registry.CreateChat(ctx, DefaultChatTitle)
		if err != nil {
			return fmt.Errorf("create default chat: %w", err)
		}
		chats = []ChatSummary{*created}
	}

	w.mu.Lock()
	w.chats = chats
	w.mu.Unlock()

	return w.Select(ctx, chats[0].ID)
}

// Chats returns a copy of the chat list, newest first.
func (w *Workspace) Chats() []ChatSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ChatSummary(nil), w.chats...)
}

// Select makes chatID the active chat and loads its history into the
// session transcript. Selecting the already-active chat is a no-op. The
// session starts without a thread even when the chat has one on record;
// the server falls back to its persisted thread on the first send.
func (w *Workspace) Select(ctx context.Context, chatID uint) error {
	if _, ok := w.find(chatID); !ok {
		return fmt.Errorf("chat %d not in workspace", chatID)
	}
	if w.session.ChatID() == chatID {
		return nil
	}

	w.session.SelectChat(chatID)

	history, err := w.registry.LoadMessages(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	w.session.SetTranscript(history)
	return nil
}

// NewChat creates a chat with the given title (or the default when
// empty) and selects it.
func (w *Workspace) NewChat(ctx context.Context, title string) (*ChatSummary, error) {
	if title == "" {
		title = DefaultChatTitle
	}
	created, err := w.registry.CreateChat(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	w.mu.Lock()
	w.chats = append([]ChatSummary{*created}, w.chats...)
	w.mu.Unlock()

	if err := w.Select(ctx, created.ID); err != nil {
		return created, err
	}
	return created, nil
}

// Delete removes a chat. When it was the selected chat the selection
// moves to the most recent remaining one, and a fresh default chat is
// created if none remain.
func (w *Workspace) Delete(ctx context.Context, chatID uint) error {
	if err := w.registry.DeleteChat(ctx, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}

	w.mu.Lock()
	kept := w.chats[:0]
	for _, c := range w.chats {
		if c.ID != chatID {
			kept = append(kept, c)
		}
	}
	w.chats = kept
	remaining := len(kept)
	w.mu.Unlock()

	if w.session.ChatID() != chatID {
		return nil
	}

	if remaining == 0 {
		created, err := w.registry.CreateChat(ctx, DefaultChatTitle)
		if err != nil {
			return fmt.Errorf("create replacement chat: %w", err)
		}
		w.mu.Lock()
		w.chats = []ChatSummary{*created}
		w.mu.Unlock()
		return w.Select(ctx, created.ID)
	}

	w.mu.Lock()
	next := w.chats[0].ID
	w.mu.Unlock()
	return w.Select(ctx, next)
}

// Rename changes a chat's title. It is metadata-only: the transcript,
// thread, and selection are untouched even for the active chat.
func (w *Workspace) Rename(ctx context.Context, chatID uint, title string) error {
	if err := w.registry.RenameChat(ctx, chatID, title); err != nil {
		return fmt.Errorf("rename chat: %w", err)
	}
	w.mu.Lock()
	for i := range w.chats {
		if w.chats[i].ID == chatID {
			w.chats[i].Title = title
			break
		}
	}
	w.mu.Unlock()
	return nil
}

// Send delivers content on the active chat and keeps the chat list's
// recency metadata in step with the exchange. A failed exchange leaves
// the metadata alone; the fallback reply lives only in the transcript.
func (w *Workspace) Send(ctx context.Context, content string) (Message, error) {
	reply, err := w.session.Send(ctx, content)
	if err != nil {
		return reply, err
	}

	chatID := w.session.ChatID()
	now := time.Now()
	w.mu.Lock()
	for i := range w.chats {
		if w.chats[i].ID != chatID {
			continue
		}
		w.chats[i].MessageCount++
		w.chats[i].LastMessageAt = &now
		w.chats[i].ThreadID = w.session.ThreadID()
		if i != 0 {
			moved := w.chats[i]
			w.chats = append(w.chats[:i], w.chats[i+1:]...)
			w.chats = append([]ChatSummary{moved}, w.chats...)
		}
		break
	}
	w.mu.Unlock()
	return reply, nil
}

func (w *Workspace) find(chatID uint) (ChatSummary, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.chats {
		if c.ID == chatID {
			return c, true
		}
	}
	return ChatSummary{}, false
}
