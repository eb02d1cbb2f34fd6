// File: internal/conversation/workspace_test.go
package conversation

import (
	"context"
	"fmt"
	"testing"
)

// memoryRegistry is an in-memory Registry for workspace tests. Chats
// are kept newest first, matching the server's ordering.
type memoryRegistry struct {
	nextID   uint
	chats    []ChatSummary
	messages map[uint][]Message
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{nextID: 1, messages: make(map[uint][]Message)}
}

func (r *memoryRegistry) seed(titles ...string) {
	for _, title := range titles {
		r.chats = append([]ChatSummary{{ID: r.nextID, Title: title}}, r.chats...)
		r.nextID++
	}
}

func (r *memoryRegistry) ListChats(ctx context.Context) ([]ChatSummary, error) {
	return append([]ChatSummary(nil), r.chats...), nil
}

func (r *memoryRegistry) CreateChat(ctx context.Context, title string) (*ChatSummary, error) {
	created := ChatSummary{ID: r.nextID, Title: title}
	r.nextID++
	r.chats = append([]ChatSummary{created}, r.chats...)
	return &created, nil
}

func (r *memoryRegistry) DeleteChat(ctx context.Context, chatID uint) error {
	for i, c := range r.chats {
		if c.ID == chatID {
			r.chats = append(r.chats[:i], r.chats[i+1:]...)
			delete(r.messages, chatID)
			return nil
		}
	}
	return fmt.Errorf("chat %d not found", chatID)
}

func (r *memoryRegistry) RenameChat(ctx context.Context, chatID uint, title string) error {
	for i := range r.chats {
		if r.chats[i].ID == chatID {
			r.chats[i].Title = title
			return nil
		}
	}
	return fmt.Errorf("chat %d not found", chatID)
}

func (r *memoryRegistry) LoadMessages(ctx context.Context, chatID uint) ([]Message, error) {
	return append([]Message(nil), r.messages[chatID]...), nil
}

func newTestWorkspace(t *testing.T, registry *memoryRegistry) *Workspace {
	t.Helper()
	relay := &scriptedRelay{result: &ExchangeResult{Reply: "ok", ThreadID: "t"}}
	return NewWorkspace(registry, relay)
}

func TestInitCreatesDefaultChat(t *testing.T) {
	registry := newMemoryRegistry()
	workspace := newTestWorkspace(t, registry)

	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	chats := workspace.Chats()
	if len(chats) != 1 {
		t.Fatalf("workspace has %d chats, want 1", len(chats))
	}
	if chats[0].Title != DefaultChatTitle {
		t.Errorf("default chat title = %q, want %q", chats[0].Title, DefaultChatTitle)
	}
	if got := workspace.Session().ChatID(); got != chats[0].ID {
		t.Errorf("selected chat = %d, want the default chat %d", got, chats[0].ID)
	}
}

func TestInitSelectsMostRecent(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("older", "newer")
	workspace := newTestWorkspace(t, registry)

	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := workspace.Session().ChatID(); got != 2 {
		t.Errorf("selected chat = %d, want 2 (most recent)", got)
	}
}

func TestSelectLoadsHistory(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("a", "b")
	registry.messages[1] = []Message{
		{Role: RoleUser, Content: "earlier question"},
		{Role: RoleAssistant, Content: "earlier answer"},
	}
	workspace := newTestWorkspace(t, registry)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := workspace.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	msgs := workspace.Session().Messages()
	if len(msgs) != 2 || msgs[0].Content != "earlier question" {
		t.Errorf("loaded transcript = %v", msgs)
	}
}

func TestDeleteSelectedChatMovesSelection(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("a", "b")
	workspace := newTestWorkspace(t, registry)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	selected := workspace.Session().ChatID()
	if err := workspace.Delete(context.Background(), selected); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	chats := workspace.Chats()
	if len(chats) != 1 {
		t.Fatalf("workspace has %d chats, want 1", len(chats))
	}
	if got := workspace.Session().ChatID(); got != chats[0].ID {
		t.Errorf("selection = %d, want replacement chat %d", got, chats[0].ID)
	}
}

func TestDeleteLastChatCreatesReplacement(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("only")
	workspace := newTestWorkspace(t, registry)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := workspace.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	chats := workspace.Chats()
	if len(chats) != 1 {
		t.Fatalf("workspace has %d chats, want a fresh default", len(chats))
	}
	if chats[0].Title != DefaultChatTitle {
		t.Errorf("replacement title = %q, want %q", chats[0].Title, DefaultChatTitle)
	}
	if got := workspace.Session().ChatID(); got != chats[0].ID {
		t.Errorf("selection = %d, want replacement %d", got, chats[0].ID)
	}
}

func TestDeleteUnselectedChatKeepsSelection(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("a", "b")
	workspace := newTestWorkspace(t, registry)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	selected := workspace.Session().ChatID()
	if err := workspace.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := workspace.Session().ChatID(); got != selected {
		t.Errorf("selection moved to %d, want unchanged %d", got, selected)
	}
}

func TestRenameIsMetadataOnly(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("before")
	workspace := newTestWorkspace(t, registry)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Put something in the transcript and thread first.
	if _, err := workspace.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	transcriptBefore := len(workspace.Session().Messages())
	threadBefore := workspace.Session().ThreadID()

	if err := workspace.Rename(context.Background(), 1, "after"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	if got := workspace.Chats()[0].Title; got != "after" {
		t.Errorf("title = %q, want after", got)
	}
	if got := workspace.Session().ChatID(); got != 1 {
		t.Errorf("selection changed to %d", got)
	}
	if got := len(workspace.Session().Messages()); got != transcriptBefore {
		t.Errorf("transcript length changed: %d -> %d", transcriptBefore, got)
	}
	if got := workspace.Session().ThreadID(); got != threadBefore {
		t.Errorf("thread changed: %q -> %q", threadBefore, got)
	}
}

func TestSendUpdatesChatMetadata(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("a", "b")
	workspace := newTestWorkspace(t, registry)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Select the older chat and send on it.
	if err := workspace.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := workspace.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	chats := workspace.Chats()
	if chats[0].ID != 1 {
		t.Errorf("active chat not moved to front: %v", chats)
	}
	if chats[0].MessageCount != 1 {
		t.Errorf("message count = %d, want 1 per exchange", chats[0].MessageCount)
	}
	if chats[0].LastMessageAt == nil {
		t.Error("last message time not set")
	}
	if chats[0].ThreadID != "t" {
		t.Errorf("thread id not recorded: %q", chats[0].ThreadID)
	}
}

func TestFailedSendLeavesMetadata(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("a")
	relay := &scriptedRelay{err: fmt.Errorf("connection refused")}
	workspace := NewWorkspace(registry, relay)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	reply, err := workspace.Send(context.Background(), "hello")
	if err == nil {
		t.Fatal("Send succeeded, want relay error")
	}
	if reply.Content != FallbackReply {
		t.Errorf("fallback content = %q", reply.Content)
	}

	// The server persisted nothing, so the list must not drift.
	chats := workspace.Chats()
	if chats[0].MessageCount != 0 {
		t.Errorf("message count = %d after failed exchange, want 0", chats[0].MessageCount)
	}
	if chats[0].LastMessageAt != nil {
		t.Error("last message time set after failed exchange")
	}
}

func TestSelectionLeavesThreadAbsent(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("a", "b")
	registry.chats[0].ThreadID = "thread_b"
	registry.chats[1].ThreadID = "thread_a"
	workspace := newTestWorkspace(t, registry)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// The persisted thread stays on the server side; the session only
	// learns a thread from a relay response.
	if got := workspace.Session().ThreadID(); got != "" {
		t.Errorf("thread id = %q after Init, want empty", got)
	}
	if err := workspace.Select(context.Background(), 1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := workspace.Session().ThreadID(); got != "" {
		t.Errorf("thread id = %q after Select, want empty", got)
	}
}

func TestReselectKeepsTranscript(t *testing.T) {
	registry := newMemoryRegistry()
	registry.seed("only")
	workspace := newTestWorkspace(t, registry)
	if err := workspace.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := workspace.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// The registry still has no history for this chat, so a real reload
	// would wipe the optimistic transcript. Reselecting must not.
	if err := workspace.Select(context.Background(), 1); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if got := len(workspace.Session().Messages()); got != 2 {
		t.Errorf("transcript has %d messages after reselect, want 2", got)
	}
	if got := workspace.Session().ThreadID(); got != "t" {
		t.Errorf("thread id = %q after reselect, want t", got)
	}
}
