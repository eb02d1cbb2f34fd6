// File: internal/services/assistant/interface.go
package assistant

import "context"

// Canonical replies the hosted assistant is instructed to produce. The reply
// text doubles as the out-of-context signal, so these exact strings matter.
const (
	OutOfContextReply  = "Out of context. Please ask based on the uploaded documents."
	FallbackErrorReply = "Sorry, I encountered an error processing your request."
)

// ThreadProvider manages provider-side conversation threads.
type ThreadProvider interface {
	CreateThread(ctx context.Context) (string, error)
}

// MessageProvider relays one user message into a thread and returns the reply.
type MessageProvider interface {
	SendMessage(ctx context.Context, threadID, message string) (string, error)
}

// DocumentProvider pushes grounding documents into the provider's vector store.
type DocumentProvider interface {
	UploadDocument(ctx context.Context, filename string, data []byte) (string, error)
}

// Provider combines all hosted-assistant capabilities.
type Provider interface {
	ThreadProvider
	MessageProvider
	DocumentProvider
}
