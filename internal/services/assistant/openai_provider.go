// File: internal/services/assistant/openai_provider.go
package assistant

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	config *Config
	client *openai.Client
}

func NewOpenAIProvider(config *Config) (*OpenAIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (p *OpenAIProvider) CreateThread(ctx context.Context) (string, error) {
	thread, err := p.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", NewProviderError("create_thread", "failed to create thread", err)
	}
	return thread.ID, nil
}

// SendMessage appends the user message to the thread, runs the assistant over
// it and returns the latest assistant reply. Replies the assistant could not
// ground in the document set collapse to OutOfContextReply.
func (p *OpenAIProvider) SendMessage(ctx context.Context, threadID, message string) (string, error) {
	_, err := p.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	if err != nil {
		return "", NewProviderError("send_message", "failed to append message to thread", err)
	}

	run, err := p.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: p.config.AssistantID,
	})
	if err != nil {
		return "", NewProviderError("send_message", "failed to start run", err)
	}

	run, err = p.waitForRun(ctx, threadID, run.ID)
	if err != nil {
		return "", err
	}
	if run.Status != openai.RunStatusCompleted {
		return "", NewRunError("send_message", "run ended with status "+string(run.Status))
	}

	return p.latestAssistantReply(ctx, threadID)
}

// waitForRun polls the run until it reaches a terminal status or the
// configured timeout elapses.
func (p *OpenAIProvider) waitForRun(ctx context.Context, threadID, runID string) (openai.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		run, err := p.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return openai.Run{}, NewProviderError("poll_run", "failed to retrieve run", err)
		}

		switch run.Status {
		case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
			// still working
		default:
			return run, nil
		}

		select {
		case <-ctx.Done():
			return openai.Run{}, &AssistantError{
				Type: ErrTypeTimeout, Operation: "poll_run",
				Message: "run did not complete in time", Cause: ctx.Err(),
			}
		case <-ticker.C:
		}
	}
}

func (p *OpenAIProvider) latestAssistantReply(ctx context.Context, threadID string) (string, error) {
	limit := 10
	order := "desc"
	list, err := p.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", NewProviderError("list_messages", "failed to list thread messages", err)
	}

	for _, msg := range list.Messages {
		if msg.Role != string(openai.ThreadMessageRoleAssistant) {
			continue
		}
		var reply strings.Builder
		for _, content := range msg.Content {
			if content.Text != nil {
				reply.WriteString(content.Text.Value)
			}
		}
		return normalizeReply(reply.String()), nil
	}

	// A completed run with no assistant message means the question had no
	// grounded answer.
	return OutOfContextReply, nil
}

// normalizeReply collapses empty or explicitly out-of-context replies to the
// canonical sentence so downstream heuristics have a stable target.
func normalizeReply(reply string) string {
	reply = strings.TrimSpace(reply)
	if reply == "" || strings.Contains(strings.ToLower(reply), "out of context") {
		return OutOfContextReply
	}
	return reply
}

// UploadDocument stores the file with the provider and attaches it to the
// assistant's vector store so future answers can be grounded in it.
func (p *OpenAIProvider) UploadDocument(ctx context.Context, filename string, data []byte) (string, error) {
	if p.config.VectorStoreID == "" {
		return "", NewConfigError("VECTOR_STORE_ID is required for uploads")
	}

	file, err := p.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    filename,
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", NewProviderError("upload", "failed to upload file", err)
	}

	_, err = p.client.CreateVectorStoreFile(ctx, p.config.VectorStoreID, openai.VectorStoreFileRequest{
		FileID: file.ID,
	})
	if err != nil {
		return "", NewProviderError("upload", "failed to attach file to vector store", err)
	}

	return file.ID, nil
}
