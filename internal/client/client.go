// File: internal/client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iyunix/go-docchat/internal/conversation"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// APIClient talks to the docchat server. It doubles as the session's
// relay and the workspace's registry. A 401 from any call purges the
// stored session, forcing a fresh sign-in.
type APIClient struct {
	baseURL string
	http    *http.Client
	store   *TokenStore

	mu    sync.Mutex
	token string
}

func New(baseURL string, store *TokenStore) *APIClient {
	c := &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 3 * time.Minute},
		store:   store,
	}
	if session, err := store.Load(); err == nil {
		c.token = session.Token
	}
	return c
}

// SignedIn reports whether a session token is present.
func (c *APIClient) SignedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

type authResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	UserData     *userData `json:"user_data,omitempty"`
	SessionToken string    `json:"session_token,omitempty"`
}

type userData struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register creates an account. It does not sign the user in.
func (c *APIClient) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	var resp authResponse
	return c.doJSON(ctx, http.MethodPost, "/api/auth/register", body, &resp)
}

// Login authenticates and persists the session.
func (c *APIClient) Login(ctx context.Context, username, password string) (*Profile, error) {
	body := map[string]string{"username": username, "password": password}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.SessionToken == "" || resp.UserData == nil {
		return nil, fmt.Errorf("login response missing session token")
	}

	profile := Profile{
		UserID:   resp.UserData.UserID,
		Username: resp.UserData.Username,
		Email:    resp.UserData.Email,
	}
	c.mu.Lock()
	c.token = resp.SessionToken
	c.mu.Unlock()
	if err := c.store.Save(&Session{Token: resp.SessionToken, Profile: profile}); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout tells the server goodbye and purges the local session either way.
func (c *APIClient) Logout(ctx context.Context) error {
	// Best effort: the token is stateless, dropping it locally is what
	// ends the session.
	_ = c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	return c.purgeSession()
}

type chatRecord struct {
	ChatID        uint   `json:"chat_id"`
	Title         string `json:"title"`
	ThreadID      string `json:"thread_id"`
	CreatedAt     string `json:"created_at"`
	LastMessageAt string `json:"last_message_at"`
	MessageCount  int    `json:"message_count"`
}

func (r *chatRecord) summary() conversation.ChatSummary {
	s := conversation.ChatSummary{
		ID:           r.ChatID,
		Title:        r.Title,
		ThreadID:     r.ThreadID,
		MessageCount: r.MessageCount,
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		s.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, r.LastMessageAt); err == nil {
		s.LastMessageAt = &t
	}
	return s
}

// ListChats implements conversation.Registry.
func (c *APIClient) ListChats(ctx context.Context) ([]conversation.ChatSummary, error) {
	var resp struct {
		Chats []chatRecord `json:"chats"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/chats", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]conversation.ChatSummary, len(resp.Chats))
	for i := range resp.Chats {
		out[i] = resp.Chats[i].summary()
	}
	return out, nil
}

// CreateChat implements conversation.Registry.
func (c *APIClient) CreateChat(ctx context.Context, title string) (*conversation.ChatSummary, error) {
	var resp chatRecord
	body := map[string]string{"title": title}
	if err := c.doJSON(ctx, http.MethodPost, "/api/chats", body, &resp); err != nil {
		return nil, err
	}
	summary := resp.summary()
	return &summary, nil
}

// DeleteChat implements conversation.Registry.
func (c *APIClient) DeleteChat(ctx context.Context, chatID uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/chats/%d", chatID), nil, nil)
}

// RenameChat implements conversation.Registry.
func (c *APIClient) RenameChat(ctx context.Context, chatID uint, title string) error {
	body := map[string]string{"title": title}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/chats/%d/title", chatID), body, nil)
}

// LoadMessages implements conversation.Registry.
func (c *APIClient) LoadMessages(ctx context.Context, chatID uint) ([]conversation.Message, error) {
	var resp []struct {
		Role         string `json:"role"`
		Content      string `json:"content"`
		OutOfContext bool   `json:"is_out_of_context"`
		Timestamp    string `json:"timestamp"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/chats/%d/messages", chatID), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]conversation.Message, len(resp))
	for i, m := range resp {
		out[i] = conversation.Message{
			Role:         m.Role,
			Content:      m.Content,
			OutOfContext: m.OutOfContext,
		}
		if t, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
			out[i].SentAt = t
		}
	}
	return out, nil
}

// SendMessage implements conversation.Relay.
func (c *APIClient) SendMessage(ctx context.Context, chatID uint, threadID, content string) (*conversation.ExchangeResult, error) {
	body := map[string]interface{}{
		"message": content,
		"chat_id": chatID,
	}
	if threadID != "" {
		body["thread_id"] = threadID
	}
	var resp struct {
		Reply    string `json:"reply"`
		ThreadID string `json:"thread_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", body, &resp); err != nil {
		return nil, err
	}
	return &conversation.ExchangeResult{Reply: resp.Reply, ThreadID: resp.ThreadID}, nil
}

// UploadResult mirrors the server's per-file upload outcome.
type UploadResult struct {
	Filename string `json:"filename"`
	Accepted bool   `json:"accepted"`
	FileID   string `json:"file_id"`
	Error    string `json:"error"`
}

// UploadFiles pushes local files to the assistant's document store.
func (c *APIClient) UploadFiles(ctx context.Context, paths []string) ([]UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		part, err := writer.CreateFormFile("files", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", path, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if err := c.checkStatus(httpResp); err != nil {
		return nil, err
	}
	var resp struct {
		Files []UploadResult `json:"files"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return resp.Files, nil
}

// PushLog forwards a client-side event into the server's log stream.
func (c *APIClient) PushLog(ctx context.Context, level, message string) {
	body := map[string]string{"level": level, "message": message}
	_ = c.doJSON(ctx, http.MethodPost, "/api/log", body, nil)
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *APIClient) authorize(req *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkStatus turns non-2xx responses into APIErrors and purges the
// session when the server no longer accepts the token.
func (c *APIClient) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := resp.Status
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if json.Unmarshal(data, &payload) == nil {
			if payload.Error != "" {
				message = payload.Error
			} else if payload.Message != "" {
				message = payload.Message
			}
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.purgeSession()
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

func (c *APIClient) purgeSession() error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return c.store.Clear()
}
