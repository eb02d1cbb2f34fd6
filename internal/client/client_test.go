// File: internal/client/client_test.go
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	return NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestLoginStoresSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":       true,
			"message":       "Login successful",
			"session_token": "token123",
			"user_data": map[string]interface{}{
				"user_id":  7,
				"username": "alice",
				"email":    "alice@example.com",
			},
		})
	}))
	defer server.Close()

	store := newTestStore(t)
	api := New(server.URL, store)

	profile, err := api.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if profile.Username != "alice" || profile.UserID != 7 {
		t.Errorf("profile = %+v", profile)
	}
	if !api.SignedIn() {
		t.Error("client not signed in after login")
	}

	session, err := store.Load()
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if session.Token != "token123" {
		t.Errorf("stored token = %q", session.Token)
	}
}

func TestUnauthorizedPurgesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Invalid or expired session",
		})
	}))
	defer server.Close()

	store := newTestStore(t)
	if err := store.Save(&Session{Token: "stale"}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	api := New(server.URL, store)
	if !api.SignedIn() {
		t.Fatal("client did not load the stored session")
	}

	_, err := api.ListChats(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("ListChats: got %v, want 401 APIError", err)
	}

	if api.SignedIn() {
		t.Error("client still signed in after 401")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("stored session survived 401: %v", err)
	}
}

func TestSendMessageSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{
			"reply":     "ok",
			"thread_id": "thread_abc",
		})
	}))
	defer server.Close()

	store := newTestStore(t)
	if err := store.Save(&Session{Token: "token123"}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	api := New(server.URL, store)

	result, err := api.SendMessage(context.Background(), 1, "", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if gotAuth != "Bearer token123" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
	if result.Reply != "ok" || result.ThreadID != "thread_abc" {
		t.Errorf("result = %+v", result)
	}
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "Chat not found or unauthorized"})
	}))
	defer server.Close()

	api := New(server.URL, newTestStore(t))
	err := api.DeleteChat(context.Background(), 42)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Chat not found or unauthorized" {
		t.Errorf("message = %q", apiErr.Message)
	}
}
