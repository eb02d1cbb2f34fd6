// File: internal/handlers/upload_handler_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iyunix/go-docchat/internal/dtos"
	"github.com/iyunix/go-docchat/internal/middleware"
)

func newUploadRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uint(1))
	return req.WithContext(ctx)
}

func decodeUploadResponse(t *testing.T, rec *httptest.ResponseRecorder) dtos.UploadResponse {
	t.Helper()
	var resp dtos.UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	handler := NewUploadHandler(nil, 1<<20, []string{".pdf", ".txt"})

	req := newUploadRequest(t, map[string][]byte{"malware.exe": []byte("MZ")})
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with per-file result", rec.Code)
	}
	resp := decodeUploadResponse(t, rec)
	if resp.Success {
		t.Error("batch marked successful with no accepted files")
	}
	if len(resp.Files) != 1 || resp.Files[0].Accepted {
		t.Fatalf("results = %+v", resp.Files)
	}
	if resp.Files[0].Error == "" {
		t.Error("rejected file carries no reason")
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	handler := NewUploadHandler(nil, 16, []string{".txt"})

	req := newUploadRequest(t, map[string][]byte{
		"big.txt": bytes.Repeat([]byte("a"), 64),
	})
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeUploadResponse(t, rec)
	if len(resp.Files) != 1 || resp.Files[0].Accepted {
		t.Fatalf("oversized file not rejected: %+v", resp.Files)
	}
}

func TestUploadAcceptsBatchLargerThanFileLimit(t *testing.T) {
	// The per-file limit must not cap the whole request: three files
	// under the limit are valid even though together they exceed it.
	handler := NewUploadHandler(newTestChatService(t, newStubChatRepo(), &stubProvider{}), 16, []string{".txt"})

	req := newUploadRequest(t, map[string][]byte{
		"a.txt": bytes.Repeat([]byte("a"), 12),
		"b.txt": bytes.Repeat([]byte("b"), 12),
		"c.txt": bytes.Repeat([]byte("c"), 12),
	})
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp := decodeUploadResponse(t, rec)
	if !resp.Success {
		t.Error("batch of valid files not marked successful")
	}
	if len(resp.Files) != 3 {
		t.Fatalf("results = %+v", resp.Files)
	}
	for _, f := range resp.Files {
		if !f.Accepted {
			t.Errorf("file %s rejected: %s", f.Filename, f.Error)
		}
	}
}

func TestUploadExtensionCheckIsCaseInsensitive(t *testing.T) {
	handler := NewUploadHandler(nil, 1<<20, []string{".pdf"})

	if !handler.AllowedExts[".pdf"] {
		t.Fatal("allowlist not normalized")
	}

	req := newUploadRequest(t, map[string][]byte{"REPORT.XLSX": []byte("x")})
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	resp := decodeUploadResponse(t, rec)
	if len(resp.Files) != 1 || resp.Files[0].Accepted {
		t.Fatalf("results = %+v", resp.Files)
	}
}

func TestUploadRequiresFiles(t *testing.T) {
	handler := NewUploadHandler(nil, 1<<20, []string{".txt"})

	req := newUploadRequest(t, nil)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for empty batch", rec.Code)
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	handler := NewUploadHandler(nil, 1<<20, []string{".txt"})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
