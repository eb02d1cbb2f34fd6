// File: internal/handlers/upload_handler.go
package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/iyunix/go-docchat/internal/dtos"
	"github.com/iyunix/go-docchat/internal/middleware"
	"github.com/iyunix/go-docchat/internal/services"
)

// maxUploadBatchFiles bounds how many files one request may carry. The
// whole-request size cap scales with it, so a batch of individually
// valid files is never rejected wholesale.
const maxUploadBatchFiles = 16

// UploadHandler accepts grounding documents and pushes them into the
// assistant's vector store.
type UploadHandler struct {
	ChatService *services.ChatService
	MaxBytes    int64
	AllowedExts map[string]bool
}

func NewUploadHandler(cs *services.ChatService, maxBytes int64, allowedExts []string) *UploadHandler {
	exts := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(strings.TrimSpace(ext))] = true
	}
	return &UploadHandler{
		ChatService: cs,
		MaxBytes:    maxBytes,
		AllowedExts: exts,
	}
}

// Upload handles POST /api/upload. Each file is validated and uploaded
// independently: one bad file is reported in its slot of the result
// list without sinking the rest of the batch.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// The per-file limit is enforced in uploadOne; the request cap only
	// bounds the whole batch, with one extra MB for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBatchFiles*h.MaxBytes+1<<20)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		writeError(w, "Upload too large or malformed", http.StatusRequestEntityTooLarge)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, "No files provided", http.StatusBadRequest)
		return
	}
	if len(files) > maxUploadBatchFiles {
		writeError(w, fmt.Sprintf("At most %d files per upload", maxUploadBatchFiles), http.StatusBadRequest)
		return
	}

	results := make([]dtos.UploadResult, 0, len(files))
	anyAccepted := false
	for _, header := range files {
		result := h.uploadOne(r, header)
		if result.Accepted {
			anyAccepted = true
		}
		results = append(results, result)
	}

	writeJSON(w, http.StatusOK, dtos.UploadResponse{
		Success: anyAccepted,
		Files:   results,
	})
}

func (h *UploadHandler) uploadOne(r *http.Request, header *multipart.FileHeader) dtos.UploadResult {
	result := dtos.UploadResult{Filename: header.Filename}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !h.AllowedExts[ext] {
		result.Error = fmt.Sprintf("file type %q is not supported", ext)
		return result
	}
	if header.Size > h.MaxBytes {
		result.Error = fmt.Sprintf("file exceeds the %d MB limit", h.MaxBytes/(1<<20))
		return result
	}

	file, err := header.Open()
	if err != nil {
		result.Error = "could not read file"
		return result
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxBytes))
	if err != nil {
		result.Error = "could not read file"
		return result
	}

	fileID, err := h.ChatService.UploadDocument(r.Context(), header.Filename, data)
	if err != nil {
		log.Printf("[UploadHandler] Upload failed for %s: %v", header.Filename, err)
		result.Error = "upload to assistant failed"
		return result
	}

	result.Accepted = true
	result.FileID = fileID
	return result
}
