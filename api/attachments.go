package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
)

// MaxAttachmentSize caps an uploaded supporting document.
const MaxAttachmentSize = 10 << 20

// AttachmentDir stores uploaded documents under one directory and hands
// back opaque tokens. It satisfies timeoff.AttachmentChecker.
type AttachmentDir struct {
	Root string
}

// Save writes r under a fresh token that keeps the original extension.
func (d AttachmentDir) Save(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	token := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	f, err := os.OpenFile(filepath.Join(d.Root, token), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, io.LimitReader(r, MaxAttachmentSize)); err != nil {
		f.Close()
		return "", err
	}
	return token, f.Close()
}

// Exists reports whether token names a stored file. Tokens with path
// separators never match.
func (d AttachmentDir) Exists(_ context.Context, token string) bool {
	if token == "" || token != filepath.Base(token) {
		return false
	}
	info, err := os.Stat(filepath.Join(d.Root, token))
	if errors.Is(err, fs.ErrNotExist) || err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// UploadAttachment stores the multipart "file" field and returns its token
// for use as attachment_path.
//
//	POST /api/attachments
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	if h.Uploads == nil {
		writeError(w, http.StatusNotFound, "attachments are not enabled", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxAttachmentSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, generic.NewValidationError("file", "missing or unreadable file: %v", err))
		return
	}
	defer file.Close()

	token, err := h.Uploads.Save(header.Filename, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Log.WithField("token", token).WithField("actor_id", actorFrom(r).ID).Info("attachment stored")
	writeJSON(w, http.StatusCreated, map[string]string{"attachment_path": token})
}
