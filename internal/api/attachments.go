package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/maeum/internal/attachment"
)

// AttachmentHandler serves and accepts entry images.
type AttachmentHandler struct {
	store *attachment.Store
}

// NewAttachmentHandler creates a handler rooted at the data directory.
func NewAttachmentHandler(dataRoot string) *AttachmentHandler {
	return &AttachmentHandler{store: attachment.New(dataRoot)}
}

// ServeFile handles GET /attachments/{filename}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	abs, err := h.store.Path(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !h.store.Exists(name) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
// The stored file gets a fresh random name and an extension matching its
// content.
//
//	@Summary		Upload an entry image
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image"
//	@Success		201		{object}	AttachmentUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		413		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around a maximum-size image.
	r.Body = http.MaxBytesReader(w, r.Body, attachment.MaxSize+maxBodyBytes)

	if err := r.ParseMultipartForm(attachment.MaxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("image too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	saved, err := h.store.Save(file)
	if errors.Is(err, attachment.ErrTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("image too large"))
		return
	}
	if err != nil {
		writeError(w, "upload attachment", err)
		return
	}

	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{
		Filename: saved.Name,
		Size:     saved.Size,
		URL:      saved.URL,
	})
}
