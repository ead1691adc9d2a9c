package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	tradeapp "github.com/Z3RO333/formularios/internal/application/trade"
	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/Z3RO333/formularios/internal/domain/trade"
	"github.com/gin-gonic/gin"
)

// AttachmentHandler handles order document endpoints
type AttachmentHandler struct {
	BaseHandler
	attachments *tradeapp.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachments *tradeapp.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Upload handles POST /orders/:id/attachments. Expects multipart fields
// "file", "doc_type" and optionally "competence" (YYYY-MM).
func (h *AttachmentHandler) Upload(c *gin.Context) {
	uploader, ok := h.actor(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.HandleError(c, shared.NewValidationError(shared.FieldError{Field: "file", Message: "This field is required"}))
		return
	}
	data, err := readUpload(file)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	attachment, err := h.attachments.Upload(c.Request.Context(), tradeapp.UploadInput{
		OrderID:     orderID,
		DocType:     c.PostForm("doc_type"),
		Competence:  c.PostForm("competence"),
		FileName:    file.Filename,
		ContentType: contentType,
		Data:        data,
		UploadedBy:  uploader,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, attachment)
}

// readUpload reads at most one byte past the size cap so oversize files fail
// validation without being buffered whole
func readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > trade.MaxAttachmentSize {
		return nil, shared.NewValidationError(shared.FieldError{Field: "file", Message: "file is too large"})
	}
	f, err := file.Open()
	if err != nil {
		return nil, shared.NewValidationError(shared.FieldError{Field: "file", Message: "file could not be read"})
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, trade.MaxAttachmentSize+1))
	if err != nil {
		return nil, shared.NewValidationError(shared.FieldError{Field: "file", Message: "file could not be read"})
	}
	return data, nil
}

// List handles GET /orders/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	orderID, ok := h.pathID(c)
	if !ok {
		return
	}

	attachments, err := h.attachments.List(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attachments)
}

// Download handles GET /attachments/:id/download
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	download, err := h.attachments.Download(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, download)
}
